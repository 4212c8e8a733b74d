// Package history provides command-based undo/redo over the layer
// manager: a closed set of tagged command variants dispatched through a
// single apply/invert pair, held on a bounded two-stack history.
package history

import (
	"fmt"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/layers"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

// Kind tags a command variant.
type Kind string

const (
	CmdCreateLayer   Kind = "create-layer"
	CmdDeleteLayer   Kind = "delete-layer"
	CmdRenameLayer   Kind = "rename-layer"
	CmdAddFeatures   Kind = "add-features"
	CmdDeleteFeature Kind = "delete-feature"
	CmdUpdateFeature Kind = "update-feature"
	CmdCreateGroup   Kind = "create-group"
	CmdDeleteGroup   Kind = "delete-group"
	CmdRenameGroup   Kind = "rename-group"
)

// Command pairs a forward mutation with the state its inverse needs.
// Snapshots are captured at apply time, so a command instance must only
// transition apply, invert, apply in strict alternation; the history
// stacks enforce that discipline.
type Command struct {
	Kind        Kind
	Description string

	LayerID   string
	GroupID   string
	FeatureID string
	Name      string
	LayerType models.LayerType
	Features  []*models.Feature
	Props     map[string]any
	Metadata  map[string]any

	// captured at apply time
	prevName      string
	prevProps     map[string]any
	layerSnapshot *models.Layer
	groupSnapshot *models.LayerGroup
	feature       *models.Feature
	featureIndex  int
	orderIndex    int
	addedIDs      []string
}

// NewCreateLayerCommand creates a layer on apply and deletes it on
// invert. Redo restores the captured snapshot so the id is stable across
// the undo/redo cycle.
func NewCreateLayerCommand(name string, features []*models.Feature, typ models.LayerType, metadata map[string]any) *Command {
	return &Command{
		Kind:        CmdCreateLayer,
		Description: fmt.Sprintf("Create layer %q", name),
		Name:        name,
		LayerType:   typ,
		Features:    features,
		Metadata:    metadata,
	}
}

// NewDeleteLayerCommand deletes a layer on apply and restores the
// captured snapshot, at its original display position, on invert.
func NewDeleteLayerCommand(layerID string) *Command {
	return &Command{
		Kind:        CmdDeleteLayer,
		Description: "Delete layer",
		LayerID:     layerID,
	}
}

// NewRenameLayerCommand renames a layer, remembering the prior name.
func NewRenameLayerCommand(layerID, name string) *Command {
	return &Command{
		Kind:        CmdRenameLayer,
		Description: fmt.Sprintf("Rename layer to %q", name),
		LayerID:     layerID,
		Name:        name,
	}
}

// NewAddFeaturesCommand appends features to a layer; invert deletes the
// ids that were added.
func NewAddFeaturesCommand(layerID string, features []*models.Feature) *Command {
	return &Command{
		Kind:        CmdAddFeatures,
		Description: fmt.Sprintf("Add %d feature(s)", len(features)),
		LayerID:     layerID,
		Features:    features,
	}
}

// NewDeleteFeatureCommand deletes one feature; invert re-inserts it at
// its original index.
func NewDeleteFeatureCommand(layerID, featureID string) *Command {
	return &Command{
		Kind:        CmdDeleteFeature,
		Description: "Delete feature",
		LayerID:     layerID,
		FeatureID:   featureID,
	}
}

// NewUpdateFeatureCommand merges properties into a feature; invert
// restores the prior property bag wholesale.
func NewUpdateFeatureCommand(layerID, featureID string, props map[string]any) *Command {
	return &Command{
		Kind:        CmdUpdateFeature,
		Description: "Update feature",
		LayerID:     layerID,
		FeatureID:   featureID,
		Props:       props,
	}
}

// NewCreateGroupCommand creates a layer group; invert deletes it.
func NewCreateGroupCommand(name string) *Command {
	return &Command{
		Kind:        CmdCreateGroup,
		Description: fmt.Sprintf("Create group %q", name),
		Name:        name,
	}
}

// NewDeleteGroupCommand deletes a layer group; invert restores it with
// its membership.
func NewDeleteGroupCommand(groupID string) *Command {
	return &Command{
		Kind:        CmdDeleteGroup,
		Description: "Delete group",
		GroupID:     groupID,
	}
}

// NewRenameGroupCommand renames a group, remembering the prior name.
func NewRenameGroupCommand(groupID, name string) *Command {
	return &Command{
		Kind:        CmdRenameGroup,
		Description: fmt.Sprintf("Rename group to %q", name),
		GroupID:     groupID,
		Name:        name,
	}
}

// apply runs the forward mutation, capturing whatever invert will need.
func apply(m *layers.Manager, c *Command) bool {
	switch c.Kind {
	case CmdCreateLayer:
		if c.layerSnapshot != nil {
			// redo after undo: restore the captured layer, same id
			m.RestoreLayer(c.layerSnapshot, c.orderIndex)
			return true
		}
		c.LayerID = m.CreateLayer(c.Name, c.Features, c.LayerType, c.Metadata)
		if layer, ok := m.GetLayer(c.LayerID); ok {
			c.layerSnapshot = layer.Clone()
			c.orderIndex = m.OrderIndex(c.LayerID)
		}
		return c.LayerID != ""

	case CmdDeleteLayer:
		c.orderIndex = m.OrderIndex(c.LayerID)
		c.layerSnapshot = m.DeleteLayer(c.LayerID)
		return c.layerSnapshot != nil

	case CmdRenameLayer:
		prev, ok := m.RenameLayer(c.LayerID, c.Name)
		if ok {
			c.prevName = prev
		}
		return ok

	case CmdAddFeatures:
		c.addedIDs = m.AddFeaturesToLayer(c.LayerID, c.Features)
		return len(c.addedIDs) > 0

	case CmdDeleteFeature:
		c.feature, c.featureIndex = m.DeleteFeature(c.LayerID, c.FeatureID)
		return c.feature != nil

	case CmdUpdateFeature:
		prev, ok := m.UpdateFeature(c.LayerID, c.FeatureID, c.Props)
		if ok {
			c.prevProps = prev
		}
		return ok

	case CmdCreateGroup:
		if c.groupSnapshot != nil {
			m.RestoreGroup(c.groupSnapshot)
			return true
		}
		g := m.CreateLayerGroup(c.Name)
		c.GroupID = g.ID
		c.groupSnapshot = g.Clone()
		return true

	case CmdDeleteGroup:
		c.groupSnapshot = m.DeleteLayerGroup(c.GroupID)
		return c.groupSnapshot != nil

	case CmdRenameGroup:
		prev, ok := m.RenameLayerGroup(c.GroupID, c.Name)
		if ok {
			c.prevName = prev
		}
		return ok
	}
	return false
}

// invert reverses a previously applied command. A nil captured snapshot
// degrades to a no-op: the entity vanished before capture.
func invert(m *layers.Manager, c *Command) bool {
	switch c.Kind {
	case CmdCreateLayer:
		if c.LayerID == "" {
			return true
		}
		// refresh the snapshot so redo restores later edits too
		if layer, ok := m.GetLayer(c.LayerID); ok {
			c.layerSnapshot = layer.Clone()
			c.orderIndex = m.OrderIndex(c.LayerID)
		}
		m.DeleteLayer(c.LayerID)
		return true

	case CmdDeleteLayer:
		if c.layerSnapshot == nil {
			return true
		}
		m.RestoreLayer(c.layerSnapshot, c.orderIndex)
		return true

	case CmdRenameLayer:
		m.RenameLayer(c.LayerID, c.prevName)
		return true

	case CmdAddFeatures:
		for _, id := range c.addedIDs {
			m.DeleteFeature(c.LayerID, id)
		}
		return true

	case CmdDeleteFeature:
		if c.feature == nil {
			return true
		}
		m.InsertFeatureAt(c.LayerID, c.feature, c.featureIndex)
		return true

	case CmdUpdateFeature:
		if c.prevProps == nil {
			return true
		}
		m.ReplaceFeatureProperties(c.LayerID, c.FeatureID, c.prevProps)
		return true

	case CmdCreateGroup:
		if c.GroupID == "" {
			return true
		}
		if g, ok := m.GetGroup(c.GroupID); ok {
			c.groupSnapshot = g.Clone()
		}
		m.DeleteLayerGroup(c.GroupID)
		return true

	case CmdDeleteGroup:
		if c.groupSnapshot == nil {
			return true
		}
		m.RestoreGroup(c.groupSnapshot)
		return true

	case CmdRenameGroup:
		m.RenameLayerGroup(c.GroupID, c.prevName)
		return true
	}
	return false
}
