package layers

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/bus"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

// CreateLayerGroup creates an empty user group and returns it.
func (m *Manager) CreateLayerGroup(name string) *models.LayerGroup {
	g := &models.LayerGroup{
		ID:       uuid.New().String(),
		Name:     name,
		Visible:  true,
		Opacity:  1.0,
		Expanded: true,
	}
	m.store.SetGroup(g)
	m.bus.Publish(bus.Event{Kind: bus.GroupCreated, GroupID: g.ID, Name: name})
	return g
}

// RestoreGroup re-creates a deleted group from its snapshot, restoring
// member back-references for layers that still exist.
func (m *Manager) RestoreGroup(snapshot *models.LayerGroup) {
	if snapshot == nil {
		return
	}
	g := snapshot.Clone()

	kept := g.LayerIDs[:0]
	for _, layerID := range g.LayerIDs {
		ok := m.store.UpdateLayer(layerID, func(l *models.Layer) bool {
			l.GroupID = g.ID
			return true
		})
		if ok {
			kept = append(kept, layerID)
		}
	}
	g.LayerIDs = kept

	m.store.SetGroup(g)
	m.bus.Publish(bus.Event{Kind: bus.GroupCreated, GroupID: g.ID, Name: g.Name})
}

// AddLayerToGroup moves a layer into a group. A layer belongs to at most
// one user group: membership in any previous group is removed first. The
// reserved "All Layers" group is maintained independently.
func (m *Manager) AddLayerToGroup(layerID, groupID string) bool {
	layer, ok := m.store.Layer(layerID)
	if !ok {
		log.Warn().Str("layer", layerID).Msg("group add: layer not found")
		return false
	}
	if _, ok := m.store.Group(groupID); !ok {
		log.Warn().Str("group", groupID).Msg("group add: group not found")
		return false
	}

	if layer.GroupID != "" && layer.GroupID != groupID {
		m.store.UpdateGroup(layer.GroupID, func(g *models.LayerGroup) bool {
			g.RemoveLayer(layerID)
			return true
		})
	}

	m.store.UpdateGroup(groupID, func(g *models.LayerGroup) bool {
		g.AddLayer(layerID)
		return true
	})
	m.store.UpdateLayer(layerID, func(l *models.Layer) bool {
		l.GroupID = groupID
		return true
	})

	m.bus.Publish(bus.Event{Kind: bus.GroupUpdated, GroupID: groupID, LayerID: layerID})
	return true
}

// RemoveLayerFromGroup detaches a layer from its group without deleting
// anything.
func (m *Manager) RemoveLayerFromGroup(layerID, groupID string) {
	ok := m.store.UpdateGroup(groupID, func(g *models.LayerGroup) bool {
		g.RemoveLayer(layerID)
		return true
	})
	if !ok {
		log.Warn().Str("group", groupID).Msg("group remove: group not found")
		return
	}
	m.store.UpdateLayer(layerID, func(l *models.Layer) bool {
		if l.GroupID != groupID {
			return false
		}
		l.GroupID = ""
		return true
	})

	m.bus.Publish(bus.Event{Kind: bus.GroupUpdated, GroupID: groupID, LayerID: layerID})
}

// DeleteLayerGroup removes a group, un-grouping (never deleting) its
// member layers. The reserved "All Layers" group cannot be deleted.
// Returns the removed snapshot for undo.
func (m *Manager) DeleteLayerGroup(groupID string) *models.LayerGroup {
	if groupID == m.store.AllLayersGroupID() {
		log.Warn().Str("group", groupID).Msg("group delete: reserved group")
		return nil
	}
	group, ok := m.store.Group(groupID)
	if !ok {
		log.Warn().Str("group", groupID).Msg("group delete: group not found")
		return nil
	}
	snapshot := group.Clone()

	for _, layerID := range group.LayerIDs {
		m.store.UpdateLayer(layerID, func(l *models.Layer) bool {
			if l.GroupID != groupID {
				return false
			}
			l.GroupID = ""
			return true
		})
	}
	m.store.DeleteGroup(groupID)

	if m.store.ActiveGroup() == groupID {
		m.store.SetActiveGroup("")
	}

	m.bus.Publish(bus.Event{Kind: bus.GroupDeleted, GroupID: groupID, Group: snapshot})
	return snapshot
}

// RenameLayerGroup sets a group's name and returns the previous one.
func (m *Manager) RenameLayerGroup(groupID, name string) (string, bool) {
	var prev string
	ok := m.store.UpdateGroup(groupID, func(g *models.LayerGroup) bool {
		prev = g.Name
		g.Name = name
		return true
	})
	if !ok {
		log.Warn().Str("group", groupID).Msg("group rename: group not found")
		return "", false
	}
	m.bus.Publish(bus.Event{Kind: bus.GroupRenamed, GroupID: groupID, Name: name})
	return prev, true
}

// SetGroupVisibility cascades visibility to every member layer, with a
// renderer call per layer.
func (m *Manager) SetGroupVisibility(groupID string, visible bool) {
	var members []string
	ok := m.store.UpdateGroup(groupID, func(g *models.LayerGroup) bool {
		g.Visible = visible
		members = append([]string(nil), g.LayerIDs...)
		return true
	})
	if !ok {
		log.Warn().Str("group", groupID).Msg("group visibility: group not found")
		return
	}
	for _, layerID := range members {
		ok := m.store.UpdateLayer(layerID, func(l *models.Layer) bool {
			l.Visible = visible
			return true
		})
		if ok {
			m.renderer.SetLayerVisibility(layerID, visible)
		}
	}

	m.bus.Publish(bus.Event{Kind: bus.GroupUpdated, GroupID: groupID})
}

// ToggleGroupVisibility flips a group's visibility and returns the new
// state.
func (m *Manager) ToggleGroupVisibility(groupID string) bool {
	group, ok := m.store.Group(groupID)
	if !ok {
		log.Warn().Str("group", groupID).Msg("group visibility: group not found")
		return false
	}
	next := !group.Visible
	m.SetGroupVisibility(groupID, next)
	return next
}

// ToggleGroupExpansion flips a group's UI expansion state.
func (m *Manager) ToggleGroupExpansion(groupID string) bool {
	expanded := false
	ok := m.store.UpdateGroup(groupID, func(g *models.LayerGroup) bool {
		g.Expanded = !g.Expanded
		expanded = g.Expanded
		return true
	})
	if !ok {
		log.Warn().Str("group", groupID).Msg("group expansion: group not found")
		return false
	}
	m.bus.Publish(bus.Event{Kind: bus.GroupUpdated, GroupID: groupID})
	return expanded
}

// GetGroup returns a copy of the group with the given id.
func (m *Manager) GetGroup(groupID string) (*models.LayerGroup, bool) {
	return m.store.Group(groupID)
}

// Groups returns all groups in creation order.
func (m *Manager) Groups() []*models.LayerGroup {
	return m.store.Groups()
}

// SetActiveGroup records the active group selector.
func (m *Manager) SetActiveGroup(groupID string) {
	if groupID != "" {
		if _, ok := m.store.Group(groupID); !ok {
			log.Warn().Str("group", groupID).Msg("active group: group not found")
			return
		}
	}
	m.store.SetActiveGroup(groupID)
}
