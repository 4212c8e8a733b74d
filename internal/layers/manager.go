// Package layers implements the layer/group manager: CRUD and query
// operations over layers, groups and the features inside layers, built on
// the state store, reflected onto the renderer and announced on the bus.
package layers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/bus"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/render"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/state"
)

// Manager owns all layer, group and feature mutations. Missing-entity
// lookups degrade to a logged warning and a no-op; the UI treats stale
// ids as an expected state, not a fault.
type Manager struct {
	store    *state.Store
	bus      *bus.Bus
	renderer render.Renderer

	nextColor int
}

// NewManager wires a manager to its store, bus and renderer and creates
// the reserved "All Layers" group.
func NewManager(store *state.Store, b *bus.Bus, renderer render.Renderer) *Manager {
	m := &Manager{store: store, bus: b, renderer: renderer}
	m.ensureAllLayersGroup()
	return m
}

func (m *Manager) ensureAllLayersGroup() {
	if id := m.store.AllLayersGroupID(); id != "" {
		if _, ok := m.store.Group(id); ok {
			return
		}
	}
	g := &models.LayerGroup{
		ID:       uuid.New().String(),
		Name:     models.AllLayersGroupName,
		Visible:  true,
		Opacity:  1.0,
		Expanded: true,
	}
	for _, id := range m.store.LayerOrder() {
		g.AddLayer(id)
	}
	m.store.SetGroup(g)
	m.store.SetAllLayersGroupID(g.ID)
}

// CreateLayer builds a layer around the given features and returns its
// id. Names may collide; only ids are unique. Features without an id are
// assigned one.
func (m *Manager) CreateLayer(name string, features []*models.Feature, typ models.LayerType, metadata map[string]any) string {
	if typ == "" {
		typ = inferLayerType(features)
	}
	layer := &models.Layer{
		ID:       uuid.New().String(),
		Name:     name,
		Type:     typ,
		Features: features,
		Visible:  true,
		Opacity:  1.0,
		Color:    m.nextPaletteColor(),
		Metadata: metadata,
	}
	for _, f := range layer.Features {
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
	}

	m.store.SetLayer(layer)

	order := m.store.LayerOrder()
	order = append(order, layer.ID)
	m.store.SetLayerOrder(order)

	m.store.UpdateGroup(m.store.AllLayersGroupID(), func(g *models.LayerGroup) bool {
		g.AddLayer(layer.ID)
		return true
	})

	m.renderer.CreateDataSource(layer.ID)
	if len(layer.Features) > 0 {
		m.renderer.AddFeatures(layer.ID, layer.Features)
	}
	m.resyncZOrder()

	m.bus.Publish(bus.Event{
		Kind:    bus.LayerCreated,
		LayerID: layer.ID,
		Name:    name,
		Count:   len(layer.Features),
	})
	return layer.ID
}

// DeleteLayer removes the layer from the map, the display order, the
// filter side table and every group (cascade policy), and returns the
// removed snapshot for undo. Unknown ids return nil.
func (m *Manager) DeleteLayer(layerID string) *models.Layer {
	layer, ok := m.store.Layer(layerID)
	if !ok {
		log.Warn().Str("layer", layerID).Msg("delete: layer not found")
		return nil
	}
	snapshot := layer.Clone()

	m.store.DeleteLayer(layerID)

	order := m.store.LayerOrder()
	for i, id := range order {
		if id == layerID {
			order = append(order[:i], order[i+1:]...)
			break
		}
	}
	m.store.SetLayerOrder(order)
	m.store.ClearFilter(layerID)

	// Group membership cascades on delete; no dangling ids survive.
	for _, g := range m.store.Groups() {
		if g.HasLayer(layerID) {
			m.store.UpdateGroup(g.ID, func(g *models.LayerGroup) bool {
				g.RemoveLayer(layerID)
				return true
			})
		}
	}

	m.renderer.RemoveLayer(layerID)

	m.bus.Publish(bus.Event{
		Kind:    bus.LayerDeleted,
		LayerID: layerID,
		Name:    snapshot.Name,
		Layer:   snapshot,
	})
	return snapshot
}

// RestoreLayer re-inserts a previously deleted layer at the given
// display-order index, re-establishing group membership and rendering.
// Used by undo and by redo of layer creation.
func (m *Manager) RestoreLayer(snapshot *models.Layer, orderIndex int) {
	if snapshot == nil {
		return
	}
	layer := snapshot.Clone()
	if layer.GroupID != "" {
		if _, ok := m.store.Group(layer.GroupID); !ok {
			layer.GroupID = ""
		}
	}
	m.store.SetLayer(layer)

	order := m.store.LayerOrder()
	if orderIndex < 0 || orderIndex > len(order) {
		orderIndex = len(order)
	}
	order = append(order[:orderIndex], append([]string{layer.ID}, order[orderIndex:]...)...)
	m.store.SetLayerOrder(order)

	m.store.UpdateGroup(m.store.AllLayersGroupID(), func(g *models.LayerGroup) bool {
		g.AddLayer(layer.ID)
		return true
	})
	if layer.GroupID != "" {
		m.store.UpdateGroup(layer.GroupID, func(g *models.LayerGroup) bool {
			g.AddLayer(layer.ID)
			return true
		})
	}

	m.renderer.CreateDataSource(layer.ID)
	if len(layer.Features) > 0 {
		m.renderer.AddFeatures(layer.ID, layer.Features)
	}
	m.renderer.SetLayerVisibility(layer.ID, layer.Visible)
	m.renderer.SetLayerOpacity(layer.ID, layer.Opacity)
	m.resyncZOrder()

	m.bus.Publish(bus.Event{
		Kind:    bus.LayerCreated,
		LayerID: layer.ID,
		Name:    layer.Name,
		Count:   len(layer.Features),
	})
}

// RenameLayer sets a layer's name and returns the previous one.
func (m *Manager) RenameLayer(layerID, name string) (string, bool) {
	var prev string
	ok := m.store.UpdateLayer(layerID, func(l *models.Layer) bool {
		prev = l.Name
		l.Name = name
		return true
	})
	if !ok {
		log.Warn().Str("layer", layerID).Msg("rename: layer not found")
		return "", false
	}
	m.bus.Publish(bus.Event{Kind: bus.LayerRenamed, LayerID: layerID, Name: name})
	return prev, true
}

// MoveLayer swaps the layer with its neighbor in the display order; "up"
// moves it earlier (toward the top), "down" later. Boundary moves are
// no-ops. The renderer paint order is resynchronized afterwards.
func (m *Manager) MoveLayer(layerID, direction string) bool {
	order := m.store.LayerOrder()
	idx := -1
	for i, id := range order {
		if id == layerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		log.Warn().Str("layer", layerID).Msg("move: layer not found in order")
		return false
	}

	var swap int
	switch direction {
	case "up":
		swap = idx - 1
	case "down":
		swap = idx + 1
	default:
		log.Warn().Str("direction", direction).Msg("move: unknown direction")
		return false
	}
	if swap < 0 || swap >= len(order) {
		return false
	}

	order[idx], order[swap] = order[swap], order[idx]
	m.store.SetLayerOrder(order)
	m.resyncZOrder()

	m.bus.Publish(bus.Event{Kind: bus.LayerMoved, LayerID: layerID})
	return true
}

// resyncZOrder pushes the paint order to the renderer. The map SDK
// paints in addition order (last added is topmost), so the renderer
// receives the display order reversed: index 0 of the display order is
// re-added last and ends up on top.
func (m *Manager) resyncZOrder() {
	order := m.store.LayerOrder()
	reversed := make([]string, len(order))
	for i, id := range order {
		reversed[len(order)-1-i] = id
	}
	m.renderer.SetZOrder(reversed)
}

// SetLayerOpacity sets a layer's opacity. Callers clamp UI input; the
// manager stores what it is given.
func (m *Manager) SetLayerOpacity(layerID string, opacity float64) {
	ok := m.store.UpdateLayer(layerID, func(l *models.Layer) bool {
		l.Opacity = opacity
		return true
	})
	if !ok {
		log.Warn().Str("layer", layerID).Msg("opacity: layer not found")
		return
	}
	m.renderer.SetLayerOpacity(layerID, opacity)
	m.bus.Publish(bus.Event{Kind: bus.LayerUpdated, LayerID: layerID})
}

// SetLayerVisibility shows or hides a layer.
func (m *Manager) SetLayerVisibility(layerID string, visible bool) {
	ok := m.store.UpdateLayer(layerID, func(l *models.Layer) bool {
		l.Visible = visible
		return true
	})
	if !ok {
		log.Warn().Str("layer", layerID).Msg("visibility: layer not found")
		return
	}
	m.renderer.SetLayerVisibility(layerID, visible)
	m.bus.Publish(bus.Event{Kind: bus.LayerUpdated, LayerID: layerID})
}

// ToggleLayerVisibility flips a layer's visibility and returns the new
// state.
func (m *Manager) ToggleLayerVisibility(layerID string) bool {
	layer, ok := m.store.Layer(layerID)
	if !ok {
		log.Warn().Str("layer", layerID).Msg("visibility: layer not found")
		return false
	}
	next := !layer.Visible
	m.SetLayerVisibility(layerID, next)
	return next
}

// SetLayerStyle replaces a layer's property-driven style descriptor.
func (m *Manager) SetLayerStyle(layerID string, style *models.LayerStyle) {
	layer, ok := m.store.Layer(layerID)
	if !ok {
		log.Warn().Str("layer", layerID).Msg("style: layer not found")
		return
	}
	m.store.UpdateLayer(layerID, func(l *models.Layer) bool {
		l.Style = style
		return true
	})
	if len(layer.Features) > 0 {
		m.renderer.AddFeatures(layerID, layer.Features)
	}
	m.bus.Publish(bus.Event{Kind: bus.LayerUpdated, LayerID: layerID})
}

// GetLayer returns a copy of the layer with the given id.
func (m *Manager) GetLayer(layerID string) (*models.Layer, bool) {
	return m.store.Layer(layerID)
}

// Layers returns a copy of the layer map.
func (m *Manager) Layers() map[string]*models.Layer {
	return m.store.Layers()
}

// LayerOrder returns the display order, index 0 topmost.
func (m *Manager) LayerOrder() []string {
	return m.store.LayerOrder()
}

// OrderIndex returns a layer's position in the display order, -1 when
// absent.
func (m *Manager) OrderIndex(layerID string) int {
	for i, id := range m.store.LayerOrder() {
		if id == layerID {
			return i
		}
	}
	return -1
}

// FitToLayer asks the renderer to frame the layer's bounds.
func (m *Manager) FitToLayer(layerID string) {
	if _, ok := m.store.Layer(layerID); !ok {
		log.Warn().Str("layer", layerID).Msg("fit: layer not found")
		return
	}
	m.renderer.FitToLayer(layerID)
}

func (m *Manager) nextPaletteColor() string {
	color := models.Palette[m.nextColor%len(models.Palette)]
	m.nextColor++
	return color
}

func inferLayerType(features []*models.Feature) models.LayerType {
	points, polygons := 0, 0
	for _, f := range features {
		if f.IsPolygon() {
			polygons++
		} else {
			points++
		}
	}
	switch {
	case polygons > 0 && points > 0:
		return models.LayerTypeMixed
	case polygons > 0:
		return models.LayerTypePolygon
	default:
		return models.LayerTypePoint
	}
}

// stringifyProperty renders a property value the way filters and sorts
// compare it.
func stringifyProperty(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func matchesFilter(f *models.Feature, column, value string) bool {
	prop, _ := f.Property(column)
	return strings.Contains(
		strings.ToLower(stringifyProperty(prop)),
		strings.ToLower(value),
	)
}
