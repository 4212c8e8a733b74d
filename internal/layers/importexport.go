package layers

import (
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/bus"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/state"
)

// ExportAllLayers serializes the full workspace, preserving ids so a
// later import is idempotent on id rather than appending duplicates.
func (m *Manager) ExportAllLayers() *models.WorkspaceDocument {
	return m.store.Snapshot()
}

// ImportLayers replaces the current layer set with the document's.
// Existing layers are deleted first, the incoming set is rebuilt with
// each layer's saved visibility, opacity and style re-applied to the
// renderer, and the saved order is filtered down to ids that exist after
// import before the z-order resync.
func (m *Manager) ImportLayers(doc *models.WorkspaceDocument) {
	if doc == nil {
		return
	}

	for id := range m.store.Layers() {
		m.renderer.RemoveLayer(id)
	}

	m.store.Restore(doc)
	m.ensureAllLayersGroup()

	existing := m.store.Layers()

	order := m.store.LayerOrder()
	kept := order[:0]
	for _, id := range order {
		if _, ok := existing[id]; ok {
			kept = append(kept, id)
		}
	}
	// Layers missing from the saved order still need a slot.
	for id := range existing {
		found := false
		for _, kid := range kept {
			if kid == id {
				found = true
				break
			}
		}
		if !found {
			kept = append(kept, id)
		}
	}
	m.store.SetLayerOrder(kept)

	// Stale layer references in saved groups are dropped.
	for _, g := range m.store.Groups() {
		m.store.UpdateGroup(g.ID, func(g *models.LayerGroup) bool {
			members := g.LayerIDs[:0]
			for _, id := range g.LayerIDs {
				if _, ok := existing[id]; ok {
					members = append(members, id)
				}
			}
			changed := len(members) != len(g.LayerIDs)
			g.LayerIDs = members
			return changed
		})
	}
	m.store.UpdateGroup(m.store.AllLayersGroupID(), func(g *models.LayerGroup) bool {
		for _, id := range kept {
			g.AddLayer(id)
		}
		return true
	})

	for _, id := range kept {
		layer := existing[id]
		m.renderer.CreateDataSource(id)
		if len(layer.Features) > 0 {
			m.renderer.AddFeatures(id, layer.Features)
		}
		m.renderer.SetLayerVisibility(id, layer.Visible)
		m.renderer.SetLayerOpacity(id, layer.Opacity)
	}
	m.resyncZOrder()

	m.bus.Publish(bus.Event{Kind: bus.WorkspaceLoaded, Count: len(kept)})
}

// CurrentFilter returns a layer's display filter, if any.
func (m *Manager) CurrentFilter(layerID string) (state.Filter, bool) {
	return m.store.Filter(layerID)
}
