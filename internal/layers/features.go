package layers

import (
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/bus"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/state"
)

// AddFeaturesToLayer appends features to a layer and renders them.
// Features without an id are assigned one. Returns the ids added.
func (m *Manager) AddFeaturesToLayer(layerID string, features []*models.Feature) []string {
	ids := make([]string, 0, len(features))
	for _, f := range features {
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		ids = append(ids, f.ID)
	}

	ok := m.store.UpdateLayer(layerID, func(l *models.Layer) bool {
		l.Features = append(l.Features, models.CloneFeatures(features)...)
		return true
	})
	if !ok {
		log.Warn().Str("layer", layerID).Msg("add features: layer not found")
		return nil
	}

	m.renderer.AddFeatures(layerID, features)
	m.bus.Publish(bus.Event{
		Kind:    bus.FeatureAdded,
		LayerID: layerID,
		Count:   len(features),
	})
	return ids
}

// InsertFeatureAt re-inserts a feature at its original index, used by
// undo of a feature deletion.
func (m *Manager) InsertFeatureAt(layerID string, feature *models.Feature, index int) {
	ok := m.store.UpdateLayer(layerID, func(l *models.Layer) bool {
		i := index
		if i < 0 || i > len(l.Features) {
			i = len(l.Features)
		}
		l.Features = append(l.Features[:i],
			append([]*models.Feature{feature.Clone()}, l.Features[i:]...)...)
		return true
	})
	if !ok {
		log.Warn().Str("layer", layerID).Msg("insert feature: layer not found")
		return
	}

	m.renderer.AddFeatures(layerID, []*models.Feature{feature})
	m.bus.Publish(bus.Event{Kind: bus.FeatureAdded, LayerID: layerID, Count: 1})
}

// UpdateFeature shallow-merges new properties over a feature's existing
// bag; keys absent from the update are preserved. Returns the prior
// property bag for undo.
func (m *Manager) UpdateFeature(layerID, featureID string, props map[string]any) (map[string]any, bool) {
	var prev map[string]any
	var updated *models.Feature
	ok := m.store.UpdateLayer(layerID, func(l *models.Layer) bool {
		f, _ := l.FeatureByID(featureID)
		if f == nil {
			return false
		}
		prev = make(map[string]any, len(f.Properties))
		for k, v := range f.Properties {
			prev[k] = v
		}
		if f.Properties == nil {
			f.Properties = make(map[string]any, len(props))
		}
		for k, v := range props {
			f.Properties[k] = v
		}
		updated = f.Clone()
		return true
	})
	if !ok {
		log.Warn().Str("layer", layerID).Msg("update feature: layer not found")
		return nil, false
	}
	if updated == nil {
		log.Warn().Str("layer", layerID).Str("feature", featureID).
			Msg("update feature: feature not found")
		return nil, false
	}

	m.renderer.UpdateFeatureProperties(layerID, updated)
	m.bus.Publish(bus.Event{
		Kind:      bus.FeatureUpdated,
		LayerID:   layerID,
		FeatureID: featureID,
	})
	return prev, true
}

// ReplaceFeatureProperties swaps a feature's property bag wholesale,
// used by undo of a property merge.
func (m *Manager) ReplaceFeatureProperties(layerID, featureID string, props map[string]any) {
	var updated *models.Feature
	m.store.UpdateLayer(layerID, func(l *models.Layer) bool {
		f, _ := l.FeatureByID(featureID)
		if f == nil {
			return false
		}
		f.Properties = props
		updated = f.Clone()
		return true
	})
	if updated == nil {
		return
	}
	m.renderer.UpdateFeatureProperties(layerID, updated)
	m.bus.Publish(bus.Event{
		Kind:      bus.FeatureUpdated,
		LayerID:   layerID,
		FeatureID: featureID,
	})
}

// DeleteFeature removes a feature by id. An unknown feature id is a
// silent no-op. Returns the removed feature and its index for undo.
func (m *Manager) DeleteFeature(layerID, featureID string) (*models.Feature, int) {
	var removed *models.Feature
	idx := -1
	ok := m.store.UpdateLayer(layerID, func(l *models.Layer) bool {
		f, i := l.FeatureByID(featureID)
		if f == nil {
			return false
		}
		removed, idx = f, i
		l.Features = append(l.Features[:i], l.Features[i+1:]...)
		return true
	})
	if !ok {
		log.Warn().Str("layer", layerID).Msg("delete feature: layer not found")
		return nil, -1
	}
	if removed == nil {
		return nil, -1
	}

	m.renderer.RemoveFeature(layerID, featureID)
	m.bus.Publish(bus.Event{
		Kind:      bus.FeatureDeleted,
		LayerID:   layerID,
		FeatureID: featureID,
		Feature:   removed.Clone(),
	})
	return removed, idx
}

// ApplyFilter records a display filter for the layer and tells the
// renderer to show only the matching subset. The layer's feature list is
// never modified; clearing the filter recovers everything.
func (m *Manager) ApplyFilter(layerID, column, value string) {
	layer, ok := m.store.Layer(layerID)
	if !ok {
		log.Warn().Str("layer", layerID).Msg("filter: layer not found")
		return
	}

	m.store.SetFilter(layerID, state.Filter{Column: column, Value: value})

	matching := make([]string, 0, len(layer.Features))
	for _, f := range layer.Features {
		if matchesFilter(f, column, value) {
			matching = append(matching, f.ID)
		}
	}
	m.renderer.SetLayerFilter(layerID, matching)

	m.bus.Publish(bus.Event{Kind: bus.FilterApplied, LayerID: layerID, Name: column})
}

// ClearFilter removes a layer's display filter and shows all features.
func (m *Manager) ClearFilter(layerID string) {
	if _, ok := m.store.Filter(layerID); !ok {
		return
	}
	m.store.ClearFilter(layerID)
	m.renderer.SetLayerFilter(layerID, nil)
	m.bus.Publish(bus.Event{Kind: bus.FilterCleared, LayerID: layerID})
}

// SortLayer reorders a layer's feature list in place by the given
// property column. When both values parse as numbers they compare
// numerically; otherwise they compare as strings by Unicode code point.
func (m *Manager) SortLayer(layerID, column, direction string) {
	desc := direction == "desc"
	ok := m.store.UpdateLayer(layerID, func(l *models.Layer) bool {
		sort.SliceStable(l.Features, func(i, j int) bool {
			a, _ := l.Features[i].Property(column)
			b, _ := l.Features[j].Property(column)
			less := compareValues(a, b) < 0
			if desc {
				return !less && compareValues(a, b) != 0
			}
			return less
		})
		return true
	})
	if !ok {
		log.Warn().Str("layer", layerID).Msg("sort: layer not found")
		return
	}

	m.bus.Publish(bus.Event{Kind: bus.LayerUpdated, LayerID: layerID})
}

// compareValues orders two property values: numerically when both parse
// as floats, else by Unicode code-point string comparison.
func compareValues(a, b any) int {
	as, bs := stringifyProperty(a), stringifyProperty(b)
	af, aerr := strconv.ParseFloat(as, 64)
	bf, berr := strconv.ParseFloat(bs, 64)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}
