// Package testutil provides test doubles shared across package tests.
package testutil

import (
	"fmt"
	"sync"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

// FakeRenderer records every render call so tests can assert on what
// reached the map boundary without a browser attached.
type FakeRenderer struct {
	mu sync.Mutex

	// Calls holds one formatted entry per render call, in order.
	Calls []string

	// ZOrder is the paint order from the most recent SetZOrder call.
	ZOrder []string

	// Filters maps layer id to the feature ids of its active filter.
	// A cleared filter removes the entry.
	Filters map[string][]string

	// Visibility maps layer id to the last visibility set for it.
	Visibility map[string]bool
}

// NewFakeRenderer creates an empty recording renderer.
func NewFakeRenderer() *FakeRenderer {
	return &FakeRenderer{
		Filters:    make(map[string][]string),
		Visibility: make(map[string]bool),
	}
}

func (r *FakeRenderer) record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, fmt.Sprintf(format, args...))
}

// Reset clears the recorded calls but keeps derived state.
func (r *FakeRenderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = nil
}

// CallCount returns how many calls matched the given prefix.
func (r *FakeRenderer) CallCount(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (r *FakeRenderer) CreateDataSource(layerID string) {
	r.record("createDataSource %s", layerID)
}

func (r *FakeRenderer) AddFeatures(layerID string, features []*models.Feature) {
	r.record("addFeatures %s n=%d", layerID, len(features))
}

func (r *FakeRenderer) RemoveLayer(layerID string) {
	r.record("removeLayer %s", layerID)
	r.mu.Lock()
	delete(r.Filters, layerID)
	delete(r.Visibility, layerID)
	r.mu.Unlock()
}

func (r *FakeRenderer) RemoveFeature(layerID, featureID string) {
	r.record("removeFeature %s %s", layerID, featureID)
}

func (r *FakeRenderer) UpdateFeatureProperties(layerID string, feature *models.Feature) {
	r.record("updateFeatureProperties %s %s", layerID, feature.ID)
}

func (r *FakeRenderer) SetLayerVisibility(layerID string, visible bool) {
	r.record("setLayerVisibility %s %t", layerID, visible)
	r.mu.Lock()
	r.Visibility[layerID] = visible
	r.mu.Unlock()
}

func (r *FakeRenderer) SetLayerOpacity(layerID string, opacity float64) {
	r.record("setLayerOpacity %s %.2f", layerID, opacity)
}

func (r *FakeRenderer) SetLayerFilter(layerID string, featureIDs []string) {
	r.record("setLayerFilter %s n=%d", layerID, len(featureIDs))
	r.mu.Lock()
	if featureIDs == nil {
		delete(r.Filters, layerID)
	} else {
		r.Filters[layerID] = append([]string(nil), featureIDs...)
	}
	r.mu.Unlock()
}

func (r *FakeRenderer) SetZOrder(layerIDs []string) {
	r.record("setZOrder n=%d", len(layerIDs))
	r.mu.Lock()
	r.ZOrder = append([]string(nil), layerIDs...)
	r.mu.Unlock()
}

func (r *FakeRenderer) FitToLayer(layerID string) {
	r.record("fitToLayer %s", layerID)
}
