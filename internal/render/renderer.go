// Package render defines the boundary to the browser-side map SDK. The
// backend never talks to Google Maps directly; it emits render operations
// that connected clients apply to their map instance.
package render

import "github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"

// Renderer reflects workspace mutations onto the map. Calls are
// fire-and-forget: the map is a view, not a source of truth, so render
// failures never propagate back into state.
type Renderer interface {
	// CreateDataSource registers a layer with the map before any
	// features are added to it.
	CreateDataSource(layerID string)

	// AddFeatures renders features into an existing layer.
	AddFeatures(layerID string, features []*models.Feature)

	// RemoveLayer removes a layer's visual representation entirely.
	RemoveLayer(layerID string)

	// RemoveFeature removes a single feature from a layer.
	RemoveFeature(layerID, featureID string)

	// UpdateFeatureProperties re-renders a feature after its property
	// bag changed.
	UpdateFeatureProperties(layerID string, feature *models.Feature)

	// SetLayerVisibility shows or hides a whole layer.
	SetLayerVisibility(layerID string, visible bool)

	// SetLayerOpacity adjusts a layer's opacity.
	SetLayerOpacity(layerID string, opacity float64)

	// SetLayerFilter restricts the displayed features to the given ids.
	// A nil slice clears the filter and shows everything.
	SetLayerFilter(layerID string, featureIDs []string)

	// SetZOrder replaces the paint order. Layers are painted in slice
	// order, so the last entry ends up visually topmost.
	SetZOrder(layerIDs []string)

	// FitToLayer pans and zooms the map to a layer's bounds.
	FitToLayer(layerID string)
}
