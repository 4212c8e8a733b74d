package render

import "github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"

// Render operation names, as sent to browser clients.
const (
	OpCreateDataSource = "render:createDataSource"
	OpAddFeatures      = "render:addFeatures"
	OpRemoveLayer      = "render:removeLayer"
	OpRemoveFeature    = "render:removeFeature"
	OpUpdateFeature    = "render:updateFeature"
	OpSetVisibility    = "render:setVisibility"
	OpSetOpacity       = "render:setOpacity"
	OpSetFilter        = "render:setFilter"
	OpSetZOrder        = "render:setZOrder"
	OpFitToLayer       = "render:fitToLayer"
)

// Op is one render operation as broadcast to map clients.
type Op struct {
	Type       string            `json:"type"`
	LayerID    string            `json:"layerId,omitempty"`
	FeatureID  string            `json:"featureId,omitempty"`
	Features   []*models.Feature `json:"features,omitempty"`
	Feature    *models.Feature   `json:"feature,omitempty"`
	Visible    *bool             `json:"visible,omitempty"`
	Opacity    *float64          `json:"opacity,omitempty"`
	FeatureIDs []string          `json:"featureIds,omitempty"`
	LayerIDs   []string          `json:"layerIds,omitempty"`
}

// Broadcaster delivers render operations to connected clients.
type Broadcaster interface {
	Broadcast(v any)
}

// WebRenderer implements Renderer by broadcasting operations over the
// websocket hub; the browser applies them against the map SDK.
type WebRenderer struct {
	b Broadcaster
}

// NewWebRenderer creates a renderer on top of a broadcaster.
func NewWebRenderer(b Broadcaster) *WebRenderer {
	return &WebRenderer{b: b}
}

func (r *WebRenderer) CreateDataSource(layerID string) {
	r.b.Broadcast(Op{Type: OpCreateDataSource, LayerID: layerID})
}

func (r *WebRenderer) AddFeatures(layerID string, features []*models.Feature) {
	r.b.Broadcast(Op{Type: OpAddFeatures, LayerID: layerID, Features: features})
}

func (r *WebRenderer) RemoveLayer(layerID string) {
	r.b.Broadcast(Op{Type: OpRemoveLayer, LayerID: layerID})
}

func (r *WebRenderer) RemoveFeature(layerID, featureID string) {
	r.b.Broadcast(Op{Type: OpRemoveFeature, LayerID: layerID, FeatureID: featureID})
}

func (r *WebRenderer) UpdateFeatureProperties(layerID string, feature *models.Feature) {
	r.b.Broadcast(Op{Type: OpUpdateFeature, LayerID: layerID, Feature: feature})
}

func (r *WebRenderer) SetLayerVisibility(layerID string, visible bool) {
	r.b.Broadcast(Op{Type: OpSetVisibility, LayerID: layerID, Visible: &visible})
}

func (r *WebRenderer) SetLayerOpacity(layerID string, opacity float64) {
	r.b.Broadcast(Op{Type: OpSetOpacity, LayerID: layerID, Opacity: &opacity})
}

func (r *WebRenderer) SetLayerFilter(layerID string, featureIDs []string) {
	r.b.Broadcast(Op{Type: OpSetFilter, LayerID: layerID, FeatureIDs: featureIDs})
}

func (r *WebRenderer) SetZOrder(layerIDs []string) {
	r.b.Broadcast(Op{Type: OpSetZOrder, LayerIDs: layerIDs})
}

func (r *WebRenderer) FitToLayer(layerID string) {
	r.b.Broadcast(Op{Type: OpFitToLayer, LayerID: layerID})
}
