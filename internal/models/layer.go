package models

// LayerType describes the geometry mix of a layer.
type LayerType string

const (
	LayerTypePoint   LayerType = "point"
	LayerTypePolygon LayerType = "polygon"
	LayerTypeMixed   LayerType = "mixed"
)

// LayerStyle describes property-driven rendering for a layer.
// ColorMap maps a property value to a CSS color.
type LayerStyle struct {
	StyleType     string            `json:"styleType,omitempty"`
	StyleProperty string            `json:"styleProperty,omitempty"`
	ColorMap      map[string]string `json:"colorMap,omitempty"`
}

// Layer is a named, ordered collection of features plus rendering state.
// GroupID is a back-reference to the user group the layer belongs to, not
// ownership; the empty string means ungrouped.
type Layer struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Type     LayerType      `json:"type"`
	Features []*Feature     `json:"features"`
	Visible  bool           `json:"visible"`
	Opacity  float64        `json:"opacity"`
	Color    string         `json:"color,omitempty"`
	GroupID  string         `json:"groupId,omitempty"`
	Style    *LayerStyle    `json:"style,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FeatureByID returns the feature with the given id and its index, or
// (nil, -1) when absent.
func (l *Layer) FeatureByID(id string) (*Feature, int) {
	for i, f := range l.Features {
		if f.ID == id {
			return f, i
		}
	}
	return nil, -1
}

// Clone returns a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	if l == nil {
		return nil
	}
	c := &Layer{
		ID:       l.ID,
		Name:     l.Name,
		Type:     l.Type,
		Features: CloneFeatures(l.Features),
		Visible:  l.Visible,
		Opacity:  l.Opacity,
		Color:    l.Color,
		GroupID:  l.GroupID,
	}
	if l.Style != nil {
		style := LayerStyle{
			StyleType:     l.Style.StyleType,
			StyleProperty: l.Style.StyleProperty,
		}
		if l.Style.ColorMap != nil {
			style.ColorMap = make(map[string]string, len(l.Style.ColorMap))
			for k, v := range l.Style.ColorMap {
				style.ColorMap[k] = v
			}
		}
		c.Style = &style
	}
	if l.Metadata != nil {
		c.Metadata = make(map[string]any, len(l.Metadata))
		for k, v := range l.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}

// Palette is the fixed layer color palette, assigned round-robin at
// layer creation.
var Palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#fabebe",
	"#008080", "#e6beff", "#9a6324", "#800000", "#aaffc3",
}
