package models

// AllLayersGroupName is the reserved group that automatically contains
// every layer.
const AllLayersGroupName = "All Layers"

// LayerGroup is a named set of layer ids used for bulk visibility and
// opacity control. LayerIDs has set semantics with insertion order.
type LayerGroup struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	LayerIDs []string `json:"layerIds"`
	Visible  bool     `json:"visible"`
	Opacity  float64  `json:"opacity"`
	Expanded bool     `json:"expanded"`
}

// HasLayer reports whether the group contains the layer id.
func (g *LayerGroup) HasLayer(id string) bool {
	for _, lid := range g.LayerIDs {
		if lid == id {
			return true
		}
	}
	return false
}

// AddLayer appends the layer id if not already present.
func (g *LayerGroup) AddLayer(id string) {
	if g.HasLayer(id) {
		return
	}
	g.LayerIDs = append(g.LayerIDs, id)
}

// RemoveLayer removes the layer id; absent ids are ignored.
func (g *LayerGroup) RemoveLayer(id string) {
	for i, lid := range g.LayerIDs {
		if lid == id {
			g.LayerIDs = append(g.LayerIDs[:i], g.LayerIDs[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy of the group.
func (g *LayerGroup) Clone() *LayerGroup {
	if g == nil {
		return nil
	}
	c := *g
	c.LayerIDs = append([]string(nil), g.LayerIDs...)
	return &c
}
