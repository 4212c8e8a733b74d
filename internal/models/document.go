package models

// WorkspaceDocument is the persisted shape of the whole workspace: the
// layer map, display order, groups and selection state. It is what the
// document store reads and writes and what export/import round-trips.
type WorkspaceDocument struct {
	Layers           map[string]*Layer `json:"layers" msgpack:"layers"`
	LayerOrder       []string          `json:"layerOrder" msgpack:"layerOrder"`
	Groups           []*LayerGroup     `json:"groups" msgpack:"groups"`
	AllLayersGroupID string            `json:"allLayersGroupId,omitempty" msgpack:"allLayersGroupId"`
	ActiveGroup      string            `json:"activeGroup,omitempty" msgpack:"activeGroup"`
	Timestamp        int64             `json:"timestamp" msgpack:"timestamp"`
}

// Clone returns a deep copy of the document.
func (d *WorkspaceDocument) Clone() *WorkspaceDocument {
	if d == nil {
		return nil
	}
	c := &WorkspaceDocument{
		LayerOrder:       append([]string(nil), d.LayerOrder...),
		AllLayersGroupID: d.AllLayersGroupID,
		ActiveGroup:      d.ActiveGroup,
		Timestamp:        d.Timestamp,
	}
	if d.Layers != nil {
		c.Layers = make(map[string]*Layer, len(d.Layers))
		for id, l := range d.Layers {
			c.Layers[id] = l.Clone()
		}
	}
	if d.Groups != nil {
		c.Groups = make([]*LayerGroup, len(d.Groups))
		for i, g := range d.Groups {
			c.Groups[i] = g.Clone()
		}
	}
	return c
}
