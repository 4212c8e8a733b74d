package models

import "testing"

func TestFeatureValidate(t *testing.T) {
	point := func(lat, lng float64) *Feature { return NewPointFeature("f", lat, lng, nil) }

	tests := []struct {
		name    string
		feature *Feature
		wantErr bool
	}{
		{"valid point", point(35.6, 139.7), false},
		{"valid polygon", NewPolygonFeature("f", "POLYGON ((0 0, 1 0, 1 1, 0 0))", nil), false},
		{"extreme but legal coords", point(-90, 180), false},
		{"latitude too high", point(90.1, 0), true},
		{"latitude too low", point(-90.1, 0), true},
		{"longitude too high", point(0, 180.1), true},
		{"no geometry", &Feature{ID: "f"}, true},
		{"both geometries", func() *Feature {
			f := point(1, 2)
			f.WKT = "POLYGON ((0 0, 1 0, 1 1, 0 0))"
			return f
		}(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.feature.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFeatureClone(t *testing.T) {
	f := NewPointFeature("f1", 1, 2, map[string]any{"city": "Tokyo"})
	c := f.Clone()

	*c.Latitude = 99
	c.Properties["city"] = "Osaka"

	if *f.Latitude != 1 {
		t.Errorf("Clone shares latitude pointer: %v", *f.Latitude)
	}
	if f.Properties["city"] != "Tokyo" {
		t.Errorf("Clone shares property map: %v", f.Properties["city"])
	}

	var nilFeature *Feature
	if nilFeature.Clone() != nil {
		t.Error("Cloning nil should return nil")
	}
}

func TestLayerClone(t *testing.T) {
	l := &Layer{
		ID:       "a",
		Name:     "Alpha",
		Features: []*Feature{NewPointFeature("f1", 1, 2, nil)},
		Style:    &LayerStyle{StyleType: "category", StyleProperty: "tier"},
		Metadata: map[string]any{"source": "test"},
	}
	c := l.Clone()

	c.Name = "Mutated"
	c.Features[0].ID = "mutated"
	c.Style.StyleProperty = "mutated"
	c.Metadata["source"] = "mutated"

	if l.Name != "Alpha" || l.Features[0].ID != "f1" {
		t.Errorf("Clone shares layer state: %+v", l)
	}
	if l.Style.StyleProperty != "tier" {
		t.Errorf("Clone shares style: %+v", l.Style)
	}
	if l.Metadata["source"] != "test" {
		t.Errorf("Clone shares metadata: %v", l.Metadata)
	}
}

func TestGroupMembership(t *testing.T) {
	g := &LayerGroup{ID: "g", Name: "G"}

	g.AddLayer("a")
	g.AddLayer("b")
	g.AddLayer("a") // duplicate add is a no-op
	if len(g.LayerIDs) != 2 {
		t.Errorf("Expected 2 members, got %v", g.LayerIDs)
	}
	if !g.HasLayer("a") || g.HasLayer("c") {
		t.Error("HasLayer gave wrong answer")
	}

	g.RemoveLayer("a")
	if g.HasLayer("a") || len(g.LayerIDs) != 1 {
		t.Errorf("Remove failed: %v", g.LayerIDs)
	}
	g.RemoveLayer("missing")
	if len(g.LayerIDs) != 1 {
		t.Errorf("Removing a non-member changed the group: %v", g.LayerIDs)
	}
}

func TestWorkspaceDocumentClone(t *testing.T) {
	doc := &WorkspaceDocument{
		Layers:     map[string]*Layer{"a": {ID: "a", Name: "Alpha"}},
		LayerOrder: []string{"a"},
		Groups:     []*LayerGroup{{ID: "g", Name: "G", LayerIDs: []string{"a"}}},
	}
	c := doc.Clone()

	c.Layers["a"].Name = "Mutated"
	c.LayerOrder[0] = "mutated"
	c.Groups[0].LayerIDs[0] = "mutated"

	if doc.Layers["a"].Name != "Alpha" {
		t.Error("Clone shares layer map")
	}
	if doc.LayerOrder[0] != "a" {
		t.Error("Clone shares order slice")
	}
	if doc.Groups[0].LayerIDs[0] != "a" {
		t.Error("Clone shares group membership")
	}
}
