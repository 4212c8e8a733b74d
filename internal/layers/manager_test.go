package layers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/bus"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/state"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/testutil"
)

func newTestManager(t *testing.T) (*Manager, *state.Store, *bus.Bus, *testutil.FakeRenderer) {
	t.Helper()
	st := state.New()
	b := bus.New()
	r := testutil.NewFakeRenderer()
	return NewManager(st, b, r), st, b, r
}

func pointFeatures(n int) []*models.Feature {
	out := make([]*models.Feature, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.NewPointFeature("", float64(i), float64(i), nil))
	}
	return out
}

func TestNewManagerCreatesAllLayersGroup(t *testing.T) {
	m, st, _, _ := newTestManager(t)

	id := st.AllLayersGroupID()
	require.NotEmpty(t, id)
	g, ok := m.GetGroup(id)
	require.True(t, ok)
	assert.Equal(t, models.AllLayersGroupName, g.Name)
	assert.True(t, g.Visible)
}

func TestCreateLayerDefaults(t *testing.T) {
	m, _, _, r := newTestManager(t)

	id := m.CreateLayer("Stores", pointFeatures(3), "", nil)
	require.NotEmpty(t, id)

	layer, ok := m.GetLayer(id)
	require.True(t, ok)
	assert.True(t, layer.Visible)
	assert.Equal(t, 1.0, layer.Opacity)
	assert.Equal(t, models.LayerTypePoint, layer.Type)
	assert.NotEmpty(t, layer.Color)
	for _, f := range layer.Features {
		assert.NotEmpty(t, f.ID)
	}

	// rendered: data source, features, paint order
	assert.Equal(t, 1, r.CallCount("createDataSource"))
	assert.Equal(t, 1, r.CallCount("addFeatures"))
	assert.Equal(t, []string{id}, r.ZOrder)

	// member of the reserved group
	all, _ := m.GetGroup(m.store.AllLayersGroupID())
	assert.True(t, all.HasLayer(id))
}

func TestPaletteCyclesDistinctColors(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	seen := make(map[string]bool)
	for i := 0; i < len(models.Palette); i++ {
		id := m.CreateLayer("L", nil, models.LayerTypePoint, nil)
		layer, _ := m.GetLayer(id)
		assert.False(t, seen[layer.Color], "color %s reused within one palette cycle", layer.Color)
		seen[layer.Color] = true
	}
}

func TestLayerNamesMayCollide(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	a := m.CreateLayer("Stores", nil, models.LayerTypePoint, nil)
	b := m.CreateLayer("Stores", nil, models.LayerTypePoint, nil)
	assert.NotEqual(t, a, b)
	assert.Len(t, m.LayerOrder(), 2)
}

func TestInferLayerType(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	poly := models.NewPolygonFeature("", "POLYGON ((0 0, 1 0, 1 1, 0 0))", nil)

	tests := []struct {
		name     string
		features []*models.Feature
		want     models.LayerType
	}{
		{"points only", pointFeatures(2), models.LayerTypePoint},
		{"polygons only", []*models.Feature{poly.Clone()}, models.LayerTypePolygon},
		{"mixed", append(pointFeatures(1), poly.Clone()), models.LayerTypeMixed},
		{"empty defaults to point", nil, models.LayerTypePoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := m.CreateLayer("L", tt.features, "", nil)
			layer, _ := m.GetLayer(id)
			assert.Equal(t, tt.want, layer.Type)
		})
	}
}

func TestDeleteLayerCascades(t *testing.T) {
	m, st, _, r := newTestManager(t)

	id := m.CreateLayer("Stores", pointFeatures(2), "", nil)
	g := m.CreateLayerGroup("Region")
	require.True(t, m.AddLayerToGroup(id, g.ID))
	m.ApplyFilter(id, "name", "x")

	snapshot := m.DeleteLayer(id)
	require.NotNil(t, snapshot)
	assert.Equal(t, id, snapshot.ID)

	_, ok := m.GetLayer(id)
	assert.False(t, ok)
	assert.NotContains(t, m.LayerOrder(), id)

	// no dangling membership anywhere
	for _, grp := range m.Groups() {
		assert.False(t, grp.HasLayer(id), "group %s still references deleted layer", grp.Name)
	}
	_, ok = st.Filter(id)
	assert.False(t, ok, "filter must not survive layer deletion")
	assert.Equal(t, 1, r.CallCount("removeLayer"))
}

func TestDeleteUnknownLayerIsNoOp(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	assert.Nil(t, m.DeleteLayer("missing"))
}

func TestRestoreLayerReestablishesState(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	a := m.CreateLayer("A", pointFeatures(1), "", nil)
	b := m.CreateLayer("B", pointFeatures(1), "", nil)

	snapshot := m.DeleteLayer(a)
	require.NotNil(t, snapshot)

	m.RestoreLayer(snapshot, 0)

	restored, ok := m.GetLayer(a)
	require.True(t, ok)
	assert.Equal(t, "A", restored.Name)
	assert.Equal(t, []string{a, b}, m.LayerOrder(), "restored at original position")

	all, _ := m.GetGroup(m.store.AllLayersGroupID())
	assert.True(t, all.HasLayer(a))
}

func TestRenameLayer(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	id := m.CreateLayer("Old", nil, models.LayerTypePoint, nil)
	prev, ok := m.RenameLayer(id, "New")
	require.True(t, ok)
	assert.Equal(t, "Old", prev)

	layer, _ := m.GetLayer(id)
	assert.Equal(t, "New", layer.Name)

	_, ok = m.RenameLayer("missing", "X")
	assert.False(t, ok)
}

func TestMoveLayerAndZOrder(t *testing.T) {
	m, _, _, r := newTestManager(t)

	a := m.CreateLayer("A", nil, models.LayerTypePoint, nil)
	b := m.CreateLayer("B", nil, models.LayerTypePoint, nil)
	c := m.CreateLayer("C", nil, models.LayerTypePoint, nil)

	require.Equal(t, []string{a, b, c}, m.LayerOrder())
	// renderer paints in reverse: index 0 of display order painted last
	assert.Equal(t, []string{c, b, a}, r.ZOrder)

	assert.True(t, m.MoveLayer(c, "up"))
	assert.Equal(t, []string{a, c, b}, m.LayerOrder())
	assert.Equal(t, []string{b, c, a}, r.ZOrder)

	// boundary moves are no-ops
	assert.False(t, m.MoveLayer(a, "up"))
	assert.Equal(t, []string{a, c, b}, m.LayerOrder())
	assert.False(t, m.MoveLayer(b, "down"))

	assert.False(t, m.MoveLayer(a, "sideways"))
	assert.False(t, m.MoveLayer("missing", "up"))
}

func TestVisibilityAndOpacity(t *testing.T) {
	m, _, _, r := newTestManager(t)

	id := m.CreateLayer("L", nil, models.LayerTypePoint, nil)

	visible := m.ToggleLayerVisibility(id)
	assert.False(t, visible)
	assert.False(t, r.Visibility[id])

	visible = m.ToggleLayerVisibility(id)
	assert.True(t, visible)

	m.SetLayerOpacity(id, 0.4)
	layer, _ := m.GetLayer(id)
	assert.Equal(t, 0.4, layer.Opacity)
	assert.Equal(t, 1, r.CallCount("setLayerOpacity "+id+" 0.40"))
}

func TestGetLayerReturnsIsolatedCopy(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	id := m.CreateLayer("L", pointFeatures(1), "", nil)

	layer, _ := m.GetLayer(id)
	layer.Name = "Scribbled"
	layer.Features[0].Properties = map[string]any{"k": "v"}

	fresh, _ := m.GetLayer(id)
	assert.Equal(t, "L", fresh.Name)
	assert.Empty(t, fresh.Features[0].Properties)
}

func TestLayerEvents(t *testing.T) {
	m, _, b, _ := newTestManager(t)

	var kinds []bus.Kind
	b.SubscribeAll(func(e bus.Event) { kinds = append(kinds, e.Kind) })

	id := m.CreateLayer("L", nil, models.LayerTypePoint, nil)
	m.RenameLayer(id, "Renamed")
	m.DeleteLayer(id)

	assert.Equal(t, []bus.Kind{bus.LayerCreated, bus.LayerRenamed, bus.LayerDeleted}, kinds)
}
