package layers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

func TestExportImportRoundTrip(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	a := m.CreateLayer("A", namedPoints("p1", "p2"), "", nil)
	b := m.CreateLayer("B", namedPoints("p3"), "", nil)
	g := m.CreateLayerGroup("Region")
	m.AddLayerToGroup(a, g.ID)
	m.SetLayerOpacity(b, 0.3)
	m.ToggleLayerVisibility(b)
	m.MoveLayer(b, "up")

	doc := m.ExportAllLayers()

	// import into a fresh workspace
	m2, _, _, r2 := newTestManager(t)
	m2.ImportLayers(doc)

	assert.Equal(t, []string{b, a}, m2.LayerOrder(), "order survives with same ids")

	la, ok := m2.GetLayer(a)
	require.True(t, ok)
	assert.Equal(t, "A", la.Name)
	assert.Len(t, la.Features, 2)
	assert.Equal(t, g.ID, la.GroupID)

	lb, _ := m2.GetLayer(b)
	assert.Equal(t, 0.3, lb.Opacity)
	assert.False(t, lb.Visible)
	// saved visibility and opacity re-applied to the renderer
	assert.False(t, r2.Visibility[b])
	assert.Equal(t, 1, r2.CallCount("setLayerOpacity "+b+" 0.30"))

	grp, ok := m2.GetGroup(g.ID)
	require.True(t, ok)
	assert.True(t, grp.HasLayer(a))
}

func TestImportIsIdempotentOnID(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	m.CreateLayer("A", namedPoints("p1"), "", nil)
	doc := m.ExportAllLayers()

	m.ImportLayers(doc)
	m.ImportLayers(doc)

	assert.Len(t, m.LayerOrder(), 1, "re-import replaces, never duplicates")
	assert.Len(t, m.Layers(), 1)
}

func TestImportToleratesCorruptDocument(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	a := m.CreateLayer("A", nil, models.LayerTypePoint, nil)
	doc := m.ExportAllLayers()

	// order references a vanished layer, group references another
	doc.LayerOrder = append(doc.LayerOrder, "ghost-layer")
	doc.Groups = append(doc.Groups, &models.LayerGroup{
		ID:       "g-stale",
		Name:     "Stale",
		LayerIDs: []string{"ghost-member", a},
	})

	m.ImportLayers(doc)

	assert.Equal(t, []string{a}, m.LayerOrder())
	grp, ok := m.GetGroup("g-stale")
	require.True(t, ok)
	assert.Equal(t, []string{a}, grp.LayerIDs, "stale member refs dropped")
}

func TestImportNilIsNoOp(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	m.CreateLayer("A", nil, models.LayerTypePoint, nil)
	m.ImportLayers(nil)
	assert.Len(t, m.LayerOrder(), 1)
}

func TestImportRebuildsReservedGroup(t *testing.T) {
	m, st, _, _ := newTestManager(t)

	a := m.CreateLayer("A", nil, models.LayerTypePoint, nil)
	doc := m.ExportAllLayers()

	// documents from older saves may lack the reserved group entirely
	doc.AllLayersGroupID = ""
	kept := doc.Groups[:0]
	for _, g := range doc.Groups {
		if g.Name != models.AllLayersGroupName {
			kept = append(kept, g)
		}
	}
	doc.Groups = kept

	m.ImportLayers(doc)

	id := st.AllLayersGroupID()
	require.NotEmpty(t, id)
	all, ok := m.GetGroup(id)
	require.True(t, ok)
	assert.True(t, all.HasLayer(a))
}
