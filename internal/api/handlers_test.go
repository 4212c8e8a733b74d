package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/bus"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/docstore"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/history"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/layers"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/state"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/testutil"
)

type testEnv struct {
	e       *echo.Echo
	h       *Handler
	mgr     *layers.Manager
	hist    *history.History
	st      *state.Store
	rend    *testutil.FakeRenderer
	webhook *WebhookDispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := state.New()
	b := bus.New()
	rend := testutil.NewFakeRenderer()
	mgr := layers.NewManager(st, b, rend)
	hist := history.New(mgr, 0)

	docs, err := docstore.NewFileStore(filepath.Join(t.TempDir(), "workspace.json"))
	require.NoError(t, err)
	saver := docstore.NewSaver(docs, st, b, time.Hour)
	webhooks := NewWebhookDispatcher(b)

	return &testEnv{
		e:       echo.New(),
		h:       NewHandler(mgr, hist, st, docs, saver, nil, webhooks),
		mgr:     mgr,
		hist:    hist,
		st:      st,
		rend:    rend,
		webhook: webhooks,
	}
}

func (env *testEnv) request(t *testing.T, method, path, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	names := make([]string, 0, len(params)/2)
	values := make([]string, 0, len(params)/2)
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)
	c, rec := env.request(t, http.MethodGet, "/api/health", "")

	require.NoError(t, env.h.HandleHealth(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestCreateAndListLayers(t *testing.T) {
	env := newTestEnv(t)

	c, rec := env.request(t, http.MethodPost, "/api/layers",
		`{"name":"Stores","features":[{"latitude":35.6,"longitude":139.7,"properties":{"city":"Tokyo"}}]}`)
	require.NoError(t, env.h.HandleCreateLayer(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decodeJSON(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Stores", created.Name)

	c, rec = env.request(t, http.MethodGet, "/api/layers", "")
	require.NoError(t, env.h.HandleListLayers(c))
	var list []layerSummary
	decodeJSON(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, 1, list[0].FeatureCount)
	assert.True(t, list[0].Visible)
}

func TestCreateLayerValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"features":[]}`},
		{"invalid feature", `{"name":"L","features":[{"latitude":999,"longitude":0}]}`},
		{"malformed JSON", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := env.request(t, http.MethodPost, "/api/layers", tt.body)
			err := env.h.HandleCreateLayer(c)
			require.Error(t, err)
			apiErr, ok := err.(*APIError)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		})
	}
}

func TestGetLayerNotFound(t *testing.T) {
	env := newTestEnv(t)

	c, _ := env.request(t, http.MethodGet, "/api/layers/missing", "", "id", "missing")
	err := env.h.HandleGetLayer(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, err.(*APIError).Status)
}

func TestDeleteRenameUndoFlow(t *testing.T) {
	env := newTestEnv(t)
	id := env.mgr.CreateLayer("Stores", nil, "point", nil)

	// rename through the history
	c, rec := env.request(t, http.MethodPut, "/api/layers/"+id+"/name",
		`{"name":"Renamed"}`, "id", id)
	require.NoError(t, env.h.HandleRenameLayer(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// undo restores the old name
	c, rec = env.request(t, http.MethodPost, "/api/history/undo", "")
	require.NoError(t, env.h.HandleUndo(c))
	var undoResp struct {
		Undone bool `json:"undone"`
	}
	decodeJSON(t, rec, &undoResp)
	assert.True(t, undoResp.Undone)

	layer, _ := env.mgr.GetLayer(id)
	assert.Equal(t, "Stores", layer.Name)

	// delete, then undo brings it back
	c, rec = env.request(t, http.MethodDelete, "/api/layers/"+id, "", "id", id)
	require.NoError(t, env.h.HandleDeleteLayer(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := env.mgr.GetLayer(id)
	assert.False(t, ok)

	c, _ = env.request(t, http.MethodPost, "/api/history/undo", "")
	require.NoError(t, env.h.HandleUndo(c))
	_, ok = env.mgr.GetLayer(id)
	assert.True(t, ok)
}

func TestUndoOnEmptyStackIsOK(t *testing.T) {
	env := newTestEnv(t)

	c, rec := env.request(t, http.MethodPost, "/api/history/undo", "")
	require.NoError(t, env.h.HandleUndo(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"undone":false`)
}

func TestHistoryStatus(t *testing.T) {
	env := newTestEnv(t)
	env.hist.Execute(history.NewCreateLayerCommand("A", nil, "point", nil))

	c, rec := env.request(t, http.MethodGet, "/api/history", "")
	require.NoError(t, env.h.HandleHistoryStatus(c))

	var status historyStatus
	decodeJSON(t, rec, &status)
	assert.True(t, status.CanUndo)
	assert.False(t, status.CanRedo)
	assert.Equal(t, 1, status.UndoDepth)
	assert.Equal(t, `Create layer "A"`, status.UndoDescription)
}

func TestSetLayerOpacityClampsAtEdge(t *testing.T) {
	env := newTestEnv(t)
	id := env.mgr.CreateLayer("L", nil, "point", nil)

	c, rec := env.request(t, http.MethodPut, "/api/layers/"+id+"/opacity",
		`{"opacity":2.5}`, "id", id)
	require.NoError(t, env.h.HandleSetLayerOpacity(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	layer, _ := env.mgr.GetLayer(id)
	assert.Equal(t, 1.0, layer.Opacity)

	c, _ = env.request(t, http.MethodPut, "/api/layers/"+id+"/opacity",
		`{"opacity":-3}`, "id", id)
	require.NoError(t, env.h.HandleSetLayerOpacity(c))
	layer, _ = env.mgr.GetLayer(id)
	assert.Equal(t, 0.0, layer.Opacity)
}

func TestMoveLayerBoundary(t *testing.T) {
	env := newTestEnv(t)
	a := env.mgr.CreateLayer("A", nil, "point", nil)
	env.mgr.CreateLayer("B", nil, "point", nil)

	c, rec := env.request(t, http.MethodPost, "/api/layers/"+a+"/move",
		`{"direction":"up"}`, "id", a)
	require.NoError(t, env.h.HandleMoveLayer(c))
	assert.Contains(t, rec.Body.String(), `"moved":false`)

	c, _ = env.request(t, http.MethodPost, "/api/layers/"+a+"/move",
		`{"direction":"sideways"}`, "id", a)
	err := env.h.HandleMoveLayer(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, err.(*APIError).Status)
}

func TestFilterEndpoints(t *testing.T) {
	env := newTestEnv(t)
	id := env.mgr.CreateLayer("L", nil, "point", nil)

	c, rec := env.request(t, http.MethodPost, "/api/layers/"+id+"/filter",
		`{"column":"city","value":"tokyo"}`, "id", id)
	require.NoError(t, env.h.HandleApplyFilter(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	f, ok := env.mgr.CurrentFilter(id)
	require.True(t, ok)
	assert.Equal(t, "city", f.Column)

	c, _ = env.request(t, http.MethodDelete, "/api/layers/"+id+"/filter", "", "id", id)
	require.NoError(t, env.h.HandleClearFilter(c))
	_, ok = env.mgr.CurrentFilter(id)
	assert.False(t, ok)
}

func TestGroupEndpoints(t *testing.T) {
	env := newTestEnv(t)
	id := env.mgr.CreateLayer("L", nil, "point", nil)

	c, rec := env.request(t, http.MethodPost, "/api/groups", `{"name":"Region"}`)
	require.NoError(t, env.h.HandleCreateGroup(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	var group struct {
		ID string `json:"id"`
	}
	decodeJSON(t, rec, &group)

	c, rec = env.request(t, http.MethodPost, "/api/groups/"+group.ID+"/layers",
		`{"layerId":"`+id+`"}`, "id", group.ID)
	require.NoError(t, env.h.HandleAddLayerToGroup(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	layer, _ := env.mgr.GetLayer(id)
	assert.Equal(t, group.ID, layer.GroupID)

	// the reserved group refuses deletion
	c, _ = env.request(t, http.MethodDelete, "/api/groups/"+env.st.AllLayersGroupID(), "",
		"id", env.st.AllLayersGroupID())
	err := env.h.HandleDeleteGroup(c)
	require.Error(t, err)
}

func TestWorkspaceExportImport(t *testing.T) {
	env := newTestEnv(t)
	env.mgr.CreateLayer("A", nil, "point", nil)
	env.hist.Execute(history.NewCreateLayerCommand("B", nil, "point", nil))

	c, rec := env.request(t, http.MethodGet, "/api/workspace/export", "")
	require.NoError(t, env.h.HandleExportWorkspace(c))
	exported := rec.Body.String()
	assert.Contains(t, exported, `"layerOrder"`)

	// import the export into the same workspace and verify history reset
	c, rec = env.request(t, http.MethodPost, "/api/workspace/import", exported)
	require.NoError(t, env.h.HandleImportWorkspace(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"layers":2`)
	assert.False(t, env.hist.CanUndo(), "import resets the undo history")
}

func TestWorkspaceExportMsgpack(t *testing.T) {
	env := newTestEnv(t)
	env.mgr.CreateLayer("A", nil, "point", nil)

	c, rec := env.request(t, http.MethodGet, "/api/workspace/export/msgpack", "")
	require.NoError(t, env.h.HandleExportWorkspaceMsgpack(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-msgpack", rec.Header().Get(echo.HeaderContentType))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestWorkspaceSaveLoadRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	id := env.mgr.CreateLayer("Persisted", nil, "point", nil)

	c, rec := env.request(t, http.MethodPost, "/api/workspace/save", "")
	require.NoError(t, env.h.HandleSaveWorkspace(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// mutate, then load the saved state back
	env.mgr.RenameLayer(id, "Changed")
	c, rec = env.request(t, http.MethodPost, "/api/workspace/load", "")
	require.NoError(t, env.h.HandleLoadWorkspace(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	layer, ok := env.mgr.GetLayer(id)
	require.True(t, ok)
	assert.Equal(t, "Persisted", layer.Name)
}

func TestLoadWorkspaceEmptyStore(t *testing.T) {
	env := newTestEnv(t)

	c, _ := env.request(t, http.MethodPost, "/api/workspace/load", "")
	err := env.h.HandleLoadWorkspace(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, err.(*APIError).Status)
}

func TestImportCSVEndpoint(t *testing.T) {
	env := newTestEnv(t)

	csv := "name,latitude,longitude\nStore A,35.6,139.7\nBad,x,139.7\n"
	body, _ := json.Marshal(map[string]any{
		"name": "stores.csv",
		"data": base64.StdEncoding.EncodeToString([]byte(csv)),
	})

	c, rec := env.request(t, http.MethodPost, "/api/import/csv", string(body))
	require.NoError(t, env.h.HandleImportCSV(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		LayerID   string `json:"layerId"`
		Imported  int    `json:"imported"`
		RowErrors []any  `json:"rowErrors"`
	}
	decodeJSON(t, rec, &resp)
	assert.Equal(t, 1, resp.Imported)
	assert.Len(t, resp.RowErrors, 1)

	layer, ok := env.mgr.GetLayer(resp.LayerID)
	require.True(t, ok)
	assert.Equal(t, "stores", layer.Name, "layer named after the file, extension stripped")
	assert.Equal(t, "stores.csv", layer.Metadata["sourceFile"])

	// CSV import is undoable like any other creation
	assert.True(t, env.hist.CanUndo())
}

func TestImportCSVNoGeometryBlocks(t *testing.T) {
	env := newTestEnv(t)

	csv := "name,city\nStore A,Tokyo\n"
	body, _ := json.Marshal(map[string]any{
		"name": "bad.csv",
		"data": base64.StdEncoding.EncodeToString([]byte(csv)),
	})

	c, _ := env.request(t, http.MethodPost, "/api/import/csv", string(body))
	err := env.h.HandleImportCSV(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, err.(*APIError).Status)
	assert.Empty(t, env.mgr.Layers(), "blocking failure leaves no partial state")
}

func TestLayerStats(t *testing.T) {
	env := newTestEnv(t)
	features := []*models.Feature{
		models.NewPointFeature("", 35.6, 139.7, map[string]any{"name": "Store A"}),
		models.NewPointFeature("", 34.7, 135.5, map[string]any{"name": "Store B"}),
		models.NewPolygonFeature("", "POLYGON ((139 35, 140 35, 140 36, 139 35))", nil),
	}
	id := env.mgr.CreateLayer("Kansai", features, "point", nil)

	c, rec := env.request(t, http.MethodGet, "/api/layers/"+id+"/stats", "", "id", id)
	require.NoError(t, env.h.HandleLayerStats(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats layerStatsResponse
	decodeJSON(t, rec, &stats)
	assert.Equal(t, 3, stats.FeatureCount)
	assert.Equal(t, 2, stats.PointCount)
	assert.Equal(t, 1, stats.PolygonCount)
	require.NotNil(t, stats.Bounds)
	assert.Equal(t, 135.5, stats.Bounds[0])
	assert.Equal(t, 34.7, stats.Bounds[1])
	assert.Equal(t, 140.0, stats.Bounds[2])
	assert.Equal(t, 36.0, stats.Bounds[3])
	assert.Greater(t, stats.TotalAreaSqM, 0.0)
}

func TestLayerStatsNotFound(t *testing.T) {
	env := newTestEnv(t)

	c, _ := env.request(t, http.MethodGet, "/api/layers/missing/stats", "", "id", "missing")
	err := env.h.HandleLayerStats(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, err.(*APIError).Status)
}

func TestGeocodeUnconfigured(t *testing.T) {
	env := newTestEnv(t)

	c, _ := env.request(t, http.MethodPost, "/api/geocode", `{"addresses":["x"]}`)
	err := env.h.HandleGeocode(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, err.(*APIError).Status)
}
