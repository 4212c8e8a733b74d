// Package api exposes the workspace over HTTP: layer/group/feature CRUD,
// undo/redo, CSV import, geocoding, persistence and an automation facade
// for third-party tools.
package api

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/docstore"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/geocode"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/history"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/layers"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/state"
)

// Handler handles API requests. Mutating requests serialize on mu: the
// workspace is a single-writer model, matching the one-UI-thread
// semantics the manager assumes.
type Handler struct {
	mu       sync.Mutex
	mgr      *layers.Manager
	history  *history.History
	state    *state.Store
	docs     docstore.Store
	saver    *docstore.Saver
	geocoder *geocode.Client
	webhooks *WebhookDispatcher
}

// NewHandler creates a new API handler.
func NewHandler(mgr *layers.Manager, hist *history.History, st *state.Store,
	docs docstore.Store, saver *docstore.Saver, geocoder *geocode.Client,
	webhooks *WebhookDispatcher) *Handler {
	return &Handler{
		mgr:      mgr,
		history:  hist,
		state:    st,
		docs:     docs,
		saver:    saver,
		geocoder: geocoder,
		webhooks: webhooks,
	}
}

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"layers": h.state.LayerCount(),
	})
}
