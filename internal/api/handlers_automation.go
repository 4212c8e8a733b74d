package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/bus"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/geometry"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/history"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

// automationLayerName is the default target layer for locations posted
// by automation tools that don't name one.
const automationLayerName = "API Locations"

type locationRequest struct {
	LayerID    string         `json:"layerId,omitempty"`
	Name       string         `json:"name,omitempty"`
	Latitude   float64        `json:"latitude"`
	Longitude  float64        `json:"longitude"`
	Properties map[string]any `json:"properties,omitempty"`
}

func (h *Handler) automationLayer(layerID string) (string, bool) {
	if layerID != "" {
		if _, ok := h.mgr.GetLayer(layerID); !ok {
			return "", false
		}
		return layerID, true
	}
	for id, l := range h.mgr.Layers() {
		if l.Name == automationLayerName {
			return id, true
		}
	}
	return h.mgr.CreateLayer(automationLayerName, nil, models.LayerTypePoint, map[string]any{
		"source": "automation",
	}), true
}

// HandleAddLocations appends one or more point locations, creating the
// automation layer on first use.
func (h *Handler) HandleAddLocations(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewBadRequestError("reading request body", err)
	}

	// Accepts a single location object or an array of them.
	var reqs []locationRequest
	if err := json.Unmarshal(body, &reqs); err != nil {
		var single locationRequest
		if err := json.Unmarshal(body, &single); err != nil {
			return NewBadRequestError("invalid request body", err)
		}
		reqs = []locationRequest{single}
	}
	if len(reqs) == 0 {
		return NewValidationError("locations")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	layerID, ok := h.automationLayer(reqs[0].LayerID)
	if !ok {
		return NewNotFoundError("layer", reqs[0].LayerID)
	}

	features := make([]*models.Feature, 0, len(reqs))
	for _, r := range reqs {
		props := r.Properties
		if props == nil {
			props = make(map[string]any)
		}
		if r.Name != "" {
			props["name"] = r.Name
		}
		f := models.NewPointFeature("", r.Latitude, r.Longitude, props)
		if err := f.Validate(); err != nil {
			return NewBadRequestError("invalid location", err)
		}
		features = append(features, f)
	}

	if !h.history.Execute(history.NewAddFeaturesCommand(layerID, features)) {
		return NewInternalError("failed to add locations", nil)
	}

	ids := make([]string, len(features))
	for i, f := range features {
		ids[i] = f.ID
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"layerId":    layerID,
		"featureIds": ids,
	})
}

// HandleGetLocations lists the features of a layer (default: the
// automation layer). A `within` query holding a WKT polygon restricts
// the result to point features inside it.
func (h *Handler) HandleGetLocations(c echo.Context) error {
	layerID := c.QueryParam("layerId")
	if layerID == "" {
		for id, l := range h.mgr.Layers() {
			if l.Name == automationLayerName {
				layerID = id
				break
			}
		}
	}
	layer, ok := h.mgr.GetLayer(layerID)
	if !ok {
		return c.JSON(http.StatusOK, []*models.Feature{})
	}

	if within := c.QueryParam("within"); within != "" {
		ids, err := geometry.PointsWithinPolygon(layer.Features, within)
		if err != nil {
			return NewBadRequestError("invalid within polygon", err)
		}
		keep := make(map[string]bool, len(ids))
		for _, id := range ids {
			keep[id] = true
		}
		filtered := make([]*models.Feature, 0, len(ids))
		for _, f := range layer.Features {
			if keep[f.ID] {
				filtered = append(filtered, f)
			}
		}
		return c.JSON(http.StatusOK, filtered)
	}
	return c.JSON(http.StatusOK, layer.Features)
}

// HandleUpdateLocation merges properties into a location feature.
func (h *Handler) HandleUpdateLocation(c echo.Context) error {
	featureID := c.Param("id")
	var req struct {
		LayerID    string         `json:"layerId"`
		Properties map[string]any `json:"properties"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.LayerID == "" {
		return NewValidationError("layerId")
	}
	if len(req.Properties) == 0 {
		return NewValidationError("properties")
	}

	h.mu.Lock()
	ok := h.history.Execute(history.NewUpdateFeatureCommand(req.LayerID, featureID, req.Properties))
	h.mu.Unlock()
	if !ok {
		return NewNotFoundError("location", featureID)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleDeleteLocation removes a location feature.
func (h *Handler) HandleDeleteLocation(c echo.Context) error {
	featureID := c.Param("id")
	layerID := c.QueryParam("layerId")
	if layerID == "" {
		return NewValidationError("layerId")
	}

	h.mu.Lock()
	ok := h.history.Execute(history.NewDeleteFeatureCommand(layerID, featureID))
	h.mu.Unlock()
	if !ok {
		return NewNotFoundError("location", featureID)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleRegisterWebhook subscribes a URL to a workspace event kind.
func (h *Handler) HandleRegisterWebhook(c echo.Context) error {
	var req struct {
		Event string `json:"event"`
		URL   string `json:"url"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Event == "" {
		return NewValidationError("event")
	}
	if req.URL == "" {
		return NewValidationError("url")
	}

	hook := h.webhooks.Register(bus.Kind(req.Event), req.URL)
	return c.JSON(http.StatusCreated, hook)
}

// HandleListWebhooks lists registered webhooks.
func (h *Handler) HandleListWebhooks(c echo.Context) error {
	return c.JSON(http.StatusOK, h.webhooks.List())
}

// HandleUnregisterWebhook removes a webhook.
func (h *Handler) HandleUnregisterWebhook(c echo.Context) error {
	id := c.Param("id")
	if !h.webhooks.Unregister(id) {
		return NewNotFoundError("webhook", id)
	}
	return c.NoContent(http.StatusNoContent)
}
