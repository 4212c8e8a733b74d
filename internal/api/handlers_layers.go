package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/geometry"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/history"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

type createLayerRequest struct {
	Name     string            `json:"name"`
	Type     models.LayerType  `json:"type,omitempty"`
	Features []*models.Feature `json:"features,omitempty"`
	Metadata map[string]any    `json:"metadata,omitempty"`
}

type layerSummary struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Type         models.LayerType `json:"type"`
	FeatureCount int              `json:"featureCount"`
	Visible      bool             `json:"visible"`
	Opacity      float64          `json:"opacity"`
	Color        string           `json:"color,omitempty"`
	GroupID      string           `json:"groupId,omitempty"`
}

func summarize(l *models.Layer) layerSummary {
	return layerSummary{
		ID:           l.ID,
		Name:         l.Name,
		Type:         l.Type,
		FeatureCount: len(l.Features),
		Visible:      l.Visible,
		Opacity:      l.Opacity,
		Color:        l.Color,
		GroupID:      l.GroupID,
	}
}

// HandleListLayers returns layer summaries in display order.
func (h *Handler) HandleListLayers(c echo.Context) error {
	order := h.mgr.LayerOrder()
	out := make([]layerSummary, 0, len(order))
	for _, id := range order {
		if l, ok := h.mgr.GetLayer(id); ok {
			out = append(out, summarize(l))
		}
	}
	return c.JSON(http.StatusOK, out)
}

// HandleCreateLayer creates a layer through the undo history.
func (h *Handler) HandleCreateLayer(c echo.Context) error {
	var req createLayerRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Name == "" {
		return NewValidationError("name")
	}
	for _, f := range req.Features {
		if err := f.Validate(); err != nil {
			return NewBadRequestError("invalid feature", err)
		}
	}

	h.mu.Lock()
	cmd := history.NewCreateLayerCommand(req.Name, req.Features, req.Type, req.Metadata)
	ok := h.history.Execute(cmd)
	h.mu.Unlock()
	if !ok {
		return NewInternalError("failed to create layer", nil)
	}

	layer, _ := h.mgr.GetLayer(cmd.LayerID)
	return c.JSON(http.StatusCreated, layer)
}

// HandleGetLayer returns a full layer, features included.
func (h *Handler) HandleGetLayer(c echo.Context) error {
	id := c.Param("id")
	layer, ok := h.mgr.GetLayer(id)
	if !ok {
		return NewNotFoundError("layer", id)
	}
	return c.JSON(http.StatusOK, layer)
}

type layerStatsResponse struct {
	FeatureCount int         `json:"featureCount"`
	PointCount   int         `json:"pointCount"`
	PolygonCount int         `json:"polygonCount"`
	Bounds       *[4]float64 `json:"bounds,omitempty"`
	TotalAreaSqM float64     `json:"totalAreaSqMeters"`
}

// HandleLayerStats returns feature counts, the bounding box and the
// total polygon area for a layer. Bounds are [minLng, minLat, maxLng,
// maxLat] and omitted when no feature carries geometry.
func (h *Handler) HandleLayerStats(c echo.Context) error {
	id := c.Param("id")
	layer, ok := h.mgr.GetLayer(id)
	if !ok {
		return NewNotFoundError("layer", id)
	}

	stats := layerStatsResponse{FeatureCount: len(layer.Features)}
	for _, f := range layer.Features {
		if f.IsPoint() {
			stats.PointCount++
		} else if f.IsPolygon() {
			stats.PolygonCount++
		}
	}
	if bound, ok := geometry.FeaturesBound(layer.Features); ok {
		stats.Bounds = &[4]float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]}
	}
	stats.TotalAreaSqM = geometry.TotalAreaSqMeters(layer.Features)
	return c.JSON(http.StatusOK, stats)
}

// HandleDeleteLayer deletes a layer through the undo history.
func (h *Handler) HandleDeleteLayer(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.mgr.GetLayer(id); !ok {
		return NewNotFoundError("layer", id)
	}

	h.mu.Lock()
	ok := h.history.Execute(history.NewDeleteLayerCommand(id))
	h.mu.Unlock()
	if !ok {
		return NewNotFoundError("layer", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleRenameLayer renames a layer through the undo history.
func (h *Handler) HandleRenameLayer(c echo.Context) error {
	id := c.Param("id")
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Name == "" {
		return NewValidationError("name")
	}

	h.mu.Lock()
	ok := h.history.Execute(history.NewRenameLayerCommand(id, req.Name))
	h.mu.Unlock()
	if !ok {
		return NewNotFoundError("layer", id)
	}
	layer, _ := h.mgr.GetLayer(id)
	return c.JSON(http.StatusOK, layer)
}

// HandleMoveLayer swaps a layer with its display-order neighbor.
func (h *Handler) HandleMoveLayer(c echo.Context) error {
	id := c.Param("id")
	var req struct {
		Direction string `json:"direction"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Direction != "up" && req.Direction != "down" {
		return NewValidationError("direction")
	}

	h.mu.Lock()
	moved := h.mgr.MoveLayer(id, req.Direction)
	h.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{
		"moved": moved,
		"order": h.mgr.LayerOrder(),
	})
}

// HandleSetLayerOpacity sets a layer's opacity, clamped to [0,1].
func (h *Handler) HandleSetLayerOpacity(c echo.Context) error {
	id := c.Param("id")
	var req struct {
		Opacity float64 `json:"opacity"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	// The manager stores what it is given; the edge clamps.
	if req.Opacity < 0 {
		req.Opacity = 0
	} else if req.Opacity > 1 {
		req.Opacity = 1
	}

	if _, ok := h.mgr.GetLayer(id); !ok {
		return NewNotFoundError("layer", id)
	}
	h.mu.Lock()
	h.mgr.SetLayerOpacity(id, req.Opacity)
	h.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}

// HandleToggleLayerVisibility flips a layer's visibility.
func (h *Handler) HandleToggleLayerVisibility(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.mgr.GetLayer(id); !ok {
		return NewNotFoundError("layer", id)
	}
	h.mu.Lock()
	visible := h.mgr.ToggleLayerVisibility(id)
	h.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]bool{"visible": visible})
}

// HandleSetLayerStyle replaces a layer's property-driven style.
func (h *Handler) HandleSetLayerStyle(c echo.Context) error {
	id := c.Param("id")
	var style models.LayerStyle
	if err := c.Bind(&style); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if _, ok := h.mgr.GetLayer(id); !ok {
		return NewNotFoundError("layer", id)
	}
	h.mu.Lock()
	h.mgr.SetLayerStyle(id, &style)
	h.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}

// HandleApplyFilter records a display filter for a layer.
func (h *Handler) HandleApplyFilter(c echo.Context) error {
	id := c.Param("id")
	var req struct {
		Column string `json:"column"`
		Value  string `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Column == "" {
		return NewValidationError("column")
	}
	if _, ok := h.mgr.GetLayer(id); !ok {
		return NewNotFoundError("layer", id)
	}

	h.mu.Lock()
	h.mgr.ApplyFilter(id, req.Column, req.Value)
	h.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}

// HandleClearFilter removes a layer's display filter.
func (h *Handler) HandleClearFilter(c echo.Context) error {
	id := c.Param("id")
	h.mu.Lock()
	h.mgr.ClearFilter(id)
	h.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}

// HandleSortLayer reorders a layer's features by a property column.
func (h *Handler) HandleSortLayer(c echo.Context) error {
	id := c.Param("id")
	var req struct {
		Column    string `json:"column"`
		Direction string `json:"direction"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Column == "" {
		return NewValidationError("column")
	}
	if _, ok := h.mgr.GetLayer(id); !ok {
		return NewNotFoundError("layer", id)
	}

	h.mu.Lock()
	h.mgr.SortLayer(id, req.Column, req.Direction)
	h.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}

// HandleFitToLayer frames the layer on connected maps.
func (h *Handler) HandleFitToLayer(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.mgr.GetLayer(id); !ok {
		return NewNotFoundError("layer", id)
	}
	h.mgr.FitToLayer(id)
	return c.NoContent(http.StatusNoContent)
}
