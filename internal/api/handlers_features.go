package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/history"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

// HandleAddFeatures appends features to a layer through the undo
// history.
func (h *Handler) HandleAddFeatures(c echo.Context) error {
	layerID := c.Param("id")
	var req struct {
		Features []*models.Feature `json:"features"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if len(req.Features) == 0 {
		return NewValidationError("features")
	}
	for _, f := range req.Features {
		if err := f.Validate(); err != nil {
			return NewBadRequestError("invalid feature", err)
		}
	}
	if _, ok := h.mgr.GetLayer(layerID); !ok {
		return NewNotFoundError("layer", layerID)
	}

	h.mu.Lock()
	ok := h.history.Execute(history.NewAddFeaturesCommand(layerID, req.Features))
	h.mu.Unlock()
	if !ok {
		return NewInternalError("failed to add features", nil)
	}

	layer, _ := h.mgr.GetLayer(layerID)
	return c.JSON(http.StatusCreated, map[string]int{"featureCount": len(layer.Features)})
}

// HandleUpdateFeature merges properties into a feature through the undo
// history.
func (h *Handler) HandleUpdateFeature(c echo.Context) error {
	layerID := c.Param("id")
	featureID := c.Param("featureId")
	var req struct {
		Properties map[string]any `json:"properties"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if len(req.Properties) == 0 {
		return NewValidationError("properties")
	}

	h.mu.Lock()
	ok := h.history.Execute(history.NewUpdateFeatureCommand(layerID, featureID, req.Properties))
	h.mu.Unlock()
	if !ok {
		return NewNotFoundError("feature", featureID)
	}

	layer, _ := h.mgr.GetLayer(layerID)
	feature, _ := layer.FeatureByID(featureID)
	return c.JSON(http.StatusOK, feature)
}

// HandleDeleteFeature removes a feature through the undo history.
func (h *Handler) HandleDeleteFeature(c echo.Context) error {
	layerID := c.Param("id")
	featureID := c.Param("featureId")

	h.mu.Lock()
	ok := h.history.Execute(history.NewDeleteFeatureCommand(layerID, featureID))
	h.mu.Unlock()
	if !ok {
		// Deleting an unknown feature is a silent no-op in the manager;
		// surface it as a 404 only at the API edge.
		return NewNotFoundError("feature", featureID)
	}
	return c.NoContent(http.StatusNoContent)
}
