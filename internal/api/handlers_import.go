package api

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/csvimport"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/geocode"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/history"
)

type csvUploadRequest struct {
	Name    string                   `json:"name"`
	Data    string                   `json:"data"` // Base64-encoded file content
	Mapping *csvimport.ColumnMapping `json:"mapping,omitempty"`
}

// HandleImportCSV accepts a CSV file as base64 JSON, parses it into
// features and creates a layer named after the file. Validation failures
// block the import before any state mutation.
func (h *Handler) HandleImportCSV(c echo.Context) error {
	var req csvUploadRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.Name == "" {
		return NewValidationError("name")
	}
	if req.Data == "" {
		return NewValidationError("data")
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}

	result, err := csvimport.Parse(strings.NewReader(string(decoded)), req.Mapping)
	if err != nil {
		return NewBadRequestError("CSV import failed", err)
	}
	if len(result.Features) == 0 {
		return NewBadRequestError("CSV contains no importable rows", nil)
	}

	layerName := strings.TrimSuffix(req.Name, ".csv")
	metadata := map[string]any{
		"sourceFile": req.Name,
		"importedAt": time.Now().Format(time.RFC3339),
		"mapping":    result.Mapping,
	}

	h.mu.Lock()
	cmd := history.NewCreateLayerCommand(layerName, result.Features, "", metadata)
	ok := h.history.Execute(cmd)
	h.mu.Unlock()
	if !ok {
		return NewInternalError("failed to create layer", nil)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"layerId":   cmd.LayerID,
		"imported":  len(result.Features),
		"rowErrors": result.RowErrors,
	})
}

type geocodeRequest struct {
	LayerName string     `json:"layerName"`
	Addresses []string   `json:"addresses,omitempty"`
	Rows      [][]string `json:"rows,omitempty"` // address parts per row, joined with ", "
}

// HandleGeocode geocodes a batch of addresses sequentially (fixed
// pacing delay between requests) and creates a point layer from the
// successful results.
func (h *Handler) HandleGeocode(c echo.Context) error {
	if h.geocoder == nil {
		return NewUpstreamError("geocoding is not configured", nil)
	}

	var req geocodeRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	addresses := req.Addresses
	for _, row := range req.Rows {
		addresses = append(addresses, geocode.BuildAddress(row...))
	}
	if len(addresses) == 0 {
		return NewValidationError("addresses")
	}
	if req.LayerName == "" {
		req.LayerName = "Geocoded Addresses"
	}

	results := h.geocoder.GeocodeBatch(c.Request().Context(), addresses, nil)
	features := geocode.FeaturesFromResults(results)
	if len(features) == 0 {
		return c.JSON(http.StatusOK, map[string]any{
			"geocoded": 0,
			"results":  results,
		})
	}

	h.mu.Lock()
	cmd := history.NewCreateLayerCommand(req.LayerName, features, "point", map[string]any{
		"source":     "geocoding",
		"importedAt": time.Now().Format(time.RFC3339),
	})
	ok := h.history.Execute(cmd)
	h.mu.Unlock()
	if !ok {
		return NewInternalError("failed to create layer", nil)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"layerId":  cmd.LayerID,
		"geocoded": len(features),
		"results":  results,
	})
}
