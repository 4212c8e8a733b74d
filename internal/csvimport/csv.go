// Package csvimport turns uploaded CSV files into feature batches.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/geometry"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

// ColumnMapping names the CSV columns carrying geometry and the display
// name. Either Latitude+Longitude or WKT must resolve; remaining columns
// land in the feature property bag.
type ColumnMapping struct {
	Latitude  string `json:"latitude,omitempty"`
	Longitude string `json:"longitude,omitempty"`
	WKT       string `json:"wkt,omitempty"`
	Name      string `json:"name,omitempty"`
}

// RowError records a row that failed validation; the row is skipped, the
// import continues.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Result is a parsed CSV import.
type Result struct {
	Features  []*models.Feature `json:"features"`
	Headers   []string          `json:"headers"`
	Mapping   ColumnMapping     `json:"mapping"`
	RowErrors []RowError        `json:"rowErrors,omitempty"`
}

var (
	latNames  = []string{"latitude", "lat", "y"}
	lngNames  = []string{"longitude", "lng", "lon", "long", "x"}
	wktNames  = []string{"wkt", "geometry", "geom", "polygon"}
	nameNames = []string{"name", "title", "label", "account"}
)

// DetectMapping guesses the geometry and name columns from the header
// row.
func DetectMapping(headers []string) ColumnMapping {
	var m ColumnMapping
	match := func(header string, candidates []string) bool {
		h := strings.ToLower(strings.TrimSpace(header))
		for _, c := range candidates {
			if h == c {
				return true
			}
		}
		return false
	}
	for _, h := range headers {
		switch {
		case m.Latitude == "" && match(h, latNames):
			m.Latitude = h
		case m.Longitude == "" && match(h, lngNames):
			m.Longitude = h
		case m.WKT == "" && match(h, wktNames):
			m.WKT = h
		case m.Name == "" && match(h, nameNames):
			m.Name = h
		}
	}
	return m
}

// Parse reads a CSV stream into features. A nil mapping auto-detects
// columns from the header. Geometry columns missing entirely is a
// validation error that blocks the import before any state mutation;
// individual bad rows are collected and skipped.
func Parse(r io.Reader, mapping *ColumnMapping) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	}

	m := DetectMapping(headers)
	if mapping != nil {
		if mapping.Latitude != "" {
			m.Latitude = mapping.Latitude
		}
		if mapping.Longitude != "" {
			m.Longitude = mapping.Longitude
		}
		if mapping.WKT != "" {
			m.WKT = mapping.WKT
		}
		if mapping.Name != "" {
			m.Name = mapping.Name
		}
	}

	col := make(map[string]int, len(headers))
	for i, h := range headers {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idx := func(name string) int {
		if name == "" {
			return -1
		}
		if i, ok := col[strings.ToLower(strings.TrimSpace(name))]; ok {
			return i
		}
		return -1
	}

	latIdx, lngIdx, wktIdx := idx(m.Latitude), idx(m.Longitude), idx(m.WKT)
	hasPoint := latIdx >= 0 && lngIdx >= 0
	hasWKT := wktIdx >= 0
	if !hasPoint && !hasWKT {
		return nil, fmt.Errorf("no geometry columns found: need latitude/longitude or wkt")
	}

	result := &Result{Headers: headers, Mapping: m}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.RowErrors = append(result.RowErrors, RowError{Line: line, Reason: err.Error()})
			continue
		}

		props := make(map[string]any)
		for i, h := range headers {
			if i == latIdx || i == lngIdx || i == wktIdx || i >= len(record) {
				continue
			}
			if v := strings.TrimSpace(record[i]); v != "" {
				props[strings.TrimSpace(h)] = v
			}
		}

		var feature *models.Feature
		if hasWKT && wktIdx < len(record) && strings.TrimSpace(record[wktIdx]) != "" {
			w := strings.TrimSpace(record[wktIdx])
			if !geometry.ValidWKT(w) {
				result.RowErrors = append(result.RowErrors, RowError{
					Line: line, Reason: "invalid WKT geometry",
				})
				continue
			}
			feature = models.NewPolygonFeature("", w, props)
		} else if hasPoint && latIdx < len(record) && lngIdx < len(record) {
			lat, latErr := strconv.ParseFloat(strings.TrimSpace(record[latIdx]), 64)
			lng, lngErr := strconv.ParseFloat(strings.TrimSpace(record[lngIdx]), 64)
			if latErr != nil || lngErr != nil {
				result.RowErrors = append(result.RowErrors, RowError{
					Line: line, Reason: "latitude/longitude not numeric",
				})
				continue
			}
			feature = models.NewPointFeature("", lat, lng, props)
		} else {
			result.RowErrors = append(result.RowErrors, RowError{
				Line: line, Reason: "row has no geometry",
			})
			continue
		}

		if err := feature.Validate(); err != nil {
			result.RowErrors = append(result.RowErrors, RowError{
				Line: line, Reason: err.Error(),
			})
			continue
		}
		result.Features = append(result.Features, feature)
	}

	return result, nil
}
