// Package geometry wraps the orb geometry library for the small set of
// spatial helpers the workspace needs: WKT handling, containment, area
// and distance.
package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

// ParseWKT parses a well-known-text geometry string.
func ParseWKT(s string) (orb.Geometry, error) {
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("parsing WKT: %w", err)
	}
	return g, nil
}

// ValidWKT reports whether the string parses as WKT.
func ValidWKT(s string) bool {
	_, err := wkt.Unmarshal(s)
	return err == nil
}

// MarshalWKT encodes a geometry to its WKT representation.
func MarshalWKT(g orb.Geometry) string {
	return wkt.MarshalString(g)
}

// PointInPolygon reports whether the point lies inside the WKT polygon.
func PointInPolygon(lat, lng float64, polygonWKT string) (bool, error) {
	g, err := ParseWKT(polygonWKT)
	if err != nil {
		return false, err
	}
	pt := orb.Point{lng, lat}
	switch poly := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(poly, pt), nil
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(poly, pt), nil
	default:
		return false, fmt.Errorf("geometry %T is not a polygon", g)
	}
}

// AreaSqMeters returns the geodesic area of a WKT polygon in square
// meters.
func AreaSqMeters(polygonWKT string) (float64, error) {
	g, err := ParseWKT(polygonWKT)
	if err != nil {
		return 0, err
	}
	return geo.Area(g), nil
}

// DistanceMeters returns the haversine distance between two points.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	return geo.Distance(orb.Point{lng1, lat1}, orb.Point{lng2, lat2})
}

// FeatureGeometry converts a feature to its orb geometry.
func FeatureGeometry(f *models.Feature) (orb.Geometry, error) {
	if f.IsPoint() {
		return orb.Point{*f.Longitude, *f.Latitude}, nil
	}
	if f.IsPolygon() {
		return ParseWKT(f.WKT)
	}
	return nil, fmt.Errorf("feature %s has no geometry", f.ID)
}

// FeaturesBound returns the bounding box covering all features; ok is
// false when no feature contributed geometry.
func FeaturesBound(features []*models.Feature) (orb.Bound, bool) {
	var bound orb.Bound
	found := false
	for _, f := range features {
		g, err := FeatureGeometry(f)
		if err != nil {
			continue
		}
		if !found {
			bound = g.Bound()
			found = true
			continue
		}
		bound = bound.Union(g.Bound())
	}
	return bound, found
}

// TotalAreaSqMeters sums the geodesic area of all polygon features.
func TotalAreaSqMeters(features []*models.Feature) float64 {
	var total float64
	for _, f := range features {
		if !f.IsPolygon() {
			continue
		}
		area, err := AreaSqMeters(f.WKT)
		if err != nil {
			continue
		}
		total += area
	}
	return total
}

// PointsWithinPolygon returns the ids of point features contained in the
// WKT polygon.
func PointsWithinPolygon(features []*models.Feature, polygonWKT string) ([]string, error) {
	g, err := ParseWKT(polygonWKT)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, f := range features {
		if !f.IsPoint() {
			continue
		}
		pt := orb.Point{*f.Longitude, *f.Latitude}
		contained := false
		switch poly := g.(type) {
		case orb.Polygon:
			contained = planar.PolygonContains(poly, pt)
		case orb.MultiPolygon:
			contained = planar.MultiPolygonContains(poly, pt)
		}
		if contained {
			ids = append(ids, f.ID)
		}
	}
	return ids, nil
}
