package geometry

import (
	"math"
	"testing"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

const unitSquare = "POLYGON ((0 0, 10 0, 10 10, 0 10, 0 0))"

func TestValidWKT(t *testing.T) {
	tests := []struct {
		wkt  string
		want bool
	}{
		{"POINT (1 2)", true},
		{unitSquare, true},
		{"MULTIPOLYGON (((0 0, 1 0, 1 1, 0 0)))", true},
		{"POLYGON ((0 0, 1 0", false},
		{"not wkt at all", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidWKT(tt.wkt); got != tt.want {
			t.Errorf("ValidWKT(%q) = %v, want %v", tt.wkt, got, tt.want)
		}
	}
}

func TestPointInPolygon(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		want     bool
	}{
		{"inside", 5, 5, true},
		{"outside", 15, 5, false},
		{"far outside", -5, -5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PointInPolygon(tt.lat, tt.lng, unitSquare)
			if err != nil {
				t.Fatalf("PointInPolygon failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("PointInPolygon(%v, %v) = %v, want %v", tt.lat, tt.lng, got, tt.want)
			}
		})
	}

	if _, err := PointInPolygon(0, 0, "POINT (1 2)"); err == nil {
		t.Error("Expected an error for non-polygon geometry")
	}
	if _, err := PointInPolygon(0, 0, "garbage"); err == nil {
		t.Error("Expected an error for invalid WKT")
	}
}

func TestDistanceMeters(t *testing.T) {
	// Tokyo Station to Shin-Osaka is roughly 400 km
	d := DistanceMeters(35.681, 139.767, 34.733, 135.500)
	if d < 380_000 || d > 420_000 {
		t.Errorf("Distance Tokyo-Osaka = %.0f m, expected ~400 km", d)
	}

	if d := DistanceMeters(35, 139, 35, 139); d != 0 {
		t.Errorf("Zero distance expected, got %f", d)
	}
}

func TestAreaSqMeters(t *testing.T) {
	// a ~1km square near the equator
	const small = "POLYGON ((0 0, 0.009 0, 0.009 0.009, 0 0.009, 0 0))"
	area, err := AreaSqMeters(small)
	if err != nil {
		t.Fatalf("AreaSqMeters failed: %v", err)
	}
	if math.Abs(area-1_000_000) > 100_000 {
		t.Errorf("Area = %.0f sq m, expected ~1,000,000", area)
	}
}

func TestFeaturesBound(t *testing.T) {
	features := []*models.Feature{
		models.NewPointFeature("a", 10, 20, nil),
		models.NewPointFeature("b", -5, 40, nil),
		models.NewPolygonFeature("c", unitSquare, nil),
	}

	bound, ok := FeaturesBound(features)
	if !ok {
		t.Fatal("Expected a bound")
	}
	if bound.Min[0] != 0 || bound.Max[0] != 40 {
		t.Errorf("Unexpected longitude range: %v", bound)
	}
	if bound.Min[1] != -5 || bound.Max[1] != 20 {
		t.Errorf("Unexpected latitude range: %v", bound)
	}

	if _, ok := FeaturesBound(nil); ok {
		t.Error("Empty input must report no bound")
	}
}

func TestPointsWithinPolygon(t *testing.T) {
	features := []*models.Feature{
		models.NewPointFeature("in1", 5, 5, nil),
		models.NewPointFeature("out", 50, 50, nil),
		models.NewPointFeature("in2", 1, 9, nil),
		models.NewPolygonFeature("poly", unitSquare, nil),
	}

	ids, err := PointsWithinPolygon(features, unitSquare)
	if err != nil {
		t.Fatalf("PointsWithinPolygon failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "in1" || ids[1] != "in2" {
		t.Errorf("Expected [in1 in2], got %v", ids)
	}
}

func TestTotalAreaSqMeters(t *testing.T) {
	features := []*models.Feature{
		models.NewPointFeature("p", 0, 0, nil),
		models.NewPolygonFeature("bad", "garbage", nil),
	}
	if got := TotalAreaSqMeters(features); got != 0 {
		t.Errorf("Expected 0 for no valid polygons, got %f", got)
	}
}
