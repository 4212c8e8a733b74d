package models

import "fmt"

// Feature is a single point or polygon record with an open property bag.
// A feature is point-shaped (Latitude/Longitude set) or polygon-shaped
// (WKT set), never both and never neither.
type Feature struct {
	ID         string         `json:"id"`
	Latitude   *float64       `json:"latitude,omitempty"`
	Longitude  *float64       `json:"longitude,omitempty"`
	WKT        string         `json:"wkt,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Hidden     bool           `json:"hidden,omitempty"`
}

// NewPointFeature creates a point feature.
func NewPointFeature(id string, lat, lng float64, props map[string]any) *Feature {
	return &Feature{
		ID:         id,
		Latitude:   &lat,
		Longitude:  &lng,
		Properties: props,
	}
}

// NewPolygonFeature creates a polygon feature from a WKT string.
func NewPolygonFeature(id string, wkt string, props map[string]any) *Feature {
	return &Feature{
		ID:         id,
		WKT:        wkt,
		Properties: props,
	}
}

// IsPoint reports whether the feature carries point geometry.
func (f *Feature) IsPoint() bool {
	return f.Latitude != nil && f.Longitude != nil
}

// IsPolygon reports whether the feature carries polygon geometry.
func (f *Feature) IsPolygon() bool {
	return f.WKT != ""
}

// Validate enforces the point-xor-polygon geometry invariant and
// coordinate ranges.
func (f *Feature) Validate() error {
	point := f.IsPoint()
	polygon := f.IsPolygon()

	switch {
	case point && polygon:
		return fmt.Errorf("feature %s: has both point and polygon geometry", f.ID)
	case !point && !polygon:
		return fmt.Errorf("feature %s: has no geometry", f.ID)
	}

	if point {
		if *f.Latitude < -90 || *f.Latitude > 90 {
			return fmt.Errorf("feature %s: latitude %v out of range", f.ID, *f.Latitude)
		}
		if *f.Longitude < -180 || *f.Longitude > 180 {
			return fmt.Errorf("feature %s: longitude %v out of range", f.ID, *f.Longitude)
		}
	}
	return nil
}

// Property returns the named property value and whether it exists.
func (f *Feature) Property(key string) (any, bool) {
	if f.Properties == nil {
		return nil, false
	}
	v, ok := f.Properties[key]
	return v, ok
}

// Clone returns a deep copy of the feature.
func (f *Feature) Clone() *Feature {
	if f == nil {
		return nil
	}
	c := &Feature{
		ID:     f.ID,
		WKT:    f.WKT,
		Hidden: f.Hidden,
	}
	if f.Latitude != nil {
		lat := *f.Latitude
		c.Latitude = &lat
	}
	if f.Longitude != nil {
		lng := *f.Longitude
		c.Longitude = &lng
	}
	if f.Properties != nil {
		c.Properties = make(map[string]any, len(f.Properties))
		for k, v := range f.Properties {
			c.Properties[k] = v
		}
	}
	return c
}

// CloneFeatures deep-copies a feature slice.
func CloneFeatures(features []*Feature) []*Feature {
	if features == nil {
		return nil
	}
	out := make([]*Feature, len(features))
	for i, f := range features {
		out[i] = f.Clone()
	}
	return out
}
