package models

import "fmt"

// Location is the canonical coordinate value used everywhere a place is
// referenced. The mobile clients historically sent either a bare string or a
// lat/lng pair; the API now accepts only this shape and validates it at
// ingestion.
type Location struct {
	Lat  float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng  float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	Name string  `json:"name,omitempty"`
}

// DisplayName returns the human-readable label, falling back to the raw
// coordinates when no name was captured.
func (l Location) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return fmt.Sprintf("%.4f, %.4f", l.Lat, l.Lng)
}

// Accra is the default origin for the simulated provider position feed.
var Accra = Location{Lat: 5.6037, Lng: -0.1870, Name: "Accra"}
