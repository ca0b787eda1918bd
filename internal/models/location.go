package models

import (
	"errors"
	"strconv"
	"strings"
)

// StopType describes how a routed path treats a location.
type StopType string

const (
	// StopTypeBreak is a location the path must stop at (default).
	StopTypeBreak StopType = "break"
	// StopTypeThrough is a location the path passes through without stopping.
	StopTypeThrough StopType = "through"
)

// Common errors for location parsing.
var (
	ErrMalformedLocation = errors.New("Failed to parse location")
)

// Location is a user-supplied geographic point, immutable once parsed.
type Location struct {
	Lat     float64  // Latitude in degrees, [-90, 90].
	Lon     float64  // Longitude in degrees, [-180, 180].
	Type    StopType // Stop type, defaults to break.
	Name    string   // Optional display name.
	Heading *float64 // Optional preferred heading in degrees, nil when absent.
}

// NewLocation validates the coordinate ranges and returns a break location.
func NewLocation(lat, lon float64) (Location, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Location{}, ErrMalformedLocation
	}
	return Location{Lat: lat, Lon: lon, Type: StopTypeBreak}, nil
}

// LocationFromCSV parses a "lat,lon" waypoint string, the shape used by
// OSRM-compatible viaroute requests.
func LocationFromCSV(csv string) (Location, error) {
	parts := strings.Split(csv, ",")
	if len(parts) != 2 {
		return Location{}, ErrMalformedLocation
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Location{}, ErrMalformedLocation
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Location{}, ErrMalformedLocation
	}
	return NewLocation(lat, lon)
}
