// Package geo provides WGS 84 coordinate types, validation, and
// great-circle distance used by the ranking and monitoring layers.
package geo

import (
	"math"
	"time"
)

// EarthRadiusM is the mean Earth radius in metres, used for all
// great-circle calculations.
const EarthRadiusM = 6371000.0

// Point is a geographic coordinate (WGS 84).
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies within the legal coordinate
// ranges: latitude [-90, 90], longitude [-180, 180].
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// DistanceM returns the great-circle distance to other in metres,
// computed with the haversine formula.
func (p Point) DistanceM(other Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLon := (other.Lon - p.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}

// Sample is a single fix from the location stream. AccuracyM is the
// horizontal accuracy radius reported by the provider; zero means unknown.
type Sample struct {
	Point     Point     `json:"point"`
	AccuracyM float64   `json:"accuracy_m"`
	At        time.Time `json:"at"`
}

// Age returns how old the sample is relative to now.
func (s Sample) Age(now time.Time) time.Duration {
	return now.Sub(s.At)
}
