// Package spot holds the candidate spot model and the selection stages
// that decide which spots are eligible for region monitoring and in what
// order: filter (validity + toggle gate) then rank (distance ordering).
package spot

import (
	"github.com/quietfield/spotfence/internal/geo"
)

// Notification radius bounds in metres. Radii are clamped into this range
// when a Spot is constructed, never at use time.
const (
	MinRadiusM = 50
	MaxRadiusM = 50000
)

// Spot is a read-only snapshot of a saved point of interest. The engine
// never mutates spots; it observes snapshots published by the spot source.
type Spot struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Center  geo.Point `json:"center"`
	RadiusM float64   `json:"radius_m"`
	Notify  bool      `json:"notify"`
}

// New builds a Spot with the radius clamped into [MinRadiusM, MaxRadiusM].
func New(id, name string, center geo.Point, radiusM float64, notify bool) Spot {
	return Spot{
		ID:      id,
		Name:    name,
		Center:  center,
		RadiusM: ClampRadius(radiusM),
		Notify:  notify,
	}
}

// ClampRadius forces a radius into the supported monitoring range.
func ClampRadius(radiusM float64) float64 {
	if radiusM < MinRadiusM {
		return MinRadiusM
	}
	if radiusM > MaxRadiusM {
		return MaxRadiusM
	}
	return radiusM
}
