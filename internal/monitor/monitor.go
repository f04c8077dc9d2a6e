// Package monitor defines the region-monitoring boundary: the interface
// through which the engine registers circular regions, and the crossing
// events the boundary delivers back. Deliveries are at-least-once and
// unordered across regions; consumers must deduplicate.
package monitor

import (
	"context"
	"time"

	"github.com/quietfield/spotfence/internal/geo"
)

// Region is a circular monitored area. The region id is the id of the
// spot it was derived from; regions and spots map one to one.
type Region struct {
	ID      string    `json:"id"`
	Center  geo.Point `json:"center"`
	RadiusM float64   `json:"radius_m"`
}

// CrossingKind tags a raw region crossing.
type CrossingKind string

const (
	CrossingEnter CrossingKind = "enter"
	CrossingExit  CrossingKind = "exit"
)

// Crossing is a raw enter/exit event for a monitored region.
type Crossing struct {
	RegionID string       `json:"region_id"`
	Kind     CrossingKind `json:"kind"`
	At       time.Time    `json:"at"`
}

// Boundary is the platform monitoring surface. StartMonitoring with an
// already-registered id updates that region in place; StopMonitoring an
// unknown id is a no-op. Neither call is retried by the caller on failure.
type Boundary interface {
	StartMonitoring(ctx context.Context, region Region) error
	StopMonitoring(ctx context.Context, regionID string) error
}
