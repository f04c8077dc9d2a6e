package engine

import (
	"github.com/quietfield/spotfence/internal/geo"
	"github.com/quietfield/spotfence/internal/monitor"
	"github.com/quietfield/spotfence/internal/spot"
)

// Event is the tagged union pushed onto the engine's serialized queue.
// Producers (spot source, location source, authorization callback, toggle
// setting, monitoring boundary) run on their own goroutines; the single
// event loop is the only consumer.
type Event interface{ isEvent() }

// SpotsChanged carries a fresh snapshot of the full spot list.
type SpotsChanged struct {
	Spots []spot.Spot
}

// LocationUpdated carries a new fix from the location stream.
type LocationUpdated struct {
	Sample geo.Sample
}

// AuthChanged carries a platform authorization transition.
type AuthChanged struct {
	State AuthState
}

// ToggleChanged carries the global proximity-alert toggle.
type ToggleChanged struct {
	Enabled bool
}

// CrossingObserved carries a raw enter/exit delivery from the boundary.
type CrossingObserved struct {
	Crossing monitor.Crossing
}

// Foregrounded signals the host application returning to the foreground.
type Foregrounded struct{}

// statusQuery is a diagnostics round-trip answered by the event loop.
type statusQuery struct {
	reply chan Status
}

func (SpotsChanged) isEvent()     {}
func (LocationUpdated) isEvent()  {}
func (AuthChanged) isEvent()      {}
func (ToggleChanged) isEvent()    {}
func (CrossingObserved) isEvent() {}
func (Foregrounded) isEvent()     {}
func (statusQuery) isEvent()      {}
