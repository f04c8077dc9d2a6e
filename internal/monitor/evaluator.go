package monitor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/quietfield/spotfence/internal/geo"
)

// Evaluator is a software region monitor. It registers regions like a
// platform boundary and derives enter/exit crossings geometrically from
// the location samples fed to Observe. The service and the simulator run
// on it; on a mobile platform the same Boundary interface would wrap the
// OS geofencing API instead.
type Evaluator struct {
	logger *slog.Logger

	mu      sync.Mutex
	regions map[string]Region
	inside  map[string]bool
	events  chan Crossing
}

// NewEvaluator creates an evaluator with the given event buffer size.
// Crossings that would overflow the buffer are dropped with a warning;
// the engine's periodic resync tolerates missed deliveries.
func NewEvaluator(buffer int, logger *slog.Logger) *Evaluator {
	if buffer < 1 {
		buffer = 64
	}
	return &Evaluator{
		logger:  logger,
		regions: make(map[string]Region),
		inside:  make(map[string]bool),
		events:  make(chan Crossing, buffer),
	}
}

// StartMonitoring registers or updates a region. Whether the user is
// currently inside it is decided on the next Observe, matching platform
// behaviour of reporting state only on a crossing.
func (e *Evaluator) StartMonitoring(ctx context.Context, region Region) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.regions[region.ID] = region
	return nil
}

// StopMonitoring removes a region and forgets its containment state.
func (e *Evaluator) StopMonitoring(ctx context.Context, regionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.regions, regionID)
	delete(e.inside, regionID)
	return nil
}

// Events returns the crossing delivery channel.
func (e *Evaluator) Events() <-chan Crossing {
	return e.events
}

// MonitoredCount returns the number of registered regions.
func (e *Evaluator) MonitoredCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.regions)
}

// Observe evaluates a location sample against every registered region
// and emits a crossing for each containment transition.
func (e *Evaluator) Observe(sample geo.Sample) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, region := range e.regions {
		in := sample.Point.DistanceM(region.Center) <= region.RadiusM
		was := e.inside[id]
		if in == was {
			continue
		}
		e.inside[id] = in

		kind := CrossingExit
		if in {
			kind = CrossingEnter
		}
		crossing := Crossing{RegionID: id, Kind: kind, At: sample.At}

		select {
		case e.events <- crossing:
		default:
			if e.logger != nil {
				e.logger.Warn("crossing dropped, event buffer full",
					"region_id", id, "kind", kind)
			}
		}
	}
}
