package engine

import (
	"context"
	"log/slog"
	"sort"

	"github.com/quietfield/spotfence/internal/metrics"
	"github.com/quietfield/spotfence/internal/monitor"
	"github.com/quietfield/spotfence/internal/spot"
)

// Reconciler owns the authoritative mirror of the regions the monitoring
// boundary believes are active, and applies the minimal add/remove delta
// to bring that set towards the desired ranking. It is not safe for
// concurrent use; the engine's event loop is its only caller.
type Reconciler struct {
	boundary monitor.Boundary
	cap      int
	logger   *slog.Logger

	active map[string]monitor.Region
}

// Delta summarizes one reconciliation pass.
type Delta struct {
	Started     int
	Updated     int
	Stopped     int
	StartFailed int
	StopFailed  int
	Saturated   int
}

// Empty reports whether the pass issued no boundary calls.
func (d Delta) Empty() bool {
	return d.Started == 0 && d.Updated == 0 && d.Stopped == 0 &&
		d.StartFailed == 0 && d.StopFailed == 0
}

// NewReconciler creates a reconciler for the given boundary and platform
// monitoring cap.
func NewReconciler(boundary monitor.Boundary, cap int, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		boundary: boundary,
		cap:      cap,
		logger:   logger,
		active:   make(map[string]monitor.Region),
	}
}

// Cap returns the platform monitoring cap.
func (r *Reconciler) Cap() int { return r.cap }

// ActiveCount returns the size of the authoritative active set.
func (r *Reconciler) ActiveCount() int { return len(r.active) }

// Active returns the authoritative active set sorted by region id.
func (r *Reconciler) Active() []monitor.Region {
	out := make([]monitor.Region, 0, len(r.active))
	for _, region := range r.active {
		out = append(out, region)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Reconcile diffs the ranked desired list (truncated to the cap) against
// the active set and applies the delta. Stops are issued before starts so
// the active count never transiently exceeds the cap. A failed start is
// skipped and retried naturally on the next trigger; a failed stop is
// still removed from the authoritative set so the cap invariant cannot
// wedge, with the inconsistency logged.
func (r *Reconciler) Reconcile(ctx context.Context, ranked []spot.Spot) Delta {
	desired := spot.TopK(ranked, r.cap)

	want := make(map[string]monitor.Region, len(desired))
	for _, s := range desired {
		want[s.ID] = monitor.Region{ID: s.ID, Center: s.Center, RadiusM: s.RadiusM}
	}

	var delta Delta

	// Release before acquiring: the cap is hard.
	var toStop []string
	for id := range r.active {
		if _, keep := want[id]; !keep {
			toStop = append(toStop, id)
		}
	}
	sort.Strings(toStop)
	for _, id := range toStop {
		if err := r.boundary.StopMonitoring(ctx, id); err != nil {
			metrics.BoundaryCallsTotal.WithLabelValues("stop", "error").Inc()
			r.logger.Warn("stop-monitoring failed, removing locally anyway",
				"region_id", id, "error", err)
			delta.StopFailed++
		} else {
			metrics.BoundaryCallsTotal.WithLabelValues("stop", "ok").Inc()
			delta.Stopped++
		}
		delete(r.active, id)
	}

	headroom := r.cap - len(r.active)
	for _, s := range desired {
		region := want[s.ID]
		current, isActive := r.active[s.ID]
		if isActive && current == region {
			continue
		}

		if !isActive {
			// Should not happen given the truncation above unless the
			// inputs changed concurrently; report, don't crash.
			if headroom <= 0 {
				metrics.SaturationTotal.Inc()
				r.logger.Warn("monitoring cap saturated, skipping region",
					"region_id", s.ID, "cap", r.cap)
				delta.Saturated++
				continue
			}
		}

		if err := r.boundary.StartMonitoring(ctx, region); err != nil {
			metrics.BoundaryCallsTotal.WithLabelValues("start", "error").Inc()
			r.logger.Warn("start-monitoring failed, will retry on next pass",
				"region_id", s.ID, "error", err)
			delta.StartFailed++
			continue
		}
		metrics.BoundaryCallsTotal.WithLabelValues("start", "ok").Inc()
		if isActive {
			delta.Updated++
		} else {
			delta.Started++
			headroom--
		}
		r.active[s.ID] = region
	}

	metrics.RegionsActive.Set(float64(len(r.active)))
	return delta
}

// ReleaseAll unconditionally stops every active region and clears the
// authoritative set. Used on loss of authorization.
func (r *Reconciler) ReleaseAll(ctx context.Context) int {
	ids := make([]string, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	released := 0
	for _, id := range ids {
		if err := r.boundary.StopMonitoring(ctx, id); err != nil {
			metrics.BoundaryCallsTotal.WithLabelValues("stop", "error").Inc()
			r.logger.Warn("stop-monitoring failed during teardown",
				"region_id", id, "error", err)
		} else {
			metrics.BoundaryCallsTotal.WithLabelValues("stop", "ok").Inc()
			released++
		}
		delete(r.active, id)
	}

	metrics.RegionsActive.Set(0)
	return released
}
