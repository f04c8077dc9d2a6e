package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/quietfield/spotfence/internal/geo"
)

func sampleAt(lat, lon float64) geo.Sample {
	return geo.Sample{Point: geo.Point{Lat: lat, Lon: lon}, At: time.Now()}
}

func drain(e *Evaluator) []Crossing {
	var out []Crossing
	for {
		select {
		case c := <-e.Events():
			out = append(out, c)
		default:
			return out
		}
	}
}

func TestEvaluatorEnterExit(t *testing.T) {
	ctx := context.Background()
	ev := NewEvaluator(8, nil)

	// 200 m region at the origin.
	if err := ev.StartMonitoring(ctx, Region{ID: "home", Center: geo.Point{Lat: 0, Lon: 0}, RadiusM: 200}); err != nil {
		t.Fatalf("StartMonitoring: %v", err)
	}

	// Far away: no crossing.
	ev.Observe(sampleAt(1, 1))
	if got := drain(ev); len(got) != 0 {
		t.Fatalf("expected no crossings while outside, got %v", got)
	}

	// Step inside: one enter.
	ev.Observe(sampleAt(0.0001, 0))
	got := drain(ev)
	if len(got) != 1 || got[0].Kind != CrossingEnter || got[0].RegionID != "home" {
		t.Fatalf("expected single enter for home, got %v", got)
	}

	// Still inside: no redelivery from the evaluator.
	ev.Observe(sampleAt(0.0002, 0))
	if got := drain(ev); len(got) != 0 {
		t.Fatalf("expected no crossing without a transition, got %v", got)
	}

	// Step out: one exit.
	ev.Observe(sampleAt(1, 1))
	got = drain(ev)
	if len(got) != 1 || got[0].Kind != CrossingExit {
		t.Fatalf("expected single exit, got %v", got)
	}
}

func TestEvaluatorStopForgetsState(t *testing.T) {
	ctx := context.Background()
	ev := NewEvaluator(8, nil)
	region := Region{ID: "cafe", Center: geo.Point{Lat: 0, Lon: 0}, RadiusM: 500}

	if err := ev.StartMonitoring(ctx, region); err != nil {
		t.Fatalf("StartMonitoring: %v", err)
	}
	ev.Observe(sampleAt(0, 0))
	drain(ev)

	if err := ev.StopMonitoring(ctx, "cafe"); err != nil {
		t.Fatalf("StopMonitoring: %v", err)
	}
	if n := ev.MonitoredCount(); n != 0 {
		t.Fatalf("MonitoredCount = %d after stop; want 0", n)
	}

	// Re-registering while the user is still inside redelivers the enter
	// on the next observation, like a platform redelivery.
	if err := ev.StartMonitoring(ctx, region); err != nil {
		t.Fatalf("StartMonitoring: %v", err)
	}
	ev.Observe(sampleAt(0, 0))
	got := drain(ev)
	if len(got) != 1 || got[0].Kind != CrossingEnter {
		t.Fatalf("expected redelivered enter after re-register, got %v", got)
	}

	// Stopping an unknown id is a no-op.
	if err := ev.StopMonitoring(ctx, "never-registered"); err != nil {
		t.Fatalf("StopMonitoring unknown id: %v", err)
	}
}

func TestEvaluatorUpdateRegionInPlace(t *testing.T) {
	ctx := context.Background()
	ev := NewEvaluator(8, nil)

	if err := ev.StartMonitoring(ctx, Region{ID: "park", Center: geo.Point{Lat: 0, Lon: 0}, RadiusM: 100}); err != nil {
		t.Fatalf("StartMonitoring: %v", err)
	}
	// Same id with a larger radius replaces the region.
	if err := ev.StartMonitoring(ctx, Region{ID: "park", Center: geo.Point{Lat: 0, Lon: 0}, RadiusM: 50000}); err != nil {
		t.Fatalf("StartMonitoring update: %v", err)
	}
	if n := ev.MonitoredCount(); n != 1 {
		t.Fatalf("MonitoredCount = %d; want 1", n)
	}

	// ~11 km away: inside only with the updated radius.
	ev.Observe(sampleAt(0.1, 0))
	got := drain(ev)
	if len(got) != 1 || got[0].Kind != CrossingEnter {
		t.Fatalf("expected enter under updated radius, got %v", got)
	}
}
