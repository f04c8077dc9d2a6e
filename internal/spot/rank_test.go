package spot

import (
	"testing"
	"time"

	"github.com/quietfield/spotfence/internal/geo"
)

func ids(spots []Spot) []string {
	out := make([]string, len(spots))
	for i, s := range spots {
		out[i] = s.ID
	}
	return out
}

func equalIDs(a []Spot, want ...string) bool {
	if len(a) != len(want) {
		return false
	}
	for i, s := range a {
		if s.ID != want[i] {
			return false
		}
	}
	return true
}

func TestRankNearestFirst(t *testing.T) {
	// User at the origin; spots at increasing latitude offsets.
	fix := &geo.Sample{Point: geo.Point{Lat: 0, Lon: 0}, At: time.Now()}
	spots := []Spot{
		New("far", "Far", geo.Point{Lat: 5, Lon: 0}, 200, true),
		New("near", "Near", geo.Point{Lat: 0.001, Lon: 0}, 200, true),
		New("mid", "Mid", geo.Point{Lat: 0.5, Lon: 0}, 200, true),
	}

	ranked := Rank(spots, fix)
	if !equalIDs(ranked, "near", "mid", "far") {
		t.Fatalf("ranked = %v; want [near mid far]", ids(ranked))
	}

	// Input order must be untouched.
	if spots[0].ID != "far" {
		t.Fatal("Rank mutated its input slice")
	}
}

func TestRankTieBreakByID(t *testing.T) {
	fix := &geo.Sample{Point: geo.Point{Lat: 0, Lon: 0}, At: time.Now()}
	same := geo.Point{Lat: 1, Lon: 1}
	spots := []Spot{
		New("b", "B", same, 200, true),
		New("a", "A", same, 200, true),
		New("c", "C", same, 200, true),
	}

	ranked := Rank(spots, fix)
	if !equalIDs(ranked, "a", "b", "c") {
		t.Fatalf("ranked = %v; want deterministic id order on ties", ids(ranked))
	}
}

func TestRankNoFixFallback(t *testing.T) {
	spots := []Spot{
		New("c", "C", geo.Point{Lat: 3, Lon: 3}, 200, true),
		New("a", "A", geo.Point{Lat: 1, Lon: 1}, 200, true),
		New("b", "B", geo.Point{Lat: 2, Lon: 2}, 200, true),
	}

	ranked := Rank(spots, nil)
	if !equalIDs(ranked, "a", "b", "c") {
		t.Fatalf("ranked = %v; want stable id order without a fix", ids(ranked))
	}

	// Same input, same output; the fallback must be deterministic.
	again := Rank(spots, nil)
	if !equalIDs(again, "a", "b", "c") {
		t.Fatalf("second ranking differs: %v", ids(again))
	}
}

func TestTopK(t *testing.T) {
	spots := []Spot{
		New("a", "A", geo.Point{Lat: 1, Lon: 1}, 200, true),
		New("b", "B", geo.Point{Lat: 2, Lon: 2}, 200, true),
		New("c", "C", geo.Point{Lat: 3, Lon: 3}, 200, true),
	}

	if got := TopK(spots, 2); !equalIDs(got, "a", "b") {
		t.Fatalf("TopK(2) = %v", ids(got))
	}
	if got := TopK(spots, 10); len(got) != 3 {
		t.Fatalf("TopK larger than pool returned %d entries", len(got))
	}
	if got := TopK(spots, 0); len(got) != 0 {
		t.Fatalf("TopK(0) returned %d entries", len(got))
	}
	if got := TopK(spots, -1); len(got) != 0 {
		t.Fatalf("TopK(-1) returned %d entries", len(got))
	}
}
