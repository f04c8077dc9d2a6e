package spot

import (
	"testing"

	"github.com/quietfield/spotfence/internal/geo"
)

func TestClampRadius(t *testing.T) {
	cases := []struct {
		name  string
		input float64
		want  float64
	}{
		{"below minimum", 10, 50},
		{"above maximum", 100000, 50000},
		{"in range", 200, 200},
		{"at minimum", 50, 50},
		{"at maximum", 50000, 50000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClampRadius(tc.input); got != tc.want {
				t.Fatalf("ClampRadius(%v) = %v; want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestFilterToggleOff(t *testing.T) {
	spots := []Spot{
		New("a", "A", geo.Point{Lat: 1, Lon: 1}, 200, true),
		New("b", "B", geo.Point{Lat: 2, Lon: 2}, 200, true),
	}
	eligible, excluded := Filter(spots, false)
	if len(eligible) != 0 {
		t.Fatalf("toggle off: got %d eligible; want 0", len(eligible))
	}
	if excluded != 0 {
		t.Fatalf("toggle off: got %d excluded; want 0", excluded)
	}
}

func TestFilterValidation(t *testing.T) {
	spots := []Spot{
		{ID: "ok", Center: geo.Point{Lat: 10, Lon: 10}, RadiusM: 200, Notify: true},
		{ID: "no-notify", Center: geo.Point{Lat: 10, Lon: 10}, RadiusM: 200, Notify: false},
		{ID: "bad-lat", Center: geo.Point{Lat: 95, Lon: 10}, RadiusM: 200, Notify: true},
		{ID: "bad-lon", Center: geo.Point{Lat: 10, Lon: 190}, RadiusM: 200, Notify: true},
		{ID: "tiny-radius", Center: geo.Point{Lat: 11, Lon: 11}, RadiusM: 10, Notify: true},
		{ID: "huge-radius", Center: geo.Point{Lat: 12, Lon: 12}, RadiusM: 100000, Notify: true},
	}

	eligible, excluded := Filter(spots, true)

	if len(eligible) != 3 {
		t.Fatalf("got %d eligible; want 3", len(eligible))
	}
	if excluded != 2 {
		t.Fatalf("got %d excluded; want 2 (bad coordinates)", excluded)
	}

	byID := make(map[string]Spot)
	for _, s := range eligible {
		byID[s.ID] = s
	}
	if _, ok := byID["no-notify"]; ok {
		t.Fatal("spot without notify flag must not be eligible")
	}
	if got := byID["tiny-radius"].RadiusM; got != MinRadiusM {
		t.Fatalf("tiny radius clamped to %v; want %v", got, float64(MinRadiusM))
	}
	if got := byID["huge-radius"].RadiusM; got != MaxRadiusM {
		t.Fatalf("huge radius clamped to %v; want %v", got, float64(MaxRadiusM))
	}
	if got := byID["ok"].RadiusM; got != 200 {
		t.Fatalf("in-range radius changed to %v; want 200", got)
	}
}
