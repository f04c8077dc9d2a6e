package spot

import (
	"sort"

	"github.com/quietfield/spotfence/internal/geo"
)

// Rank orders candidates by relevance to the user's position: nearest
// first by great-circle distance, ties broken by spot id. Without a fix
// it falls back to plain spot-id order so the reconciler still produces
// a reproducible outcome before the first location update.
//
// The input slice is not modified; a sorted copy is returned.
func Rank(candidates []Spot, fix *geo.Sample) []Spot {
	ranked := make([]Spot, len(candidates))
	copy(ranked, candidates)

	if fix == nil {
		sort.Slice(ranked, func(i, j int) bool {
			return ranked[i].ID < ranked[j].ID
		})
		return ranked
	}

	from := fix.Point
	dist := make(map[string]float64, len(ranked))
	for _, s := range ranked {
		dist[s.ID] = from.DistanceM(s.Center)
	}
	sort.Slice(ranked, func(i, j int) bool {
		di, dj := dist[ranked[i].ID], dist[ranked[j].ID]
		if di != dj {
			return di < dj
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

// TopK returns the first k entries of ranked, or all of them when the
// pool is smaller. The result aliases the input.
func TopK(ranked []Spot, k int) []Spot {
	if k < 0 {
		k = 0
	}
	if len(ranked) <= k {
		return ranked
	}
	return ranked[:k]
}
