package spot

// Filter selects the spots structurally eligible for monitoring: the
// proximity flag is set, the coordinate is within legal ranges, and the
// radius clamps into the supported bounds. Records failing validation are
// dropped, not errored; the dropped count is returned for observability.
//
// When the global toggle is off the result is always empty, which forces
// the reconciler to release every active region on the next pass.
func Filter(spots []Spot, enabled bool) (eligible []Spot, excluded int) {
	if !enabled {
		return nil, 0
	}

	eligible = make([]Spot, 0, len(spots))
	for _, s := range spots {
		if !s.Notify {
			continue
		}
		if !s.Center.Valid() {
			excluded++
			continue
		}
		s.RadiusM = ClampRadius(s.RadiusM)
		eligible = append(eligible, s)
	}
	return eligible, excluded
}
