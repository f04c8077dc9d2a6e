package engine

import "time"

// Deduper collapses at-least-once crossing deliveries into at most one
// notification decision per spot per inside episode. An episode runs from
// the first qualifying enter to its matching exit; repeated enters within
// an episode are platform redeliveries and are swallowed.
type Deduper struct {
	inside map[string]time.Time // spot id -> time the episode's alert fired
}

// NewDeduper creates an empty cooldown table.
func NewDeduper() *Deduper {
	return &Deduper{inside: make(map[string]time.Time)}
}

// Enter records an enter crossing. It returns true when a notification
// should fire, i.e. the spot had no open episode.
func (d *Deduper) Enter(spotID string, at time.Time) bool {
	if _, open := d.inside[spotID]; open {
		return false
	}
	d.inside[spotID] = at
	return true
}

// Exit closes the episode for a spot. Idempotent: exits without a
// matching enter are fine, so a later enter can fire again.
func (d *Deduper) Exit(spotID string) {
	delete(d.inside, spotID)
}

// Inside reports whether the spot has an open episode.
func (d *Deduper) Inside(spotID string) bool {
	_, open := d.inside[spotID]
	return open
}

// Len returns the number of open episodes.
func (d *Deduper) Len() int {
	return len(d.inside)
}
