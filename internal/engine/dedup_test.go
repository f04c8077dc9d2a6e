package engine

import (
	"testing"
	"time"
)

func TestDeduperOneFirePerEpisode(t *testing.T) {
	d := NewDeduper()
	now := time.Now()

	if !d.Enter("cafe", now) {
		t.Fatal("first enter must fire")
	}
	// Platform redelivery of the same enter.
	if d.Enter("cafe", now.Add(time.Minute)) {
		t.Fatal("duplicate enter within an episode must not fire")
	}
	if !d.Inside("cafe") {
		t.Fatal("episode should be open")
	}

	d.Exit("cafe")
	if d.Inside("cafe") {
		t.Fatal("exit must close the episode")
	}

	// A fresh episode fires again.
	if !d.Enter("cafe", now.Add(2*time.Minute)) {
		t.Fatal("enter after exit must fire again")
	}
}

func TestDeduperExitIdempotent(t *testing.T) {
	d := NewDeduper()

	// Exit without a matching enter is fine.
	d.Exit("park")
	d.Exit("park")

	if !d.Enter("park", time.Now()) {
		t.Fatal("enter after orphan exits must fire")
	}
	d.Exit("park")
	d.Exit("park")
	if d.Len() != 0 {
		t.Fatalf("Len = %d; want 0", d.Len())
	}
}

func TestDeduperIndependentSpots(t *testing.T) {
	d := NewDeduper()
	now := time.Now()

	if !d.Enter("a", now) || !d.Enter("b", now) {
		t.Fatal("first enters for distinct spots must both fire")
	}
	d.Exit("a")
	if d.Enter("b", now) {
		t.Fatal("b's episode is still open")
	}
	if !d.Enter("a", now) {
		t.Fatal("a's new episode must fire")
	}
	if d.Len() != 2 {
		t.Fatalf("Len = %d; want 2", d.Len())
	}
}
