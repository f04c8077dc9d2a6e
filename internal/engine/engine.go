// Package engine is the geofence synchronization core: it decides which
// subset of candidate spots is actively monitored under the platform
// region cap, keeps that subset correct as spots, location, toggle, and
// authorization change, and converts raw crossings into deduplicated
// notification decisions.
//
// All state lives behind a single event loop. Inputs arrive concurrently
// from independent sources and are serialized through one ordered queue;
// nothing outside the loop touches the active-region set or the cooldown
// table.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quietfield/spotfence/internal/geo"
	"github.com/quietfield/spotfence/internal/metrics"
	"github.com/quietfield/spotfence/internal/monitor"
	"github.com/quietfield/spotfence/internal/notify"
	"github.com/quietfield/spotfence/internal/spot"
)

// Config holds the engine's tunables. The platform cap and the movement
// threshold are deployment constants, supplied here rather than
// hard-coded anywhere in the engine.
type Config struct {
	// Cap is the maximum number of simultaneously monitored regions.
	Cap int
	// MovementThresholdM is how far the user must move since the last
	// reconciliation before movement alone triggers a new pass.
	MovementThresholdM float64
	// SettleDelay postpones the one-shot background-authorization nudge.
	SettleDelay time.Duration
	// ResyncInterval drives the periodic self-healing pass. Zero disables it.
	ResyncInterval time.Duration
	// QueueSize is the event queue buffer.
	QueueSize int
}

func (c Config) withDefaults() Config {
	if c.Cap <= 0 {
		c.Cap = 20
	}
	if c.MovementThresholdM <= 0 {
		c.MovementThresholdM = 500
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	return c
}

// UpgradeRequester asks the platform for "always" authorization. The
// request is asynchronous; its outcome arrives later as an AuthChanged
// event from the authorization callback.
type UpgradeRequester interface {
	RequestAlways(ctx context.Context)
}

// Status is a diagnostics snapshot answered by the event loop.
type Status struct {
	Auth               AuthState        `json:"auth"`
	ToggleEnabled      bool             `json:"toggle_enabled"`
	Cap                int              `json:"cap"`
	ActiveRegions      []monitor.Region `json:"active_regions"`
	RankedIDs          []string         `json:"ranked_ids"`
	ExcludedCandidates int              `json:"excluded_candidates"`
	OpenEpisodes       int              `json:"open_episodes"`
	LastFix            *geo.Sample      `json:"last_fix,omitempty"`
	Reconciles         uint64           `json:"reconciles"`
}

// Engine is the serialized owner of the monitored-region set and the
// cooldown table.
type Engine struct {
	cfg       Config
	notifier  notify.Notifier
	requester UpgradeRequester
	logger    *slog.Logger

	events chan Event
	done   chan struct{}

	// Owned by the event loop.
	spots      []spot.Spot
	fix        *geo.Sample
	lastRanked *geo.Point
	enabled    bool
	excluded   int
	ranked     []spot.Spot
	reconciles uint64
	perm       *PermissionMachine
	rec        *Reconciler
	dedup      *Deduper
}

// New wires an engine to the monitoring boundary and notifier. The
// requester may be nil when the deployment cannot prompt for
// authorization upgrades.
func New(cfg Config, boundary monitor.Boundary, notifier notify.Notifier, requester UpgradeRequester, logger *slog.Logger) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		cfg:       cfg,
		notifier:  notifier,
		requester: requester,
		logger:    logger,
		events:    make(chan Event, cfg.QueueSize),
		done:      make(chan struct{}),
		perm:      NewPermissionMachine(),
		rec:       NewReconciler(boundary, cfg.Cap, logger),
		dedup:     NewDeduper(),
	}
}

// Run consumes the event queue until ctx is cancelled. Intended to be
// called with `go`; all other methods are safe from any goroutine.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)

	var resync <-chan time.Time
	if e.cfg.ResyncInterval > 0 {
		t := time.NewTicker(e.cfg.ResyncInterval)
		defer t.Stop()
		resync = t.C
	}

	e.logger.Info("engine started",
		"cap", e.cfg.Cap,
		"movement_threshold_m", e.cfg.MovementThresholdM,
		"resync_interval", e.cfg.ResyncInterval)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped")
			return
		case <-resync:
			e.reconcile(ctx, "resync")
		case ev := <-e.events:
			metrics.EventQueueDepth.Set(float64(len(e.events)))
			e.handle(ctx, ev)
		}
	}
}

// Push enqueues an event. It blocks while the queue is full and gives up
// once the engine has stopped.
func (e *Engine) Push(ev Event) {
	select {
	case e.events <- ev:
		metrics.EventQueueDepth.Set(float64(len(e.events)))
	case <-e.done:
	}
}

// UpdateSpots publishes a fresh snapshot of the full spot list.
func (e *Engine) UpdateSpots(spots []spot.Spot) { e.Push(SpotsChanged{Spots: spots}) }

// UpdateLocation publishes a new location fix.
func (e *Engine) UpdateLocation(sample geo.Sample) { e.Push(LocationUpdated{Sample: sample}) }

// SetAuth publishes an authorization transition.
func (e *Engine) SetAuth(state AuthState) { e.Push(AuthChanged{State: state}) }

// SetToggle publishes the global proximity-alert toggle.
func (e *Engine) SetToggle(enabled bool) { e.Push(ToggleChanged{Enabled: enabled}) }

// ObserveCrossing publishes a raw boundary crossing.
func (e *Engine) ObserveCrossing(c monitor.Crossing) { e.Push(CrossingObserved{Crossing: c}) }

// Foreground publishes an app-foregrounded lifecycle event.
func (e *Engine) Foreground() { e.Push(Foregrounded{}) }

// Status asks the event loop for a diagnostics snapshot.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	select {
	case e.events <- statusQuery{reply: reply}:
	case <-ctx.Done():
		return Status{}, ctx.Err()
	case <-e.done:
		return Status{}, fmt.Errorf("engine stopped")
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	case <-e.done:
		return Status{}, fmt.Errorf("engine stopped")
	}
}

// --------------------------------------------------------------------------
// Event loop internals
// --------------------------------------------------------------------------

func (e *Engine) handle(ctx context.Context, ev Event) {
	switch ev := ev.(type) {
	case SpotsChanged:
		e.spots = ev.Spots
		e.reconcile(ctx, "spots-changed")

	case LocationUpdated:
		sample := ev.Sample
		e.fix = &sample
		if e.movedBeyondThreshold(sample.Point) {
			e.reconcile(ctx, "moved")
		}

	case ToggleChanged:
		if e.enabled == ev.Enabled {
			return
		}
		e.enabled = ev.Enabled
		e.reconcile(ctx, "toggle")

	case AuthChanged:
		e.handleAuth(ctx, ev.State)

	case CrossingObserved:
		e.handleCrossing(ctx, ev.Crossing)

	case Foregrounded:
		e.reconcile(ctx, "foreground")

	case statusQuery:
		ev.reply <- e.status()
	}
}

func (e *Engine) handleAuth(ctx context.Context, next AuthState) {
	prev := e.perm.State()
	action := e.perm.Transition(next, e.enabled)
	e.logger.Info("authorization changed", "from", prev, "to", next)

	switch action {
	case ActionTeardown:
		released := e.rec.ReleaseAll(ctx)
		e.ranked = nil
		e.logger.Info("authorization lost, regions released", "released", released)

	case ActionResync:
		e.reconcile(ctx, "auth-regained")

	case ActionRequestUpgrade:
		if e.requester == nil {
			return
		}
		req := e.requester
		time.AfterFunc(e.cfg.SettleDelay, func() {
			req.RequestAlways(context.Background())
		})
	}
}

func (e *Engine) handleCrossing(ctx context.Context, c monitor.Crossing) {
	metrics.CrossingsTotal.WithLabelValues(string(c.Kind)).Inc()

	switch c.Kind {
	case monitor.CrossingEnter:
		if !e.dedup.Enter(c.RegionID, c.At) {
			metrics.NotificationsTotal.WithLabelValues("suppressed").Inc()
			return
		}
		e.fire(ctx, c.RegionID)

	case monitor.CrossingExit:
		e.dedup.Exit(c.RegionID)
	}
}

func (e *Engine) fire(ctx context.Context, spotID string) {
	title, body := "Saved spot", "You're near a saved spot"
	for _, s := range e.spots {
		if s.ID == spotID {
			title = s.Name
			body = fmt.Sprintf("You're near %s", s.Name)
			break
		}
	}

	metrics.NotificationsTotal.WithLabelValues("fired").Inc()
	if err := e.notifier.Fire(ctx, notify.Request{SpotID: spotID, Title: title, Body: body}); err != nil {
		// Delivery is the boundary's problem; log and move on.
		e.logger.Warn("notification delivery failed", "spot_id", spotID, "error", err)
	}
}

func (e *Engine) movedBeyondThreshold(p geo.Point) bool {
	if e.lastRanked == nil {
		return true
	}
	return e.lastRanked.DistanceM(p) > e.cfg.MovementThresholdM
}

// reconcile recomputes the desired monitoring set and applies the delta.
// An empty desired set (toggle off, insufficient authorization, no
// candidates) releases everything through the same diff.
func (e *Engine) reconcile(ctx context.Context, trigger string) {
	metrics.ReconcilesTotal.WithLabelValues(trigger).Inc()
	e.reconciles++

	eligible, excluded := spot.Filter(e.spots, e.enabled)
	e.excluded = excluded
	if excluded > 0 {
		metrics.CandidatesExcludedTotal.Add(float64(excluded))
	}

	if !e.perm.Authorized() {
		eligible = nil
	}
	e.ranked = spot.Rank(eligible, e.fix)

	delta := e.rec.Reconcile(ctx, e.ranked)
	if e.fix != nil {
		p := e.fix.Point
		e.lastRanked = &p
	}

	if !delta.Empty() || delta.Saturated > 0 {
		e.logger.Info("reconciled",
			"trigger", trigger,
			"active", e.rec.ActiveCount(),
			"started", delta.Started,
			"updated", delta.Updated,
			"stopped", delta.Stopped,
			"start_failed", delta.StartFailed,
			"stop_failed", delta.StopFailed,
			"saturated", delta.Saturated)
	}
}

func (e *Engine) status() Status {
	rankedIDs := make([]string, len(e.ranked))
	for i, s := range e.ranked {
		rankedIDs[i] = s.ID
	}
	return Status{
		Auth:               e.perm.State(),
		ToggleEnabled:      e.enabled,
		Cap:                e.cfg.Cap,
		ActiveRegions:      e.rec.Active(),
		RankedIDs:          rankedIDs,
		ExcludedCandidates: e.excluded,
		OpenEpisodes:       e.dedup.Len(),
		LastFix:            e.fix,
		Reconciles:         e.reconciles,
	}
}
