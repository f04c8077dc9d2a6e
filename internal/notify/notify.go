// Package notify is the delivery boundary for proximity alerts. The
// engine hands over a fire request and does not care about delivery
// beyond logging; implementations may log, push, or forward elsewhere.
package notify

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/quietfield/spotfence/internal/metrics"
)

// Request is a single notification to deliver.
type Request struct {
	SpotID string `json:"spot_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Notifier schedules delivery of a notification request.
type Notifier interface {
	Fire(ctx context.Context, req Request) error
}

// SlogNotifier writes every fire decision to the log. Used by the
// simulator and as the default sink when no push transport is configured.
type SlogNotifier struct {
	logger *slog.Logger
}

// NewSlogNotifier creates a log-backed notifier.
func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	return &SlogNotifier{logger: logger}
}

// Fire logs the notification.
func (n *SlogNotifier) Fire(ctx context.Context, req Request) error {
	n.logger.Info("notification fired",
		"spot_id", req.SpotID, "title", req.Title, "body", req.Body)
	return nil
}

// RateLimited wraps a Notifier with a token bucket. Requests beyond the
// budget are dropped with a warning, never queued; a burst of region
// events must not turn into a burst of alerts.
type RateLimited struct {
	next    Notifier
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRateLimited builds a rate-limited notifier allowing perMinute
// sustained fires with the given burst.
func NewRateLimited(next Notifier, perMinute int, burst int, logger *slog.Logger) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
		logger:  logger,
	}
}

// Fire forwards the request when the budget allows, drops it otherwise.
func (n *RateLimited) Fire(ctx context.Context, req Request) error {
	if !n.limiter.Allow() {
		metrics.NotificationsTotal.WithLabelValues("rate_limited").Inc()
		n.logger.Warn("notification dropped by rate limit", "spot_id", req.SpotID)
		return nil
	}
	return n.next.Fire(ctx, req)
}

var (
	_ Notifier = (*SlogNotifier)(nil)
	_ Notifier = (*RateLimited)(nil)
)
