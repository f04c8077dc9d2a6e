package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	channel          = "spots_changed"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Watch opens a dedicated connection (not from the pool) and listens on
// the spots_changed channel, invoking onChange after every mutation of
// the spots table. It reconnects automatically on connection loss and
// fires onChange once after each (re)connect so changes missed while
// disconnected are picked up. Blocks until ctx is cancelled; intended to
// be called with `go`.
func Watch(ctx context.Context, dbURL string, onChange func(context.Context), logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, onChange, logger)
		if ctx.Err() != nil {
			logger.Info("spot watcher stopped (context cancelled)")
			return
		}

		logger.Error("spot watcher disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection
// drops or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, onChange func(context.Context), logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	logger.Info("spot watcher connected", "channel", channel)

	// Catch up on anything that changed while we were not listening.
	onChange(ctx)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		logger.Debug("spot change received", "payload", notification.Payload)
		onChange(ctx)
	}
}
