// Package store is the Postgres-backed spot source. It owns the spots
// table, serves read snapshots to the engine, and surfaces change
// notifications through LISTEN/NOTIFY so the engine never polls.
package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quietfield/spotfence/internal/config"
	"github.com/quietfield/spotfence/internal/geo"
	"github.com/quietfield/spotfence/internal/spot"
)

//go:embed schema.sql
var Schema string

// Store wraps pgxpool.Pool with spot-specific helpers.
type Store struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{Pool: pool}, nil
}

// EnsureSchema applies the embedded schema. Idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	var n int
	return s.QueryRow(ctx, "health_check").Scan(&n)
}

// Snapshot returns the full spot list as engine candidates. Radii are
// clamped by the spot constructor, so a snapshot is always valid input
// for filtering.
func (s *Store) Snapshot(ctx context.Context) ([]spot.Spot, error) {
	rows, err := s.Query(ctx, "list_spots")
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	defer rows.Close()

	var spots []spot.Spot
	for rows.Next() {
		var (
			id, name    string
			lat, lon    float64
			radiusM     float64
			wantsNotify bool
		)
		if err := rows.Scan(&id, &name, &lat, &lon, &radiusM, &wantsNotify); err != nil {
			return nil, fmt.Errorf("scan spot: %w", err)
		}
		spots = append(spots, spot.New(id, name, geo.Point{Lat: lat, Lon: lon}, radiusM, wantsNotify))
	}
	return spots, rows.Err()
}

// Add inserts a spot. The id must be set by the caller.
func (s *Store) Add(ctx context.Context, sp spot.Spot) error {
	_, err := s.Exec(ctx, "insert_spot",
		sp.ID, sp.Name, sp.Center.Lat, sp.Center.Lon, sp.RadiusM, sp.Notify)
	if err != nil {
		return fmt.Errorf("insert spot %s: %w", sp.ID, err)
	}
	return nil
}

// Remove deletes a spot by id. Removing an unknown id is not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.Exec(ctx, "delete_spot", id); err != nil {
		return fmt.Errorf("delete spot %s: %w", id, err)
	}
	return nil
}

// registerPreparedStatements registers the statements the service uses.
// Prepared statements eliminate parse overhead on every snapshot.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		"health_check": "SELECT 1",

		"list_spots": "SELECT id::text, name, lat, lon, radius_m, notify FROM spots ORDER BY id",

		"insert_spot": `INSERT INTO spots (id, name, lat, lon, radius_m, notify)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				lat = EXCLUDED.lat,
				lon = EXCLUDED.lon,
				radius_m = EXCLUDED.radius_m,
				notify = EXCLUDED.notify,
				updated_at = now()`,

		"delete_spot": "DELETE FROM spots WHERE id = $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
