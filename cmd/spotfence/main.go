// Command spotfence is the spotfence CLI.
//
// Usage:
//
//	spotfence simulate --spots 40 --cap 5 --steps 200
//	spotfence simulate --seed 7 --step-m 150
//	spotfence schema
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/quietfield/spotfence/internal/engine"
	"github.com/quietfield/spotfence/internal/geo"
	"github.com/quietfield/spotfence/internal/monitor"
	"github.com/quietfield/spotfence/internal/notify"
	"github.com/quietfield/spotfence/internal/spot"
	"github.com/quietfield/spotfence/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "spotfence",
		Short: "Geofence synchronization engine CLI",
	}

	root.AddCommand(simulateCmd())
	root.AddCommand(schemaCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// simulate command
// --------------------------------------------------------------------------

func simulateCmd() *cobra.Command {
	var (
		spots     int
		cap       int
		steps     int
		stepM     float64
		seed      int64
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the full engine in memory against a scripted walk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd.Context(), spots, cap, steps, stepM, seed, threshold)
		},
	}

	cmd.Flags().IntVar(&spots, "spots", 40, "Number of random spots to seed")
	cmd.Flags().IntVar(&cap, "cap", 5, "Platform monitoring cap")
	cmd.Flags().IntVar(&steps, "steps", 200, "Walk steps")
	cmd.Flags().Float64Var(&stepM, "step-m", 100, "Metres walked per step")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	cmd.Flags().Float64Var(&threshold, "movement-threshold", 250, "Movement threshold in metres")
	return cmd
}

func runSimulation(ctx context.Context, nSpots, cap, steps int, stepM float64, seed int64, threshold float64) error {
	start := time.Now()
	rng := rand.New(rand.NewSource(seed))

	evaluator := monitor.NewEvaluator(256, logger)
	eng := engine.New(engine.Config{
		Cap:                cap,
		MovementThresholdM: threshold,
		SettleDelay:        time.Millisecond,
	}, evaluator, notify.NewSlogNotifier(logger), nil, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go eng.Run(runCtx)
	go func() {
		for {
			select {
			case c := <-evaluator.Events():
				eng.ObserveCrossing(c)
			case <-runCtx.Done():
				return
			}
		}
	}()

	// Seed random spots within ~5 km of the origin.
	const origin = 52.52 // Berlin-ish latitude keeps the math honest
	spread := 5000.0
	pool := make([]spot.Spot, 0, nSpots)
	for i := 0; i < nSpots; i++ {
		dLat := (rng.Float64()*2 - 1) * spread / 111195.0
		dLon := (rng.Float64()*2 - 1) * spread / 111195.0
		pool = append(pool, spot.New(
			uuid.NewString(),
			fmt.Sprintf("spot-%02d", i),
			geo.Point{Lat: origin + dLat, Lon: dLon},
			float64(100+rng.Intn(400)),
			true,
		))
	}

	eng.SetToggle(true)
	eng.SetAuth(engine.AuthAlways)
	eng.UpdateSpots(pool)

	// Walk north, one step at a time, feeding the same samples to the
	// engine (re-ranking) and the evaluator (crossing detection).
	for i := 0; i < steps; i++ {
		lat := origin - spread/2/111195.0 + float64(i)*stepM/111195.0
		sample := geo.Sample{Point: geo.Point{Lat: lat, Lon: 0}, AccuracyM: 10, At: time.Now()}
		eng.UpdateLocation(sample)
		evaluator.Observe(sample)
	}

	// Let the queue drain, then report.
	statusCtx, statusCancel := context.WithTimeout(ctx, 5*time.Second)
	defer statusCancel()
	st, err := eng.Status(statusCtx)
	if err != nil {
		return fmt.Errorf("engine status: %w", err)
	}

	logger.Info("Simulation finished",
		"duration", time.Since(start).Round(time.Millisecond),
		"spots", nSpots,
		"cap", st.Cap,
		"active_regions", len(st.ActiveRegions),
		"open_episodes", st.OpenEpisodes,
		"reconciles", st.Reconciles)
	return nil
}

// --------------------------------------------------------------------------
// schema command
// --------------------------------------------------------------------------

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the Postgres schema for the spot store",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(store.Schema)
		},
	}
}
