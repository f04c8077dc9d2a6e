package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/quietfield/spotfence/internal/config"
	"github.com/quietfield/spotfence/internal/metrics"
)

// NewRouter creates and configures the Chi router with all middleware
// and routes.
func NewRouter(h *Handler, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type"},
		ExposedHeaders:   []string{"X-Process-Time"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Routes ---

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Engine diagnostics and controls
		r.Route("/engine", func(r chi.Router) {
			r.Get("/status", h.EngineStatus)
			r.Get("/regions", h.EngineRegions)
			r.Put("/toggle", h.SetToggle)
		})

		// Input streams
		r.Post("/location", h.PostLocation)
		r.Post("/auth", h.SetAuth)
		r.Post("/foreground", h.Foreground)

		// Spots
		r.Route("/spots", func(r chi.Router) {
			r.Get("/", h.ListSpots)
			r.Post("/", h.CreateSpot)
			r.Delete("/{id}", h.DeleteSpot)
		})
	})

	return r
}
