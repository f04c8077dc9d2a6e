// Package api exposes the service's HTTP surface: health checks, the
// engine diagnostics endpoints, spot management, and the ingest endpoints
// that feed the location and lifecycle streams.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quietfield/spotfence/internal/api/respond"
	"github.com/quietfield/spotfence/internal/engine"
	"github.com/quietfield/spotfence/internal/geo"
	"github.com/quietfield/spotfence/internal/spot"
	"github.com/quietfield/spotfence/internal/store"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	engine *engine.Engine
	store  *store.Store // nil when running without a database
	// onLocation fans a sample out to the engine and the software
	// monitor; wired by the main.
	onLocation func(geo.Sample)
}

// NewHandler creates a Handler with shared dependencies.
func NewHandler(eng *engine.Engine, st *store.Store, onLocation func(geo.Sample)) *Handler {
	return &Handler{engine: eng, store: st, onLocation: onLocation}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "spotfence",
		"status":  "running",
		"metrics": "/metrics",
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
			"status": "disabled",
		})
		return
	}
	if err := h.store.HealthCheck(r.Context()); err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"status": "healthy"})
}

// --------------------------------------------------------------------------
// Engine diagnostics
// --------------------------------------------------------------------------

// EngineStatus returns the engine's diagnostics snapshot.
func (h *Handler) EngineStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.engine.Status(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "ENGINE_UNAVAILABLE", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, st)
}

// EngineRegions returns the authoritative active region set.
func (h *Handler) EngineRegions(w http.ResponseWriter, r *http.Request) {
	st, err := h.engine.Status(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "ENGINE_UNAVAILABLE", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"cap":     st.Cap,
		"count":   len(st.ActiveRegions),
		"regions": st.ActiveRegions,
	})
}

// SetToggle updates the global proximity-alert toggle.
func (h *Handler) SetToggle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	h.engine.SetToggle(body.Enabled)
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"enabled": body.Enabled})
}

// SetAuth relays a device authorization transition into the engine.
func (h *Handler) SetAuth(w http.ResponseWriter, r *http.Request) {
	var body struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}

	state := engine.AuthState(body.State)
	switch state {
	case engine.AuthNotDetermined, engine.AuthWhenInUse, engine.AuthAlways,
		engine.AuthDenied, engine.AuthRestricted:
	default:
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown authorization state")
		return
	}

	h.engine.SetAuth(state)
	respond.WriteJSONObject(w, http.StatusAccepted, map[string]interface{}{"state": body.State})
}

// Foreground relays an app-foregrounded lifecycle event.
func (h *Handler) Foreground(w http.ResponseWriter, r *http.Request) {
	h.engine.Foreground()
	respond.WriteJSONObject(w, http.StatusAccepted, map[string]interface{}{"status": "accepted"})
}

// PostLocation ingests a location sample into the location stream.
func (h *Handler) PostLocation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Lat       float64 `json:"lat"`
		Lon       float64 `json:"lon"`
		AccuracyM float64 `json:"accuracy_m"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}

	point := geo.Point{Lat: body.Lat, Lon: body.Lon}
	if !point.Valid() {
		respond.WriteError(w, http.StatusBadRequest, "BAD_COORDINATE", "coordinate out of range")
		return
	}

	h.onLocation(geo.Sample{Point: point, AccuracyM: body.AccuracyM, At: time.Now().UTC()})
	respond.WriteJSONObject(w, http.StatusAccepted, map[string]interface{}{"status": "accepted"})
}

// --------------------------------------------------------------------------
// Spot management
// --------------------------------------------------------------------------

// ListSpots returns the stored spot list.
func (h *Handler) ListSpots(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respond.WriteError(w, http.StatusNotImplemented, "NO_DATABASE", "spot storage is not configured")
		return
	}
	spots, err := h.store.Snapshot(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"count": len(spots),
		"spots": spots,
	})
}

// CreateSpot stores a new spot. The change reaches the engine through the
// LISTEN/NOTIFY watcher, not through this handler.
func (h *Handler) CreateSpot(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respond.WriteError(w, http.StatusNotImplemented, "NO_DATABASE", "spot storage is not configured")
		return
	}

	var body struct {
		Name    string  `json:"name"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		RadiusM float64 `json:"radius_m"`
		Notify  bool    `json:"notify"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	point := geo.Point{Lat: body.Lat, Lon: body.Lon}
	if !point.Valid() {
		respond.WriteError(w, http.StatusBadRequest, "BAD_COORDINATE", "coordinate out of range")
		return
	}
	if body.Name == "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "name is required")
		return
	}

	sp := spot.New(uuid.NewString(), body.Name, point, body.RadiusM, body.Notify)
	if err := h.store.Add(r.Context(), sp); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, sp)
}

// DeleteSpot removes a spot by id.
func (h *Handler) DeleteSpot(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respond.WriteError(w, http.StatusNotImplemented, "NO_DATABASE", "spot storage is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid spot id")
		return
	}
	if err := h.store.Remove(r.Context(), id); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"deleted": id})
}
