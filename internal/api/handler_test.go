package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/quietfield/spotfence/internal/config"
	"github.com/quietfield/spotfence/internal/engine"
	"github.com/quietfield/spotfence/internal/geo"
	"github.com/quietfield/spotfence/internal/monitor"
	"github.com/quietfield/spotfence/internal/notify"
)

func testRouter(t *testing.T) (http.Handler, *engine.Engine) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	evaluator := monitor.NewEvaluator(16, logger)
	eng := engine.New(engine.Config{Cap: 5}, evaluator,
		notify.NewSlogNotifier(logger), nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go eng.Run(ctx)

	h := NewHandler(eng, nil, func(s geo.Sample) {
		eng.UpdateLocation(s)
		evaluator.Observe(s)
	})

	cfg := &config.Config{
		CORSAllowOrigins: []string{"http://localhost:3000"},
		RateLimitEnabled: false,
	}
	return NewRouter(h, cfg), eng
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health/ = %d; want 200", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("status = %v; want healthy", body["status"])
	}
}

func TestEngineStatusEndpoint(t *testing.T) {
	router, eng := testRouter(t)

	eng.SetToggle(true)
	eng.SetAuth(engine.AuthAlways)
	// Barrier so the events above are applied before the HTTP query.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := eng.Status(ctx); err != nil {
		t.Fatalf("Status: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/engine/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/engine/status = %d; want 200", rec.Code)
	}
	var st engine.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Auth != engine.AuthAlways || !st.ToggleEnabled || st.Cap != 5 {
		t.Fatalf("status = %+v; want always/enabled/cap=5", st)
	}
}

func TestPostLocationValidation(t *testing.T) {
	router, _ := testRouter(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"lat": 40.7, "lon": -74.0, "accuracy_m": 10}`, http.StatusAccepted},
		{"bad latitude", `{"lat": 123.0, "lon": 0}`, http.StatusBadRequest},
		{"not json", `lat=1`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/location", strings.NewReader(tc.body))
			router.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("POST /api/v1/location = %d; want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestSetAuthRejectsUnknownState(t *testing.T) {
	router, _ := testRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth", strings.NewReader(`{"state":"sometimes"}`))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown auth state = %d; want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth", strings.NewReader(`{"state":"always"}`))
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("valid auth state = %d; want 202", rec.Code)
	}
}

func TestSpotsWithoutDatabase(t *testing.T) {
	router, _ := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/spots/", nil))
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("GET /api/v1/spots/ without db = %d; want 501", rec.Code)
	}
}
