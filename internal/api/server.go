// Package api provides the HTTP surface for the urban-edit engine.
// GET endpoints are public (read-only observation). POST /speed requires
// a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/paulmach/orb"

	"github.com/kalstrom/citypulse/internal/edit"
	"github.com/kalstrom/citypulse/internal/geo"
	"github.com/kalstrom/citypulse/internal/orbit"
	"github.com/kalstrom/citypulse/internal/persistence"
	"github.com/kalstrom/citypulse/internal/provider"
	"github.com/kalstrom/citypulse/internal/relief"
	"github.com/kalstrom/citypulse/internal/session"
	"github.com/kalstrom/citypulse/internal/viz"
)

// Server serves the session state over HTTP.
type Server struct {
	Session  *session.Session
	Runner   *orbit.Runner
	Geodata  *provider.Geodata
	Weather  *provider.Weather
	Relief   *relief.Provider
	DB       *persistence.DB
	Port     int
	AdminKey string  // Bearer token for admin POST endpoints. Empty = disabled.
	Radius   float64 // geodata fetch radius in degrees
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/state", s.handleState)
	mux.HandleFunc("/api/v1/geojson", s.handleGeoJSON)
	mux.HandleFunc("/api/v1/render-config", s.handleRenderConfig)
	mux.HandleFunc("/api/v1/progression", s.handleProgression)
	mux.HandleFunc("/api/v1/edits", s.handleEdits)

	// Relief endpoints.
	mux.HandleFunc("/api/v1/relief/elevation", s.handleElevation)
	mux.HandleFunc("/api/v1/relief/hillshade", s.handleHillshade)
	mux.HandleFunc("/api/v1/relief/contours", s.handleContours)
	mux.HandleFunc("/api/v1/relief/elevation-at", s.handleElevationAt)

	// Mutating endpoints (POST).
	mux.HandleFunc("/api/v1/edit", s.handleEdit)
	mux.HandleFunc("/api/v1/reset", s.handleReset)
	mux.HandleFunc("/api/v1/location", s.handleLocation)
	mux.HandleFunc("/api/v1/viewport", s.handleViewport)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
		"http://localhost:8081": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Session.Snapshot()

	nextPass := humanize.RelTime(
		time.Now().Add(time.Duration(st.Clock.Remaining)*time.Second),
		time.Now(), "", "")

	writeJSON(w, map[string]any{
		"name":            "citypulse",
		"iteration":       st.Clock.Iteration,
		"next_pass_in":    strings.TrimSpace(nextPass),
		"remaining":       st.Clock.Remaining,
		"since_last_pass": st.Clock.SinceLast,
		"speed":           s.Runner.Speed,
		"running":         s.Runner.Running,
		"weather":         st.Current,
		"base_weather":    st.Base,
		"charges":         st.Charges,
		"counts":          st.Counts,
		"ranks_achieved":  st.RanksAchieved,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st := s.Session.Snapshot()

	// Hotspot summary from the heat field, as the overlay shows it.
	cfg := s.Session.RenderConfig(viz.DefaultGridSize)
	hot, ok := viz.Hotspot(cfg.Heat)

	payload := map[string]any{
		"state": st,
		"view":  cfg.View,
	}
	if ok {
		payload["hotspot"] = hot
	}
	writeJSON(w, payload)
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Session.GeoJSON())
}

func (s *Server) handleRenderConfig(w http.ResponseWriter, r *http.Request) {
	gridSize := intQuery(r, "grid_size", viz.DefaultGridSize)
	writeJSON(w, s.Session.RenderConfig(gridSize))
}

func (s *Server) handleProgression(w http.ResponseWriter, r *http.Request) {
	st := s.Session.Snapshot()
	writeJSON(w, map[string]any{
		"charges":        st.Charges,
		"requirement":    st.Requirement,
		"percent_life":   st.PercentLife,
		"percent_social": st.PercentSocial,
		"percent_energy": st.PercentEnergy,
		"iteration":      st.Clock.Iteration,
		"ranks_achieved": st.RanksAchieved,
	})
}

func (s *Server) handleEdits(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 50)
	edits, err := s.DB.RecentEdits(limit)
	if err != nil {
		http.Error(w, "journal read failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, edits)
}

// handleEdit applies one tap. An empty remove selection is a non-fatal
// notice, not an error status.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Mode string  `json:"mode"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	mode, ok := edit.ParseMode(req.Mode)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown mode %q", req.Mode), http.StatusBadRequest)
		return
	}

	res, err := s.Session.ApplyTap(mode, orb.Point{req.Lon, req.Lat})
	if err != nil {
		if errors.Is(err, geo.ErrEmptySelection) {
			writeJSON(w, map[string]any{"notice": "empty_selection"})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.journalEdit(mode, req.Lat, req.Lon, res)

	out := map[string]any{"state": s.Session.Snapshot()}
	if res.Created != nil {
		out["created"] = res.Created.ID
	}
	if res.Removed != nil {
		out["removed"] = res.Removed.ID
		out["deleted"] = res.Deleted
	}
	writeJSON(w, out)
}

func (s *Server) journalEdit(mode edit.Mode, lat, lon float64, res edit.Result) {
	if s.DB == nil {
		return
	}
	rec := persistence.EditRecord{
		Iteration: s.Session.Snapshot().Clock.Iteration,
		Mode:      mode.String(),
		Lat:       lat,
		Lon:       lon,
	}
	switch {
	case res.Created != nil:
		rec.Kind = res.Created.Kind.String()
		rec.EntityID = res.Created.ID
	case res.Removed != nil:
		rec.Kind = res.Removed.Kind.String()
		rec.EntityID = res.Removed.ID
	}
	if err := s.DB.SaveEdit(rec); err != nil {
		slog.Error("edit journal write failed", "error", err)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.Session.Reset()
	writeJSON(w, map[string]any{"state": s.Session.Snapshot()})
}

// handleLocation begins a location change. The fetch runs asynchronously;
// results for a superseded location are discarded by the epoch guard.
func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	go s.LoadLocation(req.Lat, req.Lon)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"loading": true})
}

// LoadLocation fetches geodata and weather for a location and installs
// them, falling back to the deterministic mock batch and the fixed
// snapshot when a provider is unavailable. Safe to call from any
// goroutine; stale results are dropped by the session epoch guard.
func (s *Server) LoadLocation(lat, lon float64) {
	epoch := s.Session.BeginLoad(lat, lon)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	batch, err := s.Geodata.Fetch(ctx, lat, lon, s.Radius)
	if err != nil {
		slog.Warn("geodata provider unavailable, using mock batch", "error", err)
		batch = provider.MockEntities(lat, lon, s.Radius)
	}

	base, err := s.Weather.Fetch(ctx, lat, lon)
	if err != nil {
		slog.Warn("weather provider unavailable, using fallback snapshot", "error", err)
		base = provider.FallbackWeather()
	}

	if err := s.Session.ApplyLoad(epoch, batch, base); err != nil {
		return // superseded by a newer location
	}

	// Relief grid follows the active location.
	s.Relief = relief.New(relief.DefaultConfig(lat, lon))
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var vp viz.Viewport
	if err := json.NewDecoder(r.Body).Decode(&vp); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	s.Session.SetViewport(&vp)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleElevation(w http.ResponseWriter, r *http.Request) {
	sampleRate := intQuery(r, "sample_rate", 2)
	writeJSON(w, map[string]any{
		"elevation_data": s.Relief.ElevationData(sampleRate),
		"bounds":         s.Relief.Bounds(),
	})
}

func (s *Server) handleHillshade(w http.ResponseWriter, r *http.Request) {
	sampleRate := intQuery(r, "sample_rate", 2)
	azimuth := floatQuery(r, "azimuth", 315.0)
	altitude := floatQuery(r, "altitude", 45.0)
	writeJSON(w, map[string]any{
		"hillshade_data": s.Relief.Hillshade(sampleRate, azimuth, altitude),
	})
}

func (s *Server) handleContours(w http.ResponseWriter, r *http.Request) {
	var levels []float64
	if raw := r.URL.Query().Get("levels"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				http.Error(w, "invalid levels", http.StatusBadRequest)
				return
			}
			levels = append(levels, v)
		}
	}
	writeJSON(w, map[string]any{"contours": s.Relief.ContourLines(levels)})
}

func (s *Server) handleElevationAt(w http.ResponseWriter, r *http.Request) {
	lat := floatQuery(r, "lat", 0)
	lon := floatQuery(r, "lon", 0)
	writeJSON(w, map[string]any{
		"lat":       lat,
		"lon":       lon,
		"elevation": s.Relief.ElevationAt(lat, lon),
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, map[string]any{"speed": s.Runner.Speed})
		return
	}

	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Speed < 0 || req.Speed > 100 {
		http.Error(w, "speed out of range", http.StatusBadRequest)
		return
	}
	s.Runner.Speed = req.Speed
	slog.Info("clock speed changed", "speed", req.Speed)
	writeJSON(w, map[string]any{"speed": s.Runner.Speed})
}

// checkBearerToken returns true if the request has a valid admin bearer
// token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST
// requests. GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no CITYPULSE_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func intQuery(r *http.Request, key string, def int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}

func floatQuery(r *http.Request, key string, def float64) float64 {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return def
}
