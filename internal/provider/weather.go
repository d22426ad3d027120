// Package provider holds the external data boundaries: the geodata
// provider and the weather provider, each with a deterministic local
// fallback so total provider failure never fails a session.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kalstrom/citypulse/internal/climate"
)

// Weather fetches current conditions from the Open-Meteo API.
type Weather struct {
	endpoint string
	client   *http.Client

	mu          sync.Mutex
	cached      *climate.Snapshot
	cachedAt    time.Time
	cacheTTL    time.Duration
	lastFailAt  time.Time
	failBackoff time.Duration
}

// NewWeather creates a weather client. Open-Meteo needs no API key.
func NewWeather() *Weather {
	return &Weather{
		endpoint: "https://api.open-meteo.com/v1/forecast",
		client:   &http.Client{Timeout: 10 * time.Second},
		cacheTTL: 5 * time.Minute,
	}
}

// FallbackWeather is the fixed snapshot used when the provider is
// unavailable: a mild, breezy day at ambient CO2.
func FallbackWeather() climate.Snapshot {
	return climate.Snapshot{
		Temperature:   18.5,
		WindSpeed:     12.0,
		WindDirection: 230.0,
		Humidity:      64.0,
		CO2:           417.0,
		Pressure:      1013.0,
	}
}

// Fetch retrieves current conditions for a location, using cache if
// fresh. The caller composes the fallback: fetch().orElse(FallbackWeather).
func (w *Weather) Fetch(ctx context.Context, lat, lon float64) (climate.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cached != nil && time.Since(w.cachedAt) < w.cacheTTL {
		return *w.cached, nil
	}

	// Backoff on repeated failures (up to 10 minutes).
	if w.failBackoff > 0 && time.Since(w.lastFailAt) < w.failBackoff {
		if w.cached != nil {
			return *w.cached, nil
		}
		return climate.Snapshot{}, fmt.Errorf("weather API backoff (%s remaining)",
			w.failBackoff-time.Since(w.lastFailAt))
	}

	snap, err := w.fetchFromAPI(ctx, lat, lon)
	if err != nil {
		w.lastFailAt = time.Now()
		if w.failBackoff == 0 {
			w.failBackoff = time.Minute
		} else if w.failBackoff < 10*time.Minute {
			w.failBackoff *= 2
		}
		if w.cached != nil {
			return *w.cached, nil
		}
		return climate.Snapshot{}, err
	}

	w.cached = &snap
	w.cachedAt = time.Now()
	w.failBackoff = 0
	return snap, nil
}

func (w *Weather) fetchFromAPI(ctx context.Context, lat, lon float64) (climate.Snapshot, error) {
	apiURL := fmt.Sprintf(
		"%s?latitude=%.4f&longitude=%.4f&current=temperature_2m,relative_humidity_2m,surface_pressure,wind_speed_10m,wind_direction_10m&wind_speed_unit=kmh",
		w.endpoint, lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return climate.Snapshot{}, fmt.Errorf("weather request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return climate.Snapshot{}, fmt.Errorf("weather API call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return climate.Snapshot{}, fmt.Errorf("read weather response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return climate.Snapshot{}, fmt.Errorf("weather API error %d: %s", resp.StatusCode, string(body))
	}

	var om struct {
		Current struct {
			Temperature   float64 `json:"temperature_2m"`
			Humidity      float64 `json:"relative_humidity_2m"`
			Pressure      float64 `json:"surface_pressure"`
			WindSpeed     float64 `json:"wind_speed_10m"`
			WindDirection float64 `json:"wind_direction_10m"`
		} `json:"current"`
	}
	if err := json.Unmarshal(body, &om); err != nil {
		return climate.Snapshot{}, fmt.Errorf("parse weather: %w", err)
	}

	snap := climate.Snapshot{
		Temperature:   om.Current.Temperature,
		WindSpeed:     om.Current.WindSpeed,
		WindDirection: om.Current.WindDirection,
		Humidity:      om.Current.Humidity,
		// The feed carries no CO2 channel; hold the ambient baseline and
		// let edits move it.
		CO2:      417.0,
		Pressure: om.Current.Pressure,
	}

	slog.Debug("weather fetched", "temp", snap.Temperature, "wind", snap.WindSpeed)
	return snap, nil
}
