// Command citypulse runs the urban-edit game engine and its HTTP API.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kalstrom/citypulse/internal/api"
	"github.com/kalstrom/citypulse/internal/orbit"
	"github.com/kalstrom/citypulse/internal/persistence"
	"github.com/kalstrom/citypulse/internal/provider"
	"github.com/kalstrom/citypulse/internal/relief"
	"github.com/kalstrom/citypulse/internal/session"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Optional .env file; real env always wins.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env")
	}

	port := envInt("CITYPULSE_PORT", 8080)
	dbPath := envStr("CITYPULSE_DB", "data/citypulse.db")
	lat := envFloat("CITYPULSE_LAT", 52.52)
	lon := envFloat("CITYPULSE_LON", 13.405)
	radius := envFloat("CITYPULSE_RADIUS", 0.01)
	adminKey := os.Getenv("CITYPULSE_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("CITYPULSE_ADMIN_KEY not set, admin endpoints will be disabled")
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll("data", 0755)
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	// ── Session + clock ───────────────────────────────────────────────
	sess := session.New(time.Now().UnixNano())
	runner := orbit.NewRunner()

	server := &api.Server{
		Session:  sess,
		Runner:   runner,
		Geodata:  provider.NewGeodata(),
		Weather:  provider.NewWeather(),
		Relief:   relief.New(relief.DefaultConfig(lat, lon)),
		DB:       db,
		Port:     port,
		AdminKey: adminKey,
		Radius:   radius,
	}

	// Initial load; provider failure falls back to the mock batch and the
	// fixed weather snapshot, so the session always starts renderable.
	server.LoadLocation(lat, lon)

	// Each satellite pass checkpoints the session.
	runner.OnTick = func() {
		for _, ev := range sess.Tick() {
			if ev.Type == orbit.PassCompleted {
				if err := db.SaveSession(sess.Snapshot()); err != nil {
					slog.Error("pass checkpoint failed", "error", err)
				}
			}
		}
	}

	server.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		runner.Stop()
	}()

	fmt.Printf("citypulse is live at (%.4f, %.4f).\n", lat, lon)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", port)
	fmt.Println("Starting orbit clock... (Ctrl+C to stop)")

	runner.Run()

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveSession(sess.Snapshot()); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Clock stopped. Session state saved.")
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
