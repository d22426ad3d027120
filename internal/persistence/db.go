// Package persistence provides SQLite-backed journaling of edit actions
// and session metadata.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/kalstrom/citypulse/internal/session"
)

// DB wraps a SQLite connection for the edit journal.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS edits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		iteration INTEGER NOT NULL,
		mode TEXT NOT NULL,
		kind TEXT NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		entity_id TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS session_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		iteration INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS session_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_edits_iteration ON edits(iteration);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// EditRecord is one journaled edit action.
type EditRecord struct {
	ID        int64   `db:"id" json:"id"`
	Iteration int     `db:"iteration" json:"iteration"`
	Mode      string  `db:"mode" json:"mode"`
	Kind      string  `db:"kind" json:"kind"`
	Lat       float64 `db:"lat" json:"lat"`
	Lon       float64 `db:"lon" json:"lon"`
	EntityID  string  `db:"entity_id" json:"entity_id"`
	CreatedAt int64   `db:"created_at" json:"created_at"`
}

// SaveEdit appends one edit action to the journal.
func (db *DB) SaveEdit(rec EditRecord) error {
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}
	_, err := db.conn.Exec(
		`INSERT INTO edits (iteration, mode, kind, lat, lon, entity_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Iteration, rec.Mode, rec.Kind, rec.Lat, rec.Lon, rec.EntityID, rec.CreatedAt,
	)
	return err
}

// RecentEdits returns the most recent N edit actions.
func (db *DB) RecentEdits(limit int) ([]EditRecord, error) {
	var out []EditRecord
	err := db.conn.Select(&out,
		"SELECT id, iteration, mode, kind, lat, lon, entity_id, created_at FROM edits ORDER BY id DESC LIMIT ?",
		limit,
	)
	return out, err
}

// SaveEvents appends session events to the journal.
func (db *DB) SaveEvents(events []session.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO session_events (iteration, description, category) VALUES (?, ?, ?)",
			e.Iteration, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in session metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO session_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM session_meta WHERE key = ?", key)
	return value, err
}

// SaveSession records the displayable session state: location, clock
// iteration, and the base weather snapshot as JSON.
func (db *DB) SaveSession(state session.State) error {
	baseJSON, _ := json.Marshal(state.Base)

	if err := db.SaveMeta("location", fmt.Sprintf("%.5f,%.5f", state.Location[1], state.Location[0])); err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	if err := db.SaveMeta("iteration", fmt.Sprintf("%d", state.Clock.Iteration)); err != nil {
		return fmt.Errorf("save iteration: %w", err)
	}
	if err := db.SaveMeta("base_weather", string(baseJSON)); err != nil {
		return fmt.Errorf("save base weather: %w", err)
	}
	if err := db.SaveEvents(state.Events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}

	slog.Info("session state saved", "iteration", state.Clock.Iteration)
	return nil
}
