// Package persistence provides SQLite-based simulation state storage. Actors
// are stored as one JSON snapshot per row; goal and preference structures are
// rebuilt from the snapshot on load, so the schema stays stable as the
// in-memory structures evolve.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/menger/internal/actor"
	"github.com/talgya/menger/internal/engine"
)

// DB wraps a SQLite connection for simulation state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path. ":memory:" gives
// an ephemeral store, used by tests.
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
	CREATE TABLE IF NOT EXISTS actors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		snapshot_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sim_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveActors writes all actor snapshots to the database (full replace).
func (db *DB) SaveActors(snaps []actor.Snapshot) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM actors"); err != nil {
		return err
	}

	stmt, err := tx.Preparex("INSERT INTO actors (id, name, snapshot_json) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, snap := range snaps {
		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("marshal actor %s: %w", snap.ID, err)
		}
		if _, err := stmt.Exec(snap.ID, snap.Name, string(data)); err != nil {
			return fmt.Errorf("insert actor %s: %w", snap.ID, err)
		}
	}

	return tx.Commit()
}

// LoadActors reads every stored actor snapshot and reconstructs the actors.
func (db *DB) LoadActors() ([]*actor.Actor, error) {
	var rows []struct {
		ID           string `db:"id"`
		SnapshotJSON string `db:"snapshot_json"`
	}
	if err := db.conn.Select(&rows, "SELECT id, snapshot_json FROM actors ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load actors: %w", err)
	}

	actors := make([]*actor.Actor, 0, len(rows))
	for _, row := range rows {
		var snap actor.Snapshot
		if err := json.Unmarshal([]byte(row.SnapshotJSON), &snap); err != nil {
			return nil, fmt.Errorf("unmarshal actor %s: %w", row.ID, err)
		}
		a, err := actor.FromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		actors = append(actors, a)
	}
	return actors, nil
}

// HasActors reports whether any actors are stored.
func (db *DB) HasActors() (bool, error) {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM actors"); err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveEvents replaces the stored event log with the simulation's current
// ring. The ring is bounded, so repeated autosaves stay the same size instead
// of accumulating duplicates.
func (db *DB) SaveEvents(events []engine.Event) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM events"); err != nil {
		return err
	}

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (tick, description, category) VALUES (?, ?, ?)",
			e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N stored events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in simulation metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO sim_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM sim_meta WHERE key = ?", key)
	return value, err
}

// LastTick returns the stored tick counter, or 0 when none was saved.
func (db *DB) LastTick() uint64 {
	v, err := db.GetMeta("last_tick")
	if err != nil {
		return 0
	}
	tick, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return tick
}

// SaveSimulation performs a full save of all simulation state.
func (db *DB) SaveSimulation(sim *engine.Simulation) error {
	snaps := sim.Snapshots()
	slog.Info("saving simulation state", "actors", len(snaps), "tick", sim.CurrentTick())

	if err := db.SaveActors(snaps); err != nil {
		return fmt.Errorf("save actors: %w", err)
	}
	if err := db.SaveEvents(sim.RecentEvents(1000)); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("last_tick", fmt.Sprintf("%d", sim.CurrentTick())); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("simulation state saved")
	return nil
}
