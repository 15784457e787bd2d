package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder journals cycles and changes to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps :memory: databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id          TEXT PRIMARY KEY,
			source      TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			duration_ms INTEGER,
			status      TEXT NOT NULL,
			records     INTEGER,
			added       INTEGER,
			updated     INTEGER,
			removed     INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_source_ts ON cycles(source, started_at)`,

		`CREATE TABLE IF NOT EXISTS changes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id    TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			source      TEXT NOT NULL,
			kind        TEXT NOT NULL,
			record_key  TEXT NOT NULL,
			old_json    TEXT,
			new_json    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_changes_cycle ON changes(cycle_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(evt *CycleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO cycles
		(id, source, started_at, duration_ms, status, records, added, updated, removed, error)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		evt.ID, evt.Source, evt.StartedAt.Unix(), evt.Duration.Milliseconds(), evt.Status,
		evt.Records, evt.Added, evt.Updated, evt.Removed, evt.Error,
	)
	return err
}

// RecordChanges inserts all events in one transaction.
func (r *SQLiteRecorder) RecordChanges(events []ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO changes
		(cycle_id, timestamp, source, kind, record_key, old_json, new_json)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, e := range events {
		if _, err := stmt.Exec(e.CycleID, now, e.Source, e.Kind, e.Key, e.OldJSON, e.NewJSON); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert change %s/%s: %w", e.Kind, e.Key, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
