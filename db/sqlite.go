// Package db records prediction activity in SQLite. Only counts and model metadata are
// stored, never customer feature values.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"churnscope/ml"
)

const (
	KindSingle    = "single"
	KindBatch     = "batch"
	KindWebSocket = "websocket"
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	database, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS activity (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        kind TEXT NOT NULL,
        rows INTEGER NOT NULL,
        churn INTEGER NOT NULL,
        no_churn INTEGER NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_activity_kind ON activity(kind);
    CREATE TABLE IF NOT EXISTS model_loads (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        version TEXT NOT NULL,
        model_type TEXT NOT NULL,
        schema_version TEXT NOT NULL,
        sha256 TEXT NOT NULL,
        path TEXT NOT NULL,
        loaded_at DATETIME NOT NULL
    );
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: database}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Activity is one prediction request: a single record, a batch or a websocket message.
type Activity struct {
	Kind      string    `json:"kind"`
	Rows      int       `json:"rows"`
	Churn     int       `json:"churn"`
	NoChurn   int       `json:"no_churn"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordActivity stores a. A zero CreatedAt is replaced by the current time.
func (s *Store) RecordActivity(ctx context.Context, a Activity) error {
	if a.Kind == "" {
		return errors.New("activity kind required")
	}
	if a.Rows < 0 || a.Churn < 0 || a.NoChurn < 0 || a.Churn+a.NoChurn != a.Rows {
		return fmt.Errorf("inconsistent counts: rows=%d churn=%d no_churn=%d", a.Rows, a.Churn, a.NoChurn)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO activity (kind, rows, churn, no_churn, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		a.Kind, a.Rows, a.Churn, a.NoChurn, a.CreatedAt)
	return err
}

// Totals aggregates all recorded activity.
type Totals struct {
	Requests   int `json:"requests"`
	Batches    int `json:"batches"`
	RowsScored int `json:"rows_scored"`
	Churn      int `json:"churn"`
	NoChurn    int `json:"no_churn"`
}

func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(*),
               COALESCE(SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END), 0),
               COALESCE(SUM(rows), 0),
               COALESCE(SUM(churn), 0),
               COALESCE(SUM(no_churn), 0)
        FROM activity`, KindBatch).Scan(&t.Requests, &t.Batches, &t.RowsScored, &t.Churn, &t.NoChurn)
	if err != nil {
		return Totals{}, err
	}
	return t, nil
}

// RecentActivity returns the newest entries first.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT kind, rows, churn, no_churn, created_at
        FROM activity
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activity := make([]Activity, 0)
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.Kind, &a.Rows, &a.Churn, &a.NoChurn, &a.CreatedAt); err != nil {
			return nil, err
		}
		activity = append(activity, a)
	}
	return activity, rows.Err()
}

// RecordModelLoad notes which artifact the service started with.
func (s *Store) RecordModelLoad(ctx context.Context, info ml.ArtifactInfo) error {
	loadedAt := info.LoadedAt
	if loadedAt.IsZero() {
		loadedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO model_loads (name, version, model_type, schema_version, sha256, path, loaded_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.Name, info.Version, info.ModelType, info.SchemaVersion, info.SHA256, info.Path, loadedAt)
	return err
}

// ModelLoads returns the artifact load history, newest first.
func (s *Store) ModelLoads(ctx context.Context, limit int) ([]ml.ArtifactInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT name, version, model_type, schema_version, sha256, path, loaded_at
        FROM model_loads
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loads := make([]ml.ArtifactInfo, 0)
	for rows.Next() {
		var info ml.ArtifactInfo
		if err := rows.Scan(&info.Name, &info.Version, &info.ModelType, &info.SchemaVersion,
			&info.SHA256, &info.Path, &info.LoadedAt); err != nil {
			return nil, err
		}
		loads = append(loads, info)
	}
	return loads, rows.Err()
}
