package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"lathe/internal/config"
)

// RunRecord is one journaled pipeline run.
type RunRecord struct {
	ID         string
	Version    string
	DryRun     bool
	Success    bool
	Stages     []string
	Errors     []string
	ReleaseURL string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store journals pipeline runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run-history database under the
// configured log directory.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RecordRun journals one pipeline run. Stage and error lists are stored as
// JSON so the record round-trips losslessly.
func (s *Store) RecordRun(ctx context.Context, record RunRecord) error {
	stages, err := json.Marshal(record.Stages)
	if err != nil {
		return fmt.Errorf("encode stages: %w", err)
	}
	errs, err := json.Marshal(record.Errors)
	if err != nil {
		return fmt.Errorf("encode errors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, version, dry_run, success, stages, errors, release_url, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Version,
		boolToInt(record.DryRun),
		boolToInt(record.Success),
		string(stages),
		string(errs),
		record.ReleaseURL,
		record.StartedAt.UTC().Format(time.RFC3339Nano),
		record.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version, dry_run, success, stages, errors, release_url, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query run records: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			record           RunRecord
			dryRun, success  int
			stages, errsJSON string
			started, ended   string
		)
		if err := rows.Scan(&record.ID, &record.Version, &dryRun, &success,
			&stages, &errsJSON, &record.ReleaseURL, &started, &ended); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		record.DryRun = dryRun != 0
		record.Success = success != 0
		if err := json.Unmarshal([]byte(stages), &record.Stages); err != nil {
			return nil, fmt.Errorf("decode stages: %w", err)
		}
		if err := json.Unmarshal([]byte(errsJSON), &record.Errors); err != nil {
			return nil, fmt.Errorf("decode errors: %w", err)
		}
		if record.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if record.FinishedAt, err = time.Parse(time.RFC3339Nano, ended); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
