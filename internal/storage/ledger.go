// Package storage persists run history for the extraction pipeline.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Database drivers registered by side effect.
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/observability"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("run not found")

const previewLength = 100

// ImageRecord is one per-image row of a recorded run.
type ImageRecord struct {
	RunID      string
	Position   int
	Label      string
	SourcePath string
	Failed     bool
	Words      int
	Chars      int
	Preview    string
	ElapsedMS  int64
}

// Ledger records completed runs and serves run history. A ledger failure
// never aborts an extraction run; callers log it and continue.
type Ledger struct {
	db     *sql.DB
	logger *observability.Logger
}

// Open opens the ledger database and bootstraps its schema. Driver is
// "sqlite" or "postgres"; for sqlite the DSN is the database file path.
func Open(ctx context.Context, driver, dsn string, logger *observability.Logger) (*Ledger, error) {
	name := driverName(driver)
	if name == "sqlite3" && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create ledger folder: %w", err)
		}
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	if name == "sqlite3" {
		// SQLite is single-writer; a second pooled connection to
		// :memory: would also see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to ledger database: %w", err)
	}

	l := &Ledger{db: db, logger: logger.WithComponent("ledger")}
	if err := l.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap ledger schema: %w", err)
	}
	return l, nil
}

func driverName(driver string) string {
	if driver == "postgres" {
		return "postgres"
	}
	return "sqlite3"
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) ensureSchema(ctx context.Context) error {
	statements := []string{
		`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP NOT NULL,
			total INTEGER NOT NULL,
			succeeded INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			report_path TEXT NOT NULL,
			summary_path TEXT NOT NULL
		)
		`,
		`
		CREATE TABLE IF NOT EXISTS run_images (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			label TEXT NOT NULL,
			source_path TEXT NOT NULL,
			failed BOOLEAN NOT NULL,
			words INTEGER NOT NULL,
			chars INTEGER NOT NULL,
			preview TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			PRIMARY KEY (run_id, position)
		)
		`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs (started_at)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun stores one completed run with its per-image rows.
func (l *Ledger) RecordRun(ctx context.Context, stats domain.RunStats, results []domain.ExtractionResult) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer tx.Rollback()

	runQuery := `
		INSERT INTO runs (id, model, started_at, completed_at, total, succeeded, failed, report_path, summary_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.ExecContext(ctx, runQuery,
		stats.RunID, stats.Model, stats.StartedAt, stats.CompletedAt,
		stats.Total, stats.Succeeded, stats.Failed,
		stats.ReportPath, stats.SummaryPath,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	imageQuery := `
		INSERT INTO run_images (run_id, position, label, source_path, failed, words, chars, preview, elapsed_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for i, res := range results {
		_, err = tx.ExecContext(ctx, imageQuery,
			stats.RunID, i+1, res.Image.Label, res.Image.Path, res.Failed,
			res.WordCount(), res.CharCount(), res.Preview(previewLength),
			res.Elapsed.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("insert run image %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}

	l.logger.Debug().
		Str("run_id", stats.RunID).
		Int("images", len(results)).
		Int64("elapsed_ms", stats.CompletedAt.Sub(stats.StartedAt).Milliseconds()).
		Msg("Recorded run")
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]domain.RunStats, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, model, started_at, completed_at, total, succeeded, failed, report_path, summary_path
		FROM runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.RunStats
	for rows.Next() {
		var s domain.RunStats
		if err := rows.Scan(
			&s.RunID, &s.Model, &s.StartedAt, &s.CompletedAt,
			&s.Total, &s.Succeeded, &s.Failed,
			&s.ReportPath, &s.SummaryPath,
		); err != nil {
			return nil, err
		}
		runs = append(runs, s)
	}
	return runs, rows.Err()
}

// GetRun retrieves one run by ID.
func (l *Ledger) GetRun(ctx context.Context, runID string) (*domain.RunStats, error) {
	query := `
		SELECT id, model, started_at, completed_at, total, succeeded, failed, report_path, summary_path
		FROM runs WHERE id = $1
	`
	s := &domain.RunStats{}
	err := l.db.QueryRowContext(ctx, query, runID).Scan(
		&s.RunID, &s.Model, &s.StartedAt, &s.CompletedAt,
		&s.Total, &s.Succeeded, &s.Failed,
		&s.ReportPath, &s.SummaryPath,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// RunImages returns a run's per-image rows in input order.
func (l *Ledger) RunImages(ctx context.Context, runID string) ([]ImageRecord, error) {
	query := `
		SELECT run_id, position, label, source_path, failed, words, chars, preview, elapsed_ms
		FROM run_images
		WHERE run_id = $1
		ORDER BY position
	`
	rows, err := l.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []ImageRecord
	for rows.Next() {
		var rec ImageRecord
		if err := rows.Scan(
			&rec.RunID, &rec.Position, &rec.Label, &rec.SourcePath,
			&rec.Failed, &rec.Words, &rec.Chars, &rec.Preview, &rec.ElapsedMS,
		); err != nil {
			return nil, err
		}
		images = append(images, rec)
	}
	return images, rows.Err()
}
