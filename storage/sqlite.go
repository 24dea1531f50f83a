package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, experiment, seed, started_at, finished_at, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			experiment = excluded.experiment,
			seed = excluded.seed,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			status = excluded.status,
			error = excluded.error
	`, run.ID, run.Experiment, int64(run.Seed), timeToNanos(run.StartedAt), timeToNanos(run.FinishedAt), run.Status, run.Error)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, experiment, seed, started_at, finished_at, status, error
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, experiment, seed, started_at, finished_at, status, error
		FROM runs ORDER BY started_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) SaveHistogram(ctx context.Context, runID string, bins []HistogramBin) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, b := range bins {
		mean := sql.NullFloat64{Float64: b.MeanEfficacy, Valid: !math.IsNaN(b.MeanEfficacy)}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO histogram_bins (run_id, label, bin, count, eff_sum, mean_efficacy)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, label, bin) DO UPDATE SET
				count = excluded.count,
				eff_sum = excluded.eff_sum,
				mean_efficacy = excluded.mean_efficacy
		`, runID, b.Label, b.Bin, b.Count, b.EffSum, mean); err != nil {
			return fmt.Errorf("insert bin %d of %q: %w", b.Bin, b.Label, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetHistogram(ctx context.Context, runID, label string) ([]HistogramBin, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT label, bin, count, eff_sum, mean_efficacy
		FROM histogram_bins WHERE run_id = ? AND label = ? ORDER BY bin
	`, runID, label)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bins []HistogramBin
	for rows.Next() {
		var b HistogramBin
		var mean sql.NullFloat64
		if err := rows.Scan(&b.Label, &b.Bin, &b.Count, &b.EffSum, &mean); err != nil {
			return nil, err
		}
		b.MeanEfficacy = math.NaN()
		if mean.Valid {
			b.MeanEfficacy = mean.Float64
		}
		bins = append(bins, b)
	}
	return bins, rows.Err()
}

func (s *SQLiteStore) SaveCurveSummaries(ctx context.Context, runID string, summaries []CurveSummary) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range summaries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO curve_summaries (run_id, curve, quantity, points, mean, max, peak_location)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, runID, c.Curve, c.Quantity, c.Points, c.Mean, c.Max, c.PeakLocation); err != nil {
			return fmt.Errorf("insert curve %q: %w", c.Curve, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetCurveSummaries(ctx context.Context, runID string) ([]CurveSummary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT curve, quantity, points, mean, max, peak_location
		FROM curve_summaries WHERE run_id = ? ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CurveSummary
	for rows.Next() {
		var c CurveSummary
		if err := rows.Scan(&c.Curve, &c.Quantity, &c.Points, &c.Mean, &c.Max, &c.PeakLocation); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var seed, started, finished int64
	if err := row.Scan(&run.ID, &run.Experiment, &seed, &started, &finished, &run.Status, &run.Error); err != nil {
		return Run{}, err
	}
	run.Seed = uint64(seed)
	run.StartedAt = nanosToTime(started)
	run.FinishedAt = nanosToTime(finished)
	return run, nil
}

func timeToNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func nanosToTime(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			experiment TEXT NOT NULL,
			seed INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS histogram_bins (
			run_id TEXT NOT NULL,
			label TEXT NOT NULL,
			bin INTEGER NOT NULL,
			count INTEGER NOT NULL,
			eff_sum REAL NOT NULL,
			mean_efficacy REAL,
			PRIMARY KEY (run_id, label, bin)
		);
		CREATE TABLE IF NOT EXISTS curve_summaries (
			run_id TEXT NOT NULL,
			curve TEXT NOT NULL,
			quantity TEXT NOT NULL,
			points INTEGER NOT NULL,
			mean REAL NOT NULL,
			max REAL NOT NULL,
			peak_location REAL NOT NULL
		);
	`)
	return err
}
