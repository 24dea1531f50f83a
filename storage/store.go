// Package storage records experiment runs and their summarized results.
package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotInitialized = errors.New("store is not initialized")

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run describes one execution of an experiment.
type Run struct {
	ID         string
	Experiment string
	Seed       uint64
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Error      string
}

// HistogramBin is one stored activation bin. MeanEfficacy is NaN for an empty bin.
type HistogramBin struct {
	Label        string
	Bin          int
	Count        int
	EffSum       float64
	MeanEfficacy float64
}

// CurveSummary is the stored summary of one response curve.
type CurveSummary struct {
	Curve        string
	Quantity     string
	Points       int
	Mean         float64
	Max          float64
	PeakLocation float64
}

// Store persists runs and their results.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context) ([]Run, error)
	SaveHistogram(ctx context.Context, runID string, bins []HistogramBin) error
	GetHistogram(ctx context.Context, runID, label string) ([]HistogramBin, error)
	SaveCurveSummaries(ctx context.Context, runID string, summaries []CurveSummary) error
	GetCurveSummaries(ctx context.Context, runID string) ([]CurveSummary, error)
}
