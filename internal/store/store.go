// Package store defines the RunStore interface for recording completed
// jitter analyses.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded analysis.
type Run struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	RecordPath   string    `json:"record_path"`
	TransferPath string    `json:"transfer_path"`
	TransferKey  string    `json:"transfer_key"`
	Channels     []string  `json:"channels"`
	Skip         int       `json:"skip"`
	Steps        int       `json:"steps"`
	Samples      int       `json:"samples"`

	// StdDev is the per-axis jitter std in mas. NaN entries (empty window)
	// are stored as null and read back as NaN.
	StdDev []float64 `json:"std_dev"`
}

// RunStore persists analysis runs.
type RunStore interface {
	// AddRun stores run, assigning ID and CreatedAt when unset, and returns the ID.
	AddRun(ctx context.Context, run Run) (string, error)

	// GetRun returns the run with the given ID or ErrRunNotFound.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns up to limit runs, newest first. limit <= 0 means no limit.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	Close() error
}
