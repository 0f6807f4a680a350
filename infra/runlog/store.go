// Package runlog persists allocation run results for later inspection.
package runlog

import (
	"context"
	"slices"
	"time"

	"github.com/kilianp07/freshalloc/core/allocation"
	"github.com/kilianp07/freshalloc/core/metrics"
	"github.com/kilianp07/freshalloc/core/model"
	"github.com/kilianp07/freshalloc/core/transfer"
)

// Record captures one strategy run.
type Record struct {
	Timestamp   time.Time          `json:"timestamp"`
	RunID       string             `json:"run_id"`
	Strategy    model.Strategy     `json:"strategy"`
	DurationMs  float64            `json:"duration_ms"`
	Summary     metrics.Summary    `json:"summary"`
	Allocations []model.Allocation `json:"allocations"`
	Skipped     []allocation.Skip  `json:"skipped,omitempty"`
	Transfers   transfer.Trace     `json:"transfers"`
	SignalError string             `json:"signal_error,omitempty"`
}

// FromResult converts an engine result into a Record.
func FromResult(res *allocation.Result) Record {
	return Record{
		Timestamp:   res.StartedAt,
		RunID:       res.RunID,
		Strategy:    res.Strategy,
		DurationMs:  float64(res.Duration.Microseconds()) / 1000,
		Summary:     res.Summary,
		Allocations: res.Allocations,
		Skipped:     res.Skipped,
		Transfers:   res.Transfers,
		SignalError: res.SignalError,
	}
}

// Query defines filters for retrieving records. Zero fields match everything.
type Query struct {
	Start     time.Time
	End       time.Time
	Strategy  model.Strategy
	RequestID string
}

// Match reports whether r passes the filters.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Strategy != "" && r.Strategy != q.Strategy {
		return false
	}
	if q.RequestID != "" {
		return slices.ContainsFunc(r.Allocations, func(a model.Allocation) bool {
			return a.RequestID == q.RequestID
		}) || slices.ContainsFunc(r.Skipped, func(s allocation.Skip) bool {
			return s.RequestID == q.RequestID
		})
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error          { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
