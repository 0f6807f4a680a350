package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/freshalloc/core/allocation"
	"github.com/kilianp07/freshalloc/core/factory"
	"github.com/kilianp07/freshalloc/core/metrics"
	"github.com/kilianp07/freshalloc/core/model"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func sampleRecords() []Record {
	return []Record{
		{
			Timestamp: t0, RunID: "run-1", Strategy: model.StrategyBaseline,
			Summary:     metrics.Summary{FulfillmentPct: 50},
			Allocations: []model.Allocation{{RequestID: "r1", AllocatedKg: 10}},
		},
		{
			Timestamp: t0.Add(time.Hour), RunID: "run-1", Strategy: model.StrategyScored,
			Summary: metrics.Summary{FulfillmentPct: 80},
			Skipped: []allocation.Skip{{RequestID: "r2", Reason: allocation.ReasonNoStock}},
		},
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	for _, r := range sampleRecords() {
		require.NoError(t, s.Append(ctx, r))
	}

	all, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, model.StrategyBaseline, all[0].Strategy)
	assert.Equal(t, 80.0, all[1].Summary.FulfillmentPct)

	scored, err := s.Query(ctx, Query{Strategy: model.StrategyScored})
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "run-1", scored[0].RunID)

	late, err := s.Query(ctx, Query{Start: t0.Add(30 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, late, 1)

	byReq, err := s.Query(ctx, Query{RequestID: "r2"})
	require.NoError(t, err)
	require.Len(t, byReq, 1)
	assert.Equal(t, model.StrategyScored, byReq[0].Strategy)
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "nested", "runs.jsonl"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestRotatingJSONLStore(t *testing.T) {
	s, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	s, err := NewRotatingJSONLStore(path, 1, 3, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	big := Record{Timestamp: t0, Strategy: model.StrategyScored}
	for i := 0; i < 2000; i++ {
		big.Allocations = append(big.Allocations, model.Allocation{RequestID: "r", FoodType: "rice", SourceWarehouseID: "warehouse-with-a-long-id"})
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Append(context.Background(), big))
	}
	backups, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "runs-*.jsonl"))
	assert.NotEmpty(t, backups)

	out, err := s.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestFromResult(t *testing.T) {
	res := &allocation.Result{
		RunID: "abc", Strategy: model.StrategyScored, StartedAt: t0, Duration: 2500 * time.Microsecond,
		Allocations: []model.Allocation{{RequestID: "r1"}},
		SignalError: "timeout",
	}
	rec := FromResult(res)
	assert.Equal(t, "abc", rec.RunID)
	assert.Equal(t, t0, rec.Timestamp)
	assert.Equal(t, 2.5, rec.DurationMs)
	assert.Equal(t, "timeout", rec.SignalError)
	assert.Len(t, rec.Allocations, 1)
}

func TestNewFromConfig(t *testing.T) {
	s, err := New(factory.ModuleConfig{})
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	s, err = New(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": filepath.Join(t.TempDir(), "r.jsonl")}})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	_, err = New(factory.ModuleConfig{Type: "mongo"})
	assert.ErrorIs(t, err, factory.ErrUnknownModule)
}
