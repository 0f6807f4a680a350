package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/freshalloc/config"
	"github.com/kilianp07/freshalloc/core/allocation"
	"github.com/kilianp07/freshalloc/core/factory"
	coremetrics "github.com/kilianp07/freshalloc/core/metrics"
	"github.com/kilianp07/freshalloc/core/geo"
	"github.com/kilianp07/freshalloc/core/model"
	"github.com/kilianp07/freshalloc/infra/runlog"
	"github.com/kilianp07/freshalloc/pkg/scenario"
)

var t0 = time.Date(2025, 4, 10, 6, 0, 0, 0, time.UTC)

func testScenario() *scenario.Scenario {
	return &scenario.Scenario{
		Nodes: []model.Node{
			{ID: "ngo", Kind: model.NodeDemand, Location: &geo.Point{Lat: 19.0, Lon: 73.0}},
			{ID: "A", Kind: model.NodeWarehouse, CapacityKg: 1000, Location: &geo.Point{Lat: 19.05, Lon: 73.05}},
		},
		Batches: []model.Batch{
			{ID: "b1", FoodType: "rice", QuantityKg: 80, OriginalQuantityKg: 80, CurrentNode: "A", Status: model.StatusStored},
		},
		Requests: []model.Request{
			{ID: "r1", NodeID: "ngo", CreatedAt: t0, Items: []model.LineItem{{FoodType: "rice", RequiredKg: 50}}},
		},
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.RunLog = factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": filepath.Join(t.TempDir(), "runs.jsonl")}}
	cfg.Suggester = factory.ModuleConfig{Type: "greedy"}
	return cfg
}

func TestServiceAllocateAndCompare(t *testing.T) {
	svc, err := New(testConfig(t), allocation.WithClock(func() time.Time { return t0 }))
	require.NoError(t, err)
	ctx := context.Background()
	svc.Start(ctx)
	defer func() { assert.NoError(t, svc.Close()) }()

	sc := testScenario()
	res, err := svc.Allocate(ctx, model.StrategyBaseline, sc)
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, 50.0, res.Allocations[0].AllocatedKg)
	// the scenario's own batches are untouched
	assert.Equal(t, 80.0, sc.Batches[0].QuantityKg)

	cmp, err := svc.Compare(ctx, sc)
	require.NoError(t, err)
	assert.Equal(t, 100.0, cmp.Baseline.Summary.FulfillmentPct)
	assert.Equal(t, 100.0, cmp.Scored.Summary.FulfillmentPct)

	recs, err := svc.Store.Query(ctx, runlog.Query{})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	scored, err := svc.Store.Query(ctx, runlog.Query{Strategy: model.StrategyScored})
	require.NoError(t, err)
	assert.Len(t, scored, 1)
}

func TestServiceWithPrometheusSink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "prometheus"}, {Type: "nop"}}
	svc, err := New(cfg)
	require.NoError(t, err)
	svc.Start(context.Background())
	require.NotNil(t, svc.done)

	_, err = svc.Allocate(context.Background(), model.StrategyScored, testScenario())
	require.NoError(t, err)
	require.NoError(t, svc.Close())
}

func TestServiceConfigErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Predictor = factory.ModuleConfig{Type: "crystal-ball"}
	_, err := New(cfg)
	assert.ErrorIs(t, err, factory.ErrUnknownModule)

	cfg = testConfig(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "statsd"}}
	_, err = New(cfg)
	assert.ErrorIs(t, err, factory.ErrUnknownModule)

	cfg = testConfig(t)
	cfg.Monitoring.DSN = "not a dsn"
	_, err = New(cfg)
	assert.ErrorContains(t, err, "monitoring")

	cfg = testConfig(t)
	bad := *testScenario()
	bad.Batches = append(bad.Batches, bad.Batches[0])
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	_, err = svc.Allocate(context.Background(), model.StrategyBaseline, &bad)
	assert.ErrorIs(t, err, model.ErrDuplicateBatch)
}

type closableSink struct{ closed bool }

func (*closableSink) RecordRun(coremetrics.RunRecord) error { return nil }
func (s *closableSink) Close()                            { s.closed = true }

func TestServiceNewReleasesSinkOnError(t *testing.T) {
	var sinks []*closableSink
	_ = coremetrics.RegisterMetricsSink("closable", func(map[string]any) (coremetrics.MetricsSink, error) {
		s := &closableSink{}
		sinks = append(sinks, s)
		return s, nil
	})

	cfg := testConfig(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "closable"}, {Type: "closable"}}
	cfg.RunLog = factory.ModuleConfig{Type: "carrier-pigeon"}
	_, err := New(cfg)
	require.Error(t, err)
	require.Len(t, sinks, 2)
	assert.True(t, sinks[0].closed)
	assert.True(t, sinks[1].closed)
}
