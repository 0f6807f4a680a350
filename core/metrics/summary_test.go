package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/freshalloc/core/factory"
	"github.com/kilianp07/freshalloc/core/model"
)

var t0 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func fixture() ([]model.Allocation, []model.Request, []model.Batch) {
	batches := []model.Batch{
		{ID: "b1", FoodType: "rice", ManufactureDate: t0, ShelfLifeHours: 48},
		{ID: "b2", FoodType: "milk", ManufactureDate: t0, ShelfLifeHours: 10},
		{ID: "b3", FoodType: "milk", ManufactureDate: t0, ShelfLifeHours: 40},
	}
	requests := []model.Request{
		{ID: "r1", Items: []model.LineItem{{FoodType: "rice", RequiredKg: 100}}},
		{ID: "r2", Items: []model.LineItem{{FoodType: "milk", RequiredKg: 20}}},
		{ID: "r3", Items: []model.LineItem{{FoodType: "dal", RequiredKg: 10}}},
	}
	allocs := []model.Allocation{
		{RequestID: "r1", FoodType: "rice", RequiredKg: 100, AllocatedKg: 60, DistanceKm: 80, DispatchTime: t0.Add(24 * time.Hour),
			Batches: []model.BatchPick{{BatchID: "b1", QuantityKg: 60, FreshnessPct: 37.5}}},
		{RequestID: "r2", FoodType: "milk", RequiredKg: 20, AllocatedKg: 15, DispatchTime: t0.Add(26 * time.Hour),
			Batches: []model.BatchPick{{BatchID: "b2", QuantityKg: 10}, {BatchID: "b3", QuantityKg: 5, FreshnessPct: 18.75}}},
		{RequestID: "r3", FoodType: "dal", RequiredKg: 10},
	}
	return allocs, requests, batches
}

func TestSummarize(t *testing.T) {
	allocs, requests, batches := fixture()
	s := Summarize(allocs, requests, batches, Options{})

	assert.Equal(t, 130.0, s.RequiredKg)
	assert.Equal(t, 75.0, s.AllocatedKg)
	assert.Equal(t, 57.69, s.FulfillmentPct)
	assert.Equal(t, 3, s.RequestsTotal)
	assert.Equal(t, 2, s.RequestsServed)
	assert.Equal(t, 3, s.Allocations)
	assert.Equal(t, 80.0, s.TotalDistanceKm)
	assert.Equal(t, 40.0, s.AvgDistanceKm)
	assert.Equal(t, 31.25, s.AvgSelectionFreshness)
	assert.Equal(t, 27.08, s.AvgDeliveredFreshness)
	assert.Equal(t, 10.0, s.SpoiledKg)
	assert.Equal(t, 5.0, s.AtRiskKg)
}

func TestSummarizeColdChain(t *testing.T) {
	allocs, requests, batches := fixture()
	zero := 0.0
	warm := Summarize(allocs, requests, batches, Options{})
	cold := Summarize(allocs, requests, batches, Options{AvgTempC: &zero})
	assert.Greater(t, cold.AvgDeliveredFreshness, warm.AvgDeliveredFreshness)
}

func TestSummarizeDoesNotMutate(t *testing.T) {
	allocs, requests, batches := fixture()
	before := allocs[0].Batches[0]
	_ = Summarize(allocs, requests, batches, Options{})
	assert.Equal(t, before, allocs[0].Batches[0])
	assert.Empty(t, batches[0].History)
}

func TestSummarizeUnknownBatchUsesPickFreshness(t *testing.T) {
	allocs := []model.Allocation{{RequestID: "r1", AllocatedKg: 10, DispatchTime: t0,
		Batches: []model.BatchPick{{BatchID: "ghost", QuantityKg: 10, FreshnessPct: 64}}}}
	requests := []model.Request{{ID: "r1", Items: []model.LineItem{{FoodType: "rice", RequiredKg: 10}}}}
	s := Summarize(allocs, requests, nil, Options{})
	assert.Equal(t, 64.0, s.AvgDeliveredFreshness)
	assert.Equal(t, 100.0, s.FulfillmentPct)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil, nil, Options{})
	assert.Equal(t, Summary{}, s)
}

func TestImprove(t *testing.T) {
	base := Summary{FulfillmentPct: 60, AvgDistanceKm: 100, AvgDeliveredFreshness: 40, SpoiledKg: 20}
	scored := Summary{FulfillmentPct: 75, AvgDistanceKm: 80, AvgDeliveredFreshness: 50, SpoiledKg: 5}
	imp := Improve(base, scored)
	assert.Equal(t, Improvement{
		FulfillmentDelta:     15,
		DistanceReductionPct: 20,
		FreshnessDelta:       10,
		SpoilageReductionPct: 75,
		KgSaved:              15,
	}, imp)

	assert.Zero(t, Improve(Summary{}, scored).DistanceReductionPct)
}

type recordSink struct{ runs, transfers int }

func (r *recordSink) RecordRun(RunRecord) error { r.runs++; return nil }
func (r *recordSink) RecordTransferRun(TransferRecord) error {
	r.transfers++
	return nil
}

type failingSink struct{}

func (failingSink) RecordRun(RunRecord) error { return errors.New("sink down") }

type closingSink struct {
	recordSink
	closed bool
}

func (c *closingSink) Close() { c.closed = true }

func TestMultiSinkKeepsForwardingAfterError(t *testing.T) {
	after := &recordSink{}
	m := NewMultiSink(failingSink{}, after)
	err := m.RecordRun(RunRecord{RunID: "x"})
	assert.ErrorContains(t, err, "sink down")
	assert.Equal(t, 1, after.runs)
}

func TestMultiSinkClose(t *testing.T) {
	a, b := &closingSink{}, &closingSink{}
	m := NewMultiSink(a, &runOnly{}, b)
	CloseSink(m)
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

type runOnly struct{ runs int }

func (r *runOnly) RecordRun(RunRecord) error { r.runs++; return nil }

func TestMultiSinkForwards(t *testing.T) {
	a, b := &recordSink{}, &runOnly{}
	m := NewMultiSink(a, b)
	require.NoError(t, m.RecordRun(RunRecord{RunID: "x"}))
	require.NoError(t, m.RecordTransferRun(TransferRecord{RunID: "x"}))
	assert.Equal(t, 1, a.runs)
	assert.Equal(t, 1, a.transfers)
	assert.Equal(t, 1, b.runs)
}

func TestNewMetricsSink(t *testing.T) {
	s, err := NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, NopSink{}, s)

	s, err = NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	assert.IsType(t, NopSink{}, s)

	_ = RegisterMetricsSink("record", func(map[string]any) (MetricsSink, error) { return &recordSink{}, nil })
	s, err = NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "record"}})
	require.NoError(t, err)
	assert.IsType(t, &recordSink{}, s)

	s, err = NewMetricsSink([]factory.ModuleConfig{{Type: "record"}, {Type: "record"}})
	require.NoError(t, err)
	m, ok := s.(*MultiSink)
	require.True(t, ok)
	assert.Len(t, m.Sinks, 2)

	_, err = NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "missing"}})
	assert.ErrorIs(t, err, factory.ErrUnknownModule)
	assert.ErrorContains(t, err, "sink 1 (missing)")
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Sinks: []factory.ModuleConfig{{Type: "nop"}}}
	cfg.SetDefaults()
	assert.Equal(t, DefaultAtRiskPct, cfg.AtRiskPct)
	require.NoError(t, cfg.Validate())
	cfg.Sinks = append(cfg.Sinks, factory.ModuleConfig{})
	assert.Error(t, cfg.Validate())
}
