package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/freshalloc/core/metrics"
	"github.com/kilianp07/freshalloc/core/model"
)

func TestPromSink_RecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	rec := coremetrics.RunRecord{
		RunID:    "r1",
		Strategy: model.StrategyScored,
		Time:     time.Now(),
		Summary: coremetrics.Summary{
			FulfillmentPct: 75, AvgDeliveredFreshness: 64.5, AvgDistanceKm: 40, SpoiledKg: 2, AtRiskKg: 6,
		},
	}
	require.NoError(t, sink.RecordRun(rec))
	require.NoError(t, sink.RecordRun(rec))

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.runs.WithLabelValues("scored")))
	assert.Equal(t, 75.0, testutil.ToFloat64(sink.fulfillment.WithLabelValues("scored")))
	assert.Equal(t, 64.5, testutil.ToFloat64(sink.freshness.WithLabelValues("scored")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.spoiled.WithLabelValues("scored")))
	assert.Equal(t, 6.0, testutil.ToFloat64(sink.atRisk.WithLabelValues("scored")))
}

func TestPromSink_TransfersAndShipments(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordTransferRun(coremetrics.TransferRecord{Strategy: model.StrategyScored, Status: "applied", MovedKg: 30}))
	require.NoError(t, sink.RecordTransferRun(coremetrics.TransferRecord{Strategy: model.StrategyScored, Status: "applied", MovedKg: 20}))
	assert.Equal(t, 50.0, testutil.ToFloat64(sink.moved.WithLabelValues("scored", "applied")))

	require.NoError(t, sink.RecordShipment(Shipment{Strategy: model.StrategyBaseline, WarehouseID: "A", Kg: 12.5}))
	require.NoError(t, sink.RecordShipment(Shipment{Strategy: model.StrategyBaseline, WarehouseID: "A", Kg: 0}))
	assert.Equal(t, 12.5, testutil.ToFloat64(sink.shipped.WithLabelValues("baseline", "A")))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, first.RecordRun(coremetrics.RunRecord{Strategy: model.StrategyBaseline}))
	require.NoError(t, second.RecordRun(coremetrics.RunRecord{Strategy: model.StrategyBaseline}))
	assert.Equal(t, 2.0, testutil.ToFloat64(second.runs.WithLabelValues("baseline")))
}
