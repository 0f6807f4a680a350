package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/freshalloc/core/allocation"
	"github.com/kilianp07/freshalloc/core/metrics"
	"github.com/kilianp07/freshalloc/core/model"
)

var dispatch = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func TestWriteAllocationsCSV(t *testing.T) {
	allocs := []model.Allocation{{
		RequestID: "r1", FoodType: "rice", RequiredKg: 100, AllocatedKg: 60,
		SourceWarehouseID: "A", DistanceKm: 7.65,
		Batches:      []model.BatchPick{{BatchID: "b1", QuantityKg: 40}, {BatchID: "b2", QuantityKg: 20}},
		DispatchTime: dispatch, Strategy: model.StrategyScored, Tier: "strict", Score: 0.5,
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteAllocationsCSV(&buf, allocs))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, allocationHeader, rows[0])
	assert.Equal(t, []string{
		"r1", "rice", "100", "60", "A", "7.65", "2025-03-01T08:00:00Z", "", "scored", "strict", "0.5", "b1:40;b2:20",
	}, rows[1])
}

func TestWriteComparisonCSV(t *testing.T) {
	c := &allocation.Comparison{
		Baseline:    &allocation.Result{Summary: metrics.Summary{FulfillmentPct: 50, SpoiledKg: 10}},
		Scored:      &allocation.Result{Summary: metrics.Summary{FulfillmentPct: 80, SpoiledKg: 2}},
		Improvement: metrics.Improvement{FulfillmentDelta: 30, KgSaved: 8},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteComparisonCSV(&buf, c))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	byMetric := map[string][]string{}
	for _, r := range rows[1:] {
		byMetric[r[0]] = r[1:]
	}
	assert.Equal(t, []string{"50", "80"}, byMetric["fulfillment_pct"])
	assert.Equal(t, []string{"10", "2"}, byMetric["spoiled_kg"])
	assert.Equal(t, []string{"", "8"}, byMetric["kg_saved"])
	assert.Len(t, rows, 1+12+5)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []model.Allocation{{RequestID: "r1", Strategy: model.StrategyBaseline}}))
	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "baseline", out[0]["strategy"])
}
