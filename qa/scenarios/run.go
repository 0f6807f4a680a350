package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/freshalloc/core/allocation"
	"github.com/kilianp07/freshalloc/core/factory"
	"github.com/kilianp07/freshalloc/core/model"
	"github.com/kilianp07/freshalloc/core/transfer"
	"github.com/kilianp07/freshalloc/infra/logger"
	"github.com/kilianp07/freshalloc/infra/metrics"
)

// RunCase compares both strategies on the case input and checks the
// expected outcomes plus mass conservation.
func RunCase(t *testing.T, c *Case) *allocation.Comparison {
	t.Helper()
	sink, err := metrics.NewPromSinkWithRegistry(prometheus.NewRegistry())
	require.NoError(t, err)
	suggester, err := transfer.NewSuggester(factory.ModuleConfig{Type: c.Suggester})
	require.NoError(t, err)

	now := c.Input.Now
	if now.IsZero() {
		now = time.Unix(0, 0).UTC()
	}
	engine, err := allocation.NewEngine(c.Engine,
		allocation.WithLogger(logger.NopLogger{}),
		allocation.WithMetricsSink(sink),
		allocation.WithSuggester(suggester),
		allocation.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	cmp, err := engine.Compare(context.Background(), c.Input.Requests, c.Input.Batches, c.Input.Nodes)
	require.NoError(t, err)

	initial := massOf(c.Input.Batches)
	for _, res := range []*allocation.Result{cmp.Baseline, cmp.Scored} {
		assert.True(t, initial.Equal(massOf(res.Batches)),
			"%s: mass %s before, %s after", res.Strategy, initial, massOf(res.Batches))
	}
	checkOutcome(t, cmp.Baseline, c.Expected.Baseline)
	checkOutcome(t, cmp.Scored, c.Expected.Scored)

	tr, exp := cmp.Scored.Transfers, c.Expected.Transfers
	if exp.Applied != nil {
		assert.Equal(t, *exp.Applied, tr.Applied, "transfers applied")
	}
	if exp.Skipped != nil {
		assert.Equal(t, *exp.Skipped, tr.Skipped, "transfers skipped")
	}
	if exp.MovedKg != nil {
		var moved float64
		for _, r := range tr.Runs {
			moved += r.MovedKg
		}
		assert.InDelta(t, *exp.MovedKg, moved, 1e-6, "moved kg")
	}
	return cmp
}

func checkOutcome(t *testing.T, res *allocation.Result, exp Outcome) {
	t.Helper()
	s := res.Summary
	if exp.AllocatedKg != nil {
		assert.InDelta(t, *exp.AllocatedKg, s.AllocatedKg, 1e-6, "%s allocated kg", res.Strategy)
	}
	if exp.FulfillmentPct != nil {
		assert.InDelta(t, *exp.FulfillmentPct, s.FulfillmentPct, 1e-6, "%s fulfillment", res.Strategy)
	}
	if exp.SpoiledKg != nil {
		assert.InDelta(t, *exp.SpoiledKg, s.SpoiledKg, 1e-6, "%s spoiled kg", res.Strategy)
	}
	if exp.Allocations != nil {
		assert.Len(t, res.Allocations, *exp.Allocations, "%s allocations", res.Strategy)
	}
	if exp.Sources != nil {
		got := make([]string, len(res.Allocations))
		for i, a := range res.Allocations {
			got[i] = a.SourceWarehouseID
		}
		assert.Equal(t, exp.Sources, got, "%s sources", res.Strategy)
	}
}

func massOf(batches []model.Batch) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		total = total.Add(decimal.NewFromFloat(b.QuantityKg))
	}
	return total.Round(3)
}
