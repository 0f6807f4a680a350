package allocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/freshalloc/core/freshness"
	"github.com/kilianp07/freshalloc/core/model"
)

func TestBaselineNearestWarehouseNoOverflow(t *testing.T) {
	e := newTestEngine(t, Config{})
	inv := snapshot(t, rice("a1", "A", 60), rice("b1", "B", 100))

	res, err := e.Allocate(context.Background(), model.StrategyBaseline, []model.Request{request("r1", 100, t0)}, inv, nodes())
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	a := res.Allocations[0]
	assert.Equal(t, "A", a.SourceWarehouseID)
	assert.Equal(t, 100.0, a.RequiredKg)
	assert.Equal(t, 60.0, a.AllocatedKg)
	assert.Equal(t, model.StrategyBaseline, a.Strategy)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, 100.0, inv.Get("b1").QuantityKg)
	assert.Equal(t, 60.0, res.Summary.FulfillmentPct)
}

func TestBaselineFEFO(t *testing.T) {
	e := newTestEngine(t, Config{})
	inv := snapshot(t,
		perishable(rice("fresh", "A", 30), t0.Add(-2*time.Hour), 200),
		perishable(rice("expiring", "A", 30), t0.Add(-100*time.Hour), 200),
		perishable(rice("older-longer", "A", 30), t0.Add(-120*time.Hour), 400),
	)

	res, err := e.Allocate(context.Background(), model.StrategyBaseline, []model.Request{request("r1", 45, t0)}, inv, nodes())
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	picks := res.Allocations[0].Batches
	require.Len(t, picks, 2)
	assert.Equal(t, "expiring", picks[0].BatchID)
	assert.Equal(t, 30.0, picks[0].QuantityKg)
	assert.Equal(t, "fresh", picks[1].BatchID)
	assert.Equal(t, 15.0, picks[1].QuantityKg)
	assert.Equal(t, 45.0, res.Allocations[0].AllocatedKg)
	assert.Equal(t, freshness.Pct(inv.Get("expiring"), t0, freshness.DefaultTempC), picks[0].FreshnessPct)
}

func TestBaselineSkipsSpoiledAndUnavailable(t *testing.T) {
	e := newTestEngine(t, Config{})
	inv := snapshot(t,
		perishable(rice("spoiled", "A", 50), t0.Add(-48*time.Hour), 48),
		perishable(rice("future", "A", 50), t0.Add(time.Hour), 48),
		rice("b1", "B", 50),
	)

	res, err := e.Allocate(context.Background(), model.StrategyBaseline, []model.Request{request("r1", 20, t0)}, inv, nodes())
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, "B", res.Allocations[0].SourceWarehouseID)
	assert.Equal(t, 50.0, inv.Get("spoiled").QuantityKg)
	assert.Equal(t, 50.0, inv.Get("future").QuantityKg)
}

func TestBaselineAllowSpoiled(t *testing.T) {
	e := newTestEngine(t, Config{AllowSpoiled: true})
	inv := snapshot(t, perishable(rice("spoiled", "A", 50), t0.Add(-48*time.Hour), 48))

	res, err := e.Allocate(context.Background(), model.StrategyBaseline, []model.Request{request("r1", 20, t0)}, inv, nodes())
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, 0.0, res.Allocations[0].Batches[0].FreshnessPct)
}

func TestBaselineShipmentTracking(t *testing.T) {
	e := newTestEngine(t, Config{})
	inv := snapshot(t, rice("a1", "A", 60), rice("a2", "A", 10))

	res, err := e.Allocate(context.Background(), model.StrategyBaseline, []model.Request{request("r1", 65, t0)}, inv, nodes())
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)

	// a1 and a2 tie on FEFO keys, so ID order applies: a1 ships whole.
	a1 := inv.Get("a1")
	assert.Equal(t, model.StatusInTransit, a1.Status)
	assert.Equal(t, "ngo", a1.CurrentNode)

	a2 := inv.Get("a2")
	assert.Equal(t, 5.0, a2.QuantityKg)
	assert.Equal(t, model.StatusStored, a2.Status)

	var child *model.Batch
	inv.Each(func(b *model.Batch) {
		if b.ParentBatchID == "a2" {
			child = b
		}
	})
	require.NotNil(t, child)
	assert.Equal(t, 5.0, child.QuantityKg)
	assert.Equal(t, model.StatusInTransit, child.Status)
	assert.Equal(t, "ngo", child.CurrentNode)
	assert.Equal(t, 70.0, inv.TotalKg())
}
