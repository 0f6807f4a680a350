package allocation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/freshalloc/core/geo"
	"github.com/kilianp07/freshalloc/core/logger"
	"github.com/kilianp07/freshalloc/core/model"
)

var t0 = time.Date(2025, 4, 10, 6, 0, 0, 0, time.UTC)

// nodes places warehouse A ~8 km, B ~76 km and C ~457 km from the NGO.
func nodes() []model.Node {
	return []model.Node{
		{ID: "ngo", Kind: model.NodeDemand, Location: &geo.Point{Lat: 19.0, Lon: 73.0}, State: "Maharashtra", District: "Raigad"},
		{ID: "A", Kind: model.NodeWarehouse, CapacityKg: 1000, Location: &geo.Point{Lat: 19.05, Lon: 73.05}},
		{ID: "B", Kind: model.NodeWarehouse, CapacityKg: 1000, Location: &geo.Point{Lat: 19.5, Lon: 73.5}},
		{ID: "C", Kind: model.NodeWarehouse, CapacityKg: 1000, Location: &geo.Point{Lat: 22.0, Lon: 76.0}},
		{ID: "lost", Kind: model.NodeWarehouse},
	}
}

func rice(id, node string, kg float64) model.Batch {
	return model.Batch{ID: id, FoodType: "rice", QuantityKg: kg, CurrentNode: node, OriginNode: node}
}

func perishable(b model.Batch, mfg time.Time, shelfH float64) model.Batch {
	b.ManufactureDate = mfg
	b.ShelfLifeHours = shelfH
	return b
}

func request(id string, kg float64, at time.Time) model.Request {
	return model.Request{ID: id, NodeID: "ngo", CreatedAt: at, Items: []model.LineItem{{FoodType: "rice", RequiredKg: kg}}}
}

func newTestEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop{}), WithClock(func() time.Time { return t0 })}, opts...)
	e, err := NewEngine(cfg, opts...)
	require.NoError(t, err)
	return e
}

func snapshot(t *testing.T, batches ...model.Batch) *model.Inventory {
	t.Helper()
	inv, err := model.NewInventory(batches)
	require.NoError(t, err)
	return inv
}

func totalKg(batches []model.Batch) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		total = total.Add(decimal.NewFromFloat(b.QuantityKg))
	}
	return total
}

func sumAllocated(allocs []model.Allocation) float64 {
	kgs := make([]float64, len(allocs))
	for i, a := range allocs {
		kgs[i] = a.AllocatedKg
	}
	return model.SumKg(kgs...)
}
