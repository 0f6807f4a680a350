package transfer

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/freshalloc/core/model"
)

// WarehouseLoad is the stored quantity of one warehouse against its capacity.
type WarehouseLoad struct {
	NodeID      string  `json:"node_id"`
	StoredKg    float64 `json:"stored_kg"`
	CapacityKg  float64 `json:"capacity_kg"`
	Utilization float64 `json:"utilization"`
}

// Stats summarises warehouse utilisation for one planning run.
type Stats struct {
	Warehouses  int      `json:"warehouses"`
	Min         float64  `json:"min"`
	Max         float64  `json:"max"`
	Mean        float64  `json:"mean"`
	P10         float64  `json:"p10"`
	P50         float64  `json:"p50"`
	P90         float64  `json:"p90"`
	Overstocked []string `json:"overstocked,omitempty"`
	Understock  []string `json:"understocked,omitempty"`
}

// Imbalanced reports whether there is both a source and a target for transfers.
func (s Stats) Imbalanced() bool {
	return len(s.Overstocked) > 0 && len(s.Understock) > 0
}

// Loads returns the utilisation of every warehouse, ordered by node ID.
func Loads(inv *model.Inventory, nodes []model.Node) []WarehouseLoad {
	stored := inv.StoredKg()
	var out []WarehouseLoad
	for _, n := range nodes {
		if !n.IsWarehouse() {
			continue
		}
		capKg := n.Capacity()
		out = append(out, WarehouseLoad{
			NodeID:      n.ID,
			StoredKg:    stored[n.ID],
			CapacityKg:  capKg,
			Utilization: stored[n.ID] / capKg,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

// Imbalance computes utilisation statistics and the over/under-stocked sets.
func Imbalance(loads []WarehouseLoad, t Tuning) Stats {
	s := Stats{Warehouses: len(loads)}
	if len(loads) == 0 {
		return s
	}
	util := make([]float64, len(loads))
	for i, l := range loads {
		util[i] = l.Utilization
		if l.Utilization >= t.OverstockRatio {
			s.Overstocked = append(s.Overstocked, l.NodeID)
		}
		if l.Utilization <= t.UnderstockRatio {
			s.Understock = append(s.Understock, l.NodeID)
		}
	}
	sort.Float64s(util)
	s.Min = util[0]
	s.Max = util[len(util)-1]
	s.Mean = stat.Mean(util, nil)
	s.P10 = stat.Quantile(0.1, stat.Empirical, util, nil)
	s.P50 = stat.Quantile(0.5, stat.Empirical, util, nil)
	s.P90 = stat.Quantile(0.9, stat.Empirical, util, nil)
	return s
}
