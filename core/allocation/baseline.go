package allocation

import (
	"sort"
	"time"

	"github.com/kilianp07/freshalloc/core/model"
)

// baselineLine serves one line item from the nearest warehouse holding at
// least one eligible batch. Batches leave in FEFO order: shortest remaining
// shelf life first, then oldest manufacture, then ID. There is no overflow
// to a second warehouse; the remainder stays unfulfilled.
func (r *run) baselineLine(req model.Request, item model.LineItem, demand model.Node) (*model.Allocation, string) {
	dispatch := req.DispatchTime
	for _, w := range r.rankWarehouses(demand) {
		list := r.baselineCandidates(w.node.ID, item.FoodType, dispatch)
		if len(list) == 0 {
			continue
		}
		picks, got := r.consume(list, item.RequiredKg, demand.ID, dispatch)
		if got <= 0 {
			continue
		}
		return &model.Allocation{
			RequestID:         req.ID,
			FoodType:          item.FoodType,
			RequiredKg:        item.RequiredKg,
			AllocatedKg:       got,
			SourceWarehouseID: w.node.ID,
			DistanceKm:        w.distKm,
			Batches:           picks,
			DispatchTime:      dispatch,
			DeliveryTime:      dispatch.Add(r.cfg.Travel.Duration(w.distKm)),
			Strategy:          model.StrategyBaseline,
		}, ""
	}
	return nil, ReasonNoStock
}

func (r *run) baselineCandidates(warehouseID, food string, dispatch time.Time) []ranked {
	var list []ranked
	for _, b := range r.stock(warehouseID, food, dispatch) {
		c := ranked{b: b, fresh: r.freshness(b, dispatch), remainH: r.remaining(b, dispatch)}
		if !r.cfg.AllowSpoiled && (c.remainH <= 0 || c.fresh <= 0) {
			continue
		}
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.remainH != b.remainH {
			return a.remainH < b.remainH
		}
		if !a.b.ManufactureDate.Equal(b.b.ManufactureDate) {
			return a.b.ManufactureDate.Before(b.b.ManufactureDate)
		}
		return a.b.ID < b.b.ID
	})
	return list
}
