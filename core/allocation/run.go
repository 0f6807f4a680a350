package allocation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/freshalloc/core/freshness"
	"github.com/kilianp07/freshalloc/core/geo"
	"github.com/kilianp07/freshalloc/core/logger"
	"github.com/kilianp07/freshalloc/core/model"
	"github.com/kilianp07/freshalloc/core/prediction"
)

// Skip reasons recorded in Result.Skipped.
const (
	ReasonInvalidRequest = "invalid_request"
	ReasonInvalidItem    = "invalid_item"
	ReasonUnknownNode    = "unknown_node"
	ReasonNoCoordinates  = "no_coordinates"
	ReasonNoStock        = "no_stock"
)

// Skip explains why a request or line item produced no allocation.
type Skip struct {
	RequestID string `json:"request_id"`
	FoodType  string `json:"food_type,omitempty"`
	Reason    string `json:"reason"`
	Detail    string `json:"detail,omitempty"`
}

// warehouse is a warehouse at a known distance from one demand node.
type warehouse struct {
	node   model.Node
	distKm float64
}

// run holds the state of one strategy run over a private snapshot.
type run struct {
	cfg      Config
	strategy model.Strategy
	inv      *model.Inventory
	nodes    map[string]model.Node
	stores   []model.Node
	regions  prediction.Regions
	log      logger.Logger
}

func newRun(cfg Config, strategy model.Strategy, inv *model.Inventory, nodes []model.Node, log logger.Logger) *run {
	r := &run{
		cfg:      cfg,
		strategy: strategy,
		inv:      inv,
		nodes:    make(map[string]model.Node, len(nodes)),
		log:      log,
	}
	for _, n := range nodes {
		r.nodes[n.ID] = n
		if n.IsWarehouse() && n.Location != nil {
			r.stores = append(r.stores, n)
		}
	}
	return r
}

// rankWarehouses returns the warehouses with coordinates ordered by distance
// from the demand node, then by ID.
func (r *run) rankWarehouses(demand model.Node) []warehouse {
	out := make([]warehouse, 0, len(r.stores))
	for _, n := range r.stores {
		out = append(out, warehouse{node: n, distKm: geo.HaversineKm(*demand.Location, *n.Location)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].distKm != out[j].distKm {
			return out[i].distKm < out[j].distKm
		}
		return out[i].node.ID < out[j].node.ID
	})
	return out
}

// stock returns the batches of food stored at the warehouse and manufactured
// by the dispatch time.
func (r *run) stock(warehouseID, food string, dispatch time.Time) []*model.Batch {
	var out []*model.Batch
	for _, b := range r.inv.StoredAt(warehouseID) {
		if strings.EqualFold(b.FoodType, food) && b.AvailableAt(dispatch) {
			out = append(out, b)
		}
	}
	return out
}

func (r *run) freshness(b *model.Batch, at time.Time) float64 {
	return freshness.Pct(b, at, r.cfg.Temp())
}

func (r *run) remaining(b *model.Batch, at time.Time) float64 {
	return freshness.RemainingShelfLifeHours(b, at, r.cfg.Temp())
}

// ranked is a batch with its selection attributes precomputed.
type ranked struct {
	b       *model.Batch
	fresh   float64
	remainH float64
}

// ship moves takeKg of b to the demand node as an in-transit shipment. A
// fully consumed batch is relocated whole; otherwise the shipped part is
// split off so the snapshot keeps conserving mass.
func (r *run) ship(b *model.Batch, takeKg float64, dest string, at time.Time) float64 {
	take := model.MinKg(takeKg, b.QuantityKg)
	if take <= 0 {
		return 0
	}
	if take >= model.RoundKg(b.QuantityKg) {
		b.Record(at, model.ActionShipped, b.CurrentNode, dest, string(r.strategy))
		b.Status = model.StatusInTransit
		b.CurrentNode = dest
		return take
	}
	child, err := r.inv.Split(b.ID, take, at, "s", fmt.Sprintf(" (shipment to %s)", dest))
	if err != nil {
		r.log.Warnf("cannot split batch %s for shipment: %v", b.ID, err)
		return 0
	}
	child.Record(at, model.ActionShipped, child.CurrentNode, dest, string(r.strategy))
	child.Status = model.StatusInTransit
	child.CurrentNode = dest
	return take
}

// consume ships from the ranked batches in order until needKg is met and
// returns the picks. Pick freshness is the value computed during ranking.
func (r *run) consume(list []ranked, needKg float64, dest string, at time.Time) ([]model.BatchPick, float64) {
	var (
		picks []model.BatchPick
		total float64
	)
	left := model.RoundKg(needKg)
	for _, c := range list {
		if left <= 0 {
			break
		}
		got := r.ship(c.b, model.MinKg(left, c.b.QuantityKg), dest, at)
		if got <= 0 {
			continue
		}
		picks = append(picks, model.BatchPick{BatchID: c.b.ID, QuantityKg: got, FreshnessPct: c.fresh})
		total = model.SumKg(total, got)
		left = model.SubKg(left, got)
	}
	return picks, total
}

// expiryPressure maps remaining hours to (0, 1]; batches closer to spoiling
// press harder. Non-perishable batches exert no pressure.
func expiryPressure(remainH float64) float64 {
	if math.IsInf(remainH, 1) {
		return 0
	}
	return 1 / (1 + remainH/24)
}
