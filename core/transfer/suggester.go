package transfer

import (
	"context"
	"math"
	"sort"

	"github.com/kilianp07/freshalloc/core/factory"
	"github.com/kilianp07/freshalloc/core/geo"
	"github.com/kilianp07/freshalloc/core/model"
)

// Suggester proposes source to target transfers. The engine only applies the
// suggestions; pairing and quantities are the suggester's responsibility.
type Suggester interface {
	PlanTransfers(ctx context.Context, nodes []model.Node, batches []model.Batch, t Tuning) ([]model.TransferSuggestion, error)
}

// None never suggests a transfer.
type None struct{}

// PlanTransfers implements Suggester.
func (None) PlanTransfers(context.Context, []model.Node, []model.Batch, Tuning) ([]model.TransferSuggestion, error) {
	return nil, nil
}

// Static returns fixed suggestions, or Err when set.
type Static struct {
	Suggestions []model.TransferSuggestion
	Err         error
}

// PlanTransfers implements Suggester.
func (s Static) PlanTransfers(context.Context, []model.Node, []model.Batch, Tuning) ([]model.TransferSuggestion, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]model.TransferSuggestion, len(s.Suggestions))
	copy(out, s.Suggestions)
	return out, nil
}

// Greedy pairs the most overstocked warehouse with the nearest understocked
// one and moves stock toward the target ratio, up to MaxPairs moves.
type Greedy struct{}

type load struct {
	node   model.Node
	stored float64
}

func (l load) util() float64 { return l.stored / l.node.Capacity() }

// PlanTransfers implements Suggester.
func (Greedy) PlanTransfers(_ context.Context, nodes []model.Node, batches []model.Batch, t Tuning) ([]model.TransferSuggestion, error) {
	stored := make(map[string]float64)
	for _, b := range batches {
		if b.Status == model.StatusStored && b.QuantityKg > 0 {
			stored[b.CurrentNode] += b.QuantityKg
		}
	}
	var loads []*load
	for _, n := range nodes {
		if n.IsWarehouse() {
			loads = append(loads, &load{node: n, stored: stored[n.ID]})
		}
	}

	var out []model.TransferSuggestion
	for len(out) < t.MaxPairs && len(loads) > 1 {
		sort.SliceStable(loads, func(i, j int) bool {
			if loads[i].util() != loads[j].util() {
				return loads[i].util() > loads[j].util()
			}
			return loads[i].node.ID < loads[j].node.ID
		})
		src := loads[0]
		if src.util() < t.OverstockRatio {
			break
		}
		surplus := src.stored - t.TargetRatio*src.node.Capacity()
		dst, dist := nearestUnderstocked(src, loads[1:], t)
		if dst == nil {
			break
		}
		deficit := t.TargetRatio*dst.node.Capacity() - dst.stored
		qty := model.RoundKg(math.Min(surplus, deficit))
		if qty < t.MinTransferKg {
			break
		}
		out = append(out, model.TransferSuggestion{SourceNode: src.node.ID, TargetNode: dst.node.ID, QuantityKg: qty, DistanceKm: dist})
		src.stored -= qty
		dst.stored += qty
	}
	return out, nil
}

func nearestUnderstocked(src *load, others []*load, t Tuning) (*load, float64) {
	var best *load
	bestDist := math.Inf(1)
	for _, l := range others {
		if l.util() > t.UnderstockRatio {
			continue
		}
		d := math.Inf(1)
		if src.node.Location != nil && l.node.Location != nil {
			d = geo.HaversineKm(*src.node.Location, *l.node.Location)
		}
		if best == nil || d < bestDist || (d == bestDist && l.util() < best.util()) {
			best, bestDist = l, d
		}
	}
	if math.IsInf(bestDist, 1) {
		bestDist = 0
	}
	return best, bestDist
}

var registry = factory.NewRegistry[Suggester]()

func init() {
	registry.MustRegister("none", func(map[string]any) (Suggester, error) { return None{}, nil })
	registry.MustRegister("greedy", func(map[string]any) (Suggester, error) { return Greedy{}, nil })
}

// MustRegister is Register for init-time registration; it panics on a
// duplicate name.
func MustRegister(name string, f factory.Factory[Suggester]) {
	registry.MustRegister(name, f)
}

// Register adds a suggester factory identified by name.
func Register(name string, f factory.Factory[Suggester]) error {
	return registry.Register(name, f)
}

// NewSuggester creates the suggester described by cfg. An empty type yields None.
func NewSuggester(cfg factory.ModuleConfig) (Suggester, error) {
	if cfg.Type == "" {
		return None{}, nil
	}
	return registry.Create(cfg)
}

// SuggesterNames lists the registered suggester types.
func SuggesterNames() []string { return registry.Names() }
