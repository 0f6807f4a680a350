package transfer

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/freshalloc/core/freshness"
	"github.com/kilianp07/freshalloc/core/model"
)

// MovedBatch records how one batch took part in a transfer.
type MovedBatch struct {
	SourceBatchID string  `json:"source_batch_id"`
	MovedBatchID  string  `json:"moved_batch_id"`
	QuantityKg    float64 `json:"quantity_kg"`
	Split         bool    `json:"split"`
}

// Applied is the outcome of one suggestion.
type Applied struct {
	Suggestion model.TransferSuggestion `json:"suggestion"`
	MovedKg    float64                  `json:"moved_kg"`
	Batches    []MovedBatch             `json:"batches,omitempty"`
	Skipped    string                   `json:"skipped,omitempty"`
	Errors     []string                 `json:"errors,omitempty"`
}

// Apply executes one suggestion against the snapshot. Source batches are
// consumed closest-to-spoiling first, larger lots first on ties. A batch that
// is only partly needed is split and only the taken part is relocated.
func Apply(inv *model.Inventory, nodes map[string]model.Node, s model.TransferSuggestion, at time.Time, tempC float64) Applied {
	res := Applied{Suggestion: s}
	if reason := invalid(nodes, s); reason != "" {
		res.Skipped = reason
		return res
	}

	candidates := sourceBatches(inv, s.SourceNode, at, tempC)
	remaining := model.RoundKg(s.QuantityKg)
	note := fmt.Sprintf(" (transfer %s->%s)", s.SourceNode, s.TargetNode)
	for _, b := range candidates {
		if remaining <= 0 {
			break
		}
		if model.RoundKg(b.QuantityKg) <= remaining {
			moved := b.QuantityKg
			b.Record(at, model.ActionTransfer, b.CurrentNode, s.TargetNode, "")
			b.CurrentNode = s.TargetNode
			res.Batches = append(res.Batches, MovedBatch{SourceBatchID: b.ID, MovedBatchID: b.ID, QuantityKg: moved})
			remaining = model.SubKg(remaining, moved)
			res.MovedKg = model.SumKg(res.MovedKg, moved)
			continue
		}
		child, err := inv.Split(b.ID, remaining, at, "t", note)
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		child.Record(at, model.ActionTransfer, child.CurrentNode, s.TargetNode, "")
		child.CurrentNode = s.TargetNode
		res.Batches = append(res.Batches, MovedBatch{SourceBatchID: b.ID, MovedBatchID: child.ID, QuantityKg: child.QuantityKg, Split: true})
		res.MovedKg = model.SumKg(res.MovedKg, child.QuantityKg)
		remaining = 0
	}
	if res.MovedKg == 0 {
		res.Skipped = "no movable stock at source"
	}
	return res
}

func invalid(nodes map[string]model.Node, s model.TransferSuggestion) string {
	src, ok := nodes[s.SourceNode]
	if !ok || !src.IsWarehouse() {
		return "unknown source warehouse"
	}
	dst, ok := nodes[s.TargetNode]
	if !ok || !dst.IsWarehouse() {
		return "unknown target warehouse"
	}
	if s.SourceNode == s.TargetNode {
		return "source equals target"
	}
	if model.RoundKg(s.QuantityKg) <= 0 {
		return "non-positive quantity"
	}
	return ""
}

func sourceBatches(inv *model.Inventory, node string, at time.Time, tempC float64) []*model.Batch {
	type ranked struct {
		b   *model.Batch
		rem float64
	}
	var list []ranked
	for _, b := range inv.StoredAt(node) {
		if freshness.IsSpoiled(b, at, tempC) {
			continue
		}
		list = append(list, ranked{b: b, rem: freshness.RemainingShelfLifeHours(b, at, tempC)})
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].rem != list[j].rem {
			return list[i].rem < list[j].rem
		}
		if list[i].b.QuantityKg != list[j].b.QuantityKg {
			return list[i].b.QuantityKg > list[j].b.QuantityKg
		}
		return list[i].b.ID < list[j].b.ID
	})
	out := make([]*model.Batch, len(list))
	for i, r := range list {
		out[i] = r.b
	}
	return out
}
