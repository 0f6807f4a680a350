package transfer

import (
	"context"
	"time"

	"github.com/kilianp07/freshalloc/core/logger"
	"github.com/kilianp07/freshalloc/core/model"
)

// Planner detects warehouse imbalance, asks the suggester for transfers and
// applies them to the snapshot.
type Planner struct {
	cfg       Config
	suggester Suggester
	log       logger.Logger
	tempC     float64
}

// NewPlanner builds a planner. A nil suggester falls back to None.
func NewPlanner(cfg Config, s Suggester, log logger.Logger, tempC float64) *Planner {
	if s == nil {
		s = None{}
	}
	return &Planner{cfg: cfg, suggester: s, log: logger.OrNop(log), tempC: tempC}
}

// Run performs one planning attempt at simulated time at.
func (p *Planner) Run(ctx context.Context, at time.Time, inv *model.Inventory, nodes []model.Node) Run {
	run := Run{At: at}
	run.Stats = Imbalance(Loads(inv, nodes), p.cfg.Tuning)
	if !run.Stats.Imbalanced() {
		run.Status = StatusNoImbalance
		return run
	}

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()
	suggestions, err := p.suggester.PlanTransfers(callCtx, nodes, inv.Batches(), p.cfg.Tuning)
	if err != nil {
		p.log.Warnf("transfer planning at %s failed: %v", at.Format(time.RFC3339), err)
		run.Status = StatusPlannerError
		run.Error = err.Error()
		return run
	}
	if len(suggestions) == 0 {
		run.Status = StatusNoSuggestions
		return run
	}

	byID := make(map[string]model.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	for _, s := range suggestions {
		applied := Apply(inv, byID, s, at, p.tempC)
		for _, msg := range applied.Errors {
			p.log.Warnf("transfer %s->%s: %s", s.SourceNode, s.TargetNode, msg)
		}
		if applied.Skipped != "" {
			p.log.Debugw("transfer skipped", map[string]any{
				"source": s.SourceNode, "target": s.TargetNode, "reason": applied.Skipped,
			})
		}
		run.Transfers = append(run.Transfers, applied)
		run.MovedKg = model.SumKg(run.MovedKg, applied.MovedKg)
	}
	if run.MovedKg > 0 {
		run.Status = StatusApplied
	} else {
		run.Status = StatusNoSuggestions
	}
	p.log.Infof("transfer run at %s moved %.3f kg in %d suggestion(s)", at.Format(time.RFC3339), run.MovedKg, len(suggestions))
	return run
}
