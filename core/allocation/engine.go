package allocation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/freshalloc/core/events"
	"github.com/kilianp07/freshalloc/core/logger"
	"github.com/kilianp07/freshalloc/core/metrics"
	"github.com/kilianp07/freshalloc/core/model"
	"github.com/kilianp07/freshalloc/core/monitoring"
	"github.com/kilianp07/freshalloc/core/prediction"
	"github.com/kilianp07/freshalloc/core/transfer"
	"github.com/kilianp07/freshalloc/internal/eventbus"
)

// ErrUnknownStrategy is returned for a strategy name the engine does not run.
var ErrUnknownStrategy = errors.New("unknown strategy")

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (model.Strategy, error) {
	switch st := model.Strategy(s); st {
	case model.StrategyBaseline, model.StrategyScored:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Result is the outcome of one strategy run.
type Result struct {
	RunID       string             `json:"run_id"`
	Strategy    model.Strategy     `json:"strategy"`
	StartedAt   time.Time          `json:"started_at"`
	Duration    time.Duration      `json:"duration"`
	Allocations []model.Allocation `json:"allocations"`
	Transfers   transfer.Trace     `json:"transfers"`
	Skipped     []Skip             `json:"skipped,omitempty"`
	Summary     metrics.Summary    `json:"summary"`

	Signals     []prediction.DemandSignal `json:"signals,omitempty"`
	SignalError string                    `json:"signal_error,omitempty"`

	// Batches is the snapshot after the run, sorted by ID.
	Batches []model.Batch `json:"batches,omitempty"`
}

// Comparison holds both strategies' results over the same inputs.
type Comparison struct {
	Baseline    *Result             `json:"baseline"`
	Scored      *Result             `json:"scored"`
	Improvement metrics.Improvement `json:"improvement"`
}

// Engine runs the allocation strategies.
type Engine struct {
	cfg       Config
	log       logger.Logger
	predictor prediction.DemandPredictor
	suggester transfer.Suggester
	sink      metrics.MetricsSink
	monitor   monitoring.Monitor
	bus       eventbus.Publisher[events.Event]
	now       func() time.Time
	newRunID  func() string
	atRiskPct float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = logger.OrNop(l) }
}

// WithPredictor sets the demand-signal capability.
func WithPredictor(p prediction.DemandPredictor) Option {
	return func(e *Engine) {
		if p != nil {
			e.predictor = p
		}
	}
}

// WithSuggester sets the transfer-suggestion capability.
func WithSuggester(s transfer.Suggester) Option {
	return func(e *Engine) {
		if s != nil {
			e.suggester = s
		}
	}
}

// WithMetricsSink sets the sink receiving completed runs.
func WithMetricsSink(s metrics.MetricsSink) Option {
	return func(e *Engine) {
		if s != nil {
			e.sink = s
		}
	}
}

// WithMonitor reports degraded predictor and planner calls to m.
func WithMonitor(m monitoring.Monitor) Option {
	return func(e *Engine) { e.monitor = monitoring.OrNop(m) }
}

// WithEventBus publishes run events on bus.
func WithEventBus(bus eventbus.Publisher[events.Event]) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithClock sets the clock used for requests without a creation time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRunIDs sets the run ID generator.
func WithRunIDs(gen func() string) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newRunID = gen
		}
	}
}

// WithAtRiskPct sets the delivered-freshness threshold used in summaries.
func WithAtRiskPct(pct float64) Option {
	return func(e *Engine) { e.atRiskPct = pct }
}

// NewEngine validates cfg and returns an engine. Capabilities default to
// their null objects.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	e := &Engine{
		cfg:       cfg,
		log:       logger.Nop{},
		predictor: prediction.None{},
		suggester: transfer.None{},
		sink:      metrics.NopSink{},
		monitor:   monitoring.NopMonitor{},
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// pending is a validated request copy with its valid line items.
type pending struct {
	req   model.Request
	items []model.LineItem
}

// Allocate runs one strategy against inv, which the run mutates: consumed
// stock leaves as in-transit batches and transfers relocate stored batches.
// Callers that need the original snapshot pass a clone.
func (e *Engine) Allocate(ctx context.Context, strategy model.Strategy, requests []model.Request, inv *model.Inventory, nodes []model.Node) (*Result, error) {
	if inv == nil {
		return nil, model.ErrNilInventory
	}
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}
	started := time.Now()
	res := &Result{RunID: e.newRunID(), Strategy: strategy, StartedAt: started}
	e.publish(events.RunEvent{RunID: res.RunID, Strategy: strategy, Phase: events.PhaseStarted, Requests: len(requests), Time: started})
	e.log.Infof("%s run %s: %d request(s), %d batch(es), %d node(s)", strategy, res.RunID, len(requests), inv.Len(), len(nodes))

	r := newRun(e.cfg, strategy, inv, nodes, e.log)
	queue := e.prepare(r, requests, res)

	var (
		planner  *transfer.Planner
		schedule *transfer.Schedule
	)
	if strategy == model.StrategyScored {
		e.loadSignals(ctx, r, requests, nodes, res)
		if e.cfg.Transfer.Enabled {
			planner = transfer.NewPlanner(e.cfg.Transfer, e.suggester, e.log, e.cfg.Temp())
			if e.cfg.Transfer.Periodic() {
				schedule = transfer.NewSchedule(e.cfg.Transfer)
			} else {
				e.planTransfers(ctx, planner, e.firstDispatch(queue), r, nodes, res)
			}
		}
	}

	for _, p := range queue {
		if err := ctx.Err(); err != nil {
			e.publish(events.RunEvent{RunID: res.RunID, Strategy: strategy, Phase: events.PhaseFinished, Err: err, Time: time.Now()})
			return nil, fmt.Errorf("%s run %s: %w", strategy, res.RunID, err)
		}
		if schedule != nil {
			switch schedule.Tick(p.req.DispatchTime) {
			case transfer.Fire:
				e.planTransfers(ctx, planner, p.req.DispatchTime, r, nodes, res)
			case transfer.Capped:
				capped := transfer.Run{At: p.req.DispatchTime, Status: transfer.StatusMaxRuns}
				res.Transfers.Add(capped)
				transferRuns.WithLabelValues(capped.Status).Inc()
			}
		}
		demand := r.nodes[p.req.NodeID]
		for _, item := range p.items {
			e.allocateLine(r, p.req, item, demand, res)
		}
	}

	res.Batches = inv.Batches()
	res.Duration = time.Since(started)
	res.Summary = metrics.Summarize(res.Allocations, requests, res.Batches, metrics.Options{
		AvgTempC:  e.cfg.AvgTempC,
		Travel:    e.cfg.Travel,
		AtRiskPct: e.atRiskPct,
	})
	runDuration.WithLabelValues(string(strategy)).Observe(res.Duration.Seconds())
	if err := e.sink.RecordRun(metrics.RunRecord{
		RunID:        res.RunID,
		Strategy:     strategy,
		Time:         started,
		Duration:     res.Duration,
		Summary:      res.Summary,
		SkippedLines: len(res.Skipped),
		SignalError:  res.SignalError,
	}); err != nil {
		e.log.Warnf("record %s run %s: %v", strategy, res.RunID, err)
	}
	e.publish(events.RunEvent{
		RunID:       res.RunID,
		Strategy:    strategy,
		Phase:       events.PhaseFinished,
		Requests:    len(requests),
		Allocations: len(res.Allocations),
		Time:        time.Now(),
	})
	e.log.Infof("%s run %s done: %d allocation(s), %.3f/%.3f kg, %d skipped, %d transfer run(s)",
		strategy, res.RunID, len(res.Allocations), res.Summary.AllocatedKg, res.Summary.RequiredKg, len(res.Skipped), len(res.Transfers.Runs))
	return res, nil
}

func (e *Engine) allocateLine(r *run, req model.Request, item model.LineItem, demand model.Node, res *Result) {
	var (
		allocs []model.Allocation
		reason string
	)
	if r.strategy == model.StrategyBaseline {
		var a *model.Allocation
		if a, reason = r.baselineLine(req, item, demand); a != nil {
			allocs = append(allocs, *a)
		}
	} else {
		allocs, reason = r.scoredLine(req, item, demand)
	}
	if reason != "" {
		e.skip(res, Skip{RequestID: req.ID, FoodType: item.FoodType, Reason: reason})
		return
	}
	for _, a := range allocs {
		res.Allocations = append(res.Allocations, a)
		tier := a.Tier
		if tier == "" {
			tier = "none"
		}
		allocationsTotal.WithLabelValues(string(a.Strategy), tier).Inc()
		allocatedKg.WithLabelValues(string(a.Strategy)).Add(a.AllocatedKg)
		e.publish(events.AllocationEvent{RunID: res.RunID, Allocation: a})
	}
}

// prepare validates the requests, attaches dispatch times to private copies
// and orders them for processing.
func (e *Engine) prepare(r *run, requests []model.Request, res *Result) []pending {
	now := e.now()
	queue := make([]pending, 0, len(requests))
	for _, req := range requests {
		if err := req.Validate(); err != nil {
			e.skip(res, Skip{RequestID: req.ID, Reason: ReasonInvalidRequest, Detail: err.Error()})
			continue
		}
		cp := req
		cp.Items = append([]model.LineItem(nil), req.Items...)
		cp.DispatchTime = e.dispatchTime(req, now)

		demand, ok := r.nodes[req.NodeID]
		var items []model.LineItem
		for _, it := range cp.Items {
			switch err := model.ValidateItem(it); {
			case err != nil:
				e.skip(res, Skip{RequestID: req.ID, FoodType: it.FoodType, Reason: ReasonInvalidItem, Detail: err.Error()})
			case !ok || demand.Kind != model.NodeDemand:
				e.skip(res, Skip{RequestID: req.ID, FoodType: it.FoodType, Reason: ReasonUnknownNode, Detail: req.NodeID})
			case demand.Location == nil:
				e.skip(res, Skip{RequestID: req.ID, FoodType: it.FoodType, Reason: ReasonNoCoordinates, Detail: req.NodeID})
			default:
				items = append(items, it)
			}
		}
		if len(items) > 0 {
			queue = append(queue, pending{req: cp, items: items})
		}
	}

	if e.cfg.Transfer.Periodic() {
		sort.SliceStable(queue, func(i, j int) bool {
			a, b := queue[i].req, queue[j].req
			if !a.DispatchTime.Equal(b.DispatchTime) {
				return a.DispatchTime.Before(b.DispatchTime)
			}
			return a.ID < b.ID
		})
		return queue
	}
	sort.SliceStable(queue, func(i, j int) bool {
		a, b := queue[i].req, queue[j].req
		if a.RequiredBy.IsZero() != b.RequiredBy.IsZero() {
			return !a.RequiredBy.IsZero()
		}
		if !a.RequiredBy.Equal(b.RequiredBy) {
			return a.RequiredBy.Before(b.RequiredBy)
		}
		if !a.DispatchTime.Equal(b.DispatchTime) {
			return a.DispatchTime.Before(b.DispatchTime)
		}
		return a.ID < b.ID
	})
	return queue
}

// dispatchTime picks the request's dispatch time, else its creation time,
// else now, clamped to the configured window.
func (e *Engine) dispatchTime(req model.Request, now time.Time) time.Time {
	t := req.DispatchTime
	if t.IsZero() {
		t = req.CreatedAt
	}
	if t.IsZero() {
		t = now
	}
	return e.clamp(t)
}

func (e *Engine) firstDispatch(queue []pending) time.Time {
	if len(queue) == 0 {
		return e.clamp(e.now())
	}
	first := queue[0].req.DispatchTime
	for _, p := range queue[1:] {
		if p.req.DispatchTime.Before(first) {
			first = p.req.DispatchTime
		}
	}
	return first
}

func (e *Engine) clamp(t time.Time) time.Time {
	if !e.cfg.DispatchFloor.IsZero() && t.Before(e.cfg.DispatchFloor) {
		t = e.cfg.DispatchFloor
	}
	if !e.cfg.DispatchCeiling.IsZero() && t.After(e.cfg.DispatchCeiling) {
		t = e.cfg.DispatchCeiling
	}
	return t
}

// loadSignals calls the demand predictor. A failure only disables the
// urgency boost.
func (e *Engine) loadSignals(ctx context.Context, r *run, requests []model.Request, nodes []model.Node, res *Result) {
	cctx, cancel := context.WithTimeout(ctx, e.cfg.SignalTimeout)
	defer cancel()
	signals, err := e.predictor.Predict(cctx, nodes, requests, r.inv.Batches())
	if err != nil {
		res.SignalError = err.Error()
		signalFailures.Inc()
		e.log.Warnf("demand signal unavailable, urgency boost disabled: %v", err)
		e.monitor.CaptureException(err, map[string]string{"call": "demand_signal", "run_id": res.RunID, "strategy": string(r.strategy)})
		return
	}
	res.Signals = signals
	r.regions = prediction.Index(signals)
	if n := r.regions.Count(); n > 0 {
		e.log.Infof("demand signal flags %d anomalous region(s)", n)
	}
}

func (e *Engine) planTransfers(ctx context.Context, p *transfer.Planner, at time.Time, r *run, nodes []model.Node, res *Result) {
	tr := p.Run(ctx, at, r.inv, nodes)
	res.Transfers.Add(tr)
	transferRuns.WithLabelValues(tr.Status).Inc()
	if tr.Status == transfer.StatusPlannerError {
		e.monitor.CaptureException(errors.New(tr.Error), map[string]string{"call": "transfer_planner", "run_id": res.RunID, "strategy": string(r.strategy)})
	}
	e.publish(events.TransferEvent{RunID: res.RunID, Run: tr})
	if rec, ok := e.sink.(metrics.TransferRecorder); ok {
		if err := rec.RecordTransferRun(metrics.TransferRecord{
			RunID:    res.RunID,
			Strategy: r.strategy,
			Status:   tr.Status,
			MovedKg:  tr.MovedKg,
			Time:     at,
		}); err != nil {
			e.log.Warnf("record transfer run: %v", err)
		}
	}
}

func (e *Engine) skip(res *Result, s Skip) {
	res.Skipped = append(res.Skipped, s)
	skippedLines.WithLabelValues(string(res.Strategy), s.Reason).Inc()
	e.log.Debugw("line skipped", map[string]any{"request": s.RequestID, "food_type": s.FoodType, "reason": s.Reason, "detail": s.Detail})
}

func (e *Engine) publish(ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

// Compare runs both strategies concurrently on independent clones of the
// same snapshot and derives the improvement of scored over baseline.
func (e *Engine) Compare(ctx context.Context, requests []model.Request, batches []model.Batch, nodes []model.Node) (*Comparison, error) {
	base, err := model.NewInventory(batches)
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}
	scoredInv := base.Clone()

	cmp := &Comparison{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := e.Allocate(gctx, model.StrategyBaseline, requests, base, nodes)
		cmp.Baseline = res
		return err
	})
	g.Go(func() error {
		res, err := e.Allocate(gctx, model.StrategyScored, requests, scoredInv, nodes)
		cmp.Scored = res
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}
	cmp.Improvement = metrics.Improve(cmp.Baseline.Summary, cmp.Scored.Summary)
	return cmp, nil
}
