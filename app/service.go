package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/freshalloc/app/plugins"
	"github.com/kilianp07/freshalloc/config"
	"github.com/kilianp07/freshalloc/core/allocation"
	"github.com/kilianp07/freshalloc/core/events"
	coremetrics "github.com/kilianp07/freshalloc/core/metrics"
	"github.com/kilianp07/freshalloc/core/model"
	coremon "github.com/kilianp07/freshalloc/core/monitoring"
	"github.com/kilianp07/freshalloc/core/prediction"
	"github.com/kilianp07/freshalloc/core/transfer"
	"github.com/kilianp07/freshalloc/infra/logger"
	"github.com/kilianp07/freshalloc/infra/metrics"
	"github.com/kilianp07/freshalloc/infra/monitoring"
	"github.com/kilianp07/freshalloc/infra/runlog"
	"github.com/kilianp07/freshalloc/internal/eventbus"
	"github.com/kilianp07/freshalloc/pkg/scenario"
)

const flushTimeout = 2 * time.Second

// Service builds the engine and its collaborators from configuration and
// records every run it executes.
type Service struct {
	Engine   *allocation.Engine
	Store    runlog.Store
	bus      *eventbus.Bus[events.Event]
	sink     coremetrics.MetricsSink
	monitor  coremon.Monitor
	log      logger.Logger
	promAddr string
	stop     context.CancelFunc
	done     <-chan struct{}
}

// New creates a Service from the configuration. Extra engine options are
// applied after the configured ones.
func New(cfg *config.Config, opts ...allocation.Option) (*Service, error) {
	logOpts := logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	logg := logger.NewWithOptions("service", logOpts)
	logg.Debugw("module catalog", map[string]any{"modules": plugins.Catalog()})

	predictor, err := prediction.New(cfg.Predictor)
	if err != nil {
		return nil, fmt.Errorf("predictor: %w", err)
	}
	suggester, err := transfer.NewSuggester(cfg.Suggester)
	if err != nil {
		return nil, fmt.Errorf("suggester: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	monitor, err := monitoring.NewSentryMonitor(cfg.Monitoring)
	if err != nil {
		coremetrics.CloseSink(sink)
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	store, err := runlog.New(cfg.RunLog)
	if err != nil {
		coremetrics.CloseSink(sink)
		monitor.Flush(flushTimeout)
		return nil, fmt.Errorf("run log: %w", err)
	}

	bus := eventbus.New[events.Event](eventbus.DefaultBuffer)
	base := []allocation.Option{
		allocation.WithLogger(logger.NewWithOptions("engine", logOpts)),
		allocation.WithPredictor(predictor),
		allocation.WithSuggester(suggester),
		allocation.WithMetricsSink(sink),
		allocation.WithMonitor(monitor),
		allocation.WithEventBus(bus),
		allocation.WithAtRiskPct(cfg.Metrics.AtRiskPct),
	}
	engine, err := allocation.NewEngine(cfg.Engine, append(base, opts...)...)
	if err != nil {
		bus.Close()
		coremetrics.CloseSink(sink)
		monitor.Flush(flushTimeout)
		_ = store.Close()
		return nil, err
	}
	return &Service{
		Engine:   engine,
		Store:    store,
		bus:      bus,
		sink:     sink,
		monitor:  monitor,
		log:      logg,
		promAddr: cfg.Metrics.PrometheusAddr,
	}, nil
}

// Start launches the background collaborators: the Prometheus endpoint when
// an address is configured and the shipment collector when a sink tracks
// warehouse outflow.
func (s *Service) Start(ctx context.Context) {
	ctx, s.stop = context.WithCancel(ctx)
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if rec := shipmentRecorder(s.sink); rec != nil {
		s.done = metrics.StartEventCollector(ctx, s.bus, rec, logger.New("collector"))
	}
}

func shipmentRecorder(sink coremetrics.MetricsSink) metrics.ShipmentRecorder {
	if rec, ok := sink.(metrics.ShipmentRecorder); ok {
		return rec
	}
	if multi, ok := sink.(*coremetrics.MultiSink); ok {
		for _, sub := range multi.Sinks {
			if rec, ok := sub.(metrics.ShipmentRecorder); ok {
				return rec
			}
		}
	}
	return nil
}

// Allocate runs one strategy over the scenario and appends the result to
// the run log.
func (s *Service) Allocate(ctx context.Context, strategy model.Strategy, sc *scenario.Scenario) (*allocation.Result, error) {
	inv, err := model.NewInventory(sc.Batches)
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	res, err := s.Engine.Allocate(ctx, strategy, sc.Requests, inv, sc.Nodes)
	if err != nil {
		return nil, err
	}
	s.record(ctx, res)
	return res, nil
}

// Compare runs both strategies over the scenario and logs both results.
func (s *Service) Compare(ctx context.Context, sc *scenario.Scenario) (*allocation.Comparison, error) {
	cmp, err := s.Engine.Compare(ctx, sc.Requests, sc.Batches, sc.Nodes)
	if err != nil {
		return nil, err
	}
	s.record(ctx, cmp.Baseline)
	s.record(ctx, cmp.Scored)
	return cmp, nil
}

func (s *Service) record(ctx context.Context, res *allocation.Result) {
	if err := s.Store.Append(ctx, runlog.FromResult(res)); err != nil {
		s.log.Warnf("run log append %s/%s: %v", res.RunID, res.Strategy, err)
	}
}

// Close stops the background collaborators and releases the run log.
func (s *Service) Close() error {
	if s.stop != nil {
		s.stop()
	}
	s.bus.Close()
	if s.done != nil {
		<-s.done
	}
	coremetrics.CloseSink(s.sink)
	s.monitor.Flush(flushTimeout)
	return s.Store.Close()
}
