package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/freshalloc/core/metrics"
)

// PromSink exposes the latest run summary per strategy as Prometheus gauges.
type PromSink struct {
	runs        *prometheus.CounterVec
	fulfillment *prometheus.GaugeVec
	freshness   *prometheus.GaugeVec
	distance    *prometheus.GaugeVec
	spoiled     *prometheus.GaugeVec
	atRisk      *prometheus.GaugeVec
	moved       *prometheus.CounterVec
	shipped     *prometheus.CounterVec
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The HTTP endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freshalloc_runs_total",
			Help: "Completed allocation runs",
		}, []string{"strategy"}),
		fulfillment: gauge("freshalloc_fulfillment_pct", "Fulfillment percentage of the last run"),
		freshness:   gauge("freshalloc_delivered_freshness", "Weighted delivered freshness of the last run"),
		distance:    gauge("freshalloc_avg_distance_km", "Average shipment distance of the last run"),
		spoiled:     gauge("freshalloc_spoiled_kg", "Kilograms delivered spoiled in the last run"),
		atRisk:      gauge("freshalloc_at_risk_kg", "Kilograms delivered below the at-risk threshold in the last run"),
		moved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freshalloc_transfer_moved_kg_total",
			Help: "Kilograms moved between warehouses by transfer runs",
		}, []string{"strategy", "status"}),
		shipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freshalloc_warehouse_shipped_kg_total",
			Help: "Kilograms shipped per source warehouse",
		}, []string{"strategy", "warehouse"}),
	}
	var err error
	if s.runs, err = registerCounter(reg, s.runs); err != nil {
		return nil, err
	}
	for _, g := range []**prometheus.GaugeVec{&s.fulfillment, &s.freshness, &s.distance, &s.spoiled, &s.atRisk} {
		if *g, err = registerGauge(reg, *g); err != nil {
			return nil, err
		}
	}
	if s.moved, err = registerCounter(reg, s.moved); err != nil {
		return nil, err
	}
	if s.shipped, err = registerCounter(reg, s.shipped); err != nil {
		return nil, err
	}
	return s, nil
}

func gauge(name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{"strategy"})
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec), nil
		}
		return nil, err
	}
	return c, nil
}

func registerGauge(reg prometheus.Registerer, g *prometheus.GaugeVec) (*prometheus.GaugeVec, error) {
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.GaugeVec), nil
		}
		return nil, err
	}
	return g, nil
}

// RecordRun updates the per-strategy gauges with the run summary.
func (s *PromSink) RecordRun(r coremetrics.RunRecord) error {
	st := string(r.Strategy)
	s.runs.WithLabelValues(st).Inc()
	s.fulfillment.WithLabelValues(st).Set(r.Summary.FulfillmentPct)
	s.freshness.WithLabelValues(st).Set(r.Summary.AvgDeliveredFreshness)
	s.distance.WithLabelValues(st).Set(r.Summary.AvgDistanceKm)
	s.spoiled.WithLabelValues(st).Set(r.Summary.SpoiledKg)
	s.atRisk.WithLabelValues(st).Set(r.Summary.AtRiskKg)
	return nil
}

// RecordTransferRun adds the moved quantity of a transfer run.
func (s *PromSink) RecordTransferRun(r coremetrics.TransferRecord) error {
	s.moved.WithLabelValues(string(r.Strategy), r.Status).Add(r.MovedKg)
	return nil
}

// RecordShipment counts kilograms leaving a warehouse.
func (s *PromSink) RecordShipment(sh Shipment) error {
	if sh.Kg <= 0 {
		return nil
	}
	s.shipped.WithLabelValues(string(sh.Strategy), sh.WarehouseID).Add(sh.Kg)
	return nil
}
