package allocation

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	allocationsTotal *prometheus.CounterVec
	allocatedKg      *prometheus.CounterVec
	skippedLines     *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	transferRuns     *prometheus.CounterVec
	signalFailures   prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec, *prometheus.HistogramVec, *prometheus.CounterVec, prometheus.Counter) {
	allocs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freshalloc_allocations_total",
			Help: "Number of allocation records produced",
		},
		[]string{"strategy", "tier"},
	)
	kg := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freshalloc_allocated_kg_total",
			Help: "Kilograms allocated to requests",
		},
		[]string{"strategy"},
	)
	skipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freshalloc_skipped_lines_total",
			Help: "Line items that produced no allocation",
		},
		[]string{"strategy", "reason"},
	)
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "freshalloc_run_duration_seconds",
			Help:    "Wall-clock duration of one strategy run",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)
	transfers := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freshalloc_transfer_runs_total",
			Help: "Transfer planning runs by outcome",
		},
		[]string{"status"},
	)
	signal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "freshalloc_demand_signal_failures_total",
			Help: "Demand-signal calls that failed or timed out",
		},
	)
	return allocs, kg, skipped, dur, transfers, signal
}

func init() {
	allocationsTotal, allocatedKg, skippedLines, runDuration, transferRuns, signalFailures = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers the engine metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(allocationsTotal, allocatedKg, skippedLines, runDuration, transferRuns, signalFailures)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	allocationsTotal, allocatedKg, skippedLines, runDuration, transferRuns, signalFailures = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
