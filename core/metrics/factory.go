package metrics

import (
	"fmt"

	"github.com/kilianp07/freshalloc/core/factory"
)

var sinkRegistry = factory.NewRegistry[MetricsSink]()

func init() {
	sinkRegistry.MustRegister("nop", func(map[string]any) (MetricsSink, error) { return NopSink{}, nil })
}

// MustRegisterMetricsSink registers a sink factory at init time and panics
// on a duplicate name.
func MustRegisterMetricsSink(name string, f factory.Factory[MetricsSink]) {
	sinkRegistry.MustRegister(name, f)
}

// RegisterMetricsSink adds a metrics sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// NewMetricsSink builds every configured sink. Nop entries are dropped; a
// single remaining sink is returned as is, several are fanned out through a
// MultiSink.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	var sinks []MetricsSink
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, fmt.Errorf("sink %d (%s): %w", i, c.Type, err)
		}
		if _, nop := s.(NopSink); nop {
			continue
		}
		sinks = append(sinks, s)
	}
	switch len(sinks) {
	case 0:
		return NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMultiSink(sinks...), nil
	}
}

// SinkNames lists the registered sink types.
func SinkNames() []string { return sinkRegistry.Names() }
