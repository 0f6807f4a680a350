package metrics

import (
	"github.com/kilianp07/freshalloc/core/factory"
	coremetrics "github.com/kilianp07/freshalloc/core/metrics"
)

// init registers the infrastructure-backed metrics sinks.
func init() {
	coremetrics.MustRegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSink()
	})

	coremetrics.MustRegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
