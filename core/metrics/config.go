package metrics

import (
	"fmt"

	"github.com/kilianp07/freshalloc/core/factory"
)

// Config defines the metrics sinks and the Prometheus exposition address.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr starts a /metrics endpoint when set, e.g. ":9090".
	PrometheusAddr string  `json:"prometheus_addr"`
	AtRiskPct      float64 `json:"at_risk_pct"`
}

// SetDefaults applies defaults to unset fields.
func (c *Config) SetDefaults() {
	if c.AtRiskPct <= 0 {
		c.AtRiskPct = DefaultAtRiskPct
	}
}

// Validate checks that every sink names a type.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sink %d has no type", i)
		}
	}
	if c.AtRiskPct > 100 {
		return fmt.Errorf("metrics: at_risk_pct %.2f above 100", c.AtRiskPct)
	}
	return nil
}
