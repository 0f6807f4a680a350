package transfer

import (
	"fmt"
	"time"
)

// Tuning is forwarded to the suggestion service.
type Tuning struct {
	MaxPairs        int     `json:"maxPairs"`
	MinTransferKg   float64 `json:"minTransferKg"`
	OverstockRatio  float64 `json:"overstockRatio"`
	UnderstockRatio float64 `json:"understockRatio"`
	TargetRatio     float64 `json:"targetRatio"`
}

// Config controls inter-warehouse rebalancing.
type Config struct {
	Enabled bool `json:"enabled"`
	// IntervalHours re-runs planning each time the simulated dispatch clock
	// crosses an interval boundary. Zero plans once before allocation.
	IntervalHours float64 `json:"interval_hours"`
	// MaxRuns caps the number of planning runs per allocation run.
	MaxRuns int `json:"max_runs"`
	// Timeout bounds each suggestion call.
	Timeout time.Duration `json:"timeout"`
	Tuning  Tuning        `json:"tuning"`
}

// DefaultTuning returns the default imbalance thresholds.
func DefaultTuning() Tuning {
	return Tuning{MaxPairs: 5, MinTransferKg: 50, OverstockRatio: 0.8, UnderstockRatio: 0.4, TargetRatio: 0.6}
}

// SetDefaults applies defaults to unset fields.
func (c *Config) SetDefaults() {
	d := DefaultTuning()
	if c.MaxRuns <= 0 {
		c.MaxRuns = 24
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Tuning.MaxPairs <= 0 {
		c.Tuning.MaxPairs = d.MaxPairs
	}
	if c.Tuning.MinTransferKg <= 0 {
		c.Tuning.MinTransferKg = d.MinTransferKg
	}
	if c.Tuning.OverstockRatio <= 0 {
		c.Tuning.OverstockRatio = d.OverstockRatio
	}
	if c.Tuning.UnderstockRatio <= 0 {
		c.Tuning.UnderstockRatio = d.UnderstockRatio
	}
	if c.Tuning.TargetRatio <= 0 {
		c.Tuning.TargetRatio = d.TargetRatio
	}
}

// Validate checks threshold consistency.
func (c Config) Validate() error {
	if c.IntervalHours < 0 {
		return fmt.Errorf("transfer: interval_hours must not be negative")
	}
	t := c.Tuning
	if t.UnderstockRatio >= t.OverstockRatio {
		return fmt.Errorf("transfer: understock ratio %.2f must be below overstock ratio %.2f", t.UnderstockRatio, t.OverstockRatio)
	}
	if t.TargetRatio < t.UnderstockRatio || t.TargetRatio > t.OverstockRatio {
		return fmt.Errorf("transfer: target ratio %.2f outside [%.2f, %.2f]", t.TargetRatio, t.UnderstockRatio, t.OverstockRatio)
	}
	return nil
}

// Periodic reports whether planning re-runs on simulated-time boundaries.
func (c Config) Periodic() bool { return c.Enabled && c.IntervalHours > 0 }
