package allocation

import (
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/freshalloc/core/freshness"
	"github.com/kilianp07/freshalloc/core/geo"
	"github.com/kilianp07/freshalloc/core/transfer"
)

// Weights of the scored allocator's composite score.
type Weights struct {
	Distance    float64 `json:"distance"`
	Freshness   float64 `json:"freshness"`
	Expiry      float64 `json:"expiry"`
	Fulfillment float64 `json:"fulfillment"`
}

// ScoredConfig tunes the scored allocator.
type ScoredConfig struct {
	HardCapKm        float64 `json:"hard_cap_km"`
	PreferredKm      float64 `json:"preferred_km"`
	TopK             int     `json:"top_k"`
	DecayKm          float64 `json:"decay_km"`
	WidenFulfillment float64 `json:"widen_fulfillment"`

	StrictPct       float64 `json:"strict_pct"`
	RelaxedPct      float64 `json:"relaxed_pct"`
	RelaxedPenalty  float64 `json:"relaxed_penalty"`
	FallbackPenalty float64 `json:"fallback_penalty"`

	Weights             Weights `json:"weights"`
	UrgencyBoost        float64 `json:"urgency_boost"`
	InCapMinFulfillment float64 `json:"in_cap_min_fulfillment"`
	// MaxSourcesPerLine bounds how many warehouses may serve one line item.
	MaxSourcesPerLine int `json:"max_sources_per_line"`
}

// DefaultScoredConfig returns the default scored allocator tuning.
func DefaultScoredConfig() ScoredConfig {
	return ScoredConfig{
		HardCapKm:           500,
		PreferredKm:         150,
		TopK:                3,
		DecayKm:             100,
		WidenFulfillment:    0.95,
		StrictPct:           55,
		RelaxedPct:          25,
		RelaxedPenalty:      0.98,
		FallbackPenalty:     0.95,
		Weights:             Weights{Distance: 0.10, Freshness: 0.45, Expiry: 0.05, Fulfillment: 0.40},
		UrgencyBoost:        1.1,
		InCapMinFulfillment: 0.6,
		MaxSourcesPerLine:   2,
	}
}

// SetDefaults fills unset fields with DefaultScoredConfig values.
func (c *ScoredConfig) SetDefaults() {
	d := DefaultScoredConfig()
	if c.HardCapKm <= 0 {
		c.HardCapKm = d.HardCapKm
	}
	if c.PreferredKm <= 0 {
		c.PreferredKm = d.PreferredKm
	}
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	if c.DecayKm <= 0 {
		c.DecayKm = d.DecayKm
	}
	if c.WidenFulfillment <= 0 {
		c.WidenFulfillment = d.WidenFulfillment
	}
	if c.StrictPct <= 0 {
		c.StrictPct = d.StrictPct
	}
	if c.RelaxedPct <= 0 {
		c.RelaxedPct = d.RelaxedPct
	}
	if c.RelaxedPenalty <= 0 {
		c.RelaxedPenalty = d.RelaxedPenalty
	}
	if c.FallbackPenalty <= 0 {
		c.FallbackPenalty = d.FallbackPenalty
	}
	if c.Weights == (Weights{}) {
		c.Weights = d.Weights
	}
	if c.UrgencyBoost <= 0 {
		c.UrgencyBoost = d.UrgencyBoost
	}
	if c.InCapMinFulfillment <= 0 {
		c.InCapMinFulfillment = d.InCapMinFulfillment
	}
	if c.MaxSourcesPerLine <= 0 {
		c.MaxSourcesPerLine = d.MaxSourcesPerLine
	}
}

// Validate checks the tuning for consistency.
func (c ScoredConfig) Validate() error {
	if c.PreferredKm > c.HardCapKm {
		return fmt.Errorf("scored: preferred_km %.1f exceeds hard_cap_km %.1f", c.PreferredKm, c.HardCapKm)
	}
	if c.RelaxedPct >= c.StrictPct || c.StrictPct > 100 {
		return fmt.Errorf("scored: tiers must satisfy 0 < relaxed_pct (%.1f) < strict_pct (%.1f) <= 100", c.RelaxedPct, c.StrictPct)
	}
	if c.WidenFulfillment > 1 || c.InCapMinFulfillment > 1 {
		return errors.New("scored: fulfillment ratios must be within (0, 1]")
	}
	w := c.Weights
	if w.Distance < 0 || w.Freshness < 0 || w.Expiry < 0 || w.Fulfillment < 0 {
		return errors.New("scored: weights must not be negative")
	}
	return nil
}

// Config is the explicit configuration of one engine.
type Config struct {
	// AvgTempC is the average storage temperature. Nil means
	// freshness.DefaultTempC; 0 is a valid cold-chain setting.
	AvgTempC *float64 `json:"avg_temp_c"`
	// AllowSpoiled lets batches that are spoiled on arrival be selected.
	AllowSpoiled bool `json:"allow_spoiled"`
	// DispatchFloor and DispatchCeiling clamp dispatch times to a
	// simulation window. Zero values disable either bound.
	DispatchFloor   time.Time       `json:"dispatch_floor"`
	DispatchCeiling time.Time       `json:"dispatch_ceiling"`
	Travel          geo.Travel      `json:"travel"`
	Scored          ScoredConfig    `json:"scored"`
	Transfer        transfer.Config `json:"transfer"`
	// SignalTimeout bounds the demand-signal call.
	SignalTimeout time.Duration `json:"signal_timeout"`
}

// Temp returns the configured average temperature or the default.
func (c Config) Temp() float64 {
	if c.AvgTempC == nil {
		return freshness.DefaultTempC
	}
	return *c.AvgTempC
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	if c.AvgTempC == nil {
		t := freshness.DefaultTempC
		c.AvgTempC = &t
	}
	if c.SignalTimeout <= 0 {
		c.SignalTimeout = 5 * time.Second
	}
	c.Travel.SetDefaults()
	c.Scored.SetDefaults()
	c.Transfer.SetDefaults()
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if !c.DispatchFloor.IsZero() && !c.DispatchCeiling.IsZero() && c.DispatchCeiling.Before(c.DispatchFloor) {
		return fmt.Errorf("engine: dispatch_ceiling %s before dispatch_floor %s",
			c.DispatchCeiling.Format(time.RFC3339), c.DispatchFloor.Format(time.RFC3339))
	}
	if err := c.Scored.Validate(); err != nil {
		return err
	}
	return c.Transfer.Validate()
}
