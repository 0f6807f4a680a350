// Package freshness models the time and temperature driven quality decay of
// perishable batches.
package freshness

import (
	"math"
	"time"

	"github.com/kilianp07/freshalloc/core/model"
)

const (
	// DefaultTempC is the ambient temperature assumed when none is configured.
	DefaultTempC = 25.0
	// baselineTempC is the temperature at or below which decay runs at its
	// nominal rate.
	baselineTempC = 20.0
)

// TempFactor returns the decay multiplier for the given average temperature.
// Every 10°C above the baseline adds 50% to the decay rate.
func TempFactor(avgTempC float64) float64 {
	return 1 + math.Max(0, (avgTempC-baselineTempC)/10)*0.5
}

// Perishable reports whether the batch carries the metadata needed to decay.
// Batches without a manufacture date or a positive shelf life are treated as
// non-perishable.
func Perishable(b *model.Batch) bool {
	return b != nil && !b.ManufactureDate.IsZero() && b.ShelfLifeHours > 0
}

// Pct returns the freshness percentage of b at the given time, in [0, 100]
// and rounded to two decimals.
func Pct(b *model.Batch, at time.Time, avgTempC float64) float64 {
	if !Perishable(b) {
		return 100
	}
	elapsed := at.Sub(b.ManufactureDate).Hours()
	pct := 100 - (elapsed/b.ShelfLifeHours)*100*TempFactor(avgTempC)
	pct = math.Min(100, math.Max(0, pct))
	return math.Round(pct*100) / 100
}

// IsSpoiled reports whether the batch has no freshness left at the given time.
func IsSpoiled(b *model.Batch, at time.Time, avgTempC float64) bool {
	return Pct(b, at, avgTempC) <= 0
}

// RemainingShelfLifeHours returns the hours left before freshness reaches
// zero. It returns +Inf for non-perishable batches so they sort last.
func RemainingShelfLifeHours(b *model.Batch, at time.Time, avgTempC float64) float64 {
	if !Perishable(b) {
		return math.Inf(1)
	}
	elapsed := at.Sub(b.ManufactureDate).Hours()
	rem := b.ShelfLifeHours/TempFactor(avgTempC) - elapsed
	if rem < 0 {
		return 0
	}
	return rem
}
