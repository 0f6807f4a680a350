package metrics

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/freshalloc/core/freshness"
	"github.com/kilianp07/freshalloc/core/geo"
	"github.com/kilianp07/freshalloc/core/model"
)

// DefaultAtRiskPct is the delivered freshness below which kilograms count as
// at risk.
const DefaultAtRiskPct = 20.0

// Options parameterise delivered-freshness estimation.
type Options struct {
	AvgTempC  *float64
	Travel    geo.Travel
	AtRiskPct float64
}

func (o *Options) setDefaults() {
	if o.AvgTempC == nil {
		t := freshness.DefaultTempC
		o.AvgTempC = &t
	}
	o.Travel.SetDefaults()
	if o.AtRiskPct <= 0 {
		o.AtRiskPct = DefaultAtRiskPct
	}
}

// Summary aggregates one strategy's allocations.
type Summary struct {
	RequiredKg            float64 `json:"required_kg"`
	AllocatedKg           float64 `json:"allocated_kg"`
	FulfillmentPct        float64 `json:"fulfillment_pct"`
	RequestsTotal         int     `json:"requests_total"`
	RequestsServed        int     `json:"requests_served"`
	Allocations           int     `json:"allocations"`
	TotalDistanceKm       float64 `json:"total_distance_km"`
	AvgDistanceKm         float64 `json:"avg_distance_km"`
	AvgSelectionFreshness float64 `json:"avg_selection_freshness"`
	AvgDeliveredFreshness float64 `json:"avg_delivered_freshness"`
	SpoiledKg             float64 `json:"spoiled_kg"`
	AtRiskKg              float64 `json:"at_risk_kg"`
}

// Summarize computes the summary of allocs against the requests they serve.
// Delivered freshness is recomputed at dispatch plus travel time from the
// batches' perishability attributes; picks referencing an unknown batch fall
// back to the freshness recorded on the pick.
func Summarize(allocs []model.Allocation, requests []model.Request, batches []model.Batch, opts Options) Summary {
	opts.setDefaults()
	var s Summary
	s.RequestsTotal = len(requests)
	for _, r := range requests {
		for _, it := range r.Items {
			if it.RequiredKg > 0 {
				s.RequiredKg = model.SumKg(s.RequiredKg, it.RequiredKg)
			}
		}
	}

	byID := make(map[string]*model.Batch, len(batches))
	for i := range batches {
		byID[batches[i].ID] = &batches[i]
	}

	served := make(map[string]bool)
	var (
		selF, selW []float64
		delF, delW []float64
		shipped    int
	)
	for _, a := range allocs {
		s.Allocations++
		if a.AllocatedKg <= 0 {
			continue
		}
		served[a.RequestID] = true
		shipped++
		s.AllocatedKg = model.SumKg(s.AllocatedKg, a.AllocatedKg)
		s.TotalDistanceKm += a.DistanceKm

		delivery := deliveryTime(a, opts.Travel)
		for _, p := range a.Batches {
			if p.QuantityKg <= 0 {
				continue
			}
			selF = append(selF, p.FreshnessPct)
			selW = append(selW, p.QuantityKg)

			f := p.FreshnessPct
			if b, ok := byID[p.BatchID]; ok {
				f = freshness.Pct(b, delivery, *opts.AvgTempC)
			}
			delF = append(delF, f)
			delW = append(delW, p.QuantityKg)
			switch {
			case f <= 0:
				s.SpoiledKg = model.SumKg(s.SpoiledKg, p.QuantityKg)
			case f < opts.AtRiskPct:
				s.AtRiskKg = model.SumKg(s.AtRiskKg, p.QuantityKg)
			}
		}
	}
	s.RequestsServed = len(served)
	if s.RequiredKg > 0 {
		s.FulfillmentPct = round2(s.AllocatedKg / s.RequiredKg * 100)
	}
	s.TotalDistanceKm = round2(s.TotalDistanceKm)
	if shipped > 0 {
		s.AvgDistanceKm = round2(s.TotalDistanceKm / float64(shipped))
	}
	if len(selF) > 0 {
		s.AvgSelectionFreshness = round2(stat.Mean(selF, selW))
		s.AvgDeliveredFreshness = round2(stat.Mean(delF, delW))
	}
	return s
}

func deliveryTime(a model.Allocation, t geo.Travel) time.Time {
	if !a.DeliveryTime.IsZero() {
		return a.DeliveryTime
	}
	return a.DispatchTime.Add(t.Duration(a.DistanceKm))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
