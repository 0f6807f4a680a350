package metrics

// Improvement holds the deltas of the scored strategy over the baseline.
// Positive values favour the scored strategy.
type Improvement struct {
	FulfillmentDelta     float64 `json:"fulfillment_delta"`
	DistanceReductionPct float64 `json:"distance_reduction_pct"`
	FreshnessDelta       float64 `json:"freshness_delta"`
	SpoilageReductionPct float64 `json:"spoilage_reduction_pct"`
	KgSaved              float64 `json:"kg_saved"`
}

// Improve compares two summaries. Percent reductions are zero when the
// baseline value is zero.
func Improve(baseline, scored Summary) Improvement {
	imp := Improvement{
		FulfillmentDelta: round2(scored.FulfillmentPct - baseline.FulfillmentPct),
		FreshnessDelta:   round2(scored.AvgDeliveredFreshness - baseline.AvgDeliveredFreshness),
		KgSaved:          round2(baseline.SpoiledKg - scored.SpoiledKg),
	}
	if baseline.AvgDistanceKm > 0 {
		imp.DistanceReductionPct = round2((baseline.AvgDistanceKm - scored.AvgDistanceKm) / baseline.AvgDistanceKm * 100)
	}
	if baseline.SpoiledKg > 0 {
		imp.SpoilageReductionPct = round2((baseline.SpoiledKg - scored.SpoiledKg) / baseline.SpoiledKg * 100)
	}
	return imp
}
