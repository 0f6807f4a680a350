// Package export writes allocation results as JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/freshalloc/core/allocation"
	"github.com/kilianp07/freshalloc/core/metrics"
	"github.com/kilianp07/freshalloc/core/model"
)

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var allocationHeader = []string{
	"request_id", "food_type", "required_kg", "allocated_kg", "source_warehouse_id",
	"distance_km", "dispatch_time", "delivery_time", "strategy", "tier", "score", "batches",
}

// WriteAllocationsCSV writes one row per allocation. Batch picks are
// encoded as "id:kg" pairs separated by semicolons.
func WriteAllocationsCSV(w io.Writer, allocs []model.Allocation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(allocationHeader); err != nil {
		return err
	}
	for _, a := range allocs {
		picks := make([]string, len(a.Batches))
		for i, p := range a.Batches {
			picks[i] = p.BatchID + ":" + formatFloat(p.QuantityKg)
		}
		rec := []string{
			a.RequestID,
			a.FoodType,
			formatFloat(a.RequiredKg),
			formatFloat(a.AllocatedKg),
			a.SourceWarehouseID,
			formatFloat(a.DistanceKm),
			formatTime(a.DispatchTime),
			formatTime(a.DeliveryTime),
			string(a.Strategy),
			a.Tier,
			formatFloat(a.Score),
			strings.Join(picks, ";"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteComparisonCSV writes the two summaries side by side followed by the
// improvement figures.
func WriteComparisonCSV(w io.Writer, c *allocation.Comparison) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"metric", "baseline", "scored"}); err != nil {
		return err
	}
	b, s := c.Baseline.Summary, c.Scored.Summary
	for _, row := range summaryRows(b, s) {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	imp := c.Improvement
	for _, row := range [][]string{
		{"fulfillment_delta", "", formatFloat(imp.FulfillmentDelta)},
		{"distance_reduction_pct", "", formatFloat(imp.DistanceReductionPct)},
		{"freshness_delta", "", formatFloat(imp.FreshnessDelta)},
		{"spoilage_reduction_pct", "", formatFloat(imp.SpoilageReductionPct)},
		{"kg_saved", "", formatFloat(imp.KgSaved)},
	} {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func summaryRows(b, s metrics.Summary) [][]string {
	pair := func(name string, bv, sv float64) []string {
		return []string{name, formatFloat(bv), formatFloat(sv)}
	}
	return [][]string{
		pair("required_kg", b.RequiredKg, s.RequiredKg),
		pair("allocated_kg", b.AllocatedKg, s.AllocatedKg),
		pair("fulfillment_pct", b.FulfillmentPct, s.FulfillmentPct),
		pair("requests_total", float64(b.RequestsTotal), float64(s.RequestsTotal)),
		pair("requests_served", float64(b.RequestsServed), float64(s.RequestsServed)),
		pair("allocations", float64(b.Allocations), float64(s.Allocations)),
		pair("total_distance_km", b.TotalDistanceKm, s.TotalDistanceKm),
		pair("avg_distance_km", b.AvgDistanceKm, s.AvgDistanceKm),
		pair("avg_selection_freshness", b.AvgSelectionFreshness, s.AvgSelectionFreshness),
		pair("avg_delivered_freshness", b.AvgDeliveredFreshness, s.AvgDeliveredFreshness),
		pair("spoiled_kg", b.SpoiledKg, s.SpoiledKg),
		pair("at_risk_kg", b.AtRiskKg, s.AtRiskKg),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
