package allocation

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/freshalloc/core/model"
)

// Eligibility tiers of the scored allocator, in order of preference.
const (
	TierStrict   = "strict"
	TierRelaxed  = "relaxed"
	TierFallback = "fallback"
)

// candidate is one warehouse evaluated for a line item.
type candidate struct {
	warehouse
	delivery time.Time
	tier     string
	batches  []ranked
	fulfill  float64
	score    float64
}

// scoredLine serves one line item from the warehouse with the best composite
// score. When the winner cannot cover the line, the remainder is offered to
// the remaining warehouses, up to MaxSourcesPerLine sources.
func (r *run) scoredLine(req model.Request, item model.LineItem, demand model.Node) ([]model.Allocation, string) {
	sc := r.cfg.Scored
	boost := 1.0
	if r.regions.Anomalous(demand) {
		boost = sc.UrgencyBoost
	}
	dispatch := req.DispatchTime
	left := model.RoundKg(item.RequiredKg)
	used := make(map[string]bool)
	var out []model.Allocation

	for left > 0 && len(out) < sc.MaxSourcesPerLine {
		var inCap []warehouse
		for _, w := range r.rankWarehouses(demand) {
			if w.distKm > sc.HardCapKm {
				break
			}
			if !used[w.node.ID] {
				inCap = append(inCap, w)
			}
		}
		top := inCap
		if len(top) > sc.TopK {
			top = top[:sc.TopK]
		}
		cands := r.evaluateAll(top, item.FoodType, left, dispatch, boost)
		if !reaches(cands, sc.WidenFulfillment) && len(inCap) > len(top) {
			cands = r.evaluateAll(inCap, item.FoodType, left, dispatch, boost)
		}
		if len(cands) == 0 {
			break
		}

		win := r.choose(cands)
		used[win.node.ID] = true
		picks, got := r.consume(win.batches, left, demand.ID, dispatch)
		if got <= 0 {
			continue
		}
		left = model.SubKg(left, got)
		out = append(out, model.Allocation{
			RequestID:         req.ID,
			FoodType:          item.FoodType,
			RequiredKg:        item.RequiredKg,
			AllocatedKg:       got,
			SourceWarehouseID: win.node.ID,
			DistanceKm:        win.distKm,
			Batches:           picks,
			DispatchTime:      dispatch,
			DeliveryTime:      win.delivery,
			Strategy:          model.StrategyScored,
			Tier:              win.tier,
			Score:             win.score,
		})
		r.log.Debugw("scored winner", map[string]any{
			"request":   req.ID,
			"food_type": item.FoodType,
			"warehouse": win.node.ID,
			"tier":      win.tier,
			"score":     win.score,
			"kg":        got,
			"left_kg":   left,
		})
	}
	if len(out) == 0 {
		return nil, ReasonNoStock
	}
	return out, ""
}

func (r *run) evaluateAll(ws []warehouse, food string, needKg float64, dispatch time.Time, boost float64) []candidate {
	var out []candidate
	for _, w := range ws {
		if c, ok := r.evaluate(w, food, needKg, dispatch, boost); ok {
			out = append(out, c)
		}
	}
	return out
}

// evaluate tiers and scores the warehouse's stock for needKg of food. It
// reports false when no batch is eligible.
func (r *run) evaluate(w warehouse, food string, needKg float64, dispatch time.Time, boost float64) (candidate, bool) {
	sc := r.cfg.Scored
	c := candidate{warehouse: w, delivery: dispatch.Add(r.cfg.Travel.Duration(w.distKm))}

	var strict, relaxed, fallback []ranked
	for _, b := range r.stock(w.node.ID, food, dispatch) {
		rb := ranked{b: b, fresh: r.freshness(b, c.delivery), remainH: r.remaining(b, c.delivery)}
		switch {
		case rb.fresh >= sc.StrictPct:
			strict = append(strict, rb)
		case rb.fresh >= sc.RelaxedPct:
			relaxed = append(relaxed, rb)
		case rb.fresh > 0 || r.cfg.AllowSpoiled:
			fallback = append(fallback, rb)
		}
	}
	penalty := 1.0
	switch {
	case len(strict) > 0:
		c.tier, c.batches = TierStrict, strict
	case len(relaxed) > 0:
		c.tier, c.batches, penalty = TierRelaxed, relaxed, sc.RelaxedPenalty
	case len(fallback) > 0:
		c.tier, c.batches, penalty = TierFallback, fallback, sc.FallbackPenalty
	default:
		return c, false
	}
	sort.Slice(c.batches, func(i, j int) bool {
		a, b := c.batches[i], c.batches[j]
		if a.fresh != b.fresh {
			return a.fresh > b.fresh
		}
		if a.remainH != b.remainH {
			return a.remainH < b.remainH
		}
		return a.b.ID < b.b.ID
	})

	var (
		avail                float64
		fresh, press, weight []float64
	)
	left := needKg
	for _, rb := range c.batches {
		avail = model.SumKg(avail, rb.b.QuantityKg)
		if left <= 0 {
			continue
		}
		take := math.Min(left, rb.b.QuantityKg)
		left -= take
		fresh = append(fresh, rb.fresh)
		press = append(press, expiryPressure(rb.remainH))
		weight = append(weight, take)
	}
	c.fulfill = math.Min(1, avail/needKg)

	terms := []float64{
		math.Exp(-w.distKm / sc.DecayKm),
		stat.Mean(fresh, weight) / 100,
		stat.Mean(press, weight),
		c.fulfill,
	}
	weights := []float64{sc.Weights.Distance, sc.Weights.Freshness, sc.Weights.Expiry, sc.Weights.Fulfillment}
	score := floats.Dot(terms, weights) * penalty * boost
	c.score = math.Round(score*1e6) / 1e6
	return c, true
}

// choose returns the best candidate within the preferred radius that covers
// at least InCapMinFulfillment of the need, or else the best candidate.
func (r *run) choose(cands []candidate) candidate {
	sc := r.cfg.Scored
	var inCap, best *candidate
	for i := range cands {
		c := &cands[i]
		if best == nil || better(c, best) {
			best = c
		}
		if c.distKm <= sc.PreferredKm && c.fulfill >= sc.InCapMinFulfillment && (inCap == nil || better(c, inCap)) {
			inCap = c
		}
	}
	if inCap != nil {
		return *inCap
	}
	return *best
}

func better(a, b *candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.distKm != b.distKm {
		return a.distKm < b.distKm
	}
	return a.node.ID < b.node.ID
}

func reaches(cands []candidate, ratio float64) bool {
	for _, c := range cands {
		if c.fulfill >= ratio {
			return true
		}
	}
	return false
}
