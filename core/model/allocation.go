package model

import "time"

// Strategy names an allocation strategy.
type Strategy string

const (
	StrategyBaseline Strategy = "baseline"
	StrategyScored   Strategy = "scored"
)

// BatchPick is the quantity taken from one batch for an allocation.
type BatchPick struct {
	BatchID    string  `json:"batch_id"`
	QuantityKg float64 `json:"quantity_kg"`
	// FreshnessPct is measured at dispatch (baseline) or delivery (scored).
	FreshnessPct float64 `json:"freshness_pct"`
}

// Allocation is the engine's output for one line item served from one warehouse.
type Allocation struct {
	RequestID         string      `json:"request_id"`
	FoodType          string      `json:"food_type"`
	RequiredKg        float64     `json:"required_kg"`
	AllocatedKg       float64     `json:"allocated_kg"`
	SourceWarehouseID string      `json:"source_warehouse_id"`
	DistanceKm        float64     `json:"distance_km"`
	Batches           []BatchPick `json:"batches"`
	DispatchTime      time.Time   `json:"dispatch_time"`
	DeliveryTime      time.Time   `json:"delivery_time,omitempty"`
	Strategy          Strategy    `json:"strategy"`
	Tier              string      `json:"tier,omitempty"`
	Score             float64     `json:"score,omitempty"`
}

// PickedKg sums the quantities of the referenced batches.
func (a Allocation) PickedKg() float64 {
	var total float64
	for _, p := range a.Batches {
		total += p.QuantityKg
	}
	return total
}

// TransferSuggestion is a source to target move proposed by a transfer planner.
type TransferSuggestion struct {
	SourceNode string  `json:"source"`
	TargetNode string  `json:"target"`
	QuantityKg float64 `json:"quantityKg"`
	DistanceKm float64 `json:"distanceKm,omitempty"`
}
