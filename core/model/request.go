package model

import "time"

// LineItem is one food type requested in a Request.
type LineItem struct {
	FoodType   string  `json:"food_type" validate:"required"`
	RequiredKg float64 `json:"required_kg" validate:"gt=0"`
}

// Request is a fulfillment request raised by a demand node.
type Request struct {
	ID         string     `json:"id" validate:"required"`
	NodeID     string     `json:"node_id" validate:"required"`
	Items      []LineItem `json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
	RequiredBy time.Time  `json:"required_by,omitempty"`
	Status     string     `json:"status,omitempty"`
	// DispatchTime is attached by the engine on its private copy of the request.
	DispatchTime time.Time `json:"dispatch_time,omitempty"`
}

// RequiredKg sums the line items' requested quantities, ignoring invalid ones.
func (r Request) RequiredKg() float64 {
	var total float64
	for _, it := range r.Items {
		if it.RequiredKg > 0 {
			total += it.RequiredKg
		}
	}
	return total
}
