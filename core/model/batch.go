package model

import "time"

// BatchStatus is the lifecycle state of a batch.
type BatchStatus string

const (
	StatusStored    BatchStatus = "stored"
	StatusInTransit BatchStatus = "in_transit"
	StatusDelivered BatchStatus = "delivered"
	StatusSpoiled   BatchStatus = "spoiled"
)

// History actions recorded on batches.
const (
	ActionCreated   = "created"
	ActionAllocated = "allocated"
	ActionShipped   = "shipped"
	ActionTransfer  = "transfer"
	ActionSplit     = "split"
)

// HistoryEntry is one append-only record of a batch's movement.
type HistoryEntry struct {
	Time   time.Time `json:"time"`
	Action string    `json:"action"`
	From   string    `json:"from,omitempty"`
	To     string    `json:"to,omitempty"`
	Note   string    `json:"note,omitempty"`
}

// Batch is a physical lot of one food type with its own perishability clock.
type Batch struct {
	ID                 string         `json:"id" validate:"required"`
	FoodType           string         `json:"food_type" validate:"required"`
	QuantityKg         float64        `json:"quantity_kg" validate:"gte=0"`
	OriginalQuantityKg float64        `json:"original_quantity_kg" validate:"gte=0"`
	OriginNode         string         `json:"origin_node,omitempty"`
	CurrentNode        string         `json:"current_node" validate:"required"`
	Status             BatchStatus    `json:"status" validate:"oneof=stored in_transit delivered spoiled"`
	ManufactureDate    time.Time      `json:"manufacture_date"`
	ShelfLifeHours     float64        `json:"shelf_life_hours,omitempty" validate:"gte=0"`
	InitialTempC       float64        `json:"initial_temp_c,omitempty"`
	ParentBatchID      string         `json:"parent_batch_id,omitempty"`
	History            []HistoryEntry `json:"history,omitempty"`
}

// Clone returns a deep copy of the batch.
func (b Batch) Clone() Batch {
	cp := b
	if b.History != nil {
		cp.History = make([]HistoryEntry, len(b.History))
		copy(cp.History, b.History)
	}
	return cp
}

// Record appends a history entry.
func (b *Batch) Record(at time.Time, action, from, to, note string) {
	b.History = append(b.History, HistoryEntry{Time: at, Action: action, From: from, To: to, Note: note})
}

// AvailableAt reports whether the batch exists at the given time. Batches with
// an unknown manufacture date are always available.
func (b *Batch) AvailableAt(t time.Time) bool {
	return b.ManufactureDate.IsZero() || !b.ManufactureDate.After(t)
}

// StoredAt reports whether the batch is stored at node with stock left.
func (b *Batch) StoredAt(node string) bool {
	return b.Status == StatusStored && b.CurrentNode == node && b.QuantityKg > 0
}
