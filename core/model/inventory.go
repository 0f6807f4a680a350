package model

import (
	"errors"
	"fmt"
	"sort"
)

// quantityEpsilon absorbs float noise when comparing kilogram quantities.
const quantityEpsilon = 1e-9

var (
	// ErrDuplicateBatch is returned when two batches share an ID.
	ErrDuplicateBatch = errors.New("duplicate batch id")
	// ErrNilInventory is returned when an operation needs a snapshot and got none.
	ErrNilInventory = errors.New("nil inventory")
)

// Inventory is an in-memory snapshot of batches owned by one allocation run.
// Batches are held by pointer inside the snapshot only; Clone never shares
// them with another snapshot.
type Inventory struct {
	batches []*Batch
	index   map[string]int
}

// NewInventory validates the records and copies them into a new snapshot.
func NewInventory(batches []Batch) (*Inventory, error) {
	inv := &Inventory{
		batches: make([]*Batch, 0, len(batches)),
		index:   make(map[string]int, len(batches)),
	}
	for _, b := range batches {
		if b.OriginalQuantityKg < b.QuantityKg && b.OriginalQuantityKg == 0 {
			b.OriginalQuantityKg = b.QuantityKg
		}
		if b.Status == "" {
			b.Status = StatusStored
		}
		if err := b.Validate(); err != nil {
			return nil, err
		}
		if err := inv.Add(b); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// Clone deep-copies the snapshot.
func (inv *Inventory) Clone() *Inventory {
	cp := &Inventory{
		batches: make([]*Batch, len(inv.batches)),
		index:   make(map[string]int, len(inv.index)),
	}
	for i, b := range inv.batches {
		c := b.Clone()
		cp.batches[i] = &c
		cp.index[c.ID] = i
	}
	return cp
}

// Add inserts a copy of b into the snapshot. Quantities are stored at gram
// precision.
func (inv *Inventory) Add(b Batch) error {
	if _, ok := inv.index[b.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBatch, b.ID)
	}
	c := b.Clone()
	c.QuantityKg = RoundKg(c.QuantityKg)
	c.OriginalQuantityKg = RoundKg(c.OriginalQuantityKg)
	inv.index[c.ID] = len(inv.batches)
	inv.batches = append(inv.batches, &c)
	return nil
}

// Get returns the batch with the given ID, or nil.
func (inv *Inventory) Get(id string) *Batch {
	i, ok := inv.index[id]
	if !ok {
		return nil
	}
	return inv.batches[i]
}

// Has reports whether a batch with the given ID exists.
func (inv *Inventory) Has(id string) bool {
	_, ok := inv.index[id]
	return ok
}

// Len returns the number of batches, retired ones included.
func (inv *Inventory) Len() int { return len(inv.batches) }

// Each calls fn for every batch in insertion order.
func (inv *Inventory) Each(fn func(*Batch)) {
	for _, b := range inv.batches {
		fn(b)
	}
}

// StoredAt returns the batches stored at node with stock left, in insertion
// order.
func (inv *Inventory) StoredAt(node string) []*Batch {
	var out []*Batch
	for _, b := range inv.batches {
		if b.StoredAt(node) {
			out = append(out, b)
		}
	}
	return out
}

// StoredKg sums the stored quantities per node.
func (inv *Inventory) StoredKg() map[string]float64 {
	out := make(map[string]float64)
	for _, b := range inv.batches {
		if b.Status == StatusStored && b.QuantityKg > 0 {
			out[b.CurrentNode] += b.QuantityKg
		}
	}
	return out
}

// TotalKg sums the quantity of every batch regardless of status.
func (inv *Inventory) TotalKg() float64 {
	var total float64
	for _, b := range inv.batches {
		total += b.QuantityKg
	}
	return total
}

// Batches returns deep copies of all batches sorted by ID.
func (inv *Inventory) Batches() []Batch {
	out := make([]Batch, len(inv.batches))
	for i, b := range inv.batches {
		out[i] = b.Clone()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
