package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DeriveID returns a deterministic, unused child ID for parent. The tag
// distinguishes transfer ("t") from shipment ("s") splits.
func (inv *Inventory) DeriveID(parent, tag string) string {
	for seq := 0; ; seq++ {
		h := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%s/%d", parent, tag, seq)))
		id := fmt.Sprintf("%s-%s%s", parent, tag, h.String()[:8])
		if !inv.Has(id) {
			return id
		}
	}
}

// Split takes kg out of the batch with the given ID into a new child batch.
// The child keeps every perishability attribute of the parent, starts with
// the parent's history plus a split entry, and is returned for the caller to
// relocate. Mass is conserved at gram precision: parent' + child == parent.
func (inv *Inventory) Split(id string, takeKg float64, at time.Time, tag, note string) (*Batch, error) {
	parent := inv.Get(id)
	if parent == nil {
		return nil, fmt.Errorf("split: unknown batch %s", id)
	}
	take := RoundKg(takeKg)
	if take <= 0 || take >= RoundKg(parent.QuantityKg) {
		return nil, fmt.Errorf("split: batch %s cannot give %.3f of %.3f kg", id, take, parent.QuantityKg)
	}
	child := parent.Clone()
	child.ID = inv.DeriveID(parent.ID, tag)
	child.ParentBatchID = parent.ID
	child.QuantityKg = take
	child.OriginalQuantityKg = take
	child.Record(at, ActionSplit, parent.CurrentNode, parent.CurrentNode, "from "+parent.ID+note)

	parent.QuantityKg = RemainderKg(parent.QuantityKg, take)
	parent.Record(at, ActionSplit, parent.CurrentNode, parent.CurrentNode, fmt.Sprintf("%.3f kg to %s%s", take, child.ID, note))

	if err := inv.Add(child); err != nil {
		return nil, err
	}
	return inv.Get(child.ID), nil
}
