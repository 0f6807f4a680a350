package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBatches() []Batch {
	mfg := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return []Batch{
		{ID: "b1", FoodType: "rice", QuantityKg: 100, CurrentNode: "w1", ManufactureDate: mfg, ShelfLifeHours: 48},
		{ID: "b2", FoodType: "milk", QuantityKg: 40, OriginalQuantityKg: 50, CurrentNode: "w2", Status: StatusStored},
	}
}

func TestNewInventoryDefaults(t *testing.T) {
	inv, err := NewInventory(sampleBatches())
	require.NoError(t, err)
	b1 := inv.Get("b1")
	require.NotNil(t, b1)
	assert.Equal(t, StatusStored, b1.Status)
	assert.Equal(t, 100.0, b1.OriginalQuantityKg)
	assert.Equal(t, 140.0, inv.TotalKg())
	assert.Equal(t, map[string]float64{"w1": 100, "w2": 40}, inv.StoredKg())
}

func TestNewInventoryRejectsDuplicates(t *testing.T) {
	bs := sampleBatches()
	bs = append(bs, bs[0])
	_, err := NewInventory(bs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateBatch))
}

func TestNewInventoryRejectsInvalid(t *testing.T) {
	_, err := NewInventory([]Batch{{ID: "x", QuantityKg: -1, CurrentNode: "w"}})
	require.Error(t, err)

	_, err = NewInventory([]Batch{{ID: "y", FoodType: "rice", QuantityKg: 60, OriginalQuantityKg: 50, CurrentNode: "w"}})
	require.Error(t, err)
}

func TestInventoryCloneIsolation(t *testing.T) {
	inv, err := NewInventory(sampleBatches())
	require.NoError(t, err)
	inv.Get("b1").Record(time.Now(), ActionCreated, "", "w1", "")

	cp := inv.Clone()
	cp.Get("b1").QuantityKg = 10
	cp.Get("b1").Record(time.Now(), ActionTransfer, "w1", "w2", "")

	assert.Equal(t, 100.0, inv.Get("b1").QuantityKg)
	assert.Len(t, inv.Get("b1").History, 1)
	assert.Len(t, cp.Get("b1").History, 2)
}

func TestNodeHelpers(t *testing.T) {
	n := Node{ID: "w", Kind: ParseNodeKind("Warehouse"), State: " Kerala ", District: "Ernakulam"}
	assert.True(t, n.IsWarehouse())
	assert.Equal(t, DefaultCapacityKg, n.Capacity())
	assert.Equal(t, "kerala|ernakulam", n.RegionKey())
	assert.Equal(t, NodeDemand, ParseNodeKind("ngo"))
	require.NoError(t, n.Validate())
	require.Error(t, Node{ID: "x", Kind: "farm"}.Validate())
}

func TestRequestValidation(t *testing.T) {
	require.Error(t, Request{NodeID: "n"}.Validate())
	require.NoError(t, Request{ID: "r", NodeID: "n"}.Validate())
	require.Error(t, ValidateItem(LineItem{FoodType: "rice", RequiredKg: 0}))
	require.NoError(t, ValidateItem(LineItem{FoodType: "rice", RequiredKg: 1}))
	r := Request{Items: []LineItem{{FoodType: "a", RequiredKg: 2}, {FoodType: "b", RequiredKg: -1}}}
	assert.Equal(t, 2.0, r.RequiredKg())
}
