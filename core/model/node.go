package model

import (
	"strings"

	"github.com/kilianp07/freshalloc/core/geo"
)

// NodeKind distinguishes warehouses from demand sites.
type NodeKind string

const (
	NodeWarehouse NodeKind = "warehouse"
	NodeDemand    NodeKind = "demand"
)

// DefaultCapacityKg is used when a warehouse has no valid capacity.
const DefaultCapacityKg = 10000.0

// Node is a warehouse or a demand site (NGO).
type Node struct {
	ID         string     `json:"id" validate:"required"`
	Kind       NodeKind   `json:"kind" validate:"oneof=warehouse demand"`
	Name       string     `json:"name,omitempty"`
	Location   *geo.Point `json:"location,omitempty"` // nil when coordinates could not be extracted
	CapacityKg float64    `json:"capacity_kg,omitempty" validate:"gte=0"`
	State      string     `json:"state,omitempty"`
	District   string     `json:"district,omitempty"`
}

// IsWarehouse reports whether the node stores inventory.
func (n Node) IsWarehouse() bool { return n.Kind == NodeWarehouse }

// Capacity returns the capacity in kg, falling back to DefaultCapacityKg when
// unset or invalid.
func (n Node) Capacity() float64 {
	if n.CapacityKg <= 0 {
		return DefaultCapacityKg
	}
	return n.CapacityKg
}

// RegionKey identifies the node's region for demand signal lookups.
func (n Node) RegionKey() string {
	return RegionKey(n.State, n.District)
}

// RegionKey builds a case-insensitive state/district key.
func RegionKey(state, district string) string {
	return strings.ToLower(strings.TrimSpace(state)) + "|" + strings.ToLower(strings.TrimSpace(district))
}

// ParseNodeKind maps the kinds used by upstream records onto NodeKind.
func ParseNodeKind(s string) NodeKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warehouse", "depot", "store":
		return NodeWarehouse
	case "demand", "ngo", "demand-site", "demand_site":
		return NodeDemand
	default:
		return NodeKind(s)
	}
}
