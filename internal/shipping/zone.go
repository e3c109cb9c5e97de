// Package shipping maps a delivery address to one of the configured
// transport zones relative to the warehouse location.
package shipping

import (
	"errors"
	"strings"
)

// Zone names must match the rows seeded into transport_zones.
const (
	ZoneIntraCity  = "Intra-city"
	ZoneIntraState = "Intra-state"
	ZoneInterState = "Inter-state"
)

// ErrZoneNotConfigured signals that a resolved zone name has no row in the
// transport_zones table. Checkout treats this as fatal rather than shipping
// for free.
var ErrZoneNotConfigured = errors.New("shipping: transport zone not configured")

// Warehouse is the dispatch origin that zone resolution compares against.
type Warehouse struct {
	City    string
	State   string
	Country string
}

// DefaultWarehouse is the single fulfilment center.
var DefaultWarehouse = Warehouse{City: "Ranchi", State: "Jharkhand", Country: "India"}

// ResolveZoneName classifies a destination, case-insensitively. A non-domestic
// country is always inter-state, even when its city and state strings happen
// to match the warehouse. Domestically: same city and state is intra-city,
// same state is intra-state, everything else inter-state.
func (w Warehouse) ResolveZoneName(city, state, country string) string {
	if !equalFold(country, w.Country) {
		return ZoneInterState
	}
	sameState := equalFold(state, w.State)
	if sameState && equalFold(city, w.City) {
		return ZoneIntraCity
	}
	if sameState {
		return ZoneIntraState
	}
	return ZoneInterState
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
