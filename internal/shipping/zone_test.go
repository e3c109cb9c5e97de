package shipping

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveZoneName(t *testing.T) {
	w := DefaultWarehouse

	require.Equal(t, ZoneIntraCity, w.ResolveZoneName("Ranchi", "Jharkhand", "India"))
	require.Equal(t, ZoneIntraState, w.ResolveZoneName("Jamshedpur", "Jharkhand", "India"))
	require.Equal(t, ZoneInterState, w.ResolveZoneName("Mumbai", "Maharashtra", "India"))
}

func TestResolveZoneNameIgnoresCaseAndSpacing(t *testing.T) {
	w := DefaultWarehouse

	require.Equal(t, ZoneIntraCity, w.ResolveZoneName("  ranchi ", "JHARKHAND", " india"))
	require.Equal(t, ZoneIntraState, w.ResolveZoneName("Dhanbad", " jharkhand", "INDIA"))
}

func TestResolveZoneNameCityMatchInOtherStateIsInterState(t *testing.T) {
	// A same-named city in a different state must not count as intra-city.
	require.Equal(t, ZoneInterState, DefaultWarehouse.ResolveZoneName("Ranchi", "Maharashtra", "India"))
}

func TestResolveZoneNameForeignCountryIsAlwaysInterState(t *testing.T) {
	// City and state matching the warehouse must not grant domestic rates
	// when the country differs.
	w := DefaultWarehouse

	require.Equal(t, ZoneInterState, w.ResolveZoneName("Ranchi", "Jharkhand", "Nepal"))
	require.Equal(t, ZoneInterState, w.ResolveZoneName("Jamshedpur", "Jharkhand", "Bangladesh"))
}
