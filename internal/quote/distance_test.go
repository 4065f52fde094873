package quote

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testDistanceConfig() Config {
	cfg := DefaultConfig()
	cfg.BaseFee = 5
	cfg.CostPerKm = 0.4
	cfg.MinKm = 3
	cfg.RuralSurchargePct = 0.1
	return cfg
}

func TestDistanceChargeDirect(t *testing.T) {
	t.Parallel()

	km := 5.0
	charge := ComputeDistanceCharge(ShipmentContext{DistanceKm: &km}, testDistanceConfig())
	require.InDelta(t, 5, charge.DistanceKm, 1e-9)
	require.InDelta(t, 5, charge.BillableKm, 1e-9)
	require.InDelta(t, 7, charge.Surcharge, 1e-9)
}

func TestDistanceChargeFloor(t *testing.T) {
	t.Parallel()

	km := 1.0
	charge := ComputeDistanceCharge(ShipmentContext{DistanceKm: &km}, testDistanceConfig())
	require.InDelta(t, 3, charge.BillableKm, 1e-9)
	require.InDelta(t, 6.2, charge.Surcharge, 1e-9)
}

func TestDistanceChargeHaversine(t *testing.T) {
	t.Parallel()

	lat1, lng1 := 0.0, 0.0
	lat2, lng2 := 0.0, 1.0
	charge := ComputeDistanceCharge(ShipmentContext{
		OriginLat:      &lat1,
		OriginLng:      &lng1,
		DestinationLat: &lat2,
		DestinationLng: &lng2,
	}, testDistanceConfig())
	// one degree of longitude on the equator
	require.InDelta(t, 111.19, charge.DistanceKm, 0.05)
}

func TestDistanceChargeMissingContext(t *testing.T) {
	t.Parallel()

	charge := ComputeDistanceCharge(ShipmentContext{}, testDistanceConfig())
	require.Zero(t, charge.DistanceKm)
	require.InDelta(t, 3, charge.BillableKm, 1e-9)
	require.InDelta(t, 6.2, charge.Surcharge, 1e-9)
}

func TestDistanceChargeRural(t *testing.T) {
	t.Parallel()

	km := 5.0
	charge := ComputeDistanceCharge(ShipmentContext{DistanceKm: &km, Rural: true}, testDistanceConfig())
	require.InDelta(t, 7.7, charge.Surcharge, 1e-9)
}
