package quote

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRateDefaults(t *testing.T) {
	t.Parallel()

	res := Rate(Measures{HeightCm: 20, WidthCm: 15, LengthCm: 30, WeightKg: 1.2, Price: 200}, DefaultRateConfig())

	require.InDelta(t, 1.2, res.Weights.RealKg, 1e-9)
	require.InDelta(t, 1.8, res.Weights.VolumetricKg, 1e-9)
	require.InDelta(t, 1.8, res.Weights.BillableKg, 1e-9)

	require.InDelta(t, 10, res.Costs.Base, 1e-9)
	require.InDelta(t, 4.5, res.Costs.PerKg, 1e-9)
	require.InDelta(t, 0, res.Costs.Overweight, 1e-9)
	require.InDelta(t, 0, res.Costs.Fragile, 1e-9)
	require.InDelta(t, 3, res.Costs.Insurance, 1e-9)
	require.InDelta(t, 17.5, res.Costs.Total, 1e-9)
}

func TestRateOverweightAndFragile(t *testing.T) {
	t.Parallel()

	cfg := DefaultRateConfig()
	cfg.Fragile = true
	res := Rate(Measures{WeightKg: 25, Price: 10}, cfg)

	// subtotal = 10 + 25*2.5 + 5*1.2 = 78.5, fragile = 7.85, insurance = 1
	require.InDelta(t, 6, res.Costs.Overweight, 1e-9)
	require.InDelta(t, 7.85, res.Costs.Fragile, 1e-9)
	require.InDelta(t, 1, res.Costs.Insurance, 1e-9)
	require.InDelta(t, 87.35, res.Costs.Total, 1e-9)
}

func TestRateZeroDivisorDropsVolumetric(t *testing.T) {
	t.Parallel()

	cfg := DefaultRateConfig()
	cfg.DivisorDimCm = 0
	res := Rate(Measures{HeightCm: 100, WidthCm: 100, LengthCm: 100, WeightKg: 2}, cfg)
	require.InDelta(t, 0, res.Weights.VolumetricKg, 1e-9)
	require.InDelta(t, 2, res.Weights.BillableKg, 1e-9)
}

func TestRateNeutralizedVariant(t *testing.T) {
	t.Parallel()

	res := Rate(Measures{HeightCm: 20, WidthCm: 15, LengthCm: 30, WeightKg: 1.2, Price: 200}, ZeroRateConfig())
	require.Zero(t, res.Costs.Total)
	require.Zero(t, res.Costs.Insurance)
}

func TestRateConfigApply(t *testing.T) {
	t.Parallel()

	baseFee := 3.0
	insurance := false
	merged := DefaultRateConfig().Apply(RateOverrides{BaseFee: &baseFee, UseInsurance: &insurance})

	require.InDelta(t, 3, merged.BaseFee, 1e-9)
	require.False(t, merged.UseInsurance)
	// untouched fields keep their defaults
	require.InDelta(t, 2.5, merged.PerKgFee, 1e-9)
	require.InDelta(t, 5000, merged.DivisorDimCm, 1e-9)
}
