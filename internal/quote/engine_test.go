package quote_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-envio/internal/quote"
)

func singleTier() []quote.Tier {
	return []quote.Tier{{ID: "std", WeightMin: 0, WeightMax: 10, VolumeMin: 0, VolumeMax: 50000, BaseCost: 10}}
}

func sampleCart() []quote.Item {
	return []quote.Item{{
		Quantity: 2,
		HeightCm: 20,
		WidthCm:  15,
		LengthCm: 30,
		WeightKg: 1.2,
		Price:    200,
	}}
}

func TestQuoteSingleItemNeutralizedRate(t *testing.T) {
	t.Parallel()

	engine := quote.Engine{Config: quote.DefaultConfig(), Rate: quote.ZeroRateConfig()}
	km := 5.0

	q, err := engine.Quote(sampleCart(), quote.ShipmentContext{DistanceKm: &km}, singleTier())
	require.NoError(t, err)

	require.InDelta(t, 5, q.DistanceKm, 1e-9)
	require.InDelta(t, 7, q.DistanceSurcharge, 1e-9)
	require.InDelta(t, 10, q.SharedBaseFee, 1e-9)
	require.InDelta(t, 400, q.MerchandiseSubtotal, 1e-9)
	require.InDelta(t, 0.1, q.DiscountPct, 1e-9)
	require.InDelta(t, 1.7, q.DiscountTotal, 1e-9)
	require.InDelta(t, 15.3, q.Total, 1e-9)
	require.Equal(t, "Q", q.Currency)

	require.Len(t, q.Items, 1)
	line := q.Items[0]
	require.InDelta(t, 9000, line.VolumeCm3, 1e-9)
	require.InDelta(t, 1.8, line.Weights.VolumetricKg, 1e-9)
	require.InDelta(t, 1.8, line.Weights.BillableKg, 1e-9)
	require.Equal(t, "std", line.TierID)
	require.Zero(t, line.BaseCost)
	require.InDelta(t, 17, line.DistanceShare, 1e-9)
	require.InDelta(t, 1.7, line.DiscountShare, 1e-9)
	require.InDelta(t, 15.3, line.Total, 1e-9)
}

func TestQuoteSingleItemDefaultRate(t *testing.T) {
	t.Parallel()

	engine := quote.Engine{Config: quote.DefaultConfig(), Rate: quote.DefaultRateConfig()}
	km := 5.0

	q, err := engine.Quote(sampleCart(), quote.ShipmentContext{DistanceKm: &km}, singleTier())
	require.NoError(t, err)

	// per unit: 10 base + 1.8*2.5 per-kg + insurance max(1, 200*0.015) = 17.5
	require.InDelta(t, 35, q.Items[0].BaseCost, 1e-9)
	require.InDelta(t, 5.2, q.DiscountTotal, 1e-9)
	require.InDelta(t, 46.8, q.Total, 1e-9)
}

func TestQuoteLineTotalsSumToQuoteTotal(t *testing.T) {
	t.Parallel()

	engine := quote.Engine{Config: quote.DefaultConfig(), Rate: quote.DefaultRateConfig()}
	km := 123.45
	items := []quote.Item{
		{Quantity: 1, HeightCm: 10, WidthCm: 10, LengthCm: 10, WeightKg: 0.7, Price: 33.33},
		{Quantity: 3, HeightCm: 25, WidthCm: 20, LengthCm: 12, WeightKg: 2.1, Price: 89.99, Fragile: true},
		{Quantity: 2, HeightCm: 40, WidthCm: 35, LengthCm: 30, WeightKg: 9.9, Price: 150},
	}
	tiers := []quote.Tier{
		{ID: "small", WeightMin: 0, WeightMax: 5, VolumeMin: 0, VolumeMax: 20000, BaseCost: 8},
		{ID: "large", WeightMin: 0, WeightMax: 50, VolumeMin: 0, VolumeMax: 200000, BaseCost: 22},
	}

	q, err := engine.Quote(items, quote.ShipmentContext{DistanceKm: &km, Rural: true}, tiers)
	require.NoError(t, err)
	require.Len(t, q.Items, 3)
	require.InDelta(t, 22, q.SharedBaseFee, 1e-9)

	var lineSum, shareSum float64
	for _, line := range q.Items {
		lineSum += line.Total
		shareSum += line.DistanceShare
	}
	require.InDelta(t, q.Total, lineSum, 0.01)
	require.InDelta(t, q.DistanceSurcharge+q.SharedBaseFee, shareSum, 1e-9)
}

func TestQuoteEmptyCart(t *testing.T) {
	t.Parallel()

	engine := quote.Engine{Config: quote.DefaultConfig()}
	_, err := engine.Quote(nil, quote.ShipmentContext{}, singleTier())
	require.ErrorIs(t, err, quote.ErrEmptyCart)
}

func TestQuoteNoTiersConfigured(t *testing.T) {
	t.Parallel()

	engine := quote.Engine{Config: quote.DefaultConfig()}
	_, err := engine.Quote(sampleCart(), quote.ShipmentContext{}, nil)
	require.ErrorIs(t, err, quote.ErrNoTiers)
}

func TestQuoteNoCoverageFailsWholeCart(t *testing.T) {
	t.Parallel()

	engine := quote.Engine{Config: quote.DefaultConfig(), Rate: quote.ZeroRateConfig()}
	items := []quote.Item{
		{Quantity: 1, WeightKg: 1},
		{Quantity: 1, WeightKg: 99},
	}

	_, err := engine.Quote(items, quote.ShipmentContext{}, singleTier())
	var noCoverage *quote.NoCoverageError
	require.ErrorAs(t, err, &noCoverage)
	require.Equal(t, 1, noCoverage.ItemIndex)
	require.InDelta(t, 99, noCoverage.BillableKg, 1e-9)
}

func TestQuoteCoercesInvalidQuantity(t *testing.T) {
	t.Parallel()

	engine := quote.Engine{Config: quote.DefaultConfig(), Rate: quote.ZeroRateConfig()}
	items := []quote.Item{{Quantity: 0, WeightKg: 1, Price: 10}}

	q, err := engine.Quote(items, quote.ShipmentContext{}, singleTier())
	require.NoError(t, err)
	require.Equal(t, 1, q.Items[0].Quantity)
	require.InDelta(t, 10, q.MerchandiseSubtotal, 1e-9)
}
