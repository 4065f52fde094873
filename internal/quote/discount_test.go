package quote

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDiscountTiers(t *testing.T) {
	t.Parallel()

	tiers := ParseDiscountTiers("400:0.1,200:0.05,700:0.15")
	require.Equal(t, []DiscountTier{
		{Threshold: 200, Pct: 0.05},
		{Threshold: 400, Pct: 0.1},
		{Threshold: 700, Pct: 0.15},
	}, tiers)
}

func TestParseDiscountTiersDiscardsMalformed(t *testing.T) {
	t.Parallel()

	tiers := ParseDiscountTiers("abc:0.1,200:xyz,300,:,500:0.2,")
	require.Equal(t, []DiscountTier{{Threshold: 500, Pct: 0.2}}, tiers)

	require.Empty(t, ParseDiscountTiers(""))
}

func TestDiscountPctHighestThresholdWins(t *testing.T) {
	t.Parallel()

	tiers := ParseDiscountTiers("200:0.05,400:0.1,700:0.15")

	require.Zero(t, DiscountPct(0, tiers))
	require.Zero(t, DiscountPct(199.99, tiers))
	require.InDelta(t, 0.05, DiscountPct(200, tiers), 1e-9)
	require.InDelta(t, 0.1, DiscountPct(400, tiers), 1e-9)
	require.InDelta(t, 0.1, DiscountPct(699.99, tiers), 1e-9)
	require.InDelta(t, 0.15, DiscountPct(10000, tiers), 1e-9)
}

func TestDiscountPctEqualThresholdsLaterWins(t *testing.T) {
	t.Parallel()

	tiers := []DiscountTier{{Threshold: 100, Pct: 0.02}, {Threshold: 100, Pct: 0.04}}
	require.InDelta(t, 0.04, DiscountPct(150, tiers), 1e-9)
}

func TestDiscountPctMonotonic(t *testing.T) {
	t.Parallel()

	tiers := ParseDiscountTiers("200:0.05,400:0.1,700:0.15")
	prev := 0.0
	for subtotal := 0.0; subtotal <= 1000; subtotal += 7.5 {
		pct := DiscountPct(subtotal, tiers)
		require.GreaterOrEqual(t, pct, prev)
		prev = pct
	}
}
