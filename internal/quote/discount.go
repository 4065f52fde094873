package quote

import (
	"sort"
	"strconv"
	"strings"
)

// DiscountTier grants a percentage once the merchandise subtotal reaches the
// threshold.
type DiscountTier struct {
	Threshold float64
	Pct       float64
}

// ParseDiscountTiers reads a "threshold:pct,threshold:pct,..." string into an
// ascending tier table. Malformed pairs are discarded; the result is sorted by
// threshold regardless of input order.
func ParseDiscountTiers(raw string) []DiscountTier {
	parts := strings.Split(raw, ",")
	tiers := make([]DiscountTier, 0, len(parts))
	for _, part := range parts {
		fields := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(fields) != 2 {
			continue
		}
		threshold, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			continue
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			continue
		}
		tiers = append(tiers, DiscountTier{Threshold: threshold, Pct: pct})
	}
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].Threshold < tiers[j].Threshold
	})
	return tiers
}

// DiscountPct selects the percentage for the given subtotal: the highest
// threshold not exceeding it wins. Tiers must be sorted ascending by
// threshold; equal thresholds resolve to the later entry.
func DiscountPct(subtotal float64, tiers []DiscountTier) float64 {
	pct := 0.0
	for _, t := range tiers {
		if subtotal >= t.Threshold {
			pct = t.Pct
		}
	}
	return pct
}
