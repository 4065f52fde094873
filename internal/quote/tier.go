package quote

import "fmt"

// Tier is a weight/volume bracket carrying a base handling fee. Brackets are
// maintained by the tariff collaborator; the engine reads a snapshot per call
// and never validates bracket consistency.
type Tier struct {
	ID        string  `json:"id"`
	WeightMin float64 `json:"weight_min"`
	WeightMax float64 `json:"weight_max"`
	VolumeMin float64 `json:"volume_min"`
	VolumeMax float64 `json:"volume_max"`
	BaseCost  float64 `json:"base_cost"`
}

// Contains reports whether the bracket covers the given billable weight and
// volume, bounds inclusive on both sides.
func (t Tier) Contains(billableKg, volumeCm3 float64) bool {
	return billableKg >= t.WeightMin && billableKg <= t.WeightMax &&
		volumeCm3 >= t.VolumeMin && volumeCm3 <= t.VolumeMax
}

// ResolveTier returns the first tier in the supplied order covering the given
// weight and volume. Overlapping brackets resolve to the earliest entry;
// callers control the order.
func ResolveTier(billableKg, volumeCm3 float64, tiers []Tier) (Tier, bool) {
	for _, t := range tiers {
		if t.Contains(billableKg, volumeCm3) {
			return t, true
		}
	}
	return Tier{}, false
}

// NoCoverageError reports that an item falls outside every configured tier.
type NoCoverageError struct {
	ItemIndex  int
	BillableKg float64
	VolumeCm3  float64
}

// Error implements the error interface.
func (e *NoCoverageError) Error() string {
	return fmt.Sprintf("no tariff tier covers item %d (billable %.2f kg, volume %.2f cm3)",
		e.ItemIndex, e.BillableKg, e.VolumeCm3)
}
