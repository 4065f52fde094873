package quote

import (
	"errors"
	"math"
)

var (
	// ErrEmptyCart is returned when a quote is requested without items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoTiers is returned when the tariff snapshot is empty.
	ErrNoTiers = errors.New("no tariff tiers configured")
)

// Config holds the shipment-level quote parameters.
type Config struct {
	DivisorDimCm      float64
	BaseFee           float64
	CostPerKm         float64
	MinKm             float64
	RuralSurchargePct float64
	DiscountTiers     []DiscountTier
	Currency          string
}

// DefaultConfig returns the standard shipment-level parameters.
func DefaultConfig() Config {
	return Config{
		DivisorDimCm:      5000,
		BaseFee:           5,
		CostPerKm:         0.4,
		MinKm:             3,
		RuralSurchargePct: 0.1,
		DiscountTiers:     ParseDiscountTiers("200:0.05,400:0.1,700:0.15"),
		Currency:          "Q",
	}
}

// Item is a single cart line as supplied by the caller. Invalid numerics are
// expected to arrive already coerced to zero (quantity to one); the engine
// additionally clamps negatives so the formula stays total.
type Item struct {
	Quantity int
	HeightCm float64
	WidthCm  float64
	LengthCm float64
	WeightKg float64
	Price    float64
	Fragile  bool
}

// LineDetail is the per-item cost breakdown of a quote, in cart order.
type LineDetail struct {
	Quantity      int         `json:"quantity"`
	HeightCm      float64     `json:"height_cm"`
	WidthCm       float64     `json:"width_cm"`
	LengthCm      float64     `json:"length_cm"`
	VolumeCm3     float64     `json:"volume_cm3"`
	Weights       ItemWeights `json:"weights"`
	TierID        string      `json:"tier_id"`
	UnitCosts     ItemCosts   `json:"unit_costs"`
	BaseCost      float64     `json:"base_cost"`
	DistanceShare float64     `json:"distance_share"`
	DiscountShare float64     `json:"discount_share"`
	Total         float64     `json:"total"`
}

// Quote is the full cost breakdown for a cart.
type Quote struct {
	Total               float64      `json:"total"`
	Currency            string       `json:"currency"`
	DistanceKm          float64      `json:"distance_km"`
	DistanceSurcharge   float64      `json:"distance_surcharge_total"`
	SharedBaseFee       float64      `json:"shared_base_fee"`
	Rural               bool         `json:"rural"`
	MerchandiseSubtotal float64      `json:"merchandise_subtotal"`
	DiscountPct         float64      `json:"discount_pct"`
	DiscountTotal       float64      `json:"discount_total"`
	Items               []LineDetail `json:"items"`
}

// Engine computes shipping quotes. It holds no state between calls and is
// safe for concurrent use.
type Engine struct {
	Config Config
	Rate   RateConfig
}

// Quote prices the cart end to end: per-item physical derivation and tier
// matching, the variable per-item charge, the shared distance and handling
// fee spread across items by billable weight, and the subtotal-based
// discount spread by pre-discount cost. Any item without tier coverage fails
// the whole request.
func (e Engine) Quote(items []Item, sc ShipmentContext, tiers []Tier) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, ErrEmptyCart
	}
	if len(tiers) == 0 {
		return Quote{}, ErrNoTiers
	}

	type line struct {
		item         Item
		volumeCm3    float64
		volumetricKg float64
		billableKg   float64
		tier         Tier
		rate         RateResult
		baseCost     float64
	}

	lines := make([]line, len(items))
	sharedBaseFee := 0.0
	for i, raw := range items {
		it := normalizeItem(raw)

		volumeCm3 := it.HeightCm * it.WidthCm * it.LengthCm
		volumetricKg := 0.0
		if e.Config.DivisorDimCm > 0 {
			volumetricKg = volumeCm3 / e.Config.DivisorDimCm
		}
		billableKg := math.Max(it.WeightKg, volumetricKg)

		tier, ok := ResolveTier(billableKg, volumeCm3, tiers)
		if !ok {
			return Quote{}, &NoCoverageError{
				ItemIndex:  i,
				BillableKg: round2(billableKg),
				VolumeCm3:  round2(volumeCm3),
			}
		}
		if tier.BaseCost > sharedBaseFee {
			sharedBaseFee = tier.BaseCost
		}

		rateCfg := e.Rate
		rateCfg.Fragile = rateCfg.Fragile || it.Fragile
		res := Rate(Measures{
			HeightCm: it.HeightCm,
			WidthCm:  it.WidthCm,
			LengthCm: it.LengthCm,
			WeightKg: it.WeightKg,
			Price:    it.Price,
		}, rateCfg)

		lines[i] = line{
			item:         it,
			volumeCm3:    volumeCm3,
			volumetricKg: volumetricKg,
			billableKg:   billableKg,
			tier:         tier,
			rate:         res,
			baseCost:     round2(res.rawTotal * float64(it.Quantity)),
		}
	}

	charge := ComputeDistanceCharge(sc, e.Config)
	distributable := charge.Surcharge + sharedBaseFee

	weights := make([]float64, len(lines))
	for i, ln := range lines {
		weights[i] = ln.billableKg * float64(ln.item.Quantity)
	}
	distanceShares := Allocate(distributable, weights)

	var merchandiseSubtotal float64
	for _, ln := range lines {
		merchandiseSubtotal += round2(ln.item.Price * float64(ln.item.Quantity))
	}

	preDiscount := make([]float64, len(lines))
	var preDiscountSum float64
	for i, ln := range lines {
		preDiscount[i] = round2(ln.baseCost + distanceShares[i])
		preDiscountSum += preDiscount[i]
	}

	pct := DiscountPct(merchandiseSubtotal, e.Config.DiscountTiers)
	discountTotal := 0.0
	discountShares := make([]float64, len(lines))
	if pct > 0 {
		discountTotal = round2(pct * preDiscountSum)
		discountShares = Allocate(discountTotal, preDiscount)
	}

	details := make([]LineDetail, len(lines))
	var total float64
	for i, ln := range lines {
		lineTotal := round2(preDiscount[i] - discountShares[i])
		total += lineTotal
		details[i] = LineDetail{
			Quantity:  ln.item.Quantity,
			HeightCm:  ln.item.HeightCm,
			WidthCm:   ln.item.WidthCm,
			LengthCm:  ln.item.LengthCm,
			VolumeCm3: round2(ln.volumeCm3),
			Weights: ItemWeights{
				RealKg:       round2(ln.item.WeightKg),
				VolumetricKg: round2(ln.volumetricKg),
				BillableKg:   round2(ln.billableKg),
			},
			TierID:        ln.tier.ID,
			UnitCosts:     ln.rate.Costs,
			BaseCost:      ln.baseCost,
			DistanceShare: distanceShares[i],
			DiscountShare: discountShares[i],
			Total:         lineTotal,
		}
	}

	return Quote{
		Total:               round2(total),
		Currency:            e.Config.Currency,
		DistanceKm:          charge.DistanceKm,
		DistanceSurcharge:   charge.Surcharge,
		SharedBaseFee:       round2(sharedBaseFee),
		Rural:               sc.Rural,
		MerchandiseSubtotal: round2(merchandiseSubtotal),
		DiscountPct:         pct,
		DiscountTotal:       discountTotal,
		Items:               details,
	}, nil
}

// normalizeItem coerces invalid numerics to zero and the quantity to one so a
// malformed line never fails the request.
func normalizeItem(it Item) Item {
	if it.Quantity < 1 {
		it.Quantity = 1
	}
	it.HeightCm = nonNegative(it.HeightCm)
	it.WidthCm = nonNegative(it.WidthCm)
	it.LengthCm = nonNegative(it.LengthCm)
	it.WeightKg = nonNegative(it.WeightKg)
	it.Price = nonNegative(it.Price)
	return it
}

func nonNegative(n float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0
	}
	return n
}
