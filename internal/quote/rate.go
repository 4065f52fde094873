package quote

import "math"

// RateConfig controls the variable per-item charge formula. Zero the
// multiplicative fields and disable insurance to make every item contribute
// nothing, leaving the shared distance and tier fees as the only charges.
type RateConfig struct {
	DivisorDimCm          float64
	BaseFee               float64
	PerKgFee              float64
	OverweightThresholdKg float64
	OverweightExtraPerKg  float64
	Fragile               bool
	FragileSurchargePct   float64
	UseInsurance          bool
	InsurancePctOfPrice   float64
	InsuranceMinimum      float64
}

// DefaultRateConfig returns the standard per-item charge parameters.
func DefaultRateConfig() RateConfig {
	return RateConfig{
		DivisorDimCm:          5000,
		BaseFee:               10,
		PerKgFee:              2.5,
		OverweightThresholdKg: 20,
		OverweightExtraPerKg:  1.2,
		Fragile:               false,
		FragileSurchargePct:   0.10,
		UseInsurance:          true,
		InsurancePctOfPrice:   0.015,
		InsuranceMinimum:      1,
	}
}

// ZeroRateConfig returns the neutralized variant of the formula: no per-item
// variable charge at all.
func ZeroRateConfig() RateConfig {
	return RateConfig{}
}

// RateOverrides carries optional per-call replacements for RateConfig fields.
// Nil fields keep the base value.
type RateOverrides struct {
	DivisorDimCm          *float64 `json:"divisor_dim_cm"`
	BaseFee               *float64 `json:"base_fee"`
	PerKgFee              *float64 `json:"per_kg_fee"`
	OverweightThresholdKg *float64 `json:"overweight_threshold_kg"`
	OverweightExtraPerKg  *float64 `json:"overweight_extra_per_kg"`
	Fragile               *bool    `json:"fragile"`
	FragileSurchargePct   *float64 `json:"fragile_surcharge_pct"`
	UseInsurance          *bool    `json:"use_insurance"`
	InsurancePctOfPrice   *float64 `json:"insurance_pct_of_price"`
	InsuranceMinimum      *float64 `json:"insurance_minimum"`
}

// Apply layers the provided overrides on top of the receiver and returns the
// merged configuration.
func (c RateConfig) Apply(o RateOverrides) RateConfig {
	if o.DivisorDimCm != nil {
		c.DivisorDimCm = *o.DivisorDimCm
	}
	if o.BaseFee != nil {
		c.BaseFee = *o.BaseFee
	}
	if o.PerKgFee != nil {
		c.PerKgFee = *o.PerKgFee
	}
	if o.OverweightThresholdKg != nil {
		c.OverweightThresholdKg = *o.OverweightThresholdKg
	}
	if o.OverweightExtraPerKg != nil {
		c.OverweightExtraPerKg = *o.OverweightExtraPerKg
	}
	if o.Fragile != nil {
		c.Fragile = *o.Fragile
	}
	if o.FragileSurchargePct != nil {
		c.FragileSurchargePct = *o.FragileSurchargePct
	}
	if o.UseInsurance != nil {
		c.UseInsurance = *o.UseInsurance
	}
	if o.InsurancePctOfPrice != nil {
		c.InsurancePctOfPrice = *o.InsurancePctOfPrice
	}
	if o.InsuranceMinimum != nil {
		c.InsuranceMinimum = *o.InsuranceMinimum
	}
	return c
}

// Measures describes the physical and monetary inputs of a single unit.
type Measures struct {
	HeightCm float64
	WidthCm  float64
	LengthCm float64
	WeightKg float64
	Price    float64
}

// ItemWeights groups the derived weights of a unit.
type ItemWeights struct {
	RealKg       float64 `json:"real_kg"`
	VolumetricKg float64 `json:"volumetric_kg"`
	BillableKg   float64 `json:"billable_kg"`
}

// ItemCosts is the per-unit charge breakdown. Every field is rounded to two
// decimals independently; Total is the rounding of the unrounded sum, so it
// may differ from re-adding the other fields by a fraction of a cent.
type ItemCosts struct {
	Base       float64 `json:"base"`
	PerKg      float64 `json:"per_kg"`
	Overweight float64 `json:"overweight"`
	Fragile    float64 `json:"fragile"`
	Insurance  float64 `json:"insurance"`
	Total      float64 `json:"total"`
}

// RateResult is the outcome of the per-unit charge formula.
type RateResult struct {
	Weights ItemWeights
	Costs   ItemCosts
	Config  RateConfig

	// rawTotal keeps the unrounded unit total for downstream aggregation.
	rawTotal float64
}

// Rate computes the variable shipping charge for a single unit. Inputs are
// taken as-is and never rejected.
func Rate(m Measures, cfg RateConfig) RateResult {
	volumeCm3 := m.HeightCm * m.WidthCm * m.LengthCm

	volumetricKg := 0.0
	if cfg.DivisorDimCm > 0 {
		volumetricKg = volumeCm3 / cfg.DivisorDimCm
	}
	billableKg := math.Max(m.WeightKg, volumetricKg)

	baseCost := cfg.BaseFee
	perKgCost := billableKg * cfg.PerKgFee

	excessKg := math.Max(0, billableKg-cfg.OverweightThresholdKg)
	overweightCost := excessKg * cfg.OverweightExtraPerKg

	subtotal := baseCost + perKgCost + overweightCost
	fragileCost := 0.0
	if cfg.Fragile {
		fragileCost = subtotal * cfg.FragileSurchargePct
	}

	insuranceCost := 0.0
	if cfg.UseInsurance {
		insuranceCost = math.Max(cfg.InsuranceMinimum, m.Price*cfg.InsurancePctOfPrice)
	}

	total := subtotal + fragileCost + insuranceCost

	return RateResult{
		Weights: ItemWeights{
			RealKg:       round2(m.WeightKg),
			VolumetricKg: round2(volumetricKg),
			BillableKg:   round2(billableKg),
		},
		Costs: ItemCosts{
			Base:       round2(baseCost),
			PerKg:      round2(perKgCost),
			Overweight: round2(overweightCost),
			Fragile:    round2(fragileCost),
			Insurance:  round2(insuranceCost),
			Total:      round2(total),
		},
		Config:   cfg,
		rawTotal: total,
	}
}

func round2(n float64) float64 {
	return math.Round(n*100) / 100
}
