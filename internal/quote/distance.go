package quote

import "math"

const earthRadiusKm = 6371

// ShipmentContext carries the optional shipment-level inputs of a quote.
// DistanceKm wins over coordinates when both are present.
type ShipmentContext struct {
	DistanceKm     *float64
	OriginLat      *float64
	OriginLng      *float64
	DestinationLat *float64
	DestinationLng *float64
	Rural          bool
}

// DistanceCharge is the shipment-level distance fee breakdown.
type DistanceCharge struct {
	DistanceKm float64
	BillableKm float64
	Surcharge  float64
}

// ComputeDistanceCharge derives the billable distance and converts it into a
// monetary surcharge. A missing context yields zero distance and the base fee
// floored by MinKm; there is no failure mode.
func ComputeDistanceCharge(sc ShipmentContext, cfg Config) DistanceCharge {
	distanceKm := 0.0
	switch {
	case sc.DistanceKm != nil && isFinite(*sc.DistanceKm):
		distanceKm = *sc.DistanceKm
	case sc.OriginLat != nil && sc.OriginLng != nil && sc.DestinationLat != nil && sc.DestinationLng != nil:
		distanceKm = haversineKm(*sc.OriginLat, *sc.OriginLng, *sc.DestinationLat, *sc.DestinationLng)
	}

	billableKm := math.Max(round2(distanceKm), cfg.MinKm)
	surcharge := cfg.BaseFee + billableKm*cfg.CostPerKm
	if sc.Rural && cfg.RuralSurchargePct > 0 {
		surcharge *= 1 + cfg.RuralSurchargePct
	}

	return DistanceCharge{
		DistanceKm: round2(distanceKm),
		BillableKm: billableKm,
		Surcharge:  round2(surcharge),
	}
}

// haversineKm computes the great-circle distance between two WGS 84
// coordinates in kilometers.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func isFinite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}
