package quote

// Allocate distributes total across len(weights) shares proportionally to the
// weights, each rounded to two decimals. The last share is derived by
// subtraction so the shares always sum to round2(total) exactly regardless of
// per-share rounding drift; which entry absorbs the remainder therefore
// depends on the caller's iteration order. A non-positive total or an all-zero
// weight list yields all-zero shares.
func Allocate(total float64, weights []float64) []float64 {
	shares := make([]float64, len(weights))
	if len(weights) == 0 {
		return shares
	}

	var sumWeights float64
	for _, w := range weights {
		sumWeights += w
	}
	if total <= 0 || sumWeights == 0 {
		return shares
	}

	target := round2(total)
	var running float64
	for i, w := range weights {
		if i == len(weights)-1 {
			shares[i] = round2(target - running)
			break
		}
		share := round2(total * w / sumWeights)
		shares[i] = share
		running += share
	}
	return shares
}
