package stats

import "math"

// HalfCauchy is the Cauchy distribution centred at zero, folded onto x >= 0.
type HalfCauchy struct {
	Scale float64
}

// Prob is the density at x.
func (h HalfCauchy) Prob(x float64) float64 {
	if x < 0 {
		return 0
	}
	z := x / h.Scale
	return 2 / (math.Pi * h.Scale * (1 + z*z))
}

// Quantile is the inverse of the CDF.
func (h HalfCauchy) Quantile(p float64) float64 {
	if p < 0 || p > 1 {
		return math.NaN()
	}
	return h.Scale * math.Tan(math.Pi*p/2)
}

// CDF is the probability of a value <= x.
func (h HalfCauchy) CDF(x float64) float64 {
	if x < 0 {
		return 0
	}
	return 2 / math.Pi * math.Atan(x/h.Scale)
}
