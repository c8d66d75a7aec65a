// Package scoring implements the weighted factor fusion shared by the
// difficulty predictor and the priority scheduler: N independently computed
// sub-scores combined by fixed weights.
package scoring

// Factor is one named sub-score with its weight
type Factor struct {
	Name   string
	Weight float64
	Value  float64
}

// Combine returns the weighted sum of all factors
func Combine(factors []Factor) float64 {
	var sum float64
	for _, f := range factors {
		sum += f.Weight * f.Value
	}
	return sum
}

// CombineNormalized divides the weighted sum by the total weight, so weights
// need only sum to a positive number
func CombineNormalized(factors []Factor) float64 {
	var sum, weight float64
	for _, f := range factors {
		sum += f.Weight * f.Value
		weight += f.Weight
	}
	if weight == 0 {
		return 0
	}
	return sum / weight
}

// Breakdown returns the factor values keyed by name, for reporting
func Breakdown(factors []Factor) map[string]float64 {
	out := make(map[string]float64, len(factors))
	for _, f := range factors {
		out[f.Name] = f.Value
	}
	return out
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
