package verify

import "math"

// Decision is the quantitative outcome of comparing a probe embedding
// against a customer's enrolled set.
type Decision struct {
	Verified        bool
	Distance        float64
	MatchPercentage int
	Threshold       float64
}

// euclideanDistance computes the L2 distance between two equal-length
// vectors. Callers validate dimensionality before reaching this point.
func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// nearestDistance returns the minimum distance from probe to any candidate
// (nearest neighbor, k=1).
func nearestDistance(probe []float64, candidates [][]float64) float64 {
	best := math.Inf(1)
	for _, candidate := range candidates {
		if d := euclideanDistance(probe, candidate); d < best {
			best = d
		}
	}
	return best
}

// decide applies the strict-< threshold rule and the display percentage.
//
// The percentage is a cosmetic transform for UI parity, linear from 100 at
// distance zero down to 0 at twice the threshold. It is not a statistical
// confidence and must never gate the verdict; only the threshold comparison
// does that.
func decide(distance, threshold float64) Decision {
	ratio := 1 - distance/(2*threshold)
	if ratio < 0 {
		ratio = 0
	}
	return Decision{
		Verified:        distance < threshold,
		Distance:        distance,
		MatchPercentage: int(math.Round(ratio * 100)),
		Threshold:       threshold,
	}
}
