package forecast

// Trend factor bounds. They stop a steep short-window slope from compounding
// into an absurd multiplier over a multi-month horizon.
const (
	minTrendFactor = 0.5
	maxTrendFactor = 2.0
)

// FitSlope fits an ordinary least-squares slope of quantities against index
// 0..n-1. Fewer than two points cannot carry a trend, so the slope is 0.
func FitSlope(quantities []float64) float64 {
	n := float64(len(quantities))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, q := range quantities {
		x := float64(i)
		sumX += x
		sumY += q
		sumXY += x * q
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// NormalizedSlope makes the slope scale-independent by dividing out the mean
// quantity (floored at 1 to avoid blowing up on tiny series).
func NormalizedSlope(quantities []float64) float64 {
	slope := FitSlope(quantities)
	if slope == 0 {
		return 0
	}
	mean := 0.0
	for _, q := range quantities {
		mean += q
	}
	mean /= float64(len(quantities))
	if mean < 1 {
		mean = 1
	}
	return slope / mean
}

// TrendFactor converts the normalized slope into the bounded multiplier the
// forecaster compounds per month.
func TrendFactor(quantities []float64, sensitivity float64) float64 {
	f := 1 + NormalizedSlope(quantities)*sensitivity
	if f < minTrendFactor {
		return minTrendFactor
	}
	if f > maxTrendFactor {
		return maxTrendFactor
	}
	return f
}
