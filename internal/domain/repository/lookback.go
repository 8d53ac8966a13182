package repository

// Lookback window bounds, in months of history fetched per forecast.
const (
	MinLookbackMonths     = 12
	MaxLookbackMonths     = 24
	DefaultLookbackMonths = 24
)

// NormalizeLookback folds an arbitrary request value into the supported
// window.
func NormalizeLookback(months int) int {
	if months <= 0 {
		return DefaultLookbackMonths
	}
	if months < MinLookbackMonths {
		return MinLookbackMonths
	}
	if months > MaxLookbackMonths {
		return MaxLookbackMonths
	}
	return months
}
