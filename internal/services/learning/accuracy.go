package learning

import "math"

// Accuracy scores a resolved prediction on a 0..100 scale. The divisor is
// floored at 1 so a zero actual cannot divide by zero; predicted==actual==0
// scores a clean 100.
func Accuracy(predicted, actual float64) float64 {
	denom := actual
	if denom < 1 {
		denom = 1
	}
	errPct := math.Abs(predicted-actual) / denom * 100
	if errPct > 100 {
		errPct = 100
	}
	return 100 - errPct
}
