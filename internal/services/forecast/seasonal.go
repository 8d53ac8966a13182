package forecast

import (
	"math"
	"time"

	"DemandCast/internal/domain/models"
)

// Neutral seasonality returned when fewer than 12 distinct months exist.
const (
	neutralSeasonalFactor = 1.0
	neutralVolatility     = 0.1
	minSeasonalPeriods    = 12
)

// Seasonality describes the recurring calendar-month pattern of a series.
type Seasonality struct {
	Factor     float64 // current month's demand relative to the yearly average
	Volatility float64 // coefficient of variation across all periods
}

// ExtractSeasonality derives the multiplicative seasonal factor for the
// calendar month of `at` plus an overall volatility measure. With fewer than
// 12 distinct periods there is no full seasonal cycle to learn from, so the
// result degrades to the neutral {1.0, 0.1}.
func ExtractSeasonality(aggs map[string]models.PeriodAggregate, at time.Time) Seasonality {
	return seasonalityForMonth(aggs, at.UTC().Month())
}

func seasonalityForMonth(aggs map[string]models.PeriodAggregate, month time.Month) Seasonality {
	if len(aggs) < minSeasonalPeriods {
		return Seasonality{Factor: neutralSeasonalFactor, Volatility: neutralVolatility}
	}

	qs := make([]float64, 0, len(aggs))
	months := make([]time.Month, 0, len(aggs))
	for _, key := range SortedKeys(aggs) {
		t, err := time.Parse("2006-01", key)
		if err != nil {
			continue
		}
		qs = append(qs, aggs[key].TotalQuantity)
		months = append(months, t.Month())
	}
	if len(qs) == 0 {
		return Seasonality{Factor: neutralSeasonalFactor, Volatility: neutralVolatility}
	}

	var sum float64
	for _, q := range qs {
		sum += q
	}
	mean := sum / float64(len(qs))

	// Detrend before comparing months: each period is divided by its
	// OLS-fitted level, otherwise a steady climb makes every late-window
	// month look like a peak and every early one like a trough.
	slope := FitSlope(qs)
	intercept := mean - slope*float64(len(qs)-1)/2

	var monthSum, ratioSum float64
	var monthCount int
	for i, q := range qs {
		level := intercept + slope*float64(i)
		if level <= 0 {
			level = mean
		}
		if level <= 0 {
			continue
		}
		r := q / level
		ratioSum += r
		if months[i] == month {
			monthSum += r
			monthCount++
		}
	}

	factor := neutralSeasonalFactor
	meanRatio := ratioSum / float64(len(qs))
	if monthCount > 0 && meanRatio > 0 {
		factor = (monthSum / float64(monthCount)) / meanRatio
	}

	return Seasonality{
		Factor:     factor,
		Volatility: coefficientOfVariation(qs, mean),
	}
}

// coefficientOfVariation is population stddev over mean.
func coefficientOfVariation(qs []float64, mean float64) float64 {
	if mean <= 0 || len(qs) == 0 {
		return neutralVolatility
	}
	var ss float64
	for _, q := range qs {
		d := q - mean
		ss += d * d
	}
	return math.Sqrt(ss/float64(len(qs))) / mean
}
