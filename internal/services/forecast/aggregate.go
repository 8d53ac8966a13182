package forecast

import (
	"sort"
	"time"

	"DemandCast/internal/domain/models"
)

// PeriodKey formats a timestamp as the "YYYY-MM" month bucket, UTC.
func PeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Aggregate collapses raw transactions into per-month summary statistics.
// Input order does not matter; callers sort by key before time-series use.
// Empty input yields an empty map, which downstream components treat as
// "no history" rather than an error.
func Aggregate(records []models.TransactionRecord) map[string]models.PeriodAggregate {
	out := make(map[string]models.PeriodAggregate, len(records)/8+1)
	for _, r := range records {
		key := PeriodKey(r.Timestamp)
		agg := out[key]
		agg.PeriodKey = key
		agg.TotalQuantity += r.Quantity
		agg.TotalRevenue += r.Quantity * r.UnitPrice
		agg.RecordCount++
		out[key] = agg
	}
	for key, agg := range out {
		denom := agg.TotalQuantity
		if denom < 1 {
			denom = 1
		}
		agg.AveragePrice = agg.TotalRevenue / denom
		out[key] = agg
	}
	return out
}

// SortedKeys returns the period keys in chronological order. The "YYYY-MM"
// format makes lexicographic order chronological.
func SortedKeys(aggs map[string]models.PeriodAggregate) []string {
	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// QuantitySeries returns total quantities in chronological order.
func QuantitySeries(aggs map[string]models.PeriodAggregate) []float64 {
	keys := SortedKeys(aggs)
	qs := make([]float64, 0, len(keys))
	for _, k := range keys {
		qs = append(qs, aggs[k].TotalQuantity)
	}
	return qs
}

// HistoricalAverage is the mean monthly quantity, 0 with no history.
func HistoricalAverage(aggs map[string]models.PeriodAggregate) float64 {
	if len(aggs) == 0 {
		return 0
	}
	sum := 0.0
	for _, a := range aggs {
		sum += a.TotalQuantity
	}
	return sum / float64(len(aggs))
}

// DataQuality grades how much history backed a forecast.
func DataQuality(periodCount int) string {
	switch {
	case periodCount >= 12:
		return models.DataQualityHigh
	case periodCount >= 6:
		return models.DataQualityMedium
	default:
		return models.DataQualityLow
	}
}
