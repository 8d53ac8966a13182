package learning

import (
	"sort"
	"strings"

	"DemandCast/internal/domain/models"
)

// Tuning step and the evidence bar for taking it. Accuracy must move by more
// than driftThreshold points between the older and newer halves of the
// outcome history before a parameter gets nudged.
const (
	nudgeStep      = 0.05
	driftThreshold = 2.0
	minHalfSamples = 2
)

// Improve derives an updated parameter set from resolved prediction records.
// The second return reports whether anything changed. The sample watermark
// makes the pass idempotent: with no outcomes resolved since the last pass,
// the stored parameters come back untouched.
func Improve(stored models.StoredParameters, recs []models.PredictionRecord) (models.StoredParameters, bool) {
	resolved := make([]models.PredictionRecord, 0, len(recs))
	for _, r := range recs {
		if r.Resolved {
			resolved = append(resolved, r)
		}
	}
	if len(resolved) <= stored.SampleWatermark {
		return stored, false
	}
	if len(resolved) < 2*minHalfSamples {
		stored.SampleWatermark = len(resolved)
		return stored, true
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		if !resolved[i].CreatedAt.Equal(resolved[j].CreatedAt) {
			return resolved[i].CreatedAt.Before(resolved[j].CreatedAt)
		}
		return resolved[i].ID < resolved[j].ID
	})
	older := resolved[:len(resolved)/2]
	newer := resolved[len(resolved)/2:]

	p := stored.Params

	// Per-dimension drift: records whose factor tags show the dimension was
	// actively pulling on the forecast vote for its parameter.
	p.TrendSensitivity += nudgeFor(older, newer, "trend_", TagTrendFlat)
	p.SeasonalWeight += nudgeFor(older, newer, "seasonal_", TagSeasonalNeutral)
	p.MarketFactor += nudgeFor(older, newer, "market_", TagMarketFlat)

	// Confidence follows overall accuracy; variance tolerance moves the other
	// way, tightening jitter as the model proves itself.
	overall := meanAccuracy(newer) - meanAccuracy(older)
	switch {
	case overall > driftThreshold:
		p.Confidence += nudgeStep
		p.VarianceTolerance -= nudgeStep
	case overall < -driftThreshold:
		p.Confidence -= nudgeStep
		p.VarianceTolerance += nudgeStep
	}

	stored.Params = p.Clamp()
	stored.SampleWatermark = len(resolved)
	return stored, true
}

// nudgeFor computes the ±step adjustment for one factor dimension, keyed by
// tag prefix. Records carrying only the neutral tag for the dimension do not
// participate.
func nudgeFor(older, newer []models.PredictionRecord, prefix, neutralTag string) float64 {
	o, on := dimensionAccuracy(older, prefix, neutralTag)
	n, nn := dimensionAccuracy(newer, prefix, neutralTag)
	if on < minHalfSamples || nn < minHalfSamples {
		return 0
	}
	drift := n - o
	switch {
	case drift > driftThreshold:
		return nudgeStep
	case drift < -driftThreshold:
		return -nudgeStep
	}
	return 0
}

func dimensionAccuracy(recs []models.PredictionRecord, prefix, neutralTag string) (mean float64, count int) {
	sum := 0.0
	for _, r := range recs {
		for _, t := range r.FactorsUsed {
			if strings.HasPrefix(t, prefix) && t != neutralTag {
				sum += r.AccuracyPct
				count++
				break
			}
		}
	}
	if count == 0 {
		return 0, 0
	}
	return sum / float64(count), count
}

func meanAccuracy(recs []models.PredictionRecord) float64 {
	if len(recs) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range recs {
		sum += r.AccuracyPct
	}
	return sum / float64(len(recs))
}
