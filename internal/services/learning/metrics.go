package learning

import (
	"fmt"
	"sort"

	"DemandCast/internal/domain/models"
)

// quartileMargin is how much more often a tag must appear in the top accuracy
// quartile than the bottom one (as a proportion) before it counts as
// improving, and vice versa.
const quartileMargin = 0.25

// ComputeMetrics aggregates resolved prediction records into learning
// metrics. Unresolved records are ignored. The improving/declining factor
// attribution compares tag frequency between the top and bottom accuracy
// quartiles; the exact heuristic is a policy choice, but it is deterministic
// for a given record set.
func ComputeMetrics(commodityID string, recs []models.PredictionRecord) models.LearningMetrics {
	m := models.LearningMetrics{
		CommodityID:         commodityID,
		AccuracyByTimeframe: map[string]float64{},
	}

	resolved := make([]models.PredictionRecord, 0, len(recs))
	for _, r := range recs {
		if r.Resolved {
			resolved = append(resolved, r)
		}
	}
	m.SampleCount = len(resolved)
	if len(resolved) == 0 {
		m.RecommendationAdjustments = []string{"collect_more_outcomes"}
		return m
	}

	total := 0.0
	byTF := map[string][]float64{}
	for _, r := range resolved {
		total += r.AccuracyPct
		key := fmt.Sprintf("%dm", r.MonthsAhead)
		byTF[key] = append(byTF[key], r.AccuracyPct)
	}
	m.OverallAccuracy = total / float64(len(resolved))
	for key, vals := range byTF {
		sum := 0.0
		for _, v := range vals {
			sum += v
		}
		m.AccuracyByTimeframe[key] = sum / float64(len(vals))
	}

	m.ImprovingFactors, m.DecliningFactors = quartileFactorSplit(resolved)
	m.RecommendationAdjustments = adjustments(m)
	return m
}

// quartileFactorSplit ranks records by accuracy and compares how often each
// factor tag shows up in the best quartile versus the worst.
func quartileFactorSplit(resolved []models.PredictionRecord) (improving, declining []string) {
	if len(resolved) < 4 {
		return nil, nil
	}

	sorted := make([]models.PredictionRecord, len(resolved))
	copy(sorted, resolved)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].AccuracyPct != sorted[j].AccuracyPct {
			return sorted[i].AccuracyPct > sorted[j].AccuracyPct
		}
		return sorted[i].ID < sorted[j].ID
	})

	q := len(sorted) / 4
	if q < 1 {
		q = 1
	}
	topFreq := tagFrequency(sorted[:q])
	bottomFreq := tagFrequency(sorted[len(sorted)-q:])

	seen := map[string]bool{}
	var tags []string
	for t := range topFreq {
		if !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	for t := range bottomFreq {
		if !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)

	for _, t := range tags {
		diff := topFreq[t] - bottomFreq[t]
		switch {
		case diff > quartileMargin:
			improving = append(improving, t)
		case diff < -quartileMargin:
			declining = append(declining, t)
		}
	}
	return improving, declining
}

func tagFrequency(recs []models.PredictionRecord) map[string]float64 {
	freq := map[string]float64{}
	if len(recs) == 0 {
		return freq
	}
	for _, r := range recs {
		for _, t := range r.FactorsUsed {
			freq[t]++
		}
	}
	for t := range freq {
		freq[t] /= float64(len(recs))
	}
	return freq
}

func adjustments(m models.LearningMetrics) []string {
	var out []string
	if m.SampleCount < 10 {
		out = append(out, "collect_more_outcomes")
	}
	if m.OverallAccuracy < 60 {
		out = append(out, "review_model_parameters")
	}
	if len(m.DecliningFactors) > 0 {
		out = append(out, "reduce_weight_of_declining_factors")
	}
	return out
}
