package recommend

// BlendInput carries everything the weight blender needs. Zero values
// degrade gracefully: an empty input blends to the static prior alone.
type BlendInput struct {
	StaticWeights   map[string]float64
	PersonalWeights map[string]float64
	// StaticRatio is the share of the final weight attributed to the
	// demographic prior (0..1).
	StaticRatio      float64
	RecentCategories []string
	// ConfidenceScore = min(1, interactionCount/100).
	ConfidenceScore float64
	DataAgeDays     int
}

// BlendWeights merges the static demographic prior with the learned
// per-user weights. Stale personal data (>30 days) shifts the ratio back
// toward the prior, and low confidence forces the prior to dominate.
// The output is additive and unnormalized; every weight is non-negative.
func BlendWeights(in BlendInput) map[string]float64 {
	staticRatio := in.StaticRatio

	if in.DataAgeDays > staleAgeDays {
		agePenalty := float64(in.DataAgeDays-staleAgeDays) / 100.0
		if agePenalty > 0.3 {
			agePenalty = 0.3
		}
		staticRatio += agePenalty
		if staticRatio > 1.0 {
			staticRatio = 1.0
		}
	}

	if in.ConfidenceScore < lowConfidenceCutoff && staticRatio < forcedStaticRatio {
		staticRatio = forcedStaticRatio
	}

	personalRatio := 1.0 - staticRatio

	recent := make(map[string]bool, len(in.RecentCategories))
	for _, c := range in.RecentCategories {
		recent[c] = true
	}

	blended := make(map[string]float64, len(in.StaticWeights)+len(in.PersonalWeights))

	blend := func(category string) {
		if _, done := blended[category]; done {
			return
		}

		staticW, ok := in.StaticWeights[category]
		if !ok {
			staticW = defaultStaticWeight
		}
		personalW := in.PersonalWeights[category]

		weight := staticW*staticRatio + personalW*personalRatio

		if recent[category] {
			weight *= 1.15 + in.ConfidenceScore*0.15
		}

		blended[category] = weight
	}

	for category := range in.StaticWeights {
		blend(category)
	}
	for category := range in.PersonalWeights {
		blend(category)
	}

	return blended
}
