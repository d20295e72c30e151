package assessment

import "math"

// Confidence midpoint reported when a dimension has no signal at all.
const neutralConfidence = 50

// InterimConfidenceCap bounds any confidence reported from core-phase-only
// input. Four data points never justify a strong claim.
const InterimConfidenceCap = 65

// InterimDisclaimer accompanies every interim result.
const InterimDisclaimer = "Preliminary result based on the first four questions only. " +
	"Complete the full assessment for a reliable type."

// Calculate aggregates a pre-validated response set into a ScoringResult.
// It is a pure function: same input, same output, no shared state. Callers
// must run Sanitize and Validate first; Calculate does not re-check.
//
// Accumulation rule per response:
//   - sais distribution responses add their point split to both poles;
//   - binary responses add one vote to the selected pole, regardless of
//     methodology.
//
// Preference requires a strictly larger A tally for the A pole to win; an
// exact tie resolves to the B pole. That direction is long-standing observed
// behavior and is pinned by tests, not an obviously "correct" choice.
func Calculate(sessionID string, responses []Response, methodology Methodology, interim bool) ScoringResult {
	result := ScoringResult{
		SessionID:       sessionID,
		IsInterim:       interim,
		DimensionScores: make([]DimensionScore, 0, len(Dimensions)),
	}

	mbti := ""
	confidenceSum := 0
	for _, dim := range Dimensions {
		score := scoreDimension(dim, responses, methodology)
		result.DimensionScores = append(result.DimensionScores, score)
		mbti += score.Preference
		confidenceSum += score.Confidence
	}

	result.MBTIType = mbti
	result.OverallConfidence = int(math.Round(float64(confidenceSum) / float64(len(Dimensions))))
	return result
}

func scoreDimension(dim Dimension, responses []Response, methodology Methodology) DimensionScore {
	rawA, rawB := 0, 0
	for _, r := range responses {
		if r.Dimension != dim {
			continue
		}
		switch r.ResponseType {
		case ResponseDistribution:
			if methodology == MethodologySAIS && r.DistributionA != nil && r.DistributionB != nil {
				rawA += *r.DistributionA
				rawB += *r.DistributionB
			}
		case ResponseBinary:
			if r.SelectedOption == "A" {
				rawA++
			} else if r.SelectedOption == "B" {
				rawB++
			}
		}
	}

	poleA, poleB := dim.Poles()
	preference := poleB // ties and zero information resolve to the B pole
	if rawA > rawB {
		preference = poleA
	}

	confidence := neutralConfidence
	if total := rawA + rawB; total > 0 {
		confidence = int(math.Round(float64(max(rawA, rawB)) / float64(total) * 100))
	}

	return DimensionScore{
		Dimension:  dim,
		RawA:       rawA,
		RawB:       rawB,
		Preference: preference,
		Confidence: confidence,
	}
}

// CalculateInterim scores the core-phase preview from at most the first four
// responses. Responses missing a dimension tag are assigned one positionally
// (index 0 -> E/I through index 3 -> J/P); explicit tags always win. The
// result is capped at InterimConfidenceCap and carries a disclaimer plus
// short insights for E/I, S/N and T/F.
func CalculateInterim(sessionID string, responses []Response) ScoringResult {
	if len(responses) > len(Dimensions) {
		responses = responses[:len(Dimensions)]
	}

	tagged := make([]Response, len(responses))
	for i, r := range responses {
		if !r.Dimension.Valid() {
			r.Dimension = Dimensions[i]
		}
		tagged[i] = r
	}

	result := Calculate(sessionID, tagged, MethodologyScenarios, true)
	for i := range result.DimensionScores {
		if result.DimensionScores[i].Confidence > InterimConfidenceCap {
			result.DimensionScores[i].Confidence = InterimConfidenceCap
		}
	}
	if result.OverallConfidence > InterimConfidenceCap {
		result.OverallConfidence = InterimConfidenceCap
	}
	result.Disclaimer = InterimDisclaimer
	result.Insights = interimInsights(result.DimensionScores)
	return result
}
