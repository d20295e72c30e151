package assessment

// interimInsightText maps a resolved pole letter to a one-line reading.
// J/P is deliberately absent: the core questions carry too little signal on
// that axis to say anything useful.
var interimInsightText = map[string]string{
	"E": "You seem to draw energy from engaging with people and activity around you.",
	"I": "You seem to recharge through quiet focus and time on your own.",
	"S": "You appear to trust concrete facts and direct experience first.",
	"N": "You appear drawn to patterns, possibilities and the bigger picture.",
	"T": "You lean toward weighing decisions through logic and consistency.",
	"F": "You lean toward weighing decisions through values and their impact on people.",
}

// insightDimensions are the axes surfaced in interim previews, in order.
var insightDimensions = []Dimension{DimensionEI, DimensionSN, DimensionTF}

func interimInsights(scores []DimensionScore) []string {
	byDim := make(map[Dimension]DimensionScore, len(scores))
	for _, s := range scores {
		byDim[s.Dimension] = s
	}

	insights := make([]string, 0, len(insightDimensions))
	for _, dim := range insightDimensions {
		s, ok := byDim[dim]
		if !ok {
			continue
		}
		if text, ok := interimInsightText[s.Preference]; ok {
			insights = append(insights, text)
		}
	}
	return insights
}
