package assessment

import "strings"

// Sanitize normalizes inbound responses before validation: identifiers are
// trimmed and distribution values clamped into [0, DistributionTotal].
// Sanitization never rejects anything; strict checks belong to Validate.
func Sanitize(responses []Response) []Response {
	out := make([]Response, len(responses))
	for i, r := range responses {
		r.ID = strings.TrimSpace(r.ID)
		r.QuestionID = strings.TrimSpace(r.QuestionID)
		r.SessionID = strings.TrimSpace(r.SessionID)
		r.SelectedOption = strings.ToUpper(strings.TrimSpace(r.SelectedOption))
		if r.DistributionA != nil {
			v := clampPoints(*r.DistributionA)
			r.DistributionA = &v
		}
		if r.DistributionB != nil {
			v := clampPoints(*r.DistributionB)
			r.DistributionB = &v
		}
		out[i] = r
	}
	return out
}

func clampPoints(v int) int {
	if v < 0 {
		return 0
	}
	if v > DistributionTotal {
		return DistributionTotal
	}
	return v
}
