package assessment

import "fmt"

// Issue codes are stable so callers and tests can assert on specific
// violations rather than parsing messages.
const (
	CodeEmptyResponses      = "empty_responses"
	CodeMissingQuestionID   = "missing_question_id"
	CodeMissingSessionID    = "missing_session_id"
	CodeInvalidDimension    = "invalid_dimension"
	CodeInvalidResponseType = "invalid_response_type"
	CodeInvalidOption       = "invalid_option"
	CodeMissingDistribution = "missing_distribution"
	CodeDistributionSum     = "distribution_sum"
	CodeDistributionPair    = "distribution_pair"
	CodeInvalidMethodology  = "invalid_methodology"
)

// Issue is a single structural or invariant violation.
type Issue struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationReport aggregates every violation found in a response set.
// Malformed input produces issues, never an error or panic.
type ValidationReport struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

func (r *ValidationReport) add(field, code, msg string) {
	r.Issues = append(r.Issues, Issue{Field: field, Code: code, Message: msg})
}

// Validate checks structural correctness of a response set plus the
// methodology-specific invariants. Responses are expected to have passed
// Sanitize already; Validate does not normalize.
func Validate(responses []Response, methodology Methodology) ValidationReport {
	report := ValidationReport{}

	if !methodology.Valid() {
		report.add("methodology", CodeInvalidMethodology,
			fmt.Sprintf("unknown methodology %q", string(methodology)))
	}
	if len(responses) == 0 {
		report.add("responses", CodeEmptyResponses, "response set is empty")
		report.Valid = false
		return report
	}

	for i, r := range responses {
		field := func(name string) string { return fmt.Sprintf("responses[%d].%s", i, name) }

		if r.QuestionID == "" {
			report.add(field("question_id"), CodeMissingQuestionID, "question id is required")
		}
		if r.SessionID == "" {
			report.add(field("session_id"), CodeMissingSessionID, "session id is required")
		}
		if !r.Dimension.Valid() {
			report.add(field("mbti_dimension"), CodeInvalidDimension,
				fmt.Sprintf("dimension %q is not one of E/I, S/N, T/F, J/P", string(r.Dimension)))
		}

		switch r.ResponseType {
		case ResponseBinary:
			if r.SelectedOption != "A" && r.SelectedOption != "B" {
				report.add(field("selected_option"), CodeInvalidOption,
					fmt.Sprintf("selected option must be A or B, got %q", r.SelectedOption))
			}
		case ResponseDistribution:
			if r.DistributionA == nil || r.DistributionB == nil {
				report.add(field("distribution"), CodeMissingDistribution,
					"distribution responses require both distribution_a and distribution_b")
				continue
			}
			if methodology == MethodologySAIS {
				a, b := *r.DistributionA, *r.DistributionB
				if a+b != DistributionTotal {
					report.add(field("distribution"), CodeDistributionSum,
						fmt.Sprintf("distribution must sum to %d, got %d", DistributionTotal, a+b))
				}
				if !LegalDistribution(a, b) {
					report.add(field("distribution"), CodeDistributionPair,
						fmt.Sprintf("(%d,%d) is not a legal distribution split", a, b))
				}
			}
		default:
			report.add(field("response_type"), CodeInvalidResponseType,
				fmt.Sprintf("response type %q is not binary or distribution", string(r.ResponseType)))
		}
	}

	report.Valid = len(report.Issues) == 0
	return report
}
