package assessment

import "time"

// Dimension is one of the four preference axes. Each response informs
// exactly one dimension.
type Dimension string

const (
	DimensionEI Dimension = "E/I"
	DimensionSN Dimension = "S/N"
	DimensionTF Dimension = "T/F"
	DimensionJP Dimension = "J/P"
)

// Dimensions lists the four axes in resolution order. The 4-letter type is
// always assembled in this order.
var Dimensions = []Dimension{DimensionEI, DimensionSN, DimensionTF, DimensionJP}

// poleLetters maps each dimension to its option-A and option-B letters.
var poleLetters = map[Dimension][2]string{
	DimensionEI: {"E", "I"},
	DimensionSN: {"S", "N"},
	DimensionTF: {"T", "F"},
	DimensionJP: {"J", "P"},
}

// Poles returns the A-pole and B-pole letters for d, or ("","") for an
// unknown dimension.
func (d Dimension) Poles() (a, b string) {
	p, ok := poleLetters[d]
	if !ok {
		return "", ""
	}
	return p[0], p[1]
}

// Valid reports whether d is one of the four dimension tags.
func (d Dimension) Valid() bool {
	_, ok := poleLetters[d]
	return ok
}

// Methodology selects the extended-phase question format and with it the
// accumulation rule used by scoring.
type Methodology string

const (
	MethodologyScenarios Methodology = "scenarios"
	MethodologyTraits    Methodology = "traits"
	MethodologySAIS      Methodology = "sais"
)

func (m Methodology) Valid() bool {
	switch m {
	case MethodologyScenarios, MethodologyTraits, MethodologySAIS:
		return true
	}
	return false
}

// Phase marks which stage of the assessment produced a response or owns a
// session.
type Phase string

const (
	PhaseCore     Phase = "core"
	PhaseExtended Phase = "extended"
)

// ResponseType discriminates the two answer shapes.
type ResponseType string

const (
	ResponseBinary       ResponseType = "binary"
	ResponseDistribution ResponseType = "distribution"
)

// DistributionTotal is the fixed point budget of a distribution answer.
const DistributionTotal = 5

// Response is a single answered question. It is a tagged union over
// ResponseType: binary answers carry SelectedOption, distribution answers
// carry DistributionA/DistributionB. A response is immutable once created;
// re-answering a question replaces the prior response for that question id.
type Response struct {
	ID           string       `json:"response_id"`
	QuestionID   string       `json:"question_id"`
	SessionID    string       `json:"session_id"`
	QuestionType Phase        `json:"question_type"`
	ResponseType ResponseType `json:"response_type"`
	Dimension    Dimension    `json:"mbti_dimension"`

	// Binary payload.
	SelectedOption string `json:"selected_option,omitempty"` // "A" or "B"

	// Distribution payload. Pointers so "absent" is distinguishable from 0.
	DistributionA *int `json:"distribution_a,omitempty"`
	DistributionB *int `json:"distribution_b,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// legalPairs enumerates the only accepted distribution splits.
var legalPairs = [][2]int{{5, 0}, {4, 1}, {3, 2}, {2, 3}, {1, 4}, {0, 5}}

// LegalDistribution reports whether (a, b) is one of the six accepted
// splits. Both the sum and the pair membership matter: (-1, 6) sums to 5 but
// is not a legal pair.
func LegalDistribution(a, b int) bool {
	for _, p := range legalPairs {
		if p[0] == a && p[1] == b {
			return true
		}
	}
	return false
}

// ResponseSet accumulates responses with overwrite-by-question semantics:
// answering the same question twice keeps only the latest response.
type ResponseSet struct {
	order      []string
	byQuestion map[string]Response
}

func NewResponseSet() *ResponseSet {
	return &ResponseSet{byQuestion: map[string]Response{}}
}

// Upsert records r, replacing any earlier response to the same question.
func (s *ResponseSet) Upsert(r Response) {
	if _, seen := s.byQuestion[r.QuestionID]; !seen {
		s.order = append(s.order, r.QuestionID)
	}
	s.byQuestion[r.QuestionID] = r
}

// Len reports the number of distinct answered questions.
func (s *ResponseSet) Len() int { return len(s.order) }

// Get returns the current response for a question id.
func (s *ResponseSet) Get(questionID string) (Response, bool) {
	r, ok := s.byQuestion[questionID]
	return r, ok
}

// All returns responses in first-answer order.
func (s *ResponseSet) All() []Response {
	out := make([]Response, 0, len(s.order))
	for _, qid := range s.order {
		out = append(out, s.byQuestion[qid])
	}
	return out
}

// DimensionScore holds the raw tallies and resolution for one axis.
type DimensionScore struct {
	Dimension  Dimension `json:"dimension"`
	RawA       int       `json:"raw_a"`
	RawB       int       `json:"raw_b"`
	Preference string    `json:"preference"` // resolved pole letter
	Confidence int       `json:"confidence"` // 0..100
}

// ScoringResult is the derived outcome of a calculation. It is recomputable
// from the response set and must never be treated as canonical state.
type ScoringResult struct {
	SessionID         string           `json:"session_id"`
	MBTIType          string           `json:"mbti_type"`
	DimensionScores   []DimensionScore `json:"dimension_scores"`
	OverallConfidence int              `json:"overall_confidence"`
	IsInterim         bool             `json:"is_interim"`

	// Interim-only fields.
	Disclaimer string   `json:"disclaimer,omitempty"`
	Insights   []string `json:"insights,omitempty"`
}
