package session

import "github.com/mindtype-hq/mindtype/internal/assessment"

// Step names the stage the client claims the assessment is on.
type Step string

const (
	StepCoreQuestions     Step = "core_questions"
	StepFormatSelection   Step = "format_selection"
	StepExtendedQuestions Step = "extended_questions"
	StepResults           Step = "results"
)

// AssessmentState is the client's view of where the assessment stands,
// cross-checked against the session phase.
type AssessmentState struct {
	Phase            assessment.Phase       `json:"phase"`
	Methodology      assessment.Methodology `json:"methodology,omitempty"`
	Step             Step                   `json:"step"`
	CoreAnswered     int                    `json:"core_answered"`
	ExtendedAnswered int                    `json:"extended_answered"`
}

// ValidateState reports whether the claimed assessment state is internally
// consistent with the session phase. Claiming extended capabilities while
// the phase is still core is the canonical mismatch.
func (m *Manager) ValidateState(state AssessmentState) bool {
	m.mu.Lock()
	s := m.session
	m.mu.Unlock()

	if s == nil {
		return false
	}
	if state.Phase != s.Phase {
		return false
	}

	switch s.Phase {
	case assessment.PhaseCore:
		// Core sessions have no methodology yet and no extended progress.
		if state.Methodology != "" || state.ExtendedAnswered > 0 {
			return false
		}
		switch state.Step {
		case StepCoreQuestions:
			return true
		case StepFormatSelection:
			// Format selection only opens once the core questions are done.
			return state.CoreAnswered >= CoreQuestionCount
		default:
			return false
		}
	case assessment.PhaseExtended:
		if !state.Methodology.Valid() || state.Methodology != s.Methodology {
			return false
		}
		if state.CoreAnswered < CoreQuestionCount {
			return false
		}
		return state.Step == StepExtendedQuestions || state.Step == StepResults
	}
	return false
}
