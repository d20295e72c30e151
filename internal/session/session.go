// Package session tracks assessment sessions through their two-phase
// lifecycle: a short core phase (the four foundational questions) and a long
// extended phase entered once a methodology has been chosen. Expiration is a
// computed predicate against the clock, never a stored flag.
package session

import (
	"time"

	"github.com/mindtype-hq/mindtype/internal/assessment"
)

const (
	// CoreTimeout bounds a session that has not yet picked a methodology.
	CoreTimeout = 3 * time.Hour
	// ExtendedTimeout applies from the core->extended transition onward.
	ExtendedTimeout = 48 * time.Hour
	// ActivityWindow is the recency window within which extended-phase
	// activity slides the expiry forward.
	ActivityWindow = 5 * time.Minute

	// CoreQuestionCount is the size of the core phase.
	CoreQuestionCount = 4
)

// Session is the unit of persistence and expiration. Responses belong to it
// and die with it. The whole struct round-trips through JSON unchanged apart
// from timestamp serialization.
type Session struct {
	ID          string                 `json:"session_id"`
	Phase       assessment.Phase       `json:"phase"`
	Methodology assessment.Methodology `json:"methodology,omitempty"`

	CreatedAt              time.Time  `json:"created_at"`
	LastActiveAt           time.Time  `json:"last_active_at"`
	ExpiresAt              time.Time  `json:"expires_at"`
	ExtendedPhaseStartedAt *time.Time `json:"extended_phase_started_at,omitempty"`

	CoreAnswered     int `json:"core_answered"`
	ExtendedAnswered int `json:"extended_answered"`

	Responses []assessment.Response `json:"responses"`
}

func timeoutFor(phase assessment.Phase) time.Duration {
	if phase == assessment.PhaseExtended {
		return ExtendedTimeout
	}
	return CoreTimeout
}

// Expired is the pure expiration predicate. A nil session counts as expired:
// absent state is treated as gone, not unknown.
func Expired(s *Session, now time.Time) bool {
	if s == nil {
		return true
	}
	return now.After(s.ExpiresAt)
}
