package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindtype-hq/mindtype/internal/assessment"
)

var (
	// ErrNoSession is returned by operations that need a current session.
	ErrNoSession = errors.New("no active session")
	// ErrSessionMismatch is returned when an operation names a different
	// session than the one the manager holds.
	ErrSessionMismatch = errors.New("session id mismatch")
	// ErrAlreadyExtended guards the one-way core->extended transition.
	ErrAlreadyExtended = errors.New("session already in extended phase")
)

// Manager drives one session through its lifecycle. It is safe for
// concurrent use, though a session has a single logical user; the clock is
// injected so tests never wait on wall time.
type Manager struct {
	mu      sync.Mutex
	now     func() time.Time
	session *Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock substitutes the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Initialize starts a fresh core-phase session. An empty id gets a generated
// one. Any previously held session is discarded.
func (m *Manager) Initialize(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	now := m.now()
	m.session = &Session{
		ID:           id,
		Phase:        assessment.PhaseCore,
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(timeoutFor(assessment.PhaseCore)),
	}
	return m.snapshotLocked()
}

// Adopt installs a recovered session as current.
func (m *Manager) Adopt(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == nil {
		m.session = nil
		return
	}
	cp := *s
	cp.Responses = append([]assessment.Response(nil), s.Responses...)
	m.session = &cp
}

// Current returns a copy of the held session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Clear drops the held session.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
}

// TransitionToExtended moves the session into the extended phase, stamping
// the transition instant and resetting the expiry window to the extended
// timeout measured from now, not from creation. The transition is one-way.
func (m *Manager) TransitionToExtended(id string, methodology assessment.Methodology) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil, ErrNoSession
	}
	if id != "" && id != m.session.ID {
		return nil, fmt.Errorf("%w: have %s, got %s", ErrSessionMismatch, m.session.ID, id)
	}
	if m.session.Phase == assessment.PhaseExtended {
		return nil, ErrAlreadyExtended
	}
	if !methodology.Valid() {
		return nil, fmt.Errorf("invalid methodology %q", string(methodology))
	}

	now := m.now()
	m.session.Phase = assessment.PhaseExtended
	m.session.Methodology = methodology
	m.session.ExtendedPhaseStartedAt = &now
	m.session.LastActiveAt = now
	m.session.ExpiresAt = now.Add(ExtendedTimeout)
	return m.snapshotLocked(), nil
}

// UpdateActivity records client activity. Extended-phase sessions that were
// active within ActivityWindow slide their expiry to now + ExtendedTimeout;
// core sessions never auto-extend. Expired sessions are left untouched so
// expiry stays observable.
func (m *Manager) UpdateActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	if s == nil {
		return
	}
	now := m.now()
	if Expired(s, now) {
		return
	}
	if s.Phase == assessment.PhaseExtended && now.Sub(s.LastActiveAt) <= ActivityWindow {
		s.ExpiresAt = now.Add(ExtendedTimeout)
	}
	s.LastActiveAt = now
}

// RecordResponse upserts a response into the session and bumps the phase
// progress counters. Re-answering a question replaces the earlier response.
func (m *Manager) RecordResponse(r assessment.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	if s == nil {
		return ErrNoSession
	}
	if r.SessionID != "" && r.SessionID != s.ID {
		return fmt.Errorf("%w: have %s, got %s", ErrSessionMismatch, s.ID, r.SessionID)
	}

	replaced := false
	for i := range s.Responses {
		if s.Responses[i].QuestionID == r.QuestionID {
			s.Responses[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		s.Responses = append(s.Responses, r)
	}

	s.CoreAnswered, s.ExtendedAnswered = 0, 0
	for _, resp := range s.Responses {
		if resp.QuestionType == assessment.PhaseExtended {
			s.ExtendedAnswered++
		} else {
			s.CoreAnswered++
		}
	}
	return nil
}

// IsExpired evaluates the expiration predicate against the current clock.
// No session means expired.
func (m *Manager) IsExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Expired(m.session, m.now())
}

// TimeRemaining reports how long until expiry, floored at zero.
func (m *Manager) TimeRemaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return 0
	}
	remaining := m.session.ExpiresAt.Sub(m.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Summary renders a one-line human-readable state, derived on demand.
func (m *Manager) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	if s == nil {
		return "no session"
	}
	now := m.now()
	if Expired(s, now) {
		return fmt.Sprintf("session %s (%s phase) expired %s ago",
			s.ID, s.Phase, now.Sub(s.ExpiresAt).Round(time.Second))
	}
	return fmt.Sprintf("session %s (%s phase) expires in %s",
		s.ID, s.Phase, s.ExpiresAt.Sub(now).Round(time.Second))
}

func (m *Manager) snapshotLocked() *Session {
	if m.session == nil {
		return nil
	}
	cp := *m.session
	cp.Responses = append([]assessment.Response(nil), m.session.Responses...)
	return &cp
}
