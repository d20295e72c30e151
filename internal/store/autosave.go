package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mindtype-hq/mindtype/internal/assessment"
	"github.com/mindtype-hq/mindtype/internal/session"
)

// Handle identifies a scheduled callback.
type Handle interface{}

// Scheduler abstracts delayed execution so debounce logic is testable
// without wall-clock waits.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Handle
	Cancel(h Handle) bool
}

// TimerScheduler is the production Scheduler backed by time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(delay time.Duration, fn func()) Handle {
	return time.AfterFunc(delay, fn)
}

func (TimerScheduler) Cancel(h Handle) bool {
	timer, ok := h.(*time.Timer)
	if !ok {
		return false
	}
	return timer.Stop()
}

// Debounce windows per methodology. The sais format fires a state change on
// every point-allocation click, so its window is much shorter: batching
// still collapses bursts while keeping the loss exposure under a second.
const (
	DefaultDebounce = 1 * time.Second
	SAISDebounce    = 250 * time.Millisecond
)

// SaveFunc persists a session snapshot.
type SaveFunc func(ctx context.Context, s *session.Session) error

// Autosaver coalesces rapid state changes into a single save of the most
// recent complete snapshot after a quiet period. Last writer wins.
type Autosaver struct {
	mu      sync.Mutex
	sched   Scheduler
	save    SaveFunc
	logger  *zap.Logger
	pending *session.Session
	handle  Handle
}

func NewAutosaver(sched Scheduler, save SaveFunc, logger *zap.Logger) *Autosaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Autosaver{sched: sched, save: save, logger: logger}
}

// Notify records a changed session snapshot and (re)arms the debounce
// timer. Each call replaces the pending snapshot and pushes the flush out
// by the session's quiet window.
func (a *Autosaver) Notify(s *session.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending = s
	if a.handle != nil {
		a.sched.Cancel(a.handle)
	}
	a.handle = a.sched.Schedule(debounceFor(s), func() { a.flush() })
}

// Flush saves any pending snapshot immediately, cancelling the timer.
func (a *Autosaver) Flush() {
	a.mu.Lock()
	if a.handle != nil {
		a.sched.Cancel(a.handle)
		a.handle = nil
	}
	a.mu.Unlock()
	a.flush()
}

func (a *Autosaver) flush() {
	a.mu.Lock()
	s := a.pending
	a.pending = nil
	a.handle = nil
	a.mu.Unlock()

	if s == nil {
		return
	}
	if err := a.save(context.Background(), s); err != nil {
		// Storage failures stay silent; the next state change retries.
		a.logger.Warn("autosave failed", zap.String("session_id", s.ID), zap.Error(err))
		return
	}
	a.logger.Debug("autosaved session", zap.String("session_id", s.ID))
}

func debounceFor(s *session.Session) time.Duration {
	if s != nil && s.Methodology == assessment.MethodologySAIS {
		return SAISDebounce
	}
	return DefaultDebounce
}
