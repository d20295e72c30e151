package store

import (
	"sync"
	"time"
)

// tickClock hands out strictly increasing instants.
type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.t.IsZero() {
		c.t = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	}
	c.t = c.t.Add(time.Second)
	return c.t
}

// manualScheduler runs scheduled callbacks only when fired, so debounce
// behavior is testable without sleeping.
type manualScheduler struct {
	mu   sync.Mutex
	next int
	jobs map[int]scheduledJob
}

type scheduledJob struct {
	delay time.Duration
	fn    func()
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{jobs: map[int]scheduledJob{}}
}

func (s *manualScheduler) Schedule(delay time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.jobs[s.next] = scheduledJob{delay: delay, fn: fn}
	return s.next
}

func (s *manualScheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := h.(int)
	if !ok {
		return false
	}
	if _, exists := s.jobs[id]; !exists {
		return false
	}
	delete(s.jobs, id)
	return true
}

// Fire runs and clears every pending job.
func (s *manualScheduler) Fire() {
	s.mu.Lock()
	pending := make([]func(), 0, len(s.jobs))
	for _, j := range s.jobs {
		pending = append(pending, j.fn)
	}
	s.jobs = map[int]scheduledJob{}
	s.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// PendingDelays lists the quiet windows of scheduled jobs.
func (s *manualScheduler) PendingDelays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.delay)
	}
	return out
}
