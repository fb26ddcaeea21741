package core

import (
	"sync"
	"time"
)

// scheduler owns the deferred resolution tasks the engine schedules for
// staking intents. Each task is addressable by intent ID so it can be
// cancelled before it fires. The task body must re-validate state at fire
// time; the handle only guarantees the body never runs after cancel or stop
// returns it was removed.
type scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func newScheduler() *scheduler {
	return &scheduler{timers: make(map[string]*time.Timer)}
}

// schedule runs fn after delay, keyed by id. A zero delay runs fn
// synchronously. Scheduling after stop is a no-op.
func (s *scheduler) schedule(id string, delay time.Duration, fn func()) {
	if delay <= 0 {
		fn()
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		fn()
	})
	s.mu.Unlock()
}

// cancel removes a scheduled task. It reports whether a task was pending.
func (s *scheduler) cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer, ok := s.timers[id]
	if !ok {
		return false
	}
	delete(s.timers, id)
	return timer.Stop()
}

// stop cancels every outstanding task and rejects further scheduling.
func (s *scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
