package sched

import "github.com/z180kernel/core/internal/ktask"

// Mutex is the FIFO-fair mutex of spec.md §4.6: built directly on a wait
// queue, with no owner tracking, no recursion, and no priority inheritance.
// Handoff is direct — Unlock passes ownership straight to the longest-
// waiting blocked thread rather than clearing the lock and letting threads
// race for it, which is what makes it FIFO-fair instead of just "eventually
// fair".
type Mutex struct {
	locked bool
	waitQ  ktask.List
}

// TryLock attempts to acquire m without blocking. It returns ktask.OK on
// success and ktask.ErrWouldBlock if m is already held.
func (s *Scheduler) TryLock(self *ktask.Task, m *Mutex) ktask.Errno {
	s.lock.start(self.ID)
	defer s.lock.end()
	if m.locked {
		return ktask.ErrWouldBlock
	}
	m.locked = true
	return ktask.OK
}

// Lock acquires m, blocking self if it is already held (spec.md §4.6).
func (s *Scheduler) Lock(self *ktask.Task, m *Mutex) {
	s.lock.start(self.ID)
	if !m.locked {
		m.locked = true
		s.lock.end()
		return
	}
	self.SetReturn(ktask.OK)
	m.waitQ.PushBack(self)
	self.State = ktask.Sleep
	s.blockSelfLocked(self)
}

// Unlock releases m (spec.md §4.6). If another thread is waiting, ownership
// passes directly to the longest-waiting one — m.locked stays true and that
// thread is simply made ready, so no third thread can slip in between the
// release and the handoff.
func (s *Scheduler) Unlock(self *ktask.Task, m *Mutex) {
	s.lock.start(self.ID)
	next := m.waitQ.PopFront()
	if next == nil {
		m.locked = false
		s.lock.end()
		return
	}
	next.SetReturn(ktask.OK)
	s.makeReadyLocked(next)
	s.maybePreemptLocked(self)
}
