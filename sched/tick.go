package sched

import "github.com/z180kernel/core/internal/ktask"

// OnTick is the periodic timer interrupt handler (spec.md §4.3): it first
// drains deferred SignalIRQ wakeups, then moves every thread whose wakeup
// deadline has passed onto its ready queue with ktask.ErrTimedOut, then
// dispatches the highest-priority ready thread. This ordering — irq_signaled
// before the sleep-heap drain — is mandated by spec.md §4.5/§5 and matches
// the original _thread_on_tick (thread.c: the irq_signaled broadcast runs
// before the sleep-heap loop). It runs on the driving harness's own
// goroutine (spec.md §8's deterministic test driver calls this directly
// instead of a real hardware timer firing asynchronously).
func (s *Scheduler) OnTick() {
	s.lock.start(harnessID)
	s.drainIRQSignaledLocked()
	now := s.tick.Now()
	for {
		t := s.sleep.PeekMin()
		if t == nil || t.Wakeup > now {
			break
		}
		s.sleep.PopMin()
		if t.QWait != nil {
			mask := s.EnterCritical()
			t.QWait.Remove(t)
			s.LeaveCritical(mask)
		}
		t.Wakeup = 0
		t.SetReturn(ktask.ErrTimedOut)
		s.makeReadyLocked(t)
	}
	s.dispatchPendingLocked()
}
