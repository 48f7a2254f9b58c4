package sched

import (
	"runtime"

	"github.com/z180kernel/core/internal/ktask"
)

// Wait blocks self on q indefinitely (spec.md §4.5's _wait with no
// timeout). It returns ktask.OK once woken by Signal or Broadcast.
func (s *Scheduler) Wait(self *ktask.Task, q *ktask.List) ktask.Errno {
	return s.waitUntil(self, q, 0)
}

// WaitTimeout blocks self on q until woken or until ticks pass, whichever
// comes first (spec.md §4.5's _wait_relative). It returns ktask.ErrTimedOut
// if the deadline is reached before a wakeup, and ktask.OK otherwise. A
// signal that arrives in the same tick as the deadline wins the race —
// whichever of Signal/OnTick reaches the waiter first removes it from both
// the wait queue and the sleep heap.
func (s *Scheduler) WaitTimeout(self *ktask.Task, q *ktask.List, ticks uint64) ktask.Errno {
	if ticks == 0 {
		return s.Wait(self, q)
	}
	return s.waitUntil(self, q, ticks)
}

func (s *Scheduler) waitUntil(self *ktask.Task, q *ktask.List, ticks uint64) ktask.Errno {
	s.lock.start(self.ID)
	self.SetReturn(ktask.OK)
	// The enqueue itself is additionally interrupt-masked, not just
	// scheduler-locked: q is the same list SignalIRQ's producer side
	// touches without taking the scheduler lock (spec.md §4.5), so the
	// splice has to be safe against a concurrent interrupt too.
	mask := s.EnterCritical()
	q.PushBack(self)
	s.LeaveCritical(mask)
	self.State = ktask.Sleep
	if ticks > 0 {
		self.Wakeup = s.tick.Now() + ticks
		s.sleep.Insert(self)
	}
	s.blockSelfLocked(self)
	if self.Exit {
		// Killed while blocked: terminate here, as Yield does.
		s.end(self)
		runtime.Goexit()
	}
	return self.Return()
}

// Signal wakes the single longest-waiting thread on q, if any, and gives it
// the scheduler a chance to preempt self (spec.md §4.5's _signal). It is a
// no-op if q is empty.
func (s *Scheduler) Signal(self *ktask.Task, q *ktask.List) {
	s.lock.start(self.ID)
	mask := s.EnterCritical()
	t := q.PopFront()
	s.LeaveCritical(mask)
	if t == nil {
		s.lock.end()
		return
	}
	s.wakeLocked(t)
	s.maybePreemptLocked(self)
}

// Broadcast wakes every thread currently waiting on q (spec.md §4.5's
// _broadcast).
func (s *Scheduler) Broadcast(self *ktask.Task, q *ktask.List) {
	s.lock.start(self.ID)
	for {
		mask := s.EnterCritical()
		t := q.PopFront()
		s.LeaveCritical(mask)
		if t == nil {
			break
		}
		s.wakeLocked(t)
	}
	s.maybePreemptLocked(self)
}

// SignalFromHarness lets the driving harness wake a waiter on q directly,
// for scenarios where the stimulus originates outside any thread (spec.md
// §8's externally injected events) rather than from another running
// thread. Unlike Signal, there is no "self" thread to possibly preempt —
// dispatch simply picks up whatever is now highest priority, exactly like
// OnTick does after processing timeouts.
func (s *Scheduler) SignalFromHarness(q *ktask.List) {
	s.lock.start(harnessID)
	mask := s.EnterCritical()
	t := q.PopFront()
	s.LeaveCritical(mask)
	if t == nil {
		s.lock.end()
		return
	}
	s.wakeLocked(t)
	s.dispatchPendingLocked()
}

// wakeLocked removes t from the sleep heap (if it was there for a bounded
// wait) and moves it onto its ready queue with an OK return value. Must be
// called with the lock held.
func (s *Scheduler) wakeLocked(t *ktask.Task) {
	s.sleep.ExtractByIdentity(t)
	t.Wakeup = 0
	t.SetReturn(ktask.OK)
	s.makeReadyLocked(t)
}

// SignalIRQ is the interrupt-context form of Broadcast (spec.md §4.5's
// _signal_irq): it may be called from within EnterCritical/LeaveCritical
// where taking the full scheduler lock would be unsafe, so it only ever
// unlinks every waiter from q and defers their ready-queue move to the next
// OnTick, via irqSignaled — removing every waiter from q, not just the
// first, matching the original _thread_signal_irq's `while (*queue != NULL)`
// drain (thread.c).
func (s *Scheduler) SignalIRQ(q *ktask.List) {
	mask := s.EnterCritical()
	for {
		t := q.PopFront()
		if t == nil {
			break
		}
		s.irqSignaled.PushBack(t)
	}
	s.LeaveCritical(mask)
}

// drainIRQSignaledLocked moves every task queued by SignalIRQ onto its
// ready queue. Must be called with the lock held; called once per OnTick.
// irqSignaled is itself also interrupt-masked on this side, since SignalIRQ
// can append to it without ever taking the scheduler lock.
func (s *Scheduler) drainIRQSignaledLocked() {
	for {
		mask := s.EnterCritical()
		t := s.irqSignaled.PopFront()
		s.LeaveCritical(mask)
		if t == nil {
			return
		}
		s.wakeLocked(t)
	}
}
