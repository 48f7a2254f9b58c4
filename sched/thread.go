package sched

import (
	"runtime"

	"github.com/z180kernel/core/internal/hal"
	"github.com/z180kernel/core/internal/ktask"
	"github.com/z180kernel/core/process"
)

// newTaskLocked allocates a Task and its stack page, registers it in the
// task table, and starts its goroutine parked at the first line of runTask.
// It does not make the task ready or run it. Callers needing the lock must
// already hold it; it is also safe to call before Start (no goroutines are
// racing yet).
func (s *Scheduler) newTaskLocked(priority uint8, kernel bool, entry func(self *ktask.Task, arg any), arg any) *ktask.Task {
	id := s.nextID
	s.nextID++
	t := ktask.NewTask(id, priority, kernel, entry, arg)
	if s.cfg.Pages != nil {
		page, ok := s.cfg.Pages.Alloc(1)
		if !ok {
			s.nextID--
			return nil
		}
		t.StackPage = page
		if s.cfg.Scratch != nil {
			// Touch the scratch window the way the original firmware zeroes
			// a fresh stack page before first use, then restore whatever was
			// mapped there before: the scratch window is shared, so leaving
			// another page's mapping in place would be a use-after-restore
			// bug for whoever had it mapped before us.
			previous := s.cfg.Scratch.Map(page)
			s.cfg.Scratch.Map(previous)
		}
	}
	s.tasks[id] = t
	go s.runTask(t)
	return t
}

// Create allocates and starts a new user thread at the given priority,
// owned by owner (spec.md §4.7 create()). It returns ktask.ErrNoMemory if
// a stack page cannot be allocated, and ktask.ErrInvalid if the task table
// already holds MaxThreads entries.
//
// If the new thread's priority is strictly higher than the creating
// thread's, Create preempts immediately — the same "yield to whoever is now
// highest priority" rule every other kernel entry point follows.
func (s *Scheduler) Create(self *ktask.Task, priority uint8, owner *process.Process, entry func(self *ktask.Task, arg any), arg any) (*ktask.Task, ktask.Errno) {
	s.lock.start(self.ID)
	if len(s.tasks) >= s.cfg.MaxThreads {
		s.lock.end()
		return nil, ktask.ErrInvalid
	}
	t := s.newTaskLocked(priority, false, entry, arg)
	if t == nil {
		s.lock.end()
		return nil, ktask.ErrNoMemory
	}
	t.Owner = owner
	if owner != nil {
		owner.AddThread()
	}
	s.makeReadyLocked(t)
	if self.ID == harnessID {
		// Seeding threads from the harness (typically before Start) has no
		// running thread to preempt; Start/OnTick will dispatch whichever
		// thread is highest priority on their own next pass.
		s.lock.end()
		return t, ktask.OK
	}
	s.maybePreemptLocked(self)
	return t, ktask.OK
}

// Yield is the cooperative-preemption checkpoint (SPEC_FULL.md §6): user
// thread bodies call it at loop iterations where a hardware target would
// naturally take a timer interrupt. It gives the scheduler a chance to
// switch to a higher- or equal-priority ready thread and, if self has been
// marked for termination by Kill, terminates self instead of returning.
func (s *Scheduler) Yield(self *ktask.Task) {
	s.lock.start(self.ID)
	if self.Exit {
		s.lock.end()
		s.end(self)
		// end already handed the CPU to whoever is next; this goroutine's
		// logical thread is finished, so unwind it here rather than letting
		// it fall back into the entry function it was killed out of.
		runtime.Goexit()
	}
	s.makeReadyLocked(self)
	s.blockSelfLocked(self)
}

// end removes t from scheduling entirely: marks it Ghost, unlinks it from
// its process (if any), and hands control to whatever is next ready. It is
// called both by runTask when an entry function returns normally and by
// Yield when a killed thread notices its Exit flag.
func (s *Scheduler) end(t *ktask.Task) {
	s.lock.start(t.ID)
	t.State = ktask.Ghost
	if owner, ok := t.Owner.(*process.Process); ok && owner != nil {
		owner.RemoveThread()
		owner.Ghosts.PushBack(t)
		if !owner.Reaper.Empty() {
			// wakeLocked also extracts the waiter from the sleep heap: a
			// timed Join (waitUntil with timeout > 0) inserts itself there,
			// and waking it here rather than by its own deadline must not
			// leave a stale heap entry behind.
			s.wakeLocked(owner.Reaper.PopFront())
		}
	}
	if s.cfg.Pages != nil && t.StackPage != hal.NoPage {
		s.cfg.Pages.Free(t.StackPage, 1)
	}
	next := s.pickNextLocked()
	s.lock.end()
	s.switchTo(next)
	// This goroutine's runTask caller returns right after end(); it is never
	// resumed (a Ghost is not a scheduling entity), so no pause here.
}

// Kill requests termination of target (spec.md §4.7 kill()). Kernel threads
// may never be killed — the original firmware asserts this, so this
// package panics rather than silently ignoring it. Termination of a user
// thread is deferred: target notices Exit at its next Yield checkpoint (or
// the next time a wait it is blocked on returns), matching the cooperative
// model SPEC_FULL.md §6 documents.
func (s *Scheduler) Kill(self, target *ktask.Task) ktask.Errno {
	if target.Kernel {
		ktask.Panic("sched: Kill of a kernel thread")
		return ktask.ErrInvalid
	}
	s.lock.start(self.ID)
	defer s.lock.end()
	target.Exit = true
	return ktask.OK
}

// Join blocks self until target has terminated, then reaps it (spec.md
// §4.7 join(process, tid, timeout)). Reaping happens in two phases per
// SPEC_FULL.md §4: the ghost is unlinked from the process's ghost list
// under the scheduler lock, and stack-page reclamation already happened
// back in end(), outside any wait self might now take.
//
// timeout is in ticks; 0 means wait indefinitely (spec.md §5). If the
// deadline passes before a matching ghost appears, Join returns
// ktask.ErrTimedOut, matching the original's
// `_thread_wait_relative(&process->reaper, timeout)` (thread.c).
func (s *Scheduler) Join(self *ktask.Task, owner *process.Process, tid int32, timeout uint64) ktask.Errno {
	for {
		s.lock.start(self.ID)
		if g := owner.FindGhost(tid); g != nil {
			owner.Ghosts.Remove(g)
			delete(s.tasks, g.ID)
			s.lock.end()
			return ktask.OK
		}
		s.lock.end()
		if errno := s.waitUntil(self, &owner.Reaper, timeout); errno != ktask.OK {
			return errno
		}
	}
}

// JoinAll reaps every ghost currently on owner's ghost list (spec.md §4.7
// join_all()). It never blocks: threads of owner that are still live are
// left alone.
func (s *Scheduler) JoinAll(self *ktask.Task, owner *process.Process) ktask.Errno {
	s.lock.start(self.ID)
	for {
		g := owner.Ghosts.Front()
		if g == nil {
			break
		}
		owner.Ghosts.Remove(g)
		delete(s.tasks, g.ID)
	}
	s.lock.end()
	return ktask.OK
}
