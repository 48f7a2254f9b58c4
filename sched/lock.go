package sched

import (
	"sync/atomic"

	"github.com/z180kernel/core/internal/ktask"
)

// schedLock is the scheduler-critical-region lock of spec.md §4.2: distinct
// from interrupt masking (critical.go), held across the bookkeeping portion
// of every kernel operation (ready-queue and sleep-heap manipulation), and
// released before any blocking handoff. It is not reentrant — a thread
// calling start twice without an intervening end is a bug,
// asserted below rather than allowed to silently deadlock.
//
// TinyGo's internal/task already leans on sync/atomic for its own lock-free
// bookkeeping (task_threads.go's Futex); heldBy follows that idiom rather
// than introducing a second synchronization primitive.
type schedLock struct {
	mu     chanMutex
	heldBy atomic.Int32 // unheld when free; otherwise the holding task's ID.
}

// chanMutex is a plain binary semaphore built on a buffered channel. Unlike
// sync.Mutex it composes with the rest of this package's channel-based
// handoff idiom, and its non-reentrancy is exactly the property spec.md
// §4.2 calls for.
type chanMutex chan struct{}

func newChanMutex() chanMutex {
	c := make(chanMutex, 1)
	c <- struct{}{}
	return c
}

func (c chanMutex) lock()   { <-c }
func (c chanMutex) unlock() { c <- struct{}{} }

// unheld is the sentinel stored in heldBy when no task holds the lock. Real
// task IDs start at 1; the harness uses ID 0; -1 can never collide with
// either.
const unheld int32 = -1

func newSchedLock() schedLock {
	l := schedLock{mu: newChanMutex()}
	l.heldBy.Store(unheld)
	return l
}

// start acquires the lock on behalf of selfID, the calling task's ID (the
// harness uses ID 0). It panics if selfID already holds the lock.
func (l *schedLock) start(selfID int32) {
	if l.heldBy.Load() == selfID {
		ktask.Panic("sched: scheduler lock is not reentrant")
		return
	}
	l.mu.lock()
	l.heldBy.Store(selfID)
}

// end releases the lock. It panics if the lock is not currently held.
func (l *schedLock) end() {
	if l.heldBy.Load() == unheld {
		ktask.Panic("sched: scheduler lock released while not held")
		return
	}
	l.heldBy.Store(unheld)
	l.mu.unlock()
}
