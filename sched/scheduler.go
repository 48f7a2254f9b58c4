// Package sched is the concurrency core: a fixed-priority preemptive
// scheduler, its wait/signal primitives, a FIFO-fair mutex, and thread
// lifecycle management, built on the ktask and hal packages. It is the Go
// counterpart of TinyGo's runtime/scheduler_*.go + internal/task pairing,
// generalized from "goroutines scheduling Go code" to "kernel threads
// scheduling arbitrary entry functions" per SPEC_FULL.md.
package sched

import (
	"fmt"

	"github.com/z180kernel/core/internal/hal"
	"github.com/z180kernel/core/internal/ktask"
)

// traceScheduler enables verbose dispatch logging, in the same spirit as
// internal/task's own `const verbose = false` — a compile-time constant
// flipped by hand while debugging, not a runtime flag.
const traceScheduler = false

// harnessID is the pseudo task ID reserved for the driving harness (spec.md
// §8's deterministic test driver), never assigned to a real thread.
const harnessID int32 = 0

// Config configures a new Scheduler.
type Config struct {
	// Priorities is the number of distinct priority levels, numbered
	// 0 (lowest) to Priorities-1 (highest). Must be >= 1.
	Priorities int

	// MaxThreads bounds both live thread descriptors and sleep-heap
	// capacity (spec.md's THREAD_COUNT_MAX).
	MaxThreads int

	Tick       hal.TickSource
	Pages      hal.PageAllocator
	Scratch    hal.ScratchMapper
	Interrupts hal.InterruptController
	Halt       hal.Halt
}

// Scheduler is the fixed-priority preemptive scheduler (spec.md §2 items
// 1-5). The zero value is not usable; construct with New.
type Scheduler struct {
	cfg  Config
	lock schedLock

	ready       []ktask.List // ready[p] is the FIFO of priority p.
	sleep       *ktask.SleepHeap
	irqSignaled ktask.List // deferred wakeups from _signal_irq, drained at the next tick.

	tasks  map[int32]*ktask.Task
	nextID int32

	current *ktask.Task
	idle    *ktask.Task
	harness *ktask.Task // pseudo task representing the external driver.

	tick    hal.TickSource
	irq     hal.InterruptController
	scratch hal.ScratchMapper
	halt    hal.Halt
}

// New constructs a Scheduler from cfg, creating (but not starting) the idle
// thread. Call Start to boot it.
func New(cfg Config) *Scheduler {
	if cfg.Priorities < 1 {
		cfg.Priorities = 1
	}
	if cfg.Halt == nil {
		cfg.Halt = hal.NoopHalt
	}
	s := &Scheduler{
		cfg:    cfg,
		lock:   newSchedLock(),
		ready:  make([]ktask.List, cfg.Priorities),
		sleep:  ktask.NewSleepHeap(cfg.MaxThreads),
		tasks:  make(map[int32]*ktask.Task),
		nextID: 1,
		tick:    cfg.Tick,
		irq:     cfg.Interrupts,
		scratch: cfg.Scratch,
		halt:    cfg.Halt,
	}
	s.harness = ktask.NewTask(harnessID, 0, true, nil, nil)
	s.idle = s.newTaskLocked(0, true, s.idleLoop, nil)
	return s
}

// idleLoop is the body of the idle thread (spec.md §4.4): when it is
// dispatched it means no real thread is ready, so it hands control straight
// back to the harness, modeling "halt until interrupt" under a driver that
// injects the next interrupt explicitly (spec.md §8).
func (s *Scheduler) idleLoop(*ktask.Task, any) {
	for {
		s.halt()
		s.lock.start(s.idle.ID)
		next := s.harness
		s.lock.end()
		s.switchTo(next)
		s.pause(s.idle)
	}
}

// Start boots the scheduler: it dispatches the highest-priority ready
// thread (or idle, if none was created) and blocks the calling goroutine
// (the harness) until control returns to it. The idle thread's goroutine is
// already running (parked) by the time New returns, so Start only needs to
// perform the first handoff.
func (s *Scheduler) Start() {
	s.lock.start(harnessID)
	next := s.pickNextLocked()
	s.lock.end()
	s.switchTo(next)
	s.pause(s.harness)
}

// Dispatch hands the CPU to the highest-priority ready thread, if any, and
// returns once control comes back to the harness. Call it after creating
// threads from outside any running thread (e.g. seeding a scenario before
// Start, or in response to an external event the tick/IRQ paths don't
// already cover) to let the scheduler act on newly ready work.
func (s *Scheduler) Dispatch() {
	s.lock.start(harnessID)
	s.dispatchPendingLocked()
}

// runTask is the goroutine body for every kernel thread: park until first
// dispatched, run its entry function to completion, then terminate it.
func (s *Scheduler) runTask(t *ktask.Task) {
	<-t.ResumeChan()
	t.Entry(t, t.Arg)
	s.end(t)
}

// switchTo makes next the current task and wakes its goroutine. The
// previous current is left for the caller to park with pause.
func (s *Scheduler) switchTo(next *ktask.Task) {
	if traceScheduler {
		println("sched: switch ->", next.ID)
	}
	next.State = ktask.Active
	s.current = next
	next.ResumeChan() <- struct{}{}
}

// pause blocks self's goroutine until another call to switchTo names it.
func (s *Scheduler) pause(self *ktask.Task) {
	<-self.ResumeChan()
}

// pickNextLocked returns the highest-priority non-empty ready queue's head,
// or idle if every queue is empty. Must be called with the lock held.
func (s *Scheduler) pickNextLocked() *ktask.Task {
	for p := len(s.ready) - 1; p >= 0; p-- {
		if t := s.ready[p].Front(); t != nil {
			s.ready[p].Remove(t)
			return t
		}
	}
	return s.idle
}

// makeReadyLocked moves t onto its priority's ready queue. Must be called
// with the lock held, and t must not currently be linked into any list.
func (s *Scheduler) makeReadyLocked(t *ktask.Task) {
	t.State = ktask.Ready
	s.ready[t.Priority].PushBack(t)
	t.QWait = nil // a ready queue is not a wait queue (see ktask.Task.QWait)
}

// peekHighestLocked returns the head of the highest-priority non-empty
// ready queue without removing it, or nil if every queue is empty.
func (s *Scheduler) peekHighestLocked() *ktask.Task {
	for p := len(s.ready) - 1; p >= 0; p-- {
		if t := s.ready[p].Front(); t != nil {
			return t
		}
	}
	return nil
}

// blockSelfLocked unconditionally gives up the CPU on self's behalf: self
// has already been removed from every queue by the caller (it is blocked,
// has terminated, or is the harness with nothing of its own to run), so
// whatever is picked next always takes over, falling back to idle if no
// thread is ready. Must be called with the lock held; it releases the lock
// before the blocking handoff and blocks self until control returns.
func (s *Scheduler) blockSelfLocked(self *ktask.Task) {
	next := s.pickNextLocked()
	s.lock.end()
	if next == self {
		// self was the only ready thread (e.g. Yield with no contenders at
		// its priority): it keeps the CPU, and the channel handoff that
		// would otherwise deadlock (sender and receiver being the same
		// goroutine) is skipped entirely.
		next.State = ktask.Active
		s.current = next
		return
	}
	s.switchTo(next)
	s.pause(self)
}

// maybePreemptLocked checks whether a strictly higher-priority thread is
// now ready than self, and if so preempts: self is pushed back onto its own
// ready queue and the higher-priority thread takes the CPU. If not, self
// simply keeps running (spec.md §4.4's strict-priority rule: a thread is
// preempted only by one of strictly higher priority, never by an equal or
// lower one). Must be called with the lock held; the lock is always
// released by the time this returns.
func (s *Scheduler) maybePreemptLocked(self *ktask.Task) {
	next := s.peekHighestLocked()
	if next == nil || next.Priority <= self.Priority {
		s.lock.end()
		return
	}
	s.ready[next.Priority].Remove(next)
	s.makeReadyLocked(self)
	s.lock.end()
	s.switchTo(next)
	s.pause(self)
}

// dispatchPendingLocked hands the CPU to the highest-priority ready thread,
// if any, and blocks the harness until control returns. It is a no-op (the
// lock is still released) when no thread is ready. Used by OnTick and the
// IRQ-injection entry points, which run on the harness's own goroutine and
// have no "self priority" to compare against.
func (s *Scheduler) dispatchPendingLocked() {
	next := s.peekHighestLocked()
	if next == nil {
		s.lock.end()
		return
	}
	s.ready[next.Priority].Remove(next)
	s.lock.end()
	s.switchTo(next)
	s.pause(s.harness)
}

// Harness returns the pseudo task representing the external driver (the
// caller of Start/OnTick/Dispatch/SignalFromHarness itself). Pass it as the
// self argument to Create when seeding threads before the scheduler has been
// started, from outside any running kernel thread.
func (s *Scheduler) Harness() *ktask.Task {
	return s.harness
}

// Tracef prints a formatted scheduler trace line when traceScheduler is
// enabled; with the constant false it prints nothing.
func Tracef(format string, args ...any) {
	if traceScheduler {
		fmt.Printf(format, args...)
	}
}
