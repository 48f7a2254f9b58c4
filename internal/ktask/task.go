// Package ktask holds the thread descriptor and the intrusive data
// structures the scheduler threads it into: the doubly linked ready/wait
// lists and the sleep-time min-heap. It mirrors the layering of TinyGo's
// internal/task package (queue.go, task_stack_*.go): low-level, dependency-
// free primitives that the scheduler package composes, not a scheduler
// itself.
package ktask

import "github.com/z180kernel/core/internal/hal"

// State is the thread's run state (spec.md §3's {READY, ACTIVE, SLEEP, GHOST}).
type State uint8

const (
	// Ready means the thread sits on a priority ready queue awaiting the CPU.
	Ready State = iota
	// Active means the thread is the unique currently-running thread.
	Active
	// Sleep means the thread is parked on a wait queue and/or the sleep heap.
	Sleep
	// Ghost means the thread has terminated but not yet been reaped.
	Ghost
)

func (s State) String() string {
	switch s {
	case Ready:
		return "READY"
	case Active:
		return "ACTIVE"
	case Sleep:
		return "SLEEP"
	case Ghost:
		return "GHOST"
	default:
		return "UNKNOWN"
	}
}

// Errno is the small-negative-integer error taxonomy from spec.md §7.
type Errno int8

const (
	// OK means no error.
	OK Errno = 0
	// ErrNoMemory means a page or descriptor allocation failed.
	ErrNoMemory Errno = -1
	// ErrInvalid means a bad argument (e.g. duplicate thread id).
	ErrInvalid Errno = -2
	// ErrTimedOut means a wait exceeded its deadline.
	ErrTimedOut Errno = -3
	// ErrWouldBlock means a non-blocking try-lock could not acquire.
	ErrWouldBlock Errno = -4
)

func (e Errno) Error() string {
	switch e {
	case OK:
		return "ok"
	case ErrNoMemory:
		return "no memory"
	case ErrInvalid:
		return "invalid argument"
	case ErrTimedOut:
		return "timed out"
	case ErrWouldBlock:
		return "would block"
	default:
		return "unknown kernel error"
	}
}

// Panic is how this module reports a broken invariant (a double-lock, a
// full sleep heap, a list corruption) rather than a recoverable error.
// It defaults to the builtin panic; the deterministic test harness
// overrides it so a broken-invariant test can assert on the message
// instead of crashing the test binary, mirroring how TinyGo's runtime
// routes fatal conditions through the single replaceable runtimePanic.
var Panic = func(msg string) { panic(msg) }

// Owner is the minimal per-process collaborator a Task can belong to
// (spec.md §1 item (e), the "per-process storage area"). It is satisfied by
// *process.Process; kept as an interface here so ktask does not import the
// process package (avoiding an import cycle, and keeping ktask dependency-
// free the way TinyGo's internal/task is).
type Owner interface {
	OwnerID() int32
}

// Task is the thread descriptor (spec.md §3's "Thread descriptor").
//
// ID, Priority, Entry and Arg are set once at creation and never mutated.
// State, Wakeup, QWait, QNext, QPrev and Exit are scheduler-owned fields:
// every read or write of them outside the owning Task's own goroutine must
// happen under the scheduler lock.
type Task struct {
	ID       int32
	Priority uint8
	Kernel   bool // true for kernel threads: immortal, never reaped.
	Entry    func(self *Task, arg any)
	Arg      any

	State  State
	Wakeup uint64 // absolute wakeup tick; 0 means "no timed wait".
	Exit   bool   // deferred termination request (spec.md §4.7 end()).
	Owner  Owner  // nil for kernel threads.

	// QWait is the wait list this task is parked on, or nil. It is the
	// generalization of spec.md's qwait back-reference: a task on a plain
	// ready queue has QWait == nil even though it is also linked via
	// QNext/QPrev into that ready queue's List.
	QWait *List

	// QNext/QPrev are the intrusive doubly linked list pointers. A task is
	// a member of at most one List at a time (ready queue, wait queue, or
	// ghost list) per spec.md §3's "never two at once" invariant.
	QNext, QPrev *Task

	// heapIndex is maintained by container/heap; -1 means "not in the heap".
	heapIndex int

	// StackPage and ContextPtr exist to satisfy the data-model contract of
	// spec.md §3 against the injected hal collaborators; the goroutine
	// backing this Task holds its own real stack, so nothing in the
	// scheduler dereferences these for control flow (see SPEC_FULL.md §6).
	StackPage  hal.Page
	ContextPtr uintptr

	retval int8 // value this task's own wait/sleep call returns, set via SetReturn.

	resumeCh chan struct{} // unbuffered: scheduler wakes this task by sending.
}

// NewTask allocates a Task with its resume channel ready. Scheduler-owned
// fields are left at their zero value; the scheduler sets them during
// Create.
func NewTask(id int32, priority uint8, kernel bool, entry func(self *Task, arg any), arg any) *Task {
	return &Task{
		ID:        id,
		Priority:  priority,
		Kernel:    kernel,
		Entry:     entry,
		Arg:       arg,
		heapIndex: -1,
		resumeCh:  make(chan struct{}),
	}
}

// SetReturn stores the value this task's next yield/wait call will return,
// mirroring _thread_set_return writing into the sleeping thread's saved
// context (spec.md §4.4). Must be called under the scheduler lock, either by
// a waker on a sleeping task or by a task on itself just before it blocks.
func (t *Task) SetReturn(v Errno) {
	t.retval = int8(v)
}

// Return reads back the value stored by SetReturn (defaults to OK/0, which
// is how a plain signal wakeup is distinguished from a timeout).
func (t *Task) Return() Errno {
	return Errno(t.retval)
}

// ResumeChan exposes the unbuffered handoff channel to the scheduler
// package's dispatch logic. It is not intended for any other caller.
func (t *Task) ResumeChan() chan struct{} {
	return t.resumeCh
}

// HeapIndex and SetHeapIndex satisfy the bookkeeping container/heap needs
// to support O(log n) extraction by identity (sleep heap entries can be
// removed before they reach the top, e.g. when a bounded wait is satisfied
// by signal rather than timeout).
func (t *Task) HeapIndex() int        { return t.heapIndex }
func (t *Task) SetHeapIndex(i int)    { t.heapIndex = i }
func (t *Task) InHeap() bool          { return t.heapIndex >= 0 }
