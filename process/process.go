// Package process provides the minimal per-process collaborator spec.md §1
// item (e) names as external to the concurrency core: the live-thread count,
// the ghost list threads are moved onto at termination, and the reaper wait
// queue join() blocks on. It keeps no thread-id registry. Full process
// lifecycle (loading, address spaces, file descriptors) is out of scope
// (SPEC_FULL.md §5) — this type exists only far enough to let sched.Create,
// Kill, Join and the termination path exercise the per-process bookkeeping
// spec.md's thread operations describe.
package process

import "github.com/z180kernel/core/internal/ktask"

// Process is the minimal owning collaborator for a group of user threads.
type Process struct {
	PID int32

	// ThreadCount is the number of live (non-ghost) threads owned by this
	// process. It is scheduler-owned: mutated only under the scheduler lock.
	ThreadCount int

	// Ghosts holds terminated-but-unreaped threads belonging to this
	// process, the list join() searches by tid (spec.md §4.7).
	Ghosts ktask.List

	// Reaper is the wait queue join() blocks on until a matching ghost
	// appears.
	Reaper ktask.List

	// OnZombify is invoked when ThreadCount reaches zero (the original
	// firmware's zombify hand-off trigger --process->thread_no == 0). It is
	// optional; nil means "do nothing" (SPEC_FULL.md §4.2).
	OnZombify func(*Process)
}

// New creates a Process with the given id.
func New(pid int32) *Process {
	return &Process{PID: pid}
}

// OwnerID satisfies ktask.Owner.
func (p *Process) OwnerID() int32 {
	return p.PID
}

// addThread records a newly created thread. Callers must hold the
// scheduler lock.
func (p *Process) addThread() {
	p.ThreadCount++
}

// removeThread records a thread's termination and fires OnZombify if this
// was the last live thread in the process. Callers must hold the scheduler
// lock.
func (p *Process) removeThread() {
	p.ThreadCount--
	if p.ThreadCount == 0 && p.OnZombify != nil {
		p.OnZombify(p)
	}
}

// AddThread is the exported form of addThread, used by sched.Create.
func (p *Process) AddThread() { p.addThread() }

// RemoveThread is the exported form of removeThread, used by sched's
// termination path.
func (p *Process) RemoveThread() { p.removeThread() }

// FindGhost looks up a ghost by thread id, per join()'s lookup (spec.md
// §4.7). Returns nil if no matching ghost exists yet.
func (p *Process) FindGhost(tid int32) *ktask.Task {
	return p.Ghosts.Find(func(t *ktask.Task) bool { return t.ID == tid })
}
