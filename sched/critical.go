package sched

import "github.com/z180kernel/core/internal/hal"

// EnterCritical disables interrupts and returns the previous mask. It is the
// short, bounded primitive used to protect the handful of field reads and
// writes that must be atomic with respect to an interrupt handler (spec.md
// §4.1) — never the scheduler lock itself, and never held across a blocking
// call.
func (s *Scheduler) EnterCritical() hal.State {
	return s.irq.Disable()
}

// LeaveCritical restores the interrupt mask saved by a matching EnterCritical.
func (s *Scheduler) LeaveCritical(prev hal.State) {
	s.irq.Restore(prev)
}
