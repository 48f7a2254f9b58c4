package sched

import (
	"github.com/z180kernel/core/internal/hal"
	"github.com/z180kernel/core/internal/ktask"
)

// Inspect maps tid's stack page into the scratch window, lets peek read it,
// and restores whatever was mapped there before returning. It is a
// diagnostic-only operation (spec.md names no such call) that exists to
// exercise the "map page, read, restore previous mapping" contract a real
// debugger or core-dump tool would use against hal.ScratchMapper, per
// SPEC_FULL.md §3. It returns ktask.ErrInvalid if tid is unknown or the
// scheduler has no scratch mapper configured.
func (s *Scheduler) Inspect(tid int32, peek func(hal.Page)) ktask.Errno {
	s.lock.start(harnessID)
	defer s.lock.end()

	if s.cfg.Scratch == nil {
		return ktask.ErrInvalid
	}
	t, ok := s.tasks[tid]
	if !ok {
		return ktask.ErrInvalid
	}
	previous := s.cfg.Scratch.Map(t.StackPage)
	if peek != nil {
		peek(t.StackPage)
	}
	s.cfg.Scratch.Map(previous)
	return ktask.OK
}
