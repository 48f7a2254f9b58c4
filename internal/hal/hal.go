// Package hal declares the hardware/collaborator boundary spec.md §1 and §6
// name as external to the concurrency core: a tick source, a physical page
// allocator, a scratch-window mapper, an interrupt mask, and a halt
// instruction. None of these are implemented against real hardware here —
// that firmware (boot loader, MMU driver, page allocator) is explicitly out
// of scope (spec.md §1) — but each interface is wired to a small, real
// in-memory collaborator (sim.go) so the core's contract with them is
// actually exercised, per SPEC_FULL.md §3.
package hal

// Page is the physical page number returned by a PageAllocator, matching
// spec.md's "8-bit page number".
type Page uint8

// NoPage is the invalid/absent page sentinel.
const NoPage Page = 0

// TickSource reads the millisecond-resolution monotonic tick spec.md §1
// item (a) names as the core's sole time collaborator.
type TickSource interface {
	Now() uint64
}

// PageAllocator is spec.md §1 item (b): allocate/free physical pages.
type PageAllocator interface {
	Alloc(n int) (Page, bool)
	Free(p Page, n int)
}

// ScratchMapper is spec.md §1 item (c): map an arbitrary physical page into
// the fixed scratch virtual window, returning the page that was previously
// mapped there (so the caller can restore it).
type ScratchMapper interface {
	Map(p Page) (previous Page)
}

// InterruptController is spec.md §1 item (d): enable/disable interrupts.
// State is opaque to callers — it is only ever passed back to Restore.
type InterruptController interface {
	Disable() State
	Restore(State)
}

// State is the opaque interrupt mask snapshot returned by Disable.
type State uint32

// Halt executes the halt-until-interrupt instruction spec.md §4.4's idle
// thread loops on. The default implementation is a no-op (see sim.go);
// a real target would block the CPU until the next interrupt fires.
type Halt func()
