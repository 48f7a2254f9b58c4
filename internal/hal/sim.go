package hal

import "sync"

// ManualClock is a TickSource the test/demo harness advances explicitly,
// grounded on scheduler_cores.go's ticks()/timeUnit reads — here made an
// injectable value instead of a //go:linkname'd board-specific function,
// per spec.md §9's note to "pass a scheduler handle explicitly" rather than
// spread state across linked globals.
type ManualClock struct {
	mu  sync.Mutex
	now uint64
}

// Now returns the current simulated tick count.
func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the simulated clock forward by n ticks and returns the new
// value. The scheduler never calls this itself — only the driving harness
// does, consistent with spec.md §8's "simulation that can drive ticks... at
// will".
func (c *ManualClock) Advance(n uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += n
	return c.now
}

// BitmapPageAllocator is a 256-entry bitmap standing in for the real
// physical page allocator (out of scope per spec.md §1), sufficient to
// exercise sched.Create's -NO_MEMORY rollback path.
type BitmapPageAllocator struct {
	mu   sync.Mutex
	used [256]bool
}

// Alloc reserves n contiguous pages starting search from page 1 (page 0 is
// reserved as NoPage) and returns the first one. Only n==1 is supported —
// the core only ever allocates single stack pages (spec.md §4.7).
func (a *BitmapPageAllocator) Alloc(n int) (Page, bool) {
	if n != 1 {
		return NoPage, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 1; i < len(a.used); i++ {
		if !a.used[i] {
			a.used[i] = true
			return Page(i), true
		}
	}
	return NoPage, false
}

// Free releases n pages starting at p.
func (a *BitmapPageAllocator) Free(p Page, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i < n; i++ {
		idx := int(p) + i
		if idx <= 0 || idx >= len(a.used) {
			continue
		}
		a.used[idx] = false
	}
}

// Exhaust marks every page used, for testing the -NO_MEMORY path.
func (a *BitmapPageAllocator) Exhaust() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.used {
		a.used[i] = true
	}
}

// IdentityScratchMapper is the flat-address degenerate case spec.md §9
// describes: "scratch_map(page) becomes identity". It still tracks what is
// "mapped" so Scheduler.Inspect can demonstrate the map/restore contract
// from spec.md §5's shared-resource policy without a real MMU.
type IdentityScratchMapper struct {
	mu     sync.Mutex
	mapped Page
}

// Map records p as the new scratch mapping and returns what was mapped
// there before.
func (m *IdentityScratchMapper) Map(p Page) Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.mapped
	m.mapped = p
	return prev
}

// Current returns what is presently mapped into the scratch window, without
// disturbing it. Test-only: real callers only ever see a previous mapping
// via Map's return value.
func (m *IdentityScratchMapper) Current() Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mapped
}

// MutexInterruptController backs "interrupts disabled" with a real
// sync.Mutex, the same substitution TinyGo's scheduler.threads build makes
// (atomicsLock task.Mutex in scheduler_threads.go) for targets with no real
// interrupt mask to toggle.
type MutexInterruptController struct {
	mu sync.Mutex
}

// Disable acquires the simulated interrupt mask and returns a state token
// (unused beyond being passed back to Restore — real hardware encodes the
// previous mask value there, but a single mutex has only one bit of state).
func (c *MutexInterruptController) Disable() State {
	c.mu.Lock()
	return 0
}

// Restore releases the simulated interrupt mask.
func (c *MutexInterruptController) Restore(State) {
	c.mu.Unlock()
}

// NoopHalt is the default Halt: it does nothing, since nothing in a
// hosted Go process can actually stop the CPU until an interrupt arrives.
func NoopHalt() {}
