package ktask

import "container/heap"

// SleepHeap is the binary min-heap keyed by Task.Wakeup (spec.md §3's
// "Sleep heap"). The original firmware calls out to a standalone "generic
// binary heap library" (spec.md §1) as an out-of-scope collaborator; the
// idiomatic Go replacement for exactly that role is the standard library's
// container/heap, which is what SleepHeap implements against — nothing in
// the retrieved example pack ships a third-party min-heap more suited to
// this than container/heap (see DESIGN.md).
//
// Capacity is bounded at construction (spec.md's THREAD_COUNT_MAX); Insert
// panics if the heap is already full, matching spec.md §8's "Sleep heap
// full: further _wait with timeout panics" boundary behavior.
type SleepHeap struct {
	items []*Task
	cap   int
}

// NewSleepHeap creates an empty heap with the given capacity.
func NewSleepHeap(capacity int) *SleepHeap {
	return &SleepHeap{items: make([]*Task, 0, capacity), cap: capacity}
}

// Len, Less and Swap implement container/heap.Interface's read side.
func (h *SleepHeap) Len() int { return len(h.items) }

func (h *SleepHeap) Less(i, j int) bool {
	return h.items[i].Wakeup < h.items[j].Wakeup
}

func (h *SleepHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].SetHeapIndex(i)
	h.items[j].SetHeapIndex(j)
}

// Push and Pop implement container/heap.Interface's mutating side. They are
// not meant to be called directly — use Insert/ExtractByIdentity/PopMin.
func (h *SleepHeap) Push(x any) {
	t := x.(*Task)
	t.SetHeapIndex(len(h.items))
	h.items = append(h.items, t)
}

func (h *SleepHeap) Pop() any {
	old := h.items
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	h.items = old[:n-1]
	t.SetHeapIndex(-1)
	return t
}

// Insert adds t to the heap keyed by its current Wakeup field. t.Wakeup
// must be non-zero (spec.md §3: "every thread with wakeup == 0 is absent
// from the heap" — enforced structurally here rather than by a runtime
// check elsewhere, per SPEC_FULL.md §4.4).
func (h *SleepHeap) Insert(t *Task) {
	if t.Wakeup == 0 {
		Panic("ktask: SleepHeap.Insert of a task with wakeup == 0")
		return
	}
	if h.cap > 0 && len(h.items) >= h.cap {
		Panic("ktask: sleep heap full")
		return
	}
	heap.Push(h, t)
}

// ExtractByIdentity removes t from the heap given its current heap index,
// if it is present. It is a no-op if t is not currently in the heap — this
// is the "extraction-by-identity" operation spec.md §3 requires, used when
// a bounded wait is satisfied by signal before its timeout.
func (h *SleepHeap) ExtractByIdentity(t *Task) {
	if !t.InHeap() {
		return
	}
	heap.Remove(h, t.HeapIndex())
}

// PeekMin returns the task with the smallest Wakeup, or nil if empty. It
// does not remove it.
func (h *SleepHeap) PeekMin() *Task {
	if len(h.items) == 0 {
		return nil
	}
	return h.items[0]
}

// PopMin removes and returns the task with the smallest Wakeup, or nil.
func (h *SleepHeap) PopMin() *Task {
	if len(h.items) == 0 {
		return nil
	}
	return heap.Pop(h).(*Task)
}
