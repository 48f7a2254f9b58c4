package ktask

import "testing"

func TestSleepHeapOrdersByWakeup(t *testing.T) {
	h := NewSleepHeap(8)
	tasks := []*Task{
		NewTask(1, 0, false, nil, nil),
		NewTask(2, 0, false, nil, nil),
		NewTask(3, 0, false, nil, nil),
	}
	tasks[0].Wakeup = 30
	tasks[1].Wakeup = 10
	tasks[2].Wakeup = 20

	for _, task := range tasks {
		h.Insert(task)
	}

	if got := h.PopMin(); got.ID != 2 {
		t.Fatalf("PopMin() = id %d, want 2 (wakeup 10)", got.ID)
	}
	if got := h.PopMin(); got.ID != 3 {
		t.Fatalf("PopMin() = id %d, want 3 (wakeup 20)", got.ID)
	}
	if got := h.PopMin(); got.ID != 1 {
		t.Fatalf("PopMin() = id %d, want 1 (wakeup 30)", got.ID)
	}
	if h.Len() != 0 {
		t.Fatalf("heap should be empty, Len() = %d", h.Len())
	}
}

func TestSleepHeapExtractByIdentity(t *testing.T) {
	h := NewSleepHeap(8)
	a := NewTask(1, 0, false, nil, nil)
	b := NewTask(2, 0, false, nil, nil)
	a.Wakeup = 5
	b.Wakeup = 50
	h.Insert(a)
	h.Insert(b)

	h.ExtractByIdentity(a)
	if a.InHeap() {
		t.Fatalf("a should no longer be in the heap")
	}
	if got := h.PeekMin(); got != b {
		t.Fatalf("PeekMin() = %v, want b", got)
	}

	// Extracting something already out of the heap is a no-op.
	h.ExtractByIdentity(a)
	if h.Len() != 1 {
		t.Fatalf("redundant ExtractByIdentity changed heap size, Len() = %d", h.Len())
	}
}

func TestSleepHeapInsertZeroWakeupPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic inserting a task with wakeup == 0")
		}
	}()
	h := NewSleepHeap(8)
	h.Insert(NewTask(1, 0, false, nil, nil))
}

func TestSleepHeapInsertOverCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic inserting beyond capacity")
		}
	}()
	h := NewSleepHeap(1)
	a := NewTask(1, 0, false, nil, nil)
	b := NewTask(2, 0, false, nil, nil)
	a.Wakeup = 1
	b.Wakeup = 2
	h.Insert(a)
	h.Insert(b)
}

func TestSleepHeapPeekMinEmpty(t *testing.T) {
	h := NewSleepHeap(4)
	if got := h.PeekMin(); got != nil {
		t.Fatalf("PeekMin() on empty heap = %v, want nil", got)
	}
	if got := h.PopMin(); got != nil {
		t.Fatalf("PopMin() on empty heap = %v, want nil", got)
	}
}
