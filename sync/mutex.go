// Package sync re-exports the scheduler's mutex under the conventional
// name, the same way TinyGo's own src/sync/mutex.go aliases its scheduler
// package's type ("type Mutex = task.Mutex") rather than wrapping it.
package sync

import "github.com/z180kernel/core/sched"

// Mutex is sched.Mutex. Lock/Unlock/TryLock are methods on *sched.Scheduler
// rather than on Mutex itself, because every kernel operation here needs
// the calling thread's own descriptor (self) to know who to block or wake —
// there is no implicit "current goroutine" the way TinyGo's internal/task
// provides via task.Current().
type Mutex = sched.Mutex
