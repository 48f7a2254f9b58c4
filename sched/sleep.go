package sched

import "github.com/z180kernel/core/internal/ktask"

// Sleep parks self on the sleep heap alone, with no wait queue, until the
// absolute tick wakeupAbs passes (spec.md §4.3's thread_sleep; original
// thread.c's thread_sleep/_thread_sleeping_enqueue). Unlike WaitTimeout,
// there is nothing that can wake self early — OnTick's sleep-heap drain is
// the only path back to ready — so Sleep always returns ktask.ErrTimedOut,
// the same value OnTick sets on every sleep-heap expiry.
func (s *Scheduler) Sleep(self *ktask.Task, wakeupAbs uint64) ktask.Errno {
	s.lock.start(self.ID)
	self.State = ktask.Sleep
	self.Wakeup = wakeupAbs
	s.sleep.Insert(self)
	s.blockSelfLocked(self)
	return self.Return()
}

// SleepRelative sleeps self for ticks ticks from now (spec.md §4.3's
// thread_sleep_relative, defined as thread_sleep(timer_get() + sleep)).
func (s *Scheduler) SleepRelative(self *ktask.Task, ticks uint64) ktask.Errno {
	return s.Sleep(self, s.tick.Now()+ticks)
}
