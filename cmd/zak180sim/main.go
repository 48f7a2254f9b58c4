// Command zak180sim drives the z180kernel/core scheduler through a small,
// fixed demonstration scenario and prints what happened. It exists to give a
// human a way to watch priority preemption, a timed wait, and a mutex
// handoff play out without writing a test, not as a general simulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/z180kernel/core/internal/hal"
	"github.com/z180kernel/core/internal/ktask"
	"github.com/z180kernel/core/sched"
)

func main() {
	priorities := flag.Int("priorities", 4, "number of distinct priority levels")
	maxThreads := flag.Int("max-threads", 16, "maximum live thread count")
	waitTicks := flag.Uint64("wait-ticks", 5, "timeout, in simulated ticks, for the demo's bounded wait")
	flag.Parse()

	if *priorities < 2 {
		fmt.Fprintln(os.Stderr, "zak180sim: -priorities must be >= 2")
		os.Exit(1)
	}

	clock := &hal.ManualClock{}
	s := sched.New(sched.Config{
		Priorities: *priorities,
		MaxThreads: *maxThreads,
		Tick:       clock,
		Pages:      &hal.BitmapPageAllocator{},
		Scratch:    &hal.IdentityScratchMapper{},
		Interrupts: &hal.MutexInterruptController{},
	})

	var mu sched.Mutex
	var door ktask.List

	top := *priorities - 1
	if top < 1 {
		top = 0
	}

	s.Create(s.Harness(), uint8(top), nil, func(self *ktask.Task, arg any) {
		fmt.Println("high-priority thread: running first, regardless of creation order")
	}, nil)

	s.Create(s.Harness(), 1, nil, func(self *ktask.Task, arg any) {
		fmt.Println("worker: taking the door mutex")
		s.Lock(self, &mu)
		fmt.Println("worker: holds the door mutex, waiting on the latch")
		errno := s.WaitTimeout(self, &door, *waitTicks)
		fmt.Printf("worker: wait returned %v\n", errno)
		s.Unlock(self, &mu)
		fmt.Println("worker: released the door mutex")
	}, nil)

	s.Create(s.Harness(), 1, nil, func(self *ktask.Task, arg any) {
		fmt.Println("latecomer: also wants the door mutex")
		s.Lock(self, &mu)
		fmt.Println("latecomer: got the door mutex")
		s.Unlock(self, &mu)
	}, nil)

	fmt.Println("--- booting scheduler ---")
	s.Start()

	for i := uint64(0); i < *waitTicks; i++ {
		clock.Advance(1)
		s.OnTick()
	}
	fmt.Println("--- simulation complete ---")
}
