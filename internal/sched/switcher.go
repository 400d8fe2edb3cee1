// internal/sched/switcher.go

package sched

import "sync"

// Switcher is the context switcher: the only platform-specific piece in
// spec §4.1, here realized the idiomatic pure-Go way since Go exposes no
// public stackful-coroutine primitive — a dedicated goroutine per task,
// parked on an unbuffered channel, released one at a time by the scheduler.
// Exactly one side (scheduler goroutine or task goroutine) holds the
// "resume" token at any instant, giving the same "transfer control to X,
// block until it hands back" contract a real stack-switch would.
type Switcher struct {
	mu       sync.Mutex
	contexts map[TaskID]*execContext
}

// execContext is one task's "stack + machine state": a parked goroutine
// plus the pair of rendezvous channels used to hand control back and
// forth. Created lazily on first Resume, mirroring the trampoline's
// first-use context creation in spec §4.1.
type execContext struct {
	resume chan struct{}
	parked chan struct{}
}

// NewSwitcher creates an empty context switcher.
func NewSwitcher() *Switcher {
	return &Switcher{contexts: make(map[TaskID]*execContext)}
}

// Resume transfers control to tid's execution context, creating it (with
// trampoline as its entry point) on first use, and blocks until that
// context hands control back via YieldToScheduler or Finish.
func (s *Switcher) Resume(tid TaskID, trampoline func()) {
	s.mu.Lock()
	ec, ok := s.contexts[tid]
	if !ok {
		ec = &execContext{
			resume: make(chan struct{}),
			parked: make(chan struct{}),
		}
		s.contexts[tid] = ec
		go func() {
			<-ec.resume
			trampoline()
			// The trampoline ends by calling Finish, which hands control
			// back to the scheduler without waiting to be resumed. Once
			// the trampoline returns there is nothing left to run, so
			// this goroutine simply exits rather than re-parking.
		}()
	}
	s.mu.Unlock()

	ec.resume <- struct{}{}
	<-ec.parked
}

// YieldToScheduler saves tid's context and transfers control back to the
// scheduler's saved state, not returning until the scheduler resumes tid
// again. Called only from within tid's own goroutine.
func (s *Switcher) YieldToScheduler(tid TaskID) {
	s.mu.Lock()
	ec := s.contexts[tid]
	s.mu.Unlock()

	ec.parked <- struct{}{}
	<-ec.resume
}

// Finish is YieldToScheduler's counterpart for a task that will never run
// again: it hands control back to the scheduler but does not wait to be
// resumed, since the run loop will never dispatch a FINISHED task. The
// parked goroutine exits right after, and its context is dropped.
func (s *Switcher) Finish(tid TaskID) {
	s.mu.Lock()
	ec := s.contexts[tid]
	delete(s.contexts, tid)
	s.mu.Unlock()

	ec.parked <- struct{}{}
}
