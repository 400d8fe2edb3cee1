// internal/sched/runtime.go

package sched

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"sync"
	"time"
)

// Runtime owns every piece of scheduler state the teacher spread across
// package-level globals: the task table, the ready discipline, the
// resource wait registry, the context switcher, and the event log (spec
// §9's "encapsulate the globals in a single Runtime value" redesign note).
// The public API in api.go operates on the single ambient Runtime
// installed for the duration of Run.
type Runtime struct {
	mu sync.Mutex

	tasks  map[TaskID]*Task
	order  []TaskID // creation order, for admission and deterministic dispatch
	policy Policy
	disc   discipline

	policyExplicit bool // true once SetPolicy has been called

	clock *Clock
	log   *EventLog
	sw    *Switcher

	resources *ResourceRegistry

	current TaskID // tid of the task currently RUNNING, or NoTask

	cfg Config

	stopped bool
}

// New creates a Runtime from cfg but does not start it.
func New(cfg Config) *Runtime {
	clock := NewClock()
	rt := &Runtime{
		tasks:     make(map[TaskID]*Task),
		policy:    parsePolicy(cfg.Policy),
		clock:     clock,
		log:       NewEventLog(clock, cfg.Verbose),
		sw:        NewSwitcher(),
		resources: NewResourceRegistry(),
		current:   NoTask,
		cfg:       cfg,
	}
	rt.disc = newDiscipline(rt.policy, cfg)
	return rt
}

// EnableCSVLogging opens path for CSV logging of events. Must be called
// before Run.
func (rt *Runtime) EnableCSVLogging(path string) error {
	return rt.log.EnableCSV(path)
}

func (rt *Runtime) mustTask(tid TaskID) *Task {
	t, ok := rt.tasks[tid]
	if !ok {
		log.Fatalf("coopthread: unknown task id %d — platform context switcher inconsistency", tid)
	}
	return t
}

// Create allocates a task record in NEW. It does not start the task.
func (rt *Runtime) Create(entry func(), name string, priority int) TaskID {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	t := newTask(name, priority, entry)
	t.ID = TaskID(nextTaskID.Add(1) - 1)
	rt.tasks[t.ID] = t
	rt.order = append(rt.order, t.ID)
	return t.ID
}

// SetPolicy sets the scheduling discipline explicitly. Per the resolved
// open question in spec §9, an explicit SetPolicy call always wins over
// the SCHED environment variable, even one consulted after this call.
func (rt *Runtime) SetPolicy(p Policy) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.policyExplicit = true
	if p == rt.policy {
		return
	}
	rt.policy = p
	rt.disc = newDiscipline(p, rt.cfg)
}

func (rt *Runtime) applyEnvPolicy() {
	if rt.policyExplicit {
		return
	}
	if s, ok := os.LookupEnv("SCHED"); ok {
		rt.policy = parsePolicy(s)
		rt.disc = newDiscipline(rt.policy, rt.cfg)
	}
}

// MLFQSetLevels reconfigures the number of MLFQ levels; a no-op under any
// other policy.
func (rt *Runtime) MLFQSetLevels(levels int) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if m, ok := rt.disc.(*mlfqDiscipline); ok {
		m.setLevels(levels)
	}
}

// MLFQSetQuantumByLevel sets the per-level quantum; a no-op under any other
// policy. Supplements spec.md per original_source/threadlib.hpp.
func (rt *Runtime) MLFQSetQuantumByLevel(level, quantum int) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if m, ok := rt.disc.(*mlfqDiscipline); ok {
		m.setQuantumByLevel(level, quantum)
	}
}

// MLFQEnableAging toggles aging; a no-op under any other policy.
func (rt *Runtime) MLFQEnableAging(enable bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if m, ok := rt.disc.(*mlfqDiscipline); ok {
		m.setAging(enable)
	}
}

// MLFQSetAgingIntervalMs sets the aging period; a no-op under any other
// policy.
func (rt *Runtime) MLFQSetAgingIntervalMs(ms int) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if m, ok := rt.disc.(*mlfqDiscipline); ok {
		m.setAgingIntervalMs(ms)
	}
}

// Current returns the tid of the task presently RUNNING, or NoTask between
// dispatches.
func (rt *Runtime) Current() TaskID {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.current
}

// --- suspension points, called from within the currently running task ------

// Yield marks the calling task READY, re-enqueues it, and hands control
// back to the scheduler.
func (rt *Runtime) Yield() {
	rt.mu.Lock()
	tid := rt.current
	if tid == NoTask {
		rt.mu.Unlock()
		return
	}
	t := rt.tasks[tid]
	if t.State == RUNNING {
		t.State = READY
		rt.disc.enqueue(rt, t)
		rt.log.Emit(EvYield, tid, "")
	}
	rt.mu.Unlock()

	rt.sw.YieldToScheduler(tid)
}

// Sleep sets wake_time_ms = now + ms, marks the task SLEEPING, and hands
// control back. Sleeping tasks sit in no queue; the run loop re-admits
// them on wakeup.
func (rt *Runtime) Sleep(ms int64) {
	rt.mu.Lock()
	tid := rt.current
	t := rt.tasks[tid]
	t.WakeTimeMs = rt.clock.NowMs() + ms
	t.State = SLEEPING
	rt.log.Emit(EvSleep, tid, fmt.Sprintf("%d", ms))
	if m, ok := rt.disc.(*mlfqDiscipline); ok {
		m.promote(t)
	}
	rt.mu.Unlock()

	rt.sw.YieldToScheduler(tid)
}

// Wait blocks the calling task on resource and hands control back.
func (rt *Runtime) Wait(resource string) {
	rt.mu.Lock()
	tid := rt.current
	t := rt.tasks[tid]
	t.State = BLOCKED
	rt.resources.Wait(resource, tid)
	rt.log.Emit(EvWait, tid, resource)
	if m, ok := rt.disc.(*mlfqDiscipline); ok {
		m.promote(t)
	}
	rt.mu.Unlock()

	rt.sw.YieldToScheduler(tid)
}

// Signal wakes the head of resource's wait queue, if any. A resource with
// no waiters is a no-op: no event is emitted. Signals are never queued.
func (rt *Runtime) Signal(resource string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	tid, ok := rt.resources.Signal(resource)
	if !ok {
		return
	}
	t := rt.tasks[tid]
	if t.State == BLOCKED {
		t.State = READY
		rt.disc.enqueue(rt, t)
		rt.log.Emit(EvSignal, tid, resource)
	}
}

// Work decrements the calling task's quantum budget by max(1, units). If
// the budget crosses to non-positive, it logs qexpire, demotes under MLFQ,
// requeues, and yields; otherwise it returns immediately. Returns the
// remaining (possibly non-positive) budget.
func (rt *Runtime) Work(units int) int {
	rt.mu.Lock()
	tid := rt.current
	t := rt.tasks[tid]

	if units < 1 {
		units = 1
	}
	t.QuantumBudget -= units
	remaining := t.QuantumBudget

	if remaining > 0 {
		rt.mu.Unlock()
		return remaining
	}

	rt.log.Emit(EvQExpire, tid, "auto-yield")
	if m, ok := rt.disc.(*mlfqDiscipline); ok {
		m.demote(t)
	}
	if t.State == RUNNING {
		t.State = READY
		rt.disc.enqueue(rt, t)
	}
	rt.mu.Unlock()

	rt.sw.YieldToScheduler(tid)
	return remaining
}

// TLSSet stores value under key, scoped to the currently running task.
func (rt *Runtime) TLSSet(key string, value int64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.current == NoTask {
		return
	}
	rt.tasks[rt.current].tlsSet(key, value)
}

// TLSGet retrieves a value stored by TLSSet for the currently running task.
func (rt *Runtime) TLSGet(key string) (int64, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.current == NoTask {
		return 0, false
	}
	return rt.tasks[rt.current].tlsGet(key)
}

// --- the run loop ------------------------------------------------------------

// Run drives the run loop until every task is FINISHED, per spec §4.5.
func (rt *Runtime) Run() {
	Install(rt)
	defer Uninstall()

	rt.mu.Lock()
	rt.applyEnvPolicy()
	policyName := rt.policy.String()
	rt.mu.Unlock()

	rt.log.Start()
	rt.log.Emit(EvBoot, NoTask, policyName)

	for {
		rt.mu.Lock()
		rt.admitNew()
		rt.wakeSleepers()
		rt.disc.maybeAge(rt)

		if rt.allFinished() {
			rt.mu.Unlock()
			break
		}

		tid, ok := rt.disc.pop()
		if !ok {
			rt.mu.Unlock()
			time.Sleep(time.Millisecond)
			continue
		}
		rt.mu.Unlock()

		rt.dispatch(tid)
	}

	rt.log.Emit(EvHalt, NoTask, "")
	rt.log.Close()
}

// admitNew moves every NEW task to READY. Called with rt.mu held.
func (rt *Runtime) admitNew() bool {
	changed := false
	for _, tid := range rt.order {
		t := rt.tasks[tid]
		if t.State == NEW {
			t.State = READY
			rt.disc.enqueue(rt, t)
			rt.log.Emit(EvReady, tid, "")
			changed = true
		}
	}
	return changed
}

// wakeSleepers moves every SLEEPING task whose deadline has passed to
// READY. Called with rt.mu held.
func (rt *Runtime) wakeSleepers() bool {
	now := rt.clock.NowMs()
	changed := false
	for _, tid := range rt.order {
		t := rt.tasks[tid]
		if t.State == SLEEPING && t.WakeTimeMs <= now {
			t.State = READY
			rt.disc.enqueue(rt, t)
			rt.log.Emit(EvWakeup, tid, "")
			changed = true
		}
	}
	return changed
}

func (rt *Runtime) allFinished() bool {
	for _, tid := range rt.order {
		if rt.tasks[tid].State != FINISHED {
			return false
		}
	}
	return true
}

// dispatch resumes tid, applying the quantum-accounting-on-dispatch rule
// of spec §4.4 before handing control over.
func (rt *Runtime) dispatch(tid TaskID) {
	rt.mu.Lock()
	t := rt.mustTask(tid)
	t.State = RUNNING
	rt.current = tid
	if m, ok := rt.disc.(*mlfqDiscipline); ok {
		t.QuantumBudget = m.quantumFor(t.MLFQLevel)
	} else if t.QuantumBudget <= 0 {
		t.QuantumBudget = DefaultQuantumBudget
	}
	rt.log.Emit(EvRun, tid, t.Name)
	rt.mu.Unlock()

	rt.sw.Resume(tid, func() { rt.trampoline(tid) })

	rt.mu.Lock()
	rt.current = NoTask
	rt.mu.Unlock()
}

// trampoline runs once per task, the first time it is resumed (dispatch has
// already set the task RUNNING): it logs start, runs Entry (recovering a
// panic as a non-fatal task-level error, per spec §7's third anomaly tier),
// marks the task FINISHED, logs finish, and hands control back via Finish.
// Finish does not wait to be resumed; once it returns, trampoline returns
// and the task's goroutine exits without touching scheduler state again.
func (rt *Runtime) trampoline(tid TaskID) {
	rt.mu.Lock()
	t := rt.mustTask(tid)
	rt.log.Emit(EvStart, tid, t.Name)
	entry := t.Entry
	rt.mu.Unlock()

	info := ""
	func() {
		defer func() {
			if r := recover(); r != nil {
				info = fmt.Sprintf("panic: %v\n%s", r, debug.Stack())
			}
		}()
		if entry != nil {
			entry()
		}
	}()

	rt.mu.Lock()
	t.State = FINISHED
	rt.mu.Unlock()
	rt.log.Emit(EvFinish, tid, info)

	rt.sw.Finish(tid)
}
