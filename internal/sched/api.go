// internal/sched/api.go

package sched

import "sync"

// active is the single ambient Runtime installed for the duration of Run,
// per spec §9's redesign note: "the public API operates on the currently
// active runtime via a single ambient reference installed for the
// duration of run." Package-level functions below are thin wrappers a
// task's own goroutine calls without threading a *Runtime through every
// example workload — mirroring how the original C++ library exposed
// free functions over process-wide globals.
var (
	activeMu sync.RWMutex
	active   *Runtime
)

// Install makes rt the ambient runtime. Called once by Run.
func Install(rt *Runtime) {
	activeMu.Lock()
	defer activeMu.Unlock()
	active = rt
}

// Uninstall clears the ambient runtime. Called once Run returns.
func Uninstall() {
	activeMu.Lock()
	defer activeMu.Unlock()
	active = nil
}

func current() *Runtime {
	activeMu.RLock()
	defer activeMu.RUnlock()
	return active
}

// Create allocates a task on the ambient runtime. Panics if called outside
// Run — there is no runtime to allocate into.
func Create(entry func(), name string, priority int) TaskID {
	return current().Create(entry, name, priority)
}

// Yield suspends the calling task cooperatively.
func Yield() { current().Yield() }

// Sleep suspends the calling task for ms milliseconds.
func Sleep(ms int64) { current().Sleep(ms) }

// Wait blocks the calling task on a named resource.
func Wait(resource string) { current().Wait(resource) }

// Signal wakes one waiter on a named resource, if any.
func Signal(resource string) { current().Signal(resource) }

// Work simulates units of CPU work, auto-yielding on quantum expiry.
func Work(units int) int { return current().Work(units) }

// TLSSet stores a value in the calling task's local storage.
func TLSSet(key string, value int64) { current().TLSSet(key, value) }

// TLSGet retrieves a value from the calling task's local storage.
func TLSGet(key string) (int64, bool) { return current().TLSGet(key) }

// SetPolicy sets the scheduling discipline on the ambient runtime.
func SetPolicy(p Policy) { current().SetPolicy(p) }

// MLFQSetLevels reconfigures MLFQ level count on the ambient runtime.
func MLFQSetLevels(levels int) { current().MLFQSetLevels(levels) }

// MLFQSetQuantumByLevel sets one MLFQ level's quantum on the ambient runtime.
func MLFQSetQuantumByLevel(level, quantum int) {
	current().MLFQSetQuantumByLevel(level, quantum)
}

// MLFQEnableAging toggles MLFQ aging on the ambient runtime.
func MLFQEnableAging(enable bool) { current().MLFQEnableAging(enable) }

// MLFQSetAgingIntervalMs sets the MLFQ aging period on the ambient runtime.
func MLFQSetAgingIntervalMs(ms int) { current().MLFQSetAgingIntervalMs(ms) }
