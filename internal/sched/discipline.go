// internal/sched/discipline.go

package sched

import (
	"github.com/emirpasic/gods/lists/doublylinkedlist"
	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// discipline is the ready-structure tagged variant of spec §3/§4.4: one
// shape for RoundRobin, one for Priority, one for MLFQ, dispatched through
// a single interface rather than a switch sprinkled through Runtime.
type discipline interface {
	enqueue(rt *Runtime, t *Task)
	pop() (TaskID, bool)
	empty() bool
	demote(t *Task)            // MLFQ only; no-op otherwise
	promote(t *Task)           // MLFQ only; no-op otherwise
	maybeAge(rt *Runtime) bool // MLFQ only; no-op otherwise
	name() Policy
}

// newDiscipline builds the ready structure for policy; cfg.Policy is not
// consulted, only cfg's MLFQ settings.
func newDiscipline(policy Policy, cfg Config) discipline {
	switch policy {
	case PriorityPolicy:
		return &priorityDiscipline{seq: doublylinkedlist.New()}
	case MLFQ:
		return newMLFQDiscipline(cfg)
	default:
		return &roundRobinDiscipline{q: linkedlistqueue.New()}
	}
}

// --- RoundRobin -------------------------------------------------------------

type roundRobinDiscipline struct {
	q *linkedlistqueue.Queue
}

func (d *roundRobinDiscipline) enqueue(rt *Runtime, t *Task) {
	d.q.Enqueue(t.ID)
}

func (d *roundRobinDiscipline) pop() (TaskID, bool) {
	v, ok := d.q.Dequeue()
	if !ok {
		return NoTask, false
	}
	return v.(TaskID), true
}

func (d *roundRobinDiscipline) empty() bool            { return d.q.Empty() }
func (d *roundRobinDiscipline) demote(*Task)           {}
func (d *roundRobinDiscipline) promote(*Task)          {}
func (d *roundRobinDiscipline) maybeAge(*Runtime) bool { return false }
func (d *roundRobinDiscipline) name() Policy           { return RoundRobin }

// --- Priority ----------------------------------------------------------------

// priorityDiscipline keeps one ordered sequence: a newly enqueued task is
// inserted before the first existing entry of strictly lower base
// priority, stable among equals (spec §3). No preemption of the running
// task ever happens here — enqueue only ever affects the ready structure.
type priorityDiscipline struct {
	seq *doublylinkedlist.List
}

func (d *priorityDiscipline) enqueue(rt *Runtime, t *Task) {
	values := d.seq.Values()
	insertAt := len(values)
	for i, v := range values {
		other := rt.mustTask(v.(TaskID))
		if other.BasePriority < t.BasePriority {
			insertAt = i
			break
		}
	}
	if insertAt == len(values) {
		d.seq.Add(t.ID)
	} else {
		d.seq.Insert(insertAt, t.ID)
	}
}

func (d *priorityDiscipline) pop() (TaskID, bool) {
	v, ok := d.seq.Get(0)
	if !ok {
		return NoTask, false
	}
	d.seq.Remove(0)
	return v.(TaskID), true
}

func (d *priorityDiscipline) empty() bool            { return d.seq.Empty() }
func (d *priorityDiscipline) demote(*Task)           {}
func (d *priorityDiscipline) promote(*Task)          {}
func (d *priorityDiscipline) maybeAge(*Runtime) bool { return false }
func (d *priorityDiscipline) name() Policy           { return PriorityPolicy }

// --- MLFQ ----------------------------------------------------------------

type mlfqDiscipline struct {
	levels          []*linkedlistqueue.Queue
	quantumByLevel  []int
	enableAging     bool
	agingIntervalMs int64
	lastAgeMs       int64
}

func newMLFQDiscipline(cfg Config) *mlfqDiscipline {
	levels := make([]*linkedlistqueue.Queue, cfg.Levels)
	for i := range levels {
		levels[i] = linkedlistqueue.New()
	}
	return &mlfqDiscipline{
		levels:          levels,
		quantumByLevel:  append([]int(nil), cfg.QuantumByLevel...),
		enableAging:     cfg.EnableAging,
		agingIntervalMs: int64(cfg.AgingIntervalMs),
	}
}

func (d *mlfqDiscipline) numLevels() int { return len(d.levels) }

func (d *mlfqDiscipline) quantumFor(level int) int {
	if level < 0 || level >= len(d.quantumByLevel) {
		return DefaultQuantumBudget
	}
	return d.quantumByLevel[level]
}

func (d *mlfqDiscipline) enqueue(rt *Runtime, t *Task) {
	t.MLFQLevel = clampMLFQLevel(t.MLFQLevel, d.numLevels())
	t.QuantumBudget = d.quantumFor(t.MLFQLevel)
	d.levels[t.MLFQLevel].Enqueue(t.ID)
}

func (d *mlfqDiscipline) pop() (TaskID, bool) {
	for _, q := range d.levels {
		if v, ok := q.Dequeue(); ok {
			return v.(TaskID), true
		}
	}
	return NoTask, false
}

func (d *mlfqDiscipline) empty() bool {
	for _, q := range d.levels {
		if !q.Empty() {
			return false
		}
	}
	return true
}

func (d *mlfqDiscipline) demote(t *Task) {
	t.MLFQLevel = clampMLFQLevel(t.MLFQLevel+1, d.numLevels())
	t.QuantumBudget = d.quantumFor(t.MLFQLevel)
}

func (d *mlfqDiscipline) promote(t *Task) {
	t.MLFQLevel = clampMLFQLevel(t.MLFQLevel-1, d.numLevels())
	t.QuantumBudget = d.quantumFor(t.MLFQLevel)
}

// maybeAge runs at most one promotion per call, scanning from the
// lowest-priority non-empty level down to (but not including) level 0, per
// spec §4.4/§8. It emits the age event for the promoted tid itself and
// returns whether a promotion happened.
func (d *mlfqDiscipline) maybeAge(rt *Runtime) bool {
	if !d.enableAging {
		return false
	}
	now := rt.clock.NowMs()
	if now-d.lastAgeMs < d.agingIntervalMs {
		return false
	}
	d.lastAgeMs = now

	for lvl := d.numLevels() - 1; lvl > 0; lvl-- {
		v, ok := d.levels[lvl].Dequeue()
		if !ok {
			continue
		}
		tid := v.(TaskID)
		t := rt.mustTask(tid)
		t.MLFQLevel = lvl - 1
		t.QuantumBudget = d.quantumFor(t.MLFQLevel)
		d.levels[t.MLFQLevel].Enqueue(tid)
		rt.log.Emit(EvAge, tid, "promote")
		return true
	}
	return false
}

func (d *mlfqDiscipline) name() Policy { return MLFQ }

// setLevels resizes the level array, clamping levels to [1,8] itself,
// preserving tasks already queued in levels that still exist.
func (d *mlfqDiscipline) setLevels(levels int) {
	if levels < 1 {
		levels = 1
	} else if levels > 8 {
		levels = 8
	}
	if levels == d.numLevels() {
		return
	}
	newLevels := make([]*linkedlistqueue.Queue, levels)
	for i := range newLevels {
		if i < len(d.levels) {
			newLevels[i] = d.levels[i]
		} else {
			newLevels[i] = linkedlistqueue.New()
		}
	}
	// tasks queued in levels being dropped fall into the new lowest level
	for i := levels; i < len(d.levels); i++ {
		for {
			v, ok := d.levels[i].Dequeue()
			if !ok {
				break
			}
			newLevels[levels-1].Enqueue(v)
		}
	}
	d.levels = newLevels

	if len(d.quantumByLevel) != levels {
		q := defaultQuantumByLevel(levels)
		copy(q, d.quantumByLevel)
		d.quantumByLevel = q
	}
}

func (d *mlfqDiscipline) setQuantumByLevel(level, quantum int) {
	if level < 0 {
		return
	}
	if quantum < 1 {
		quantum = 1
	}
	for len(d.quantumByLevel) <= level {
		d.quantumByLevel = append(d.quantumByLevel, 2)
	}
	d.quantumByLevel[level] = quantum
}

func (d *mlfqDiscipline) setAging(enable bool) { d.enableAging = enable }

func (d *mlfqDiscipline) setAgingIntervalMs(ms int) {
	if ms < 1 {
		ms = 1
	}
	d.agingIntervalMs = int64(ms)
}
