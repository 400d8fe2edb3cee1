package sched

import (
	"testing"
	"time"
)

func TestRoundRobinFIFOOrder(t *testing.T) {
	rt := &Runtime{tasks: map[TaskID]*Task{}}
	d := newDiscipline(RoundRobin, defaultConfig())

	for i := TaskID(0); i < 3; i++ {
		rt.tasks[i] = &Task{ID: i}
		d.enqueue(rt, rt.tasks[i])
	}

	for i := TaskID(0); i < 3; i++ {
		got, ok := d.pop()
		if !ok || got != i {
			t.Fatalf("pop() = (%d, %v), want (%d, true)", got, ok, i)
		}
	}
	if _, ok := d.pop(); ok {
		t.Fatalf("pop() on empty queue reported ok=true")
	}
}

func TestPriorityOrderingAndStability(t *testing.T) {
	rt := &Runtime{tasks: map[TaskID]*Task{}}
	d := newDiscipline(PriorityPolicy, defaultConfig())

	tasks := []*Task{
		{ID: 0, BasePriority: 5},
		{ID: 1, BasePriority: 9},
		{ID: 2, BasePriority: 9}, // same priority as id 1; must stay behind it
		{ID: 3, BasePriority: 1},
	}
	for _, tk := range tasks {
		rt.tasks[tk.ID] = tk
		d.enqueue(rt, tk)
	}

	want := []TaskID{1, 2, 0, 3}
	for _, w := range want {
		got, ok := d.pop()
		if !ok || got != w {
			t.Fatalf("pop() = (%d, %v), want (%d, true)", got, ok, w)
		}
	}
}

func TestMLFQEnqueueSetsQuantumForLevel(t *testing.T) {
	cfg := defaultConfig() // levels 3, quanta {8,4,2}
	rt := &Runtime{tasks: map[TaskID]*Task{}, clock: NewClock(), log: NewEventLog(NewClock(), false)}
	d := newDiscipline(MLFQ, cfg).(*mlfqDiscipline)

	tk := &Task{ID: 0, MLFQLevel: 1}
	rt.tasks[0] = tk
	d.enqueue(rt, tk)

	if tk.QuantumBudget != 4 {
		t.Errorf("enqueue at level 1 set quantum=%d, want 4", tk.QuantumBudget)
	}
	got, ok := d.pop()
	if !ok || got != 0 {
		t.Fatalf("pop() = (%d, %v), want (0, true)", got, ok)
	}
}

func TestMLFQDemoteClampsAtLastLevel(t *testing.T) {
	cfg := defaultConfig()
	d := newDiscipline(MLFQ, cfg).(*mlfqDiscipline)

	tk := &Task{ID: 0, MLFQLevel: 0}
	d.demote(tk)
	if tk.MLFQLevel != 1 {
		t.Fatalf("demote from 0 -> %d, want 1", tk.MLFQLevel)
	}
	d.demote(tk)
	if tk.MLFQLevel != 2 {
		t.Fatalf("demote from 1 -> %d, want 2", tk.MLFQLevel)
	}
	d.demote(tk)
	if tk.MLFQLevel != 2 {
		t.Fatalf("demote past last level -> %d, want clamped to 2", tk.MLFQLevel)
	}
}

func TestMLFQPromoteClampsAtZero(t *testing.T) {
	cfg := defaultConfig()
	d := newDiscipline(MLFQ, cfg).(*mlfqDiscipline)

	tk := &Task{ID: 0, MLFQLevel: 1}
	d.promote(tk)
	if tk.MLFQLevel != 0 {
		t.Fatalf("promote from 1 -> %d, want 0", tk.MLFQLevel)
	}
	d.promote(tk)
	if tk.MLFQLevel != 0 {
		t.Fatalf("promote below level 0 -> %d, want clamped to 0", tk.MLFQLevel)
	}
}

func TestMLFQMaybeAgeNeverPromotesFromLevelZero(t *testing.T) {
	cfg := defaultConfig()
	cfg.EnableAging = true
	cfg.AgingIntervalMs = 1
	clock := NewClock()
	rt := &Runtime{tasks: map[TaskID]*Task{}, clock: clock, log: NewEventLog(clock, false)}
	d := newDiscipline(MLFQ, cfg).(*mlfqDiscipline)

	tk := &Task{ID: 0, MLFQLevel: 0}
	rt.tasks[0] = tk
	d.levels[0].Enqueue(TaskID(0))

	time.Sleep(5 * time.Millisecond) // let the aging interval elapse so the level scan runs
	promoted := d.maybeAge(rt)
	if promoted {
		t.Fatalf("maybeAge promoted a level-0-only task; should never touch level 0")
	}
}

func TestMLFQSetLevelsClampAndPreserve(t *testing.T) {
	cfg := defaultConfig()
	d := newDiscipline(MLFQ, cfg).(*mlfqDiscipline)
	d.levels[2].Enqueue(TaskID(7))

	d.setLevels(0)
	if d.numLevels() != 1 {
		t.Errorf("setLevels(0) -> %d levels, want 1", d.numLevels())
	}
	if v, ok := d.levels[0].Dequeue(); !ok || v.(TaskID) != 7 {
		t.Errorf("task queued at dropped level 2 = (%v, %v) in level 0, want (7, true)", v, ok)
	}
	d.setLevels(9)
	if d.numLevels() != 8 {
		t.Errorf("setLevels(9) -> %d levels, want 8", d.numLevels())
	}
}

func TestMLFQAgingPromotesOneLevelPerTick(t *testing.T) {
	cfg := defaultConfig()
	cfg.EnableAging = true
	cfg.AgingIntervalMs = 5
	clock := NewClock()
	rt := &Runtime{tasks: map[TaskID]*Task{}, clock: clock, log: NewEventLog(clock, false)}
	d := newDiscipline(MLFQ, cfg).(*mlfqDiscipline)

	tk := &Task{ID: 0, MLFQLevel: 2}
	rt.tasks[0] = tk
	d.levels[2].Enqueue(TaskID(0))

	if d.maybeAge(rt) {
		t.Fatalf("maybeAge promoted before aging_interval_ms elapsed")
	}

	time.Sleep(10 * time.Millisecond)
	if !d.maybeAge(rt) {
		t.Fatalf("maybeAge did not promote after aging_interval_ms elapsed")
	}
	if tk.MLFQLevel != 1 {
		t.Fatalf("after first age tick, level = %d, want 1", tk.MLFQLevel)
	}

	time.Sleep(10 * time.Millisecond)
	if !d.maybeAge(rt) {
		t.Fatalf("maybeAge did not promote on second tick")
	}
	if tk.MLFQLevel != 0 {
		t.Fatalf("after second age tick, level = %d, want 0", tk.MLFQLevel)
	}

	time.Sleep(10 * time.Millisecond)
	if d.maybeAge(rt) {
		t.Fatalf("maybeAge promoted a task already at level 0")
	}
}

func TestMLFQSetQuantumByLevel(t *testing.T) {
	cfg := defaultConfig()
	d := newDiscipline(MLFQ, cfg).(*mlfqDiscipline)

	d.setQuantumByLevel(1, 4)
	if d.quantumFor(1) != 4 {
		t.Errorf("quantumFor(1) = %d, want 4", d.quantumFor(1))
	}
	d.setQuantumByLevel(1, 0)
	if d.quantumFor(1) != 1 {
		t.Errorf("setQuantumByLevel clamped quantum=0 to %d, want 1", d.quantumFor(1))
	}
}
