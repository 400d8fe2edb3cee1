package sched

import "testing"

func TestNewTaskClampsPriority(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{10, 10},
		{11, 10},
		{999, 10},
	}
	for _, c := range cases {
		tk := newTask("x", c.in, nil)
		if tk.BasePriority != c.want {
			t.Errorf("newTask(priority=%d): got %d, want %d", c.in, tk.BasePriority, c.want)
		}
	}
}

func TestNewTaskDefaults(t *testing.T) {
	tk := newTask("x", 5, nil)
	if tk.State != NEW {
		t.Errorf("new task state = %v, want NEW", tk.State)
	}
	if tk.QuantumBudget != DefaultQuantumBudget {
		t.Errorf("new task quantum = %d, want %d", tk.QuantumBudget, DefaultQuantumBudget)
	}
}

func TestTaskLocalStorage(t *testing.T) {
	tk := newTask("x", 1, nil)
	if _, ok := tk.tlsGet("missing"); ok {
		t.Fatalf("tlsGet on empty tls returned ok=true")
	}
	tk.tlsSet("count", 42)
	v, ok := tk.tlsGet("count")
	if !ok || v != 42 {
		t.Errorf("tlsGet(count) = (%d, %v), want (42, true)", v, ok)
	}
}

func TestClampMLFQLevel(t *testing.T) {
	cases := []struct {
		level, levels, want int
	}{
		{-1, 3, 0},
		{0, 3, 0},
		{2, 3, 2},
		{3, 3, 2},
		{99, 3, 2},
	}
	for _, c := range cases {
		got := clampMLFQLevel(c.level, c.levels)
		if got != c.want {
			t.Errorf("clampMLFQLevel(%d, %d) = %d, want %d", c.level, c.levels, got, c.want)
		}
	}
}

func TestTaskStateString(t *testing.T) {
	if NEW.String() != "NEW" || FINISHED.String() != "FINISHED" {
		t.Errorf("unexpected TaskState.String() output: NEW=%q FINISHED=%q", NEW.String(), FINISHED.String())
	}
	var unknown TaskState = 99
	if unknown.String() != "UNKNOWN" {
		t.Errorf("TaskState(99).String() = %q, want UNKNOWN", unknown.String())
	}
}
