package sched

import "testing"

func TestLoadDefaultsWithNoPath(t *testing.T) {
	cfg := Load("")
	want := defaultConfig()
	if cfg.Policy != want.Policy || cfg.Levels != want.Levels || cfg.EnableAging != want.EnableAging {
		t.Errorf("Load(\"\") = %+v, want %+v", cfg, want)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg := Load("/nonexistent/coopthread.yml")
	want := defaultConfig()
	if cfg.Policy != want.Policy || cfg.Levels != want.Levels {
		t.Errorf("Load(missing) = %+v, want defaults %+v", cfg, want)
	}
}

func TestClampConfigLevels(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 1},
		{1, 1},
		{8, 8},
		{9, 8},
		{-3, 1},
	}
	for _, c := range cases {
		cfg := clampConfig(Config{Levels: c.in, AgingIntervalMs: 1})
		if cfg.Levels != c.want {
			t.Errorf("clampConfig(Levels=%d).Levels = %d, want %d", c.in, cfg.Levels, c.want)
		}
	}
}

func TestClampConfigRegeneratesMismatchedQuantumByLevel(t *testing.T) {
	cfg := clampConfig(Config{Levels: 3, QuantumByLevel: []int{7}, AgingIntervalMs: 1})
	if len(cfg.QuantumByLevel) != 3 {
		t.Fatalf("QuantumByLevel length = %d, want 3", len(cfg.QuantumByLevel))
	}
}

func TestClampConfigFloorsQuantumEntries(t *testing.T) {
	cfg := clampConfig(Config{Levels: 2, QuantumByLevel: []int{0, -1}, AgingIntervalMs: 1})
	for i, q := range cfg.QuantumByLevel {
		if q < 1 {
			t.Errorf("QuantumByLevel[%d] = %d, want >= 1", i, q)
		}
	}
}

func TestClampConfigFloorsAgingInterval(t *testing.T) {
	cfg := clampConfig(Config{Levels: 1, QuantumByLevel: []int{1}, AgingIntervalMs: 0})
	if cfg.AgingIntervalMs != 1 {
		t.Errorf("AgingIntervalMs = %d, want floored to 1", cfg.AgingIntervalMs)
	}
}

func TestParsePolicy(t *testing.T) {
	cases := map[string]Policy{
		"rr":       RoundRobin,
		"":         RoundRobin,
		"bogus":    RoundRobin,
		"prio":     PriorityPolicy,
		"priority": PriorityPolicy,
		"mlfq":     MLFQ,
	}
	for in, want := range cases {
		if got := parsePolicy(in); got != want {
			t.Errorf("parsePolicy(%q) = %v, want %v", in, got, want)
		}
	}
}
