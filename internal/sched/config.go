// internal/sched/config.go

package sched

import (
	"os"

	yaml "github.com/goccy/go-yaml"
)

// Policy selects the ready-queue discipline.
type Policy int

const (
	RoundRobin Policy = iota
	PriorityPolicy
	MLFQ
)

func (p Policy) String() string {
	switch p {
	case RoundRobin:
		return "rr"
	case PriorityPolicy:
		return "priority"
	case MLFQ:
		return "mlfq"
	default:
		return "unknown"
	}
}

// Config mirrors coopthread.yml.
type Config struct {
	Policy          string `yaml:"policy"` // "rr" (default) | "prio"/"priority" | "mlfq"
	Levels          int    `yaml:"levels"` // 1..8, default 3
	QuantumByLevel  []int  `yaml:"quantum_by_level"`
	EnableAging     bool   `yaml:"enable_aging"`
	AgingIntervalMs int    `yaml:"aging_interval_ms"`
	Verbose         bool   `yaml:"verbose"`
}

// defaultConfig returns the values used when no config file is supplied.
func defaultConfig() Config {
	return Config{
		Policy:          "rr",
		Levels:          3,
		QuantumByLevel:  defaultQuantumByLevel(3),
		EnableAging:     true,
		AgingIntervalMs: 500,
		Verbose:         false,
	}
}

// defaultQuantumByLevel is max(1, 8 >> i) for i in [0, levels).
func defaultQuantumByLevel(levels int) []int {
	q := make([]int, levels)
	for i := range q {
		v := 8 >> uint(i)
		if v < 1 {
			v = 1
		}
		q[i] = v
	}
	return q
}

// Load reads YAML and overrides defaults; empty path = defaults only.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	_ = yaml.Unmarshal(data, &cfg)

	return clampConfig(cfg)
}

// clampConfig enforces spec §6's caller-misuse-is-silently-clamped rule.
func clampConfig(cfg Config) Config {
	if cfg.Levels < 1 {
		cfg.Levels = 1
	} else if cfg.Levels > 8 {
		cfg.Levels = 8
	}

	if len(cfg.QuantumByLevel) != cfg.Levels {
		cfg.QuantumByLevel = defaultQuantumByLevel(cfg.Levels)
	} else {
		for i, q := range cfg.QuantumByLevel {
			if q < 1 {
				cfg.QuantumByLevel[i] = 1
			}
		}
	}

	if cfg.AgingIntervalMs < 1 {
		cfg.AgingIntervalMs = 1
	}

	return cfg
}

// parsePolicy maps an env/config string to a Policy. Unknown or empty
// values map to RoundRobin, matching spec §4.4's env var contract.
func parsePolicy(s string) Policy {
	switch s {
	case "prio", "priority":
		return PriorityPolicy
	case "mlfq":
		return MLFQ
	default:
		return RoundRobin
	}
}
