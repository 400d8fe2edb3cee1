// cmd/ticksched/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"coopthread/internal/job"
	"coopthread/internal/sched"
)

func main() {
	demo := flag.String("demo", "roundrobin", "roundrobin | priority | sleepio | mlfq")
	policyFlag := flag.String("policy", "", "rr | prio | mlfq (explicit SetPolicy; SCHED only applies when this is unset)")
	configPath := flag.String("config", "", "path to a coopthread.yml config file")
	logPath := flag.String("log", "schedule_log.csv", "path to write the CSV event log")
	verbose := flag.Bool("verbose", true, "print a human-readable trace to stderr")
	flag.Parse()

	cfg := sched.Load(*configPath)
	cfg.Verbose = *verbose

	rt := sched.New(cfg)
	if err := rt.EnableCSVLogging(*logPath); err != nil {
		fmt.Fprintf(os.Stderr, "coopthread: could not open log %q: %v\n", *logPath, err)
		os.Exit(1)
	}
	if *policyFlag != "" {
		rt.SetPolicy(policyFromFlag(*policyFlag))
	}

	switch *demo {
	case "roundrobin":
		runRoundRobin(rt)
	case "priority":
		runPriority(rt)
	case "sleepio":
		runSleepIO(rt)
	case "mlfq":
		runMLFQ(rt)
	default:
		fmt.Fprintf(os.Stderr, "coopthread: unknown -demo %q\n", *demo)
		os.Exit(1)
	}

	fmt.Printf("Example: %s (set SCHED=rr|prio|mlfq or -policy to steer, if not set explicitly above)\n", *demo)
	rt.Run()
	fmt.Printf("Done. Log: %s\n", *logPath)
}

func policyFromFlag(s string) sched.Policy {
	switch s {
	case "prio", "priority":
		return sched.PriorityPolicy
	case "mlfq":
		return sched.MLFQ
	default:
		return sched.RoundRobin
	}
}

// runRoundRobin mirrors original_source/examples/round_robin.cpp: two
// symmetric CPU-bound tasks. It sets no policy, so they run under the one
// chosen by -config, -policy or SCHED (RoundRobin when none is given).
func runRoundRobin(rt *sched.Runtime) {
	busy := func(tag string) func() {
		return func() {
			for i := 0; i < 5; i++ {
				fmt.Printf("[%s] iteration %d\n", tag, i)
				sched.Work(2)
				sched.Yield()
			}
		}
	}
	rt.Create(busy("A"), "A", 1)
	rt.Create(busy("B"), "B", 1)
}

// runPriority mirrors original_source/examples/priority.cpp: three
// CPU-bound tasks at distinct priorities. It sets no policy, so they run
// under the one chosen by -config, -policy or SCHED (RoundRobin when none
// is given; pass -policy prio for the priority discipline).
func runPriority(rt *sched.Runtime) {
	busy := func(tag string) func() {
		return func() {
			for i := 0; i < 6; i++ {
				job.CPUSpin(300000)
				fmt.Printf("[%s] step %d\n", tag, i)
				sched.Work(3)
				sched.Yield()
			}
		}
	}
	rt.Create(busy("low"), "low", 1)
	rt.Create(busy("mid"), "mid", 5)
	rt.Create(busy("high"), "high", 9)
}

// runSleepIO mirrors original_source/examples/sleep_io.cpp: a waiter
// blocked on a resource, a sleeper that eventually signals it, and an
// unrelated CPU hog keeping the loop busy in the meantime.
func runSleepIO(rt *sched.Runtime) {
	rt.Create(func() {
		fmt.Println("[IO] waiting for 'go'...")
		sched.Wait("go")
		fmt.Println("[IO] got 'go', working...")
		for i := 0; i < 3; i++ {
			fmt.Printf("[IO] unit %d\n", i)
			sched.Work(2)
			sched.Yield()
		}
	}, "io_waiter", 5)

	rt.Create(func() {
		for i := 0; i < 3; i++ {
			fmt.Printf("[SLEEP] tick %d (sleep 200ms)\n", i)
			sched.Sleep(200)
		}
		fmt.Println("[SLEEP] signaling 'go'")
		sched.Signal("go")
	}, "sleeper", 7)

	rt.Create(func() {
		for i := 0; i < 6; i++ {
			fmt.Printf("[CPU] spin %d\n", i)
			job.CPUSpin(600000)
			sched.Work(4)
			sched.Yield()
		}
	}, "cpu", 3)
}

// runMLFQ mirrors original_source/examples/mlfq_demo.cpp: a CPU hog that
// demotes itself, an interactive task that sleeps (and so promotes), and a
// medium task, all under MLFQ with aging enabled.
func runMLFQ(rt *sched.Runtime) {
	rt.SetPolicy(sched.MLFQ)
	rt.MLFQSetLevels(3)
	rt.MLFQSetQuantumByLevel(0, 8)
	rt.MLFQSetQuantumByLevel(1, 4)
	rt.MLFQSetQuantumByLevel(2, 2)
	rt.MLFQEnableAging(true)
	rt.MLFQSetAgingIntervalMs(800)

	rt.Create(func() {
		for i := 0; i < 12; i++ {
			fmt.Printf("[HOG] unit %d\n", i)
			job.CPUSpin(800000)
			sched.Work(2)
			if i%2 == 0 {
				sched.Yield()
			}
		}
	}, "hog", 3)

	rt.Create(func() {
		for i := 0; i < 10; i++ {
			fmt.Printf("[UI] step %d (sleep 150ms)\n", i)
			sched.Sleep(150)
			sched.Work(1)
			sched.Yield()
		}
	}, "ui", 5)

	rt.Create(func() {
		for i := 0; i < 8; i++ {
			fmt.Printf("[MID] work %d\n", i)
			job.CPUSpin(400000)
			sched.Work(2)
			sched.Yield()
		}
	}, "mid", 5)
}
