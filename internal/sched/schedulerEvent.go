// internal/sched/schedulerEvent.go

package sched

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EventKind is the tag of one scheduling event, per spec §4.6.
type EventKind int

const (
	EvBoot EventKind = iota
	EvReady
	EvRun
	EvStart
	EvYield
	EvSleep
	EvWakeup
	EvWait
	EvSignal
	EvQExpire
	EvAge
	EvFinish
	EvHalt
)

func (k EventKind) String() string {
	switch k {
	case EvBoot:
		return "boot"
	case EvReady:
		return "ready"
	case EvRun:
		return "run"
	case EvStart:
		return "start"
	case EvYield:
		return "yield"
	case EvSleep:
		return "sleep"
	case EvWakeup:
		return "wakeup"
	case EvWait:
		return "wait"
	case EvSignal:
		return "signal"
	case EvQExpire:
		return "qexpire"
	case EvAge:
		return "age"
	case EvFinish:
		return "finish"
	case EvHalt:
		return "halt"
	default:
		return "unknown"
	}
}

// Event is one record appended to the event log.
type Event struct {
	TUs  int64
	Kind EventKind
	TID  TaskID // NoTask (-1) for global events
	Info string
}

// EventLog is an append-only structured event sink: a buffered channel fed
// by the run loop and API calls, drained by a single consumer goroutine
// that writes CSV rows and, optionally, a human-readable trace line. Loss
// of the log (e.g. a full buffer under Verbose off) never blocks the
// scheduler — Emit drops the record rather than stall the caller, matching
// spec §4.6's "loss of the log does not affect correctness."
type EventLog struct {
	clock   *Clock
	ch      chan Event
	done    chan struct{}
	verbose bool

	csvFile   *os.File
	csvWriter *csv.Writer
}

// NewEventLog creates a log bound to clock. Call Start to begin draining.
func NewEventLog(clock *Clock, verbose bool) *EventLog {
	return &EventLog{
		clock:   clock,
		ch:      make(chan Event, 1024),
		done:    make(chan struct{}),
		verbose: verbose,
	}
}

// EnableCSV opens path for CSV logging. Must be called before Start.
func (l *EventLog) EnableCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"t_us", "event", "tid", "info"}); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	l.csvFile = f
	l.csvWriter = w
	return nil
}

// Start launches the consumer goroutine. Close must be called once the
// producer side is finished emitting.
func (l *EventLog) Start() {
	go l.drain()
}

// Emit appends one record. Non-blocking: a full buffer drops the event
// rather than stall the run loop.
func (l *EventLog) Emit(kind EventKind, tid TaskID, info string) {
	ev := Event{TUs: l.clock.NowUs(), Kind: kind, TID: tid, Info: info}
	select {
	case l.ch <- ev:
	default:
	}
}

// Close stops the consumer goroutine and flushes/closes the CSV file.
func (l *EventLog) Close() {
	close(l.ch)
	<-l.done
}

func (l *EventLog) drain() {
	defer close(l.done)
	for ev := range l.ch {
		l.write(ev)
	}
	if l.csvWriter != nil {
		l.csvWriter.Flush()
		l.csvFile.Close()
	}
}

func (l *EventLog) write(ev Event) {
	if l.csvWriter != nil {
		rec := []string{
			strconv.FormatInt(ev.TUs, 10),
			ev.Kind.String(),
			strconv.FormatInt(int64(ev.TID), 10),
			ev.Info,
		}
		l.csvWriter.Write(rec)
		l.csvWriter.Flush()
	}

	if !l.verbose {
		return
	}

	center := func(str string, width int) string {
		if len(str) >= width {
			return str
		}
		spaces := (width - len(str)) / 2
		return strings.Repeat(" ", spaces) + str + strings.Repeat(" ", width-(spaces+len(str)))
	}

	msg := fmt.Sprintf("t_us=%09d [%s] tid=%03d %s",
		ev.TUs, center(ev.Kind.String(), 8), ev.TID, ev.Info)
	fmt.Fprintln(os.Stderr, msg)
}
