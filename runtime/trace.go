package runtime

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	gfn "github.com/panyam/goutils/fn"
)

// TraceEventKind defines the type of a trace event.
type TraceEventKind string

const (
	EventEnter TraceEventKind = "enter"
	EventExit  TraceEventKind = "exit"
	EventGo    TraceEventKind = "go"
	EventWait  TraceEventKind = "wait"
)

// TraceEvent represents a single event in an execution trace. Timestamps
// and durations are milliseconds since the tracer started.
type TraceEvent struct {
	Kind         TraceEventKind `json:"kind"`
	ParentID     int            `json:"parent_id,omitempty"`
	ID           int            `json:"id"`
	Timestamp    float64        `json:"ts"`
	Duration     float64        `json:"dur,omitempty"`
	Target       string         `json:"target"`
	Pos          string         `json:"pos,omitempty"`
	Arguments    []string       `json:"args,omitempty"`
	ReturnValue  string         `json:"ret,omitempty"`
	ErrorMessage string         `json:"err,omitempty"`
}

// TraceData is the top-level structure for a trace file.
type TraceData struct {
	Unit   string        `json:"unit"`
	Events []*TraceEvent `json:"events"`
}

// ExecutionTracer records calls, async submissions and awaits across every
// goroutine of a run.
type ExecutionTracer struct {
	mu     sync.Mutex
	Events []*TraceEvent
	nextID int
	start  time.Time
}

func NewExecutionTracer() *ExecutionTracer {
	return &ExecutionTracer{nextID: 1, start: time.Now()}
}

func (t *ExecutionTracer) now() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000
}

// Enter logs the entry into a call or block under parent and returns the
// new event, which the caller hands back to Exit.
func (t *ExecutionTracer) Enter(parent int, kind TraceEventKind, target string, at Node, args ...*Value) *TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	event := &TraceEvent{
		Kind:      kind,
		ID:        t.nextID,
		ParentID:  parent,
		Timestamp: t.now(),
		Target:    target,
		Arguments: gfn.Map(args, func(v *Value) string { return v.String() }),
	}
	if at != nil {
		event.Pos = at.Pos().String()
	}
	t.nextID++
	t.Events = append(t.Events, event)
	return event
}

// Exit logs the end of what enter started.
func (t *ExecutionTracer) Exit(enter *TraceEvent, ret *Value, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts := t.now()
	event := &TraceEvent{
		Kind:      EventExit,
		ID:        t.nextID,
		ParentID:  enter.ID,
		Timestamp: ts,
		Duration:  ts - enter.Timestamp,
		Target:    enter.Target,
	}
	t.nextID++
	if ret != nil {
		event.ReturnValue = ret.String()
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	t.Events = append(t.Events, event)
}

// Snapshot copies the events recorded so far.
func (t *ExecutionTracer) Snapshot() []*TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*TraceEvent(nil), t.Events...)
}

// WriteJSON writes the trace of unit to w.
func (t *ExecutionTracer) WriteJSON(w io.Writer, unit string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&TraceData{Unit: unit, Events: t.Snapshot()})
}
