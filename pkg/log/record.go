package log

import (
	"errors"
	"time"

	"github.com/MatteoDelliRocioli/telemetry/pkg/clock"
)

// Record is the flattened, serializable form of an Entry, including its
// rendered message. CBOR encoding uses integer keys for compactness.
type Record struct {
	// Time is the wall-clock time the entry was created.
	Time time.Time `cbor:"1,keyasint" json:"time"`

	// Kind distinguishes section start/stop from ordinary entries.
	Kind Kind `cbor:"2,keyasint" json:"kind"`

	// Level is the entry severity.
	Level Level `cbor:"3,keyasint" json:"level"`

	// Key is the type key of the owning scope.
	Key string `cbor:"4,keyasint,omitempty" json:"key,omitempty"`

	// Category defaults to the scope category, then the key.
	Category string `cbor:"5,keyasint,omitempty" json:"category,omitempty"`

	// Source is the source label of the entry.
	Source string `cbor:"6,keyasint,omitempty" json:"source,omitempty"`

	// ScopeID and ParentID identify the owning scope and its parent.
	ScopeID  string `cbor:"7,keyasint,omitempty" json:"scope_id,omitempty"`
	ParentID string `cbor:"8,keyasint,omitempty" json:"parent_id,omitempty"`

	// Name is the explicit scope name, if any.
	Name string `cbor:"9,keyasint,omitempty" json:"name,omitempty"`

	// Member, File and Line locate the code that opened the scope.
	Member string `cbor:"10,keyasint,omitempty" json:"member,omitempty"`
	File   string `cbor:"11,keyasint,omitempty" json:"file,omitempty"`
	Line   int    `cbor:"12,keyasint,omitempty" json:"line,omitempty"`

	// Depth is the nesting depth of the owning scope (root = 0).
	Depth int `cbor:"13,keyasint,omitempty" json:"depth,omitempty"`

	// GoroutineID identifies the goroutine that produced the entry.
	GoroutineID int64 `cbor:"14,keyasint,omitempty" json:"goroutine_id,omitempty"`

	// ElapsedMilliseconds is the process stopwatch reading.
	ElapsedMilliseconds int64 `cbor:"15,keyasint" json:"elapsed_ms"`

	// StartTicks is the stopwatch tick count when the entry was created.
	StartTicks int64 `cbor:"16,keyasint,omitempty" json:"start_ticks,omitempty"`

	// Duration is the section duration on stop records, in nanoseconds.
	Duration time.Duration `cbor:"17,keyasint,omitempty" json:"duration,omitempty"`

	// Message is the rendered entry text.
	Message string `cbor:"18,keyasint" json:"message"`

	// Error is the text of the attached error, if any.
	Error string `cbor:"19,keyasint,omitempty" json:"error,omitempty"`

	// Properties carries custom key/value metadata.
	Properties map[string]any `cbor:"20,keyasint,omitempty" json:"properties,omitempty"`

	// Process and PID identify the producing process.
	Process string `cbor:"21,keyasint,omitempty" json:"process,omitempty"`
	PID     int    `cbor:"22,keyasint,omitempty" json:"pid,omitempty"`
}

// NewRecord flattens an entry and its rendered message.
func NewRecord(e *Entry, message string) Record {
	proc := clock.Process()
	r := Record{
		Time:                e.Time,
		Kind:                e.Kind,
		Level:               e.Level,
		Category:            e.Category,
		Source:              e.Source,
		GoroutineID:         e.Thread.ID,
		ElapsedMilliseconds: e.ElapsedMilliseconds,
		StartTicks:          e.StartTicks,
		Duration:            e.Duration,
		Message:             message,
		Properties:          e.Properties,
		Process:             proc.Name,
		PID:                 proc.PID,
	}
	if e.Err != nil {
		r.Error = e.Err.Error()
	}
	if s := e.Scope; s != nil {
		r.Key = s.Key()
		r.ScopeID = s.ID()
		r.ParentID = s.ParentID()
		r.Name = s.Name()
		r.Member = s.Member()
		r.File = s.File()
		r.Line = s.Line()
		r.Depth = s.Depth()
	}
	return r
}

// Entry rebuilds an entry from the record so stored traces can be rendered
// with the same formatters as live ones. The message is the stored text.
func (r Record) Entry() *Entry {
	e := &Entry{
		Kind:                r.Kind,
		Level:               r.Level,
		EventType:           r.Level.EventType(),
		SourceLevel:         r.Level.SourceLevel(),
		Category:            r.Category,
		Source:              r.Source,
		Thread:              clock.Thread{ID: r.GoroutineID},
		Time:                r.Time,
		ElapsedMilliseconds: r.ElapsedMilliseconds,
		StartTicks:          r.StartTicks,
		Duration:            r.Duration,
		Properties:          r.Properties,
		msg:                 Text(r.Message),
	}
	if r.Error != "" {
		e.Err = errors.New(r.Error)
	}
	if r.ScopeID != "" || r.Key != "" {
		e.Scope = recordScope{r}
	}
	return e
}

// recordScope answers the Scope view from a stored record.
type recordScope struct{ r Record }

func (s recordScope) ID() string                 { return s.r.ScopeID }
func (s recordScope) ParentID() string           { return s.r.ParentID }
func (s recordScope) Key() string                { return s.r.Key }
func (s recordScope) Name() string               { return s.r.Name }
func (s recordScope) Member() string             { return s.r.Member }
func (s recordScope) File() string               { return s.r.File }
func (s recordScope) Line() int                  { return s.r.Line }
func (s recordScope) Depth() int                 { return s.r.Depth }
func (s recordScope) Category() string           { return s.r.Category }
func (s recordScope) Source() string             { return s.r.Source }
func (s recordScope) StartTicks() int64          { return s.r.StartTicks }
func (s recordScope) IsInner() bool              { return false }
func (s recordScope) Payload() any               { return nil }
func (s recordScope) Properties() map[string]any { return s.r.Properties }
