package log

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MatteoDelliRocioli/telemetry/pkg/clock"
)

// ErrNilMessage is returned when an entry point receives no message.
var ErrNilMessage = errors.New("log: nil message")

// Kind distinguishes section boundaries from ordinary entries.
type Kind uint8

const (
	// KindMessage is an ordinary log entry.
	KindMessage Kind = iota
	// KindStart marks entry into a code section.
	KindStart
	// KindStop marks completion of a code section and carries its duration.
	KindStop
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindStart:
		return "start"
	case KindStop:
		return "stop"
	default:
		return "unknown"
	}
}

// ParseKind converts a kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "message", "msg":
		return KindMessage, nil
	case "start", "begin":
		return KindStart, nil
	case "stop", "end":
		return KindStop, nil
	default:
		return KindMessage, fmt.Errorf("invalid kind: %q (expected: message|start|stop)", s)
	}
}

// Scope is the view of a code section an entry keeps for provenance.
type Scope interface {
	ID() string
	ParentID() string
	Key() string
	Name() string
	Member() string
	File() string
	Line() int
	Depth() int
	Category() string
	Source() string
	StartTicks() int64
	IsInner() bool
	Payload() any
	Properties() map[string]any
}

// Entry is one log event. Fields are set by the producer before the entry
// is emitted and must not change afterwards.
type Entry struct {
	Kind        Kind
	Level       Level
	EventType   EventType
	SourceLevel SourceLevels

	Category string
	Source   string
	Scope    Scope

	Thread              clock.Thread
	Time                time.Time
	ElapsedMilliseconds int64
	StartTicks          int64

	// Duration is the elapsed time of the section, set on KindStop entries.
	Duration time.Duration

	Err        error
	Properties map[string]any

	// DisableCRLFReplace keeps line breaks even when the formatter
	// collapses multi-line messages.
	DisableCRLFReplace bool

	msg      Message
	once     sync.Once
	text     string
	rendered atomic.Bool
}

// NewEntry creates an entry with the auxiliary severities derived from level.
// It returns ErrNilMessage when msg is nil.
func NewEntry(level Level, msg Message) (*Entry, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}
	return &Entry{
		Level:       level,
		EventType:   level.EventType(),
		SourceLevel: level.SourceLevel(),
		msg:         msg,
	}, nil
}

// Message renders the entry text. The producer runs at most once; later
// calls return the memoized text. A panicking producer yields a placeholder.
func (e *Entry) Message() string {
	e.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				e.text = fmt.Sprintf("<message producer panicked: %v>", r)
			}
			e.rendered.Store(true)
		}()
		e.text = e.msg.Produce()
	})
	return e.text
}

// Rendered reports whether Message has already produced the text.
func (e *Entry) Rendered() bool {
	return e.rendered.Load()
}

// Key returns the type key of the owning scope, or "" without one.
func (e *Entry) Key() string {
	if e.Scope == nil {
		return ""
	}
	return e.Scope.Key()
}
