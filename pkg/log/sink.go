package log

import (
	"errors"
	"fmt"
)

// Sink is the interface downstream destinations implement to receive entries.
// Pass NopSink to disable delivery.
type Sink interface {
	// Enabled reports whether the sink accepts entries at level.
	// The message of an entry is only rendered when some sink is enabled.
	Enabled(level Level) bool

	// Write delivers an entry with its rendered message. Implementations
	// must be safe for concurrent use and should return quickly.
	Write(entry *Entry, message string) error
}

// CategoryEnabler is implemented by sinks whose threshold depends on the
// entry category as well as its level.
type CategoryEnabler interface {
	EnabledFor(level Level, category string) bool
}

// ErrSinkPanic wraps a panic recovered from a sink.
var ErrSinkPanic = errors.New("log: sink panicked")

// Enabled reports whether s accepts e, consulting CategoryEnabler when the
// sink implements it.
func Enabled(s Sink, e *Entry) bool {
	if ce, ok := s.(CategoryEnabler); ok {
		return ce.EnabledFor(e.Level, e.Category)
	}
	return s.Enabled(e.Level)
}

// Dispatch delivers e to s if s is enabled for it. The message is rendered
// only after the enabled check passes. Panics raised by the sink are
// recovered and returned as errors wrapping ErrSinkPanic.
func Dispatch(s Sink, e *Entry) (err error) {
	if s == nil || e == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSinkPanic, r)
		}
	}()
	if !Enabled(s, e) {
		return nil
	}
	return s.Write(e, e.Message())
}

// NopSink discards all entries. It is safe for concurrent use and usable as
// a zero value.
type NopSink struct{}

// Enabled always returns false.
func (NopSink) Enabled(Level) bool { return false }

// Write discards the entry.
func (NopSink) Write(*Entry, string) error { return nil }

// SinkFunc adapts a function to a Sink enabled for every level below
// LevelNone.
type SinkFunc func(entry *Entry, message string) error

// Enabled reports whether level is an actual severity.
func (f SinkFunc) Enabled(level Level) bool { return level < LevelNone }

// Write calls f.
func (f SinkFunc) Write(entry *Entry, message string) error { return f(entry, message) }

// Compile-time interface satisfaction checks.
var (
	_ Sink = NopSink{}
	_ Sink = SinkFunc(nil)
)
