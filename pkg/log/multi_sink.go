package log

import (
	"errors"
	"fmt"
)

// MultiSink fans entries out to several sinks. Each sink is isolated: an
// error or panic in one does not prevent delivery to the others.
type MultiSink struct {
	sinks   []Sink
	onError func(Sink, error)
}

// NewMultiSink creates a MultiSink that delivers to all provided sinks.
// Nil sinks are skipped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{sinks: make([]Sink, 0, len(sinks))}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// OnError registers a callback invoked for each failing sink. It must be
// set before the MultiSink is shared between goroutines.
func (m *MultiSink) OnError(fn func(Sink, error)) *MultiSink {
	m.onError = fn
	return m
}

// Sinks returns the configured sinks.
func (m *MultiSink) Sinks() []Sink {
	return append([]Sink(nil), m.sinks...)
}

// Enabled reports whether any sink accepts level.
func (m *MultiSink) Enabled(level Level) bool {
	for _, s := range m.sinks {
		if s.Enabled(level) {
			return true
		}
	}
	return false
}

// EnabledFor reports whether any sink accepts the level and category.
func (m *MultiSink) EnabledFor(level Level, category string) bool {
	for _, s := range m.sinks {
		if ce, ok := s.(CategoryEnabler); ok {
			if ce.EnabledFor(level, category) {
				return true
			}
			continue
		}
		if s.Enabled(level) {
			return true
		}
	}
	return false
}

// Write delivers the entry to every enabled sink. All failures are joined
// into the returned error after every sink has been tried.
func (m *MultiSink) Write(e *Entry, message string) error {
	var errs []error
	for _, s := range m.sinks {
		if err := writeIsolated(s, e, message); err != nil {
			if m.onError != nil {
				m.onError(s, err)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that implements Close.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func writeIsolated(s Sink, e *Entry, message string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSinkPanic, r)
		}
	}()
	if !Enabled(s, e) {
		return nil
	}
	return s.Write(e, message)
}

// Compile-time interface satisfaction checks.
var (
	_ Sink            = (*MultiSink)(nil)
	_ CategoryEnabler = (*MultiSink)(nil)
)
