// Package recorder provides an in-memory sink for tests.
package recorder

import (
	"sync"
	"time"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

// Record is one delivered entry with its rendered message.
type Record struct {
	Entry   *log.Entry
	Message string
}

// Sink records every entry it accepts. It is safe for concurrent use.
type Sink struct {
	mu       sync.Mutex
	minLevel log.Level
	records  []Record
	failWith error
	notify   chan struct{}
}

// New creates a Sink accepting every level.
func New() *Sink {
	return &Sink{notify: make(chan struct{}, 1)}
}

// SetMinLevel sets the lowest accepted level.
func (s *Sink) SetMinLevel(level log.Level) *Sink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minLevel = level
	return s
}

// FailWith makes Write record the entry and then return err.
func (s *Sink) FailWith(err error) *Sink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
	return s
}

// Enabled implements log.Sink.
func (s *Sink) Enabled(level log.Level) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return level >= s.minLevel && level < log.LevelNone
}

// Write implements log.Sink.
func (s *Sink) Write(e *log.Entry, message string) error {
	s.mu.Lock()
	s.records = append(s.records, Record{Entry: e, Message: message})
	err := s.failWith
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return err
}

// Records returns a copy of the recorded entries.
func (s *Sink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

// Messages returns the recorded messages in delivery order.
func (s *Sink) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.records))
	for i, r := range s.records {
		out[i] = r.Message
	}
	return out
}

// Kinds returns the recorded entry kinds in delivery order.
func (s *Sink) Kinds() []log.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]log.Kind, len(s.records))
	for i, r := range s.records {
		out[i] = r.Entry.Kind
	}
	return out
}

// Len returns the number of recorded entries.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Reset discards recorded entries.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

// WaitFor blocks until at least n entries are recorded or the timeout
// expires, and reports whether n was reached.
func (s *Sink) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if s.Len() >= n {
			return true
		}
		select {
		case <-s.notify:
		case <-deadline.C:
			return s.Len() >= n
		}
	}
}

var _ log.Sink = (*Sink)(nil)
