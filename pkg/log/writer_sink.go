package log

import (
	"io"
	"sync"
)

// WriterSink formats entries and writes one line per entry to an io.Writer.
type WriterSink struct {
	mu        sync.Mutex
	w         io.Writer
	formatter Formatter
	minLevel  Level
}

// NewWriterSink creates a WriterSink. A nil formatter uses a TextFormatter
// with DefaultFormatOptions.
func NewWriterSink(w io.Writer, f Formatter) *WriterSink {
	if f == nil {
		f = NewTextFormatter(DefaultFormatOptions())
	}
	return &WriterSink{w: w, formatter: f}
}

// SetMinLevel sets the lowest level written.
func (s *WriterSink) SetMinLevel(level Level) *WriterSink {
	s.mu.Lock()
	s.minLevel = level
	s.mu.Unlock()
	return s
}

// Enabled implements Sink.
func (s *WriterSink) Enabled(level Level) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return level >= s.minLevel && level < LevelNone
}

// Write implements Sink.
func (s *WriterSink) Write(e *Entry, message string) error {
	line := s.formatter.Format(e, message) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, line)
	return err
}

var _ Sink = (*WriterSink)(nil)
