package log

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileSink writes entries to a file as a stream of CBOR records.
// It is safe for concurrent use from multiple goroutines.
type FileSink struct {
	file     *os.File
	encoder  *cbor.Encoder
	minLevel Level
	mu       sync.Mutex
	closed   bool
}

// NewFileSink creates a FileSink that appends to the specified path.
// The file is created with permissions 0644 if it doesn't exist.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileSink{
		file:    f,
		encoder: NewEncoder(f),
	}, nil
}

// SetMinLevel sets the lowest level written to the file.
func (s *FileSink) SetMinLevel(level Level) *FileSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minLevel = level
	return s
}

// Enabled reports whether level reaches the minimum level.
func (s *FileSink) Enabled(level Level) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && level >= s.minLevel && level < LevelNone
}

// Write appends the entry to the file. Writes after Close are ignored.
func (s *FileSink) Write(e *Entry, message string) error {
	rec := NewRecord(e, message)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	return s.encoder.Encode(rec)
}

// Log appends a record that was produced elsewhere, for example by a
// filter that rewrites an existing trace file.
func (s *FileSink) Log(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	return s.encoder.Encode(rec)
}

// Close closes the file. It is safe to call Close multiple times.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.file.Close()
}

// Compile-time interface satisfaction check.
var _ Sink = (*FileSink)(nil)
