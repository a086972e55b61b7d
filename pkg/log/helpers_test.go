package log

import (
	"path/filepath"
	"testing"
	"time"
)

// testScope is a fixed Scope used to build entries.
type testScope struct {
	id, parent, key, name, member, category, source string
	depth                                           int
}

func (s testScope) ID() string        { return s.id }
func (s testScope) ParentID() string  { return s.parent }
func (s testScope) Key() string       { return s.key }
func (s testScope) Name() string      { return s.name }
func (s testScope) Member() string    { return s.member }
func (s testScope) File() string      { return "worker.go" }
func (s testScope) Line() int         { return 42 }
func (s testScope) Depth() int        { return s.depth }
func (s testScope) Category() string  { return s.category }
func (s testScope) Source() string    { return s.source }
func (s testScope) StartTicks() int64 { return 0 }
func (s testScope) IsInner() bool     { return false }
func (s testScope) Payload() any      { return nil }

func (s testScope) Properties() map[string]any { return nil }

func newTestEntry(t *testing.T, level Level, msg string) *Entry {
	t.Helper()
	e, err := NewEntry(level, Text(msg))
	if err != nil {
		t.Fatalf("NewEntry failed: %v", err)
	}
	e.Time = time.Date(2026, 3, 14, 9, 26, 53, 589000000, time.UTC)
	e.Scope = testScope{id: "scope-1", key: "Worker", member: "Run", depth: 1}
	e.Category = "Worker"
	e.ElapsedMilliseconds = 1234
	return e
}

func createTestTraceFile(t *testing.T, entries []*Entry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.tlog")

	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("failed to create trace file: %v", err)
	}
	for _, e := range entries {
		if err := Dispatch(sink, e); err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}
