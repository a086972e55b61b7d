package log

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntryRejectsNilMessage(t *testing.T) {
	_, err := NewEntry(LevelInformation, nil)
	assert.ErrorIs(t, err, ErrNilMessage)

	_, err = NewEntry(LevelInformation, Func(nil))
	assert.ErrorIs(t, err, ErrNilMessage)
}

func TestNewEntryDerivesSeverities(t *testing.T) {
	e, err := NewEntry(LevelWarning, Text("x"))
	require.NoError(t, err)

	assert.Equal(t, EventWarning, e.EventType)
	assert.Equal(t, SourceWarning, e.SourceLevel)
}

func TestEntryMessageProducedOnce(t *testing.T) {
	var calls atomic.Int32
	e, err := NewEntry(LevelDebug, Func(func() string {
		calls.Add(1)
		return "expensive"
	}))
	require.NoError(t, err)
	assert.False(t, e.Rendered())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "expensive", e.Message())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, e.Rendered())
}

func TestEntryMessageRecoversProducerPanic(t *testing.T) {
	e, err := NewEntry(LevelError, Func(func() string { panic("nope") }))
	require.NoError(t, err)

	assert.Contains(t, e.Message(), "nope")
	assert.True(t, e.Rendered())
}

func TestSprintfDefersFormatting(t *testing.T) {
	var calls int
	arg := stringerFunc(func() string {
		calls++
		return "v"
	})

	msg := Sprintf("value=%s", arg)
	assert.Zero(t, calls)
	assert.Equal(t, "value=v", msg.Produce())
	assert.Equal(t, 1, calls)

	assert.Equal(t, "100%", Sprintf("100%").Produce())
}

func TestEntryKeyWithoutScope(t *testing.T) {
	e, _ := NewEntry(LevelInformation, Text("x"))
	assert.Empty(t, e.Key())

	e.Scope = testScope{key: "Worker"}
	assert.Equal(t, "Worker", e.Key())
}

func TestDispatchSkipsDisabledSink(t *testing.T) {
	var produced bool
	e, _ := NewEntry(LevelDebug, Func(func() string {
		produced = true
		return "x"
	}))

	err := Dispatch(NopSink{}, e)
	require.NoError(t, err)
	assert.False(t, produced, "message rendered for a disabled sink")
}

func TestDispatchRecoversSinkPanic(t *testing.T) {
	e, _ := NewEntry(LevelError, Text("x"))
	sink := SinkFunc(func(*Entry, string) error { panic("sink exploded") })

	err := Dispatch(sink, e)
	assert.True(t, errors.Is(err, ErrSinkPanic))
}

type stringerFunc func() string

func (f stringerFunc) String() string { return f() }

func TestRecordEntryRendersLikeLiveEntry(t *testing.T) {
	live := newTestEntry(t, LevelWarning, "disk low")
	live.Err = errors.New("quota")
	live.Thread.ID = 7

	stored := NewRecord(live, live.Message()).Entry()

	f := NewTextFormatter(DefaultFormatOptions())
	assert.Equal(t, f.Format(live, live.Message()), f.Format(stored, stored.Message()))
	assert.Equal(t, "Worker", stored.Key())
	require.NotNil(t, stored.Scope)
	assert.Equal(t, "worker.go", stored.Scope.File())
	assert.Equal(t, EventWarning, stored.EventType)
}

func TestRecordEntryWithoutScope(t *testing.T) {
	e := Record{Level: LevelInformation, Category: "boot", Message: "hi"}.Entry()
	assert.Nil(t, e.Scope)
	assert.Equal(t, "hi", e.Message())
	assert.NoError(t, e.Err)
}
