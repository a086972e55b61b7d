package recorder

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

func TestSinkRecordsInOrder(t *testing.T) {
	s := New().SetMinLevel(log.LevelInformation)

	for _, lvl := range []log.Level{log.LevelDebug, log.LevelInformation, log.LevelError} {
		e, err := log.NewEntry(lvl, log.Text(lvl.String()))
		require.NoError(t, err)
		require.NoError(t, log.Dispatch(s, e))
	}

	assert.Equal(t, []string{"Information", "Error"}, s.Messages())
	assert.Equal(t, []log.Kind{log.KindMessage, log.KindMessage}, s.Kinds())

	s.Reset()
	assert.Zero(t, s.Len())
}

func TestSinkFailWith(t *testing.T) {
	boom := errors.New("boom")
	s := New().FailWith(boom)

	e, _ := log.NewEntry(log.LevelError, log.Text("x"))
	assert.ErrorIs(t, log.Dispatch(s, e), boom)
	assert.Equal(t, 1, s.Len())
}

func TestWaitFor(t *testing.T) {
	s := New()
	go func() {
		e, _ := log.NewEntry(log.LevelInformation, log.Text("async"))
		s.Write(e, "async")
	}()

	assert.True(t, s.WaitFor(1, time.Second))
	assert.False(t, s.WaitFor(2, 10*time.Millisecond))
}
