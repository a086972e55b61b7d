package log

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
)

func TestRecordJSONRoundTrip(t *testing.T) {
	rec := Record{
		Time:                time.Date(2026, 3, 14, 9, 26, 53, 589000000, time.UTC),
		Kind:                KindStop,
		Level:               LevelDebug,
		Key:                 "Worker",
		Category:            "jobs.worker",
		Source:              "jobs",
		ScopeID:             "scope-2",
		ParentID:            "scope-1",
		Member:              "Run",
		File:                "worker.go",
		Line:                42,
		Depth:               1,
		GoroutineID:         19,
		ElapsedMilliseconds: 1234,
		StartTicks:          987654,
		Duration:            1500 * time.Microsecond,
		Message:             "Worker.Run completed in 1.5ms",
		Error:               "boom",
		Properties:          map[string]any{"attempt": int64(3), "ratio": 0.25, "retry": true, "host": "a"},
		Process:             "worker",
		PID:                 4242,
	}

	v, err := fastjson.ParseBytes(rec.AppendJSON(nil))
	require.NoError(t, err)

	got, err := RecordFromJSON(v)
	require.NoError(t, err)
	assert.True(t, rec.Time.Equal(got.Time))
	got.Time = rec.Time
	assert.Equal(t, rec, got)
}

func TestRecordJSONUsesNames(t *testing.T) {
	rec := Record{Kind: KindStart, Level: LevelWarning, Message: "hi"}
	v, err := fastjson.ParseBytes(rec.AppendJSON(nil))
	require.NoError(t, err)

	assert.Equal(t, "start", string(v.GetStringBytes("kind")))
	assert.Equal(t, "Warning", string(v.GetStringBytes("level")))
	assert.False(t, v.Exists("key"))
	assert.False(t, v.Exists("properties"))
}

func TestRecordFromJSONDefaults(t *testing.T) {
	v := fastjson.MustParse(`{"message":"plain"}`)
	rec, err := RecordFromJSON(v)
	require.NoError(t, err)
	assert.Equal(t, KindMessage, rec.Kind)
	assert.Equal(t, LevelInformation, rec.Level)
	assert.True(t, rec.Time.IsZero())
	assert.Equal(t, "plain", rec.Message)
}

func TestRecordFromJSONRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"array", `[1,2]`},
		{"bad time", `{"time":"yesterday"}`},
		{"bad kind", `{"kind":"middle"}`},
		{"bad level", `{"level":"loud"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RecordFromJSON(fastjson.MustParse(tt.json))
			assert.ErrorIs(t, err, ErrInvalidRecord)
		})
	}
}
