package diag

import (
	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
	"github.com/MatteoDelliRocioli/telemetry/pkg/scope"
)

// Logger logs ad-hoc entries under a fixed key without opening a section.
// Its entries resolve sinks by that key and nest under the calling
// goroutine's current section, if any.
type Logger struct {
	emitter

	key string
}

// Logger returns a handle that logs under key. An empty key logs under
// InternalKey.
func (t *Tracer) Logger(key string) *Logger {
	if key == "" {
		key = InternalKey
	}
	l := &Logger{key: key}
	l.emitter = emitter{t: t, anchor: l.anchor}
	return l
}

// Key returns the key entries are logged under.
func (l *Logger) Key() string { return l.key }

func (l *Logger) anchor() *scope.Node {
	spec := scope.NodeSpec{
		Key:        l.key,
		Source:     sourceOf(l.key),
		Level:      log.LevelDebug,
		MinLevel:   log.LevelTrace,
		StartTicks: l.t.sw.Ticks(),
	}
	if cur := l.t.stack.Current(); cur != nil {
		spec.Parent = l.t.stack.Inner(cur)
		spec.MinLevel = cur.MinLevel()
	}
	return scope.Synthetic(spec)
}

// NewLogger returns a keyed handle on the default tracer.
func NewLogger(key string) *Logger { return Default().Logger(key) }
