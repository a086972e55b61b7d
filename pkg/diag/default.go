package diag

import (
	"sync/atomic"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

var std atomic.Pointer[Tracer]

func init() {
	std.Store(New())
}

// Default returns the process-wide tracer. It starts locked with no sinks
// until configured with SetDefault or FromConfig.
func Default() *Tracer { return std.Load() }

// SetDefault replaces the process-wide tracer. Entries still queued on the
// previous tracer are moved to t in emission order, so bootstrap entries
// survive the switch. A nil t is ignored.
func SetDefault(t *Tracer) {
	if t == nil {
		return
	}
	prev := std.Swap(t)
	if prev == nil || prev == t {
		return
	}
	prev.forwardTo(t)
}

// forwardTo hands every entry t delivers from now on to next's gate, then
// drains t's queue into it.
func (t *Tracer) forwardTo(next *Tracer) {
	t.forward.Store(next)
	t.gate.SetLocked(false)
}

// BeginMethodScope begins a section on the default tracer.
func BeginMethodScope(key string, opts ...ScopeOption) *Section {
	return Default().begin(key, "", 1, opts)
}

// BeginNamedScope begins a named section on the default tracer.
func BeginNamedScope(key, name string, opts ...ScopeOption) *Section {
	return Default().begin(key, name, 1, opts)
}

// Log emits an entry on the default tracer.
func Log(level log.Level, msg log.Message, opts ...EntryOption) error {
	return Default().Log(level, msg, opts...)
}

// Trace logs msg at Trace level on the default tracer.
func Trace(msg string, opts ...EntryOption) { Default().Trace(msg, opts...) }

// Debug logs msg at Debug level on the default tracer.
func Debug(msg string, opts ...EntryOption) { Default().Debug(msg, opts...) }

// Info logs msg at Information level on the default tracer.
func Info(msg string, opts ...EntryOption) { Default().Info(msg, opts...) }

// Warn logs msg at Warning level on the default tracer.
func Warn(msg string, opts ...EntryOption) { Default().Warn(msg, opts...) }

// Error logs msg at Error level on the default tracer.
func Error(msg string, opts ...EntryOption) { Default().Error(msg, opts...) }

// Tracef logs a templated message at Trace level on the default tracer.
func Tracef(format string, args ...any) { Default().Tracef(format, args...) }

// Debugf logs a templated message at Debug level on the default tracer.
func Debugf(format string, args ...any) { Default().Debugf(format, args...) }

// Infof logs a templated message at Information level on the default tracer.
func Infof(format string, args ...any) { Default().Infof(format, args...) }

// Warnf logs a templated message at Warning level on the default tracer.
func Warnf(format string, args ...any) { Default().Warnf(format, args...) }

// Errorf logs a templated message at Error level on the default tracer.
func Errorf(format string, args ...any) { Default().Errorf(format, args...) }

// TraceFunc logs the result of fn at Trace level on the default tracer.
func TraceFunc(fn func() string, opts ...EntryOption) error {
	return Default().TraceFunc(fn, opts...)
}

// DebugFunc logs the result of fn at Debug level on the default tracer.
func DebugFunc(fn func() string, opts ...EntryOption) error {
	return Default().DebugFunc(fn, opts...)
}

// InfoFunc logs the result of fn at Information level on the default tracer.
func InfoFunc(fn func() string, opts ...EntryOption) error {
	return Default().InfoFunc(fn, opts...)
}

// WarnFunc logs the result of fn at Warning level on the default tracer.
func WarnFunc(fn func() string, opts ...EntryOption) error {
	return Default().WarnFunc(fn, opts...)
}

// ErrorFunc logs the result of fn at Error level on the default tracer.
func ErrorFunc(fn func() string, opts ...EntryOption) error {
	return Default().ErrorFunc(fn, opts...)
}

// Exception logs err on the default tracer.
func Exception(err error, opts ...EntryOption) error { return Default().Exception(err, opts...) }

// SetDeliveryLocked locks or unlocks delivery on the default tracer.
func SetDeliveryLocked(locked bool) { Default().SetDeliveryLocked(locked) }

// Ready unlocks delivery on the default tracer.
func Ready() { Default().Ready() }

// Go runs fn on a goroutine adopting the caller's current section of the
// default tracer.
func Go(fn func()) { Default().Go(fn) }
