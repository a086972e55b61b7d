package diag

import (
	"fmt"
	"time"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
	"github.com/MatteoDelliRocioli/telemetry/pkg/scope"
)

// EntryOption configures a single entry.
type EntryOption func(*entryOptions)

type entryOptions struct {
	category       string
	source         string
	properties     map[string]any
	err            error
	keepLineBreaks bool
	duration       time.Duration
}

// EntryCategory overrides the entry category.
func EntryCategory(category string) EntryOption {
	return func(o *entryOptions) { o.category = category }
}

// EntrySource overrides the entry source label.
func EntrySource(source string) EntryOption {
	return func(o *entryOptions) { o.source = source }
}

// EntryProperties replaces the properties inherited from the section.
func EntryProperties(props map[string]any) EntryOption {
	return func(o *entryOptions) { o.properties = props }
}

// EntryErr attaches an error to the entry.
func EntryErr(err error) EntryOption {
	return func(o *entryOptions) { o.err = err }
}

// KeepLineBreaks stops text formatters from collapsing line breaks.
func KeepLineBreaks() EntryOption {
	return func(o *entryOptions) { o.keepLineBreaks = true }
}

// emitter implements the logging entry points shared by Tracer and Section.
// anchor returns the node entries are attached to.
type emitter struct {
	t      *Tracer
	anchor func() *scope.Node
}

func (em emitter) submit(level log.Level, msg log.Message, opts []EntryOption) error {
	if msg == nil {
		return ErrNilMessage
	}
	var o entryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return em.t.emit(log.KindMessage, level, msg, em.anchor(), o)
}

// Log emits an entry at level. It returns ErrNilMessage when msg is nil and
// never fails otherwise.
func (em emitter) Log(level log.Level, msg log.Message, opts ...EntryOption) error {
	return em.submit(level, msg, opts)
}

// Trace logs msg at Trace level.
func (em emitter) Trace(msg string, opts ...EntryOption) {
	em.submit(log.LevelTrace, log.Text(msg), opts)
}

// Debug logs msg at Debug level.
func (em emitter) Debug(msg string, opts ...EntryOption) {
	em.submit(log.LevelDebug, log.Text(msg), opts)
}

// Info logs msg at Information level.
func (em emitter) Info(msg string, opts ...EntryOption) {
	em.submit(log.LevelInformation, log.Text(msg), opts)
}

// Warn logs msg at Warning level.
func (em emitter) Warn(msg string, opts ...EntryOption) {
	em.submit(log.LevelWarning, log.Text(msg), opts)
}

// Error logs msg at Error level.
func (em emitter) Error(msg string, opts ...EntryOption) {
	em.submit(log.LevelError, log.Text(msg), opts)
}

// Tracef logs a templated message at Trace level. Formatting is deferred
// until a sink needs the text.
func (em emitter) Tracef(format string, args ...any) {
	em.submit(log.LevelTrace, log.Sprintf(format, args...), nil)
}

// Debugf logs a templated message at Debug level.
func (em emitter) Debugf(format string, args ...any) {
	em.submit(log.LevelDebug, log.Sprintf(format, args...), nil)
}

// Infof logs a templated message at Information level.
func (em emitter) Infof(format string, args ...any) {
	em.submit(log.LevelInformation, log.Sprintf(format, args...), nil)
}

// Warnf logs a templated message at Warning level.
func (em emitter) Warnf(format string, args ...any) {
	em.submit(log.LevelWarning, log.Sprintf(format, args...), nil)
}

// Errorf logs a templated message at Error level.
func (em emitter) Errorf(format string, args ...any) {
	em.submit(log.LevelError, log.Sprintf(format, args...), nil)
}

// TraceFunc logs the result of fn at Trace level. fn runs at most once, and
// only if a sink accepts the entry.
func (em emitter) TraceFunc(fn func() string, opts ...EntryOption) error {
	return em.submit(log.LevelTrace, log.Func(fn), opts)
}

// DebugFunc is TraceFunc at Debug level.
func (em emitter) DebugFunc(fn func() string, opts ...EntryOption) error {
	return em.submit(log.LevelDebug, log.Func(fn), opts)
}

// InfoFunc is TraceFunc at Information level.
func (em emitter) InfoFunc(fn func() string, opts ...EntryOption) error {
	return em.submit(log.LevelInformation, log.Func(fn), opts)
}

// WarnFunc is TraceFunc at Warning level.
func (em emitter) WarnFunc(fn func() string, opts ...EntryOption) error {
	return em.submit(log.LevelWarning, log.Func(fn), opts)
}

// ErrorFunc is TraceFunc at Error level.
func (em emitter) ErrorFunc(fn func() string, opts ...EntryOption) error {
	return em.submit(log.LevelError, log.Func(fn), opts)
}

// Exception logs err at Error level with the error attached.
func (em emitter) Exception(err error, opts ...EntryOption) error {
	if err == nil {
		return ErrNilMessage
	}
	opts = append(opts, EntryErr(err))
	return em.submit(log.LevelError, log.Func(func() string {
		return fmt.Sprintf("%T: %v", err, err)
	}), opts)
}
