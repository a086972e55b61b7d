package diag

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MatteoDelliRocioli/telemetry/pkg/clock"
	"github.com/MatteoDelliRocioli/telemetry/pkg/gate"
	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
	"github.com/MatteoDelliRocioli/telemetry/pkg/resolve"
	"github.com/MatteoDelliRocioli/telemetry/pkg/scope"
)

// InternalKey keys the synthetic section of entries logged outside any
// section.
const InternalKey = "diag.internal"

// ErrNilMessage is returned when a message producer is nil.
var ErrNilMessage = log.ErrNilMessage

// ErrEmptyKey is returned when registering a sink without a key.
var ErrEmptyKey = resolve.ErrEmptyKey

// Option configures a Tracer.
type Option func(*tracerConfig)

type tracerConfig struct {
	sw       *clock.Stopwatch
	registry *resolve.Registry
	sinks    []log.Sink
	unlocked bool
	logger   *slog.Logger
}

// WithStopwatch sets the elapsed-time source. Defaults to clock.Default().
func WithStopwatch(sw *clock.Stopwatch) Option {
	return func(c *tracerConfig) { c.sw = sw }
}

// WithRegistry sets the sink registry.
func WithRegistry(r *resolve.Registry) Option {
	return func(c *tracerConfig) { c.registry = r }
}

// WithSink adds a sink to the default resolver. Sinks implementing
// io.Closer are closed by Tracer.Close.
func WithSink(s log.Sink) Option {
	return func(c *tracerConfig) {
		if s != nil {
			c.sinks = append(c.sinks, s)
		}
	}
}

// WithUnlocked starts the tracer with delivery open.
func WithUnlocked() Option {
	return func(c *tracerConfig) { c.unlocked = true }
}

// WithLogger reports internal delivery failures at Debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *tracerConfig) { c.logger = logger }
}

// Tracer begins sections and emits entries.
// It is safe for concurrent use.
type Tracer struct {
	emitter

	sw       *clock.Stopwatch
	stack    *scope.Stack
	gate     *gate.Gate
	registry *resolve.Registry
	logger   *slog.Logger

	// forward receives all deliveries once this tracer was replaced as the
	// default.
	forward atomic.Pointer[Tracer]

	closeOnce sync.Once
	closers   []io.Closer
}

// New creates a Tracer. Delivery starts locked unless WithUnlocked is given.
func New(opts ...Option) *Tracer {
	cfg := tracerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sw == nil {
		cfg.sw = clock.Default()
	}
	if cfg.registry == nil {
		cfg.registry = resolve.NewRegistry()
	}

	t := &Tracer{
		sw:       cfg.sw,
		stack:    scope.NewStack(cfg.sw),
		registry: cfg.registry,
		logger:   cfg.logger,
	}
	t.emitter = emitter{t: t, anchor: t.ambient}

	if len(cfg.sinks) > 0 {
		var sink log.Sink = cfg.sinks[0]
		if len(cfg.sinks) > 1 {
			sink = log.NewMultiSink(cfg.sinks...)
		}
		t.registry.Default(resolve.Static(sink))
		for _, s := range cfg.sinks {
			if c, ok := s.(io.Closer); ok {
				t.closers = append(t.closers, c)
			}
		}
	}

	gateOpts := []gate.Option{gate.WithLogger(cfg.logger)}
	if cfg.unlocked {
		gateOpts = append(gateOpts, gate.WithUnlocked())
	}
	t.gate = gate.New(t.dispatch, gateOpts...)
	return t
}

// dispatch resolves the sink for the entry key and delivers to it.
// A resolution miss drops the entry.
func (t *Tracer) dispatch(e *log.Entry) error {
	if next := t.forward.Load(); next != nil {
		next.gate.Emit(e)
		return nil
	}
	sink, ok := t.registry.Resolve(e.Key())
	if !ok {
		return gate.ErrDropped
	}
	return log.Dispatch(sink, e)
}

// ambient returns the anchor for entries logged on the tracer: the inner
// section of the current section, or a fresh synthetic section.
func (t *Tracer) ambient() *scope.Node {
	if cur := t.stack.Current(); cur != nil {
		return t.stack.Inner(cur)
	}
	return scope.Synthetic(scope.NodeSpec{
		Key:        InternalKey,
		Member:     "Unknown",
		Level:      log.LevelDebug,
		MinLevel:   log.LevelTrace,
		StartTicks: t.sw.Ticks(),
	})
}

// Current returns the calling goroutine's current section node, or nil.
func (t *Tracer) Current() *scope.Node { return t.stack.Current() }

// Registry returns the sink registry.
func (t *Tracer) Registry() *resolve.Registry { return t.registry }

// Gate returns the delivery gate.
func (t *Tracer) Gate() *gate.Gate { return t.gate }

// Stopwatch returns the elapsed-time source.
func (t *Tracer) Stopwatch() *clock.Stopwatch { return t.sw }

// SetDeliveryLocked locks or unlocks delivery. Unlocking flushes queued
// entries in emission order before returning.
func (t *Tracer) SetDeliveryLocked(locked bool) { t.gate.SetLocked(locked) }

// Ready unlocks delivery once sinks are configured.
func (t *Tracer) Ready() { t.gate.SetLocked(false) }

// Close flushes queued entries and closes the sinks given with WithSink.
// Entries emitted after Close are still delivered to whatever the registry
// resolves.
func (t *Tracer) Close() error {
	var errs []error
	t.closeOnce.Do(func() {
		t.gate.SetLocked(false)
		for _, c := range t.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// Go runs fn on a new goroutine that adopts the caller's current section,
// so sections begun by fn nest under it.
func (t *Tracer) Go(fn func()) {
	parent := t.stack.Current()
	go func() {
		restore := t.stack.Adopt(parent)
		defer restore()
		fn()
	}()
}

// emit builds an entry anchored at node and hands it to the gate. Entries
// below the node's minimum level are discarded before the message exists.
func (t *Tracer) emit(kind log.Kind, level log.Level, msg log.Message, node *scope.Node, o entryOptions) error {
	if msg == nil {
		return ErrNilMessage
	}
	if level >= log.LevelNone || level < node.MinLevel() {
		return nil
	}

	e, err := log.NewEntry(level, msg)
	if err != nil {
		return err
	}
	snap := t.sw.Snapshot()

	e.Kind = kind
	e.Scope = node
	e.Thread = clock.Goroutine()
	e.Time = t.sw.Now()
	e.StartTicks = snap.Ticks
	e.ElapsedMilliseconds = snap.Milliseconds()
	e.Category = node.Category()
	e.Source = node.Source()
	e.Properties = node.Properties()
	e.DisableCRLFReplace = o.keepLineBreaks
	e.Err = o.err

	if o.category != "" {
		e.Category = o.category
	}
	if o.source != "" {
		e.Source = o.source
	}
	if o.properties != nil {
		e.Properties = o.properties
	}
	if kind == log.KindStop {
		e.Duration = o.duration
	}

	t.gate.Emit(e)
	return nil
}
