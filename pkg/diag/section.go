package diag

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
	"github.com/MatteoDelliRocioli/telemetry/pkg/scope"
)

// ScopeOption configures a section being begun.
type ScopeOption func(*scope.NodeSpec)

// WithPayload attaches a payload shown in the start entry.
func WithPayload(payload any) ScopeOption {
	return func(s *scope.NodeSpec) { s.Payload = payload }
}

// WithLevel sets the level of the section's start and stop entries.
// Defaults to Debug.
func WithLevel(level log.Level) ScopeOption {
	return func(s *scope.NodeSpec) { s.Level = level }
}

// WithMinLevel sets the lowest level logged inside the section.
// Defaults to Trace.
func WithMinLevel(level log.Level) ScopeOption {
	return func(s *scope.NodeSpec) { s.MinLevel = level }
}

// WithCategory overrides the category, which defaults to the key.
func WithCategory(category string) ScopeOption {
	return func(s *scope.NodeSpec) { s.Category = category }
}

// WithProperties attaches properties copied to every entry of the section.
func WithProperties(props map[string]any) ScopeOption {
	return func(s *scope.NodeSpec) { s.Properties = props }
}

// WithSource overrides the source label, which defaults to the package
// part of the key.
func WithSource(source string) ScopeOption {
	return func(s *scope.NodeSpec) { s.Source = source }
}

// WithParentFrom nests the section under the section carried by ctx
// instead of the goroutine's current one.
func WithParentFrom(ctx context.Context) ScopeOption {
	return func(s *scope.NodeSpec) {
		if p := scope.FromContext(ctx); p != nil {
			s.Parent = p
		}
	}
}

// Section is an active code section. End it exactly once, usually with
// defer; further calls to End are ignored.
type Section struct {
	emitter

	t     *Tracer
	node  *scope.Node
	ended atomic.Bool
}

// BeginMethodScope begins a section named after the calling function.
// An empty key inherits the current section's key, or InternalKey.
func (t *Tracer) BeginMethodScope(key string, opts ...ScopeOption) *Section {
	return t.begin(key, "", 1, opts)
}

// BeginNamedScope begins a section with an explicit name.
func (t *Tracer) BeginNamedScope(key, name string, opts ...ScopeOption) *Section {
	return t.begin(key, name, 1, opts)
}

// begin enters a section. skip is the number of frames between begin and
// the user code that begins the section.
func (t *Tracer) begin(key, name string, skip int, opts []ScopeOption) *Section {
	spec := scope.NodeSpec{
		Key:      key,
		Name:     name,
		Level:    log.LevelDebug,
		MinLevel: log.LevelTrace,
	}
	spec.Member, spec.File, spec.Line = caller(skip + 1)
	for _, opt := range opts {
		opt(&spec)
	}

	if spec.Key == "" {
		spec.Key = InternalKey
		if cur := t.stack.Current(); cur != nil {
			spec.Key = cur.Key()
		}
	}
	if spec.Source == "" {
		spec.Source = sourceOf(spec.Key)
	}

	node := t.stack.Enter(spec)
	s := &Section{t: t, node: node}
	s.emitter = emitter{t: t, anchor: s.Node}

	t.emit(log.KindStart, node.Level(), startMessage(node), node, entryOptions{})
	return s
}

// Node returns the section's scope node.
func (s *Section) Node() *scope.Node { return s.node }

// Context returns a copy of ctx carrying the section, for use with
// WithParentFrom on other goroutines.
func (s *Section) Context(ctx context.Context) context.Context {
	return scope.ContextWith(ctx, s.node)
}

// End emits the stop entry and restores the section that was current when
// this one began.
func (s *Section) End() {
	if s == nil || !s.ended.CompareAndSwap(false, true) {
		return
	}
	node := s.node
	d := time.Duration(s.t.sw.Ticks() - node.StartTicks())

	s.t.emit(log.KindStop, node.Level(), log.Func(func() string {
		return fmt.Sprintf("%s completed in %s", label(node), d.Round(time.Microsecond))
	}), node, entryOptions{duration: d})
	s.t.stack.Exit(node)
}

func startMessage(n *scope.Node) log.Message {
	return log.Func(func() string {
		if p := n.Payload(); p != nil {
			return fmt.Sprintf("%s(%v)", label(n), p)
		}
		return label(n) + "()"
	})
}

func label(n *scope.Node) string {
	if n.Name() != "" {
		return n.Name()
	}
	if n.Member() != "" {
		return n.Member()
	}
	return n.Key()
}

// caller returns the short function name, file base name and line of the
// function skip frames above the function calling caller.
func caller(skip int) (member, file string, line int) {
	pc, path, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "", "", 0
	}
	file = filepath.Base(path)
	if fn := runtime.FuncForPC(pc); fn != nil {
		member = shortFuncName(fn.Name())
	}
	return member, file, line
}

// shortFuncName turns "example.com/app/worker.(*Worker).Run" into "Run".
func shortFuncName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// sourceOf returns the package part of a dotted key.
func sourceOf(key string) string {
	if i := strings.LastIndex(key, "."); i > 0 {
		return key[:i]
	}
	return key
}
