package resolve

import (
	"errors"
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

// ErrEmptyKey is returned when registering a resolver without a key.
var ErrEmptyKey = errors.New("resolve: empty key")

// Resolver produces the sink for a type key.
type Resolver interface {
	Resolve(key string) (log.Sink, bool)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(key string) (log.Sink, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(key string) (log.Sink, bool) { return f(key) }

// Static always resolves to the same sink.
func Static(s log.Sink) Resolver {
	return ResolverFunc(func(string) (log.Sink, bool) { return s, s != nil })
}

type resolution struct {
	sink log.Sink
	ok   bool
	gen  uint64
}

// Registry resolves keys lazily and caches each key's result until the
// registrations change. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]Resolver
	fallback  Resolver

	cache sync.Map // key -> resolution
	gen   atomic.Uint64
	group singleflight.Group
}

// NewRegistry creates an empty registry. Every key resolves to nothing
// until a resolver is registered.
func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[string]Resolver)}
}

// Register sets the resolver for key, replacing any earlier one.
func (r *Registry) Register(key string, res Resolver) error {
	if key == "" {
		return ErrEmptyKey
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if res == nil {
		delete(r.resolvers, key)
	} else {
		r.resolvers[key] = res
	}
	r.invalidate()
	return nil
}

// RegisterFunc registers fn as the resolver for key.
func (r *Registry) RegisterFunc(key string, fn func(key string) (log.Sink, bool)) error {
	if fn == nil {
		return r.Register(key, nil)
	}
	return r.Register(key, ResolverFunc(fn))
}

// RegisterSink registers a fixed sink for key.
func (r *Registry) RegisterSink(key string, s log.Sink) error {
	return r.Register(key, Static(s))
}

// Default sets the resolver used for keys without their own registration.
func (r *Registry) Default(res Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = res
	r.invalidate()
}

// invalidate drops cached resolutions. Callers hold mu.
func (r *Registry) invalidate() {
	r.gen.Add(1)
	r.cache.Clear()
}

// Resolve returns the sink for key. The resolver for a key runs once until
// registrations change, even under concurrent calls. A resolver that panics
// resolves to nothing.
func (r *Registry) Resolve(key string) (log.Sink, bool) {
	gen := r.gen.Load()
	if v, ok := r.cache.Load(key); ok {
		if res := v.(resolution); res.gen == gen {
			return res.sink, res.ok
		}
	}

	v, _, _ := r.group.Do(key+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		if v, ok := r.cache.Load(key); ok && v.(resolution).gen == r.gen.Load() {
			return v, nil
		}

		r.mu.RLock()
		res, found := r.resolvers[key]
		if !found {
			res = r.fallback
		}
		current := r.gen.Load()
		r.mu.RUnlock()

		out := resolution{gen: current}
		if res != nil {
			out.sink, out.ok = safeResolve(res, key)
		}
		if out.sink == nil {
			out.ok = false
		}
		r.cache.Store(key, out)
		return out, nil
	})
	res := v.(resolution)
	return res.sink, res.ok
}

// Keys returns the keys with an explicit registration.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.resolvers))
	for k := range r.resolvers {
		keys = append(keys, k)
	}
	return keys
}

func safeResolve(res Resolver, key string) (s log.Sink, ok bool) {
	defer func() {
		if recover() != nil {
			s, ok = nil, false
		}
	}()
	return res.Resolve(key)
}

// KeyOf returns the key for type T: the package-qualified type name, with
// pointer indirections removed.
func KeyOf[T any]() string {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}
