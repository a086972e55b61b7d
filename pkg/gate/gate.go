package gate

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

// ErrDropped is returned by a Dispatcher that found no destination for an
// entry. Dropped entries are counted but not treated as failures.
var ErrDropped = errors.New("gate: entry dropped")

// Dispatcher delivers one entry to its destination.
type Dispatcher func(e *log.Entry) error

type state uint8

const (
	stateOpen state = iota
	stateLocked
	stateDraining
)

// Stats is a snapshot of the gate counters.
type Stats struct {
	Delivered uint64
	Failed    uint64
	Dropped   uint64
	Queued    int
}

// Option configures a Gate.
type Option func(*Gate)

// WithUnlocked creates the gate open instead of locked.
func WithUnlocked() Option {
	return func(g *Gate) { g.state = stateOpen }
}

// WithLogger reports delivery failures at Debug level. Nil disables.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// Gate owns the pending queue and the locked flag.
// It is safe for concurrent use.
type Gate struct {
	// mu orders state transitions against Emit. Emit holds it shared.
	mu    sync.RWMutex
	state state

	qmu   sync.Mutex
	queue []*log.Entry

	// drainMu serializes drain passes.
	drainMu sync.Mutex

	dispatch Dispatcher
	logger   *slog.Logger

	subMu   sync.Mutex
	subs    []subscriber
	nextSub uint64

	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

type subscriber struct {
	id uint64
	fn func(locked bool)
}

// New creates a locked gate delivering through dispatch.
func New(dispatch Dispatcher, opts ...Option) *Gate {
	g := &Gate{
		state:    stateLocked,
		dispatch: dispatch,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Emit queues e while the gate is locked or draining, and delivers it
// immediately otherwise. It never blocks on delivery of other entries.
func (g *Gate) Emit(e *log.Entry) {
	if e == nil {
		return
	}

	g.mu.RLock()
	if g.state != stateOpen {
		g.qmu.Lock()
		g.queue = append(g.queue, e)
		g.qmu.Unlock()
		g.mu.RUnlock()
		return
	}
	g.mu.RUnlock()

	g.deliver(e)
}

// SetLocked locks or unlocks the gate. Unlocking drains the pending queue
// on the calling goroutine before it returns, unless a drain is already in
// progress, in which case that drain delivers the queue and this call
// returns immediately. A dispatcher may therefore relock and unlock the gate
// while it is being drained.
func (g *Gate) SetLocked(locked bool) {
	if locked {
		g.mu.Lock()
		if g.state == stateLocked {
			g.mu.Unlock()
			return
		}
		g.state = stateLocked
		g.mu.Unlock()
		g.notify(true)
		return
	}

	g.mu.Lock()
	if g.state != stateLocked {
		g.mu.Unlock()
		return
	}
	g.state = stateDraining
	g.mu.Unlock()

	if g.drain() {
		g.notify(false)
	}
}

// drain runs drain passes until no unlock is left pending. It returns true
// if one of its passes opened the gate. When another pass is already
// running, including one further up the calling goroutine's stack from a
// dispatcher that relocked and unlocked the gate, drain returns false at
// once and that pass carries on with the queue.
func (g *Gate) drain() bool {
	opened := false
	for {
		if !g.drainMu.TryLock() {
			return opened
		}
		if g.drainPass() {
			opened = true
		}
		g.drainMu.Unlock()

		// An unlock that lost TryLock against this pass relies on it to
		// pick up the draining state.
		g.mu.RLock()
		pending := g.state == stateDraining
		g.mu.RUnlock()
		if !pending {
			return opened
		}
	}
}

// drainPass delivers queued entries until the queue stays empty, then
// opens the gate. It returns false if the gate was locked again before the
// pass could open it. Callers hold drainMu.
func (g *Gate) drainPass() bool {
	for {
		g.mu.Lock()
		if g.state != stateDraining {
			g.mu.Unlock()
			return false
		}

		g.qmu.Lock()
		batch := g.queue
		g.queue = nil
		g.qmu.Unlock()

		if len(batch) == 0 {
			g.state = stateOpen
			g.mu.Unlock()
			return true
		}
		g.mu.Unlock()

		for _, e := range batch {
			g.deliver(e)
		}
	}
}

func (g *Gate) deliver(e *log.Entry) {
	err := g.safeDispatch(e)
	switch {
	case err == nil:
		g.delivered.Add(1)
	case errors.Is(err, ErrDropped):
		g.dropped.Add(1)
	default:
		g.failed.Add(1)
		g.debugLog("trace entry delivery failed", "key", e.Key(), "error", err)
	}
}

func (g *Gate) safeDispatch(e *log.Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gate: dispatcher panicked: %v", r)
		}
	}()
	if g.dispatch == nil {
		return ErrDropped
	}
	return g.dispatch(e)
}

// Locked reports whether entries are currently being queued.
func (g *Gate) Locked() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state != stateOpen
}

// Len returns the number of queued entries.
func (g *Gate) Len() int {
	g.qmu.Lock()
	defer g.qmu.Unlock()
	return len(g.queue)
}

// Stats returns a snapshot of the delivery counters.
func (g *Gate) Stats() Stats {
	return Stats{
		Delivered: g.delivered.Load(),
		Failed:    g.failed.Load(),
		Dropped:   g.dropped.Load(),
		Queued:    g.Len(),
	}
}

// Subscribe registers fn to be called after every lock state transition.
// Callbacks run on the goroutine that changed the state.
func (g *Gate) Subscribe(fn func(locked bool)) (cancel func()) {
	g.subMu.Lock()
	defer g.subMu.Unlock()

	g.nextSub++
	id := g.nextSub
	g.subs = append(g.subs, subscriber{id: id, fn: fn})

	return func() {
		g.subMu.Lock()
		defer g.subMu.Unlock()
		for i, s := range g.subs {
			if s.id == id {
				g.subs = append(g.subs[:i:i], g.subs[i+1:]...)
				return
			}
		}
	}
}

func (g *Gate) notify(locked bool) {
	g.subMu.Lock()
	subs := make([]subscriber, len(g.subs))
	copy(subs, g.subs)
	g.subMu.Unlock()

	for _, s := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					g.debugLog("gate subscriber panicked", "panic", r)
				}
			}()
			s.fn(locked)
		}()
	}
}

func (g *Gate) debugLog(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}
