package clock

import (
	"sync/atomic"
	"time"

	bclock "github.com/benbjohnson/clock"
)

// TicksPerMillisecond is the number of stopwatch ticks in one millisecond.
// One tick is one nanosecond.
const TicksPerMillisecond = int64(time.Millisecond)

// Stopwatch measures monotonic time elapsed since it was started.
// It is safe for concurrent use.
type Stopwatch struct {
	clk   bclock.Clock
	start time.Time
}

// NewStopwatch starts a stopwatch on the given clock.
// A nil clock selects the real wall clock.
func NewStopwatch(clk bclock.Clock) *Stopwatch {
	if clk == nil {
		clk = bclock.New()
	}
	return &Stopwatch{clk: clk, start: clk.Now()}
}

// Ticks returns the ticks elapsed since the stopwatch started.
func (s *Stopwatch) Ticks() int64 {
	return int64(s.clk.Now().Sub(s.start))
}

// Elapsed returns the time elapsed since the stopwatch started.
func (s *Stopwatch) Elapsed() time.Duration {
	return time.Duration(s.Ticks())
}

// Snapshot captures the current tick count.
func (s *Stopwatch) Snapshot() Snapshot {
	return Snapshot{Ticks: s.Ticks()}
}

// Now returns the wall-clock time of the underlying clock.
func (s *Stopwatch) Now() time.Time {
	return s.clk.Now()
}

// Started returns the wall-clock time the stopwatch was started.
func (s *Stopwatch) Started() time.Time {
	return s.start
}

// Snapshot is a tick count taken at a point in time.
type Snapshot struct {
	Ticks int64
}

// Elapsed returns the snapshot as a duration since stopwatch start.
func (s Snapshot) Elapsed() time.Duration {
	return time.Duration(s.Ticks)
}

// Milliseconds returns whole milliseconds since stopwatch start.
func (s Snapshot) Milliseconds() int64 {
	return s.Ticks / TicksPerMillisecond
}

// Sub returns the duration between two snapshots.
func (s Snapshot) Sub(earlier Snapshot) time.Duration {
	return time.Duration(s.Ticks - earlier.Ticks)
}

var defaultStopwatch atomic.Pointer[Stopwatch]

func init() {
	defaultStopwatch.Store(NewStopwatch(nil))
}

// Default returns the process-wide stopwatch, started at package init.
func Default() *Stopwatch {
	return defaultStopwatch.Load()
}
