package diag

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	bclock "github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/MatteoDelliRocioli/telemetry/internal/recorder"
	"github.com/MatteoDelliRocioli/telemetry/pkg/clock"
	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

func newTracer(t *testing.T, opts ...Option) (*Tracer, *recorder.Sink) {
	t.Helper()
	rec := recorder.New()
	tr := New(append([]Option{WithSink(rec)}, opts...)...)
	t.Cleanup(func() { tr.Close() })
	return tr, rec
}

func TestLockedEntryIsDeliveredAfterReady(t *testing.T) {
	tr, rec := newTracer(t)

	sec := tr.BeginMethodScope("Worker", WithMinLevel(log.LevelInformation))
	sec.Info("start")

	assert.Equal(t, 1, tr.Gate().Len())
	assert.Zero(t, rec.Len())

	tr.Ready()

	require.Equal(t, []string{"start"}, rec.Messages())
	got := rec.Records()[0].Entry
	assert.Equal(t, "Worker", got.Category)
	assert.GreaterOrEqual(t, got.ElapsedMilliseconds, int64(0))
	assert.Zero(t, tr.Gate().Len())

	sec.End()
}

func TestNestedSectionsEmitStopsInOrder(t *testing.T) {
	mock := bclock.NewMock()
	tr, rec := newTracer(t, WithStopwatch(clock.NewStopwatch(mock)), WithUnlocked())

	a := tr.BeginMethodScope("A")
	mock.Add(10 * time.Millisecond)
	b := tr.BeginMethodScope("B")
	mock.Add(5 * time.Millisecond)
	b.End()
	mock.Add(1 * time.Millisecond)
	a.End()

	var stops []*log.Entry
	for _, r := range rec.Records() {
		if r.Entry.Kind == log.KindStop {
			stops = append(stops, r.Entry)
		}
	}
	require.Len(t, stops, 2)
	assert.Equal(t, "B", stops[0].Key())
	assert.Equal(t, "A", stops[1].Key())
	assert.Equal(t, 5*time.Millisecond, stops[0].Duration)
	assert.Equal(t, 16*time.Millisecond, stops[1].Duration)
	assert.Nil(t, tr.Current())
}

func TestStartAndStopEntries(t *testing.T) {
	tr, rec := newTracer(t, WithUnlocked())

	func() {
		sec := tr.BeginMethodScope("Worker", WithPayload(42))
		defer sec.End()
		sec.Debug("inside")
	}()

	assert.Equal(t, []log.Kind{log.KindStart, log.KindMessage, log.KindStop}, rec.Kinds())
	msgs := rec.Messages()
	assert.Equal(t, "func1(42)", msgs[0])
	assert.Contains(t, msgs[2], "func1 completed in")

	start := rec.Records()[0].Entry
	assert.Equal(t, log.LevelDebug, start.Level)
	assert.Equal(t, "tracer_test.go", start.Scope.File())
}

func TestBeginCapturesCallerMember(t *testing.T) {
	tr, _ := newTracer(t, WithUnlocked())

	sec := tr.BeginMethodScope("Worker")
	defer sec.End()

	assert.Equal(t, "TestBeginCapturesCallerMember", sec.Node().Member())
	assert.Equal(t, "tracer_test.go", sec.Node().File())
	assert.Positive(t, sec.Node().Line())
}

func TestNamedScope(t *testing.T) {
	tr, rec := newTracer(t, WithUnlocked())

	sec := tr.BeginNamedScope("jobs.Worker", "batch-7", WithCategory("jobs"), WithProperties(map[string]any{"tenant": "acme"}))
	sec.End()

	first := rec.Records()[0]
	assert.Equal(t, "batch-7()", first.Message)
	assert.Equal(t, "jobs", first.Entry.Category)
	assert.Equal(t, "jobs", first.Entry.Source)
	assert.Equal(t, "acme", first.Entry.Properties["tenant"])
}

func TestEndIsIdempotent(t *testing.T) {
	tr, rec := newTracer(t, WithUnlocked())

	sec := tr.BeginMethodScope("Worker")
	sec.End()
	sec.End()

	var nilSection *Section
	assert.NotPanics(t, func() { nilSection.End() })
	assert.Equal(t, 2, rec.Len())
}

func TestGoroutinesSeeOnlyTheirOwnSections(t *testing.T) {
	tr, _ := newTracer(t, WithUnlocked())

	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			for j := 0; j < 100; j++ {
				sec := tr.BeginMethodScope("T")
				if tr.Current() != sec.Node() {
					return errors.New("current section belongs to another goroutine")
				}
				sec.End()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestLazyMessageRenderedOncePerEntry(t *testing.T) {
	a, b := recorder.New(), recorder.New()
	tr := New(WithSink(a), WithSink(b), WithUnlocked())

	var calls atomic.Int32
	require.NoError(t, tr.InfoFunc(func() string {
		calls.Add(1)
		return "computed"
	}))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{"computed"}, a.Messages())
	assert.Equal(t, []string{"computed"}, b.Messages())
}

func TestLazyMessageSkippedWhenNoSinkEnabled(t *testing.T) {
	rec := recorder.New().SetMinLevel(log.LevelError)
	tr := New(WithSink(rec))

	var calls atomic.Int32
	require.NoError(t, tr.DebugFunc(func() string {
		calls.Add(1)
		return "never"
	}))
	tr.Ready()

	assert.Zero(t, calls.Load())
	assert.Zero(t, rec.Len())
}

func TestFailingSinkDoesNotAffectOthers(t *testing.T) {
	healthy := recorder.New()
	panicking := log.SinkFunc(func(*log.Entry, string) error { panic("broken sink") })
	tr := New(WithSink(panicking), WithSink(healthy), WithUnlocked())

	assert.NotPanics(t, func() { tr.Error("still delivered") })
	assert.Equal(t, []string{"still delivered"}, healthy.Messages())
	assert.Equal(t, uint64(1), tr.Gate().Stats().Failed)
}

func TestNilMessagesAreReported(t *testing.T) {
	tr, rec := newTracer(t, WithUnlocked())

	assert.ErrorIs(t, tr.Log(log.LevelInformation, nil), ErrNilMessage)
	assert.ErrorIs(t, tr.InfoFunc(nil), ErrNilMessage)
	assert.ErrorIs(t, tr.Exception(nil), ErrNilMessage)
	assert.Zero(t, rec.Len())
}

func TestAdHocEntriesWithoutSection(t *testing.T) {
	tr, rec := newTracer(t, WithUnlocked())

	tr.Warn("orphan")

	require.Equal(t, 1, rec.Len())
	e := rec.Records()[0].Entry
	assert.Equal(t, InternalKey, e.Key())
	assert.True(t, e.Scope.IsInner())
	assert.Nil(t, tr.Current())
}

func TestAdHocEntriesShareInnerSection(t *testing.T) {
	tr, rec := newTracer(t, WithUnlocked())

	sec := tr.BeginMethodScope("Worker")
	tr.Info("one")
	tr.Info("two")
	sec.End()

	recs := rec.Records()
	require.Len(t, recs, 4)
	one, two := recs[1].Entry.Scope, recs[2].Entry.Scope
	assert.Same(t, one, two)
	assert.True(t, one.IsInner())
	assert.Equal(t, sec.Node().ID(), one.ParentID())
	assert.Equal(t, "Worker", recs[1].Entry.Key())
}

func TestSectionMinLevelFilters(t *testing.T) {
	tr, rec := newTracer(t, WithUnlocked())

	sec := tr.BeginMethodScope("Worker", WithLevel(log.LevelInformation), WithMinLevel(log.LevelWarning))
	sec.Info("dropped")
	sec.Warn("kept")
	tr.Debug("dropped too")
	sec.End()

	assert.Equal(t, []string{"kept"}, rec.Messages())
}

func TestEntryOptions(t *testing.T) {
	tr, rec := newTracer(t, WithUnlocked())
	boom := errors.New("boom")

	require.NoError(t, tr.Log(log.LevelWarning, log.Text("a\nb"),
		EntryCategory("custom"),
		EntrySource("src"),
		EntryProperties(map[string]any{"k": "v"}),
		EntryErr(boom),
		KeepLineBreaks(),
	))

	e := rec.Records()[0].Entry
	assert.Equal(t, "custom", e.Category)
	assert.Equal(t, "src", e.Source)
	assert.Equal(t, "v", e.Properties["k"])
	assert.ErrorIs(t, e.Err, boom)
	assert.True(t, e.DisableCRLFReplace)
	assert.Equal(t, log.EventWarning, e.EventType)
	assert.Equal(t, log.SourceWarning, e.SourceLevel)
}

func TestExceptionAttachesError(t *testing.T) {
	tr, rec := newTracer(t, WithUnlocked())

	require.NoError(t, tr.Exception(errors.New("disk full")))

	r := rec.Records()[0]
	assert.Equal(t, log.LevelError, r.Entry.Level)
	assert.Contains(t, r.Message, "disk full")
	assert.EqualError(t, r.Entry.Err, "disk full")
}

func TestTemplatedEntries(t *testing.T) {
	tr, rec := newTracer(t, WithUnlocked())

	tr.Infof("%d items", 3)
	tr.Errorf("failed after %s", time.Second)

	assert.Equal(t, []string{"3 items", "failed after 1s"}, rec.Messages())
}

func TestOutOfOrderEndIsTolerated(t *testing.T) {
	tr, rec := newTracer(t, WithUnlocked())

	a := tr.BeginMethodScope("A")
	b := tr.BeginMethodScope("B")
	c := tr.BeginMethodScope("C")

	assert.NotPanics(t, func() {
		b.End()
		assert.Same(t, a.Node(), tr.Current())
		c.End()
		assert.Same(t, b.Node(), tr.Current())
		a.End()
	})
	assert.Nil(t, tr.Current())
	assert.Equal(t, 6, rec.Len())
}

func TestGoAdoptsCurrentSection(t *testing.T) {
	tr, rec := newTracer(t, WithUnlocked())

	parent := tr.BeginMethodScope("Request")
	var wg sync.WaitGroup
	wg.Add(1)
	tr.Go(func() {
		defer wg.Done()
		child := tr.BeginMethodScope("Async")
		child.End()
	})
	wg.Wait()
	parent.End()

	for _, r := range rec.Records() {
		if r.Entry.Key() == "Async" {
			assert.Equal(t, parent.Node().ID(), r.Entry.Scope.ParentID())
		}
	}
}

func TestGoReleasesGoroutineCell(t *testing.T) {
	tr, _ := newTracer(t, WithUnlocked())

	parent := tr.BeginMethodScope("Request")
	var wg sync.WaitGroup
	wg.Add(2)
	tr.Go(func() {
		defer wg.Done()
		tr.BeginMethodScope("Async").End()
	})
	tr.Go(func() {
		defer wg.Done()
		tr.BeginMethodScope("Unbalanced")
	})
	wg.Wait()

	// Go's restore runs after fn returns, so poll briefly.
	assert.Eventually(t, func() bool { return tr.stack.Len() == 1 }, time.Second, time.Millisecond)
	parent.End()
	assert.Zero(t, tr.stack.Len())
}

func TestParentFromContext(t *testing.T) {
	tr, _ := newTracer(t, WithUnlocked())

	parent := tr.BeginMethodScope("Request")
	ctx := parent.Context(context.Background())

	done := make(chan string)
	go func() {
		child := tr.BeginMethodScope("Handler", WithParentFrom(ctx))
		defer child.End()
		done <- child.Node().ParentID()
	}()

	assert.Equal(t, parent.Node().ID(), <-done)
	parent.End()
}

func TestResolutionPerKey(t *testing.T) {
	worker, fallback := recorder.New(), recorder.New()
	tr := New(WithSink(fallback), WithUnlocked())
	require.NoError(t, tr.Registry().RegisterSink("Worker", worker))

	w := tr.BeginMethodScope("Worker", WithMinLevel(log.LevelInformation))
	w.Info("to worker")
	w.End()
	tr.Info("to fallback")

	assert.Equal(t, []string{"to worker"}, worker.Messages())
	assert.Equal(t, []string{"to fallback"}, fallback.Messages())
}

func TestResolutionMissDrops(t *testing.T) {
	tr := New(WithUnlocked())

	assert.NotPanics(t, func() { tr.Info("nowhere") })
	assert.Equal(t, uint64(1), tr.Gate().Stats().Dropped)
}

func TestEmptyKeyInheritsCurrent(t *testing.T) {
	tr, _ := newTracer(t, WithUnlocked())

	root := tr.BeginMethodScope("")
	assert.Equal(t, InternalKey, root.Node().Key())

	outer := tr.BeginMethodScope("Worker")
	inner := tr.BeginMethodScope("")
	assert.Equal(t, "Worker", inner.Node().Key())

	inner.End()
	outer.End()
	root.End()
}

func TestCloseFlushesQueuedEntries(t *testing.T) {
	rec := recorder.New()
	tr := New(WithSink(rec))

	tr.Info("queued")
	require.NoError(t, tr.Close())

	assert.Equal(t, []string{"queued"}, rec.Messages())
	assert.False(t, tr.Gate().Locked())
}
