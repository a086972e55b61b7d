package scope

import (
	"sync"

	"github.com/MatteoDelliRocioli/telemetry/pkg/clock"
)

// Stack holds the current node of every goroutine.
// It is safe for concurrent use.
type Stack struct {
	sw    *clock.Stopwatch
	cells sync.Map // goroutine id -> *Node
}

// NewStack creates an empty stack timed by sw. A nil stopwatch uses
// clock.Default().
func NewStack(sw *clock.Stopwatch) *Stack {
	if sw == nil {
		sw = clock.Default()
	}
	return &Stack{sw: sw}
}

// Stopwatch returns the stopwatch used for start ticks.
func (s *Stack) Stopwatch() *clock.Stopwatch { return s.sw }

// Enter creates a node whose parent is spec.Parent or, when unset, the
// calling goroutine's current node, and makes it current.
func (s *Stack) Enter(spec NodeSpec) *Node {
	gid := clock.GoroutineID()

	current := s.load(gid)
	parent := spec.Parent
	if parent == nil {
		parent = current
	}
	if spec.StartTicks == 0 {
		spec.StartTicks = s.sw.Ticks()
	}

	n := newNode(spec, parent, false)
	n.restore = current
	s.cells.Store(gid, n)
	return n
}

// Current returns the calling goroutine's current node, or nil.
func (s *Stack) Current() *Node {
	return s.load(clock.GoroutineID())
}

// Exit makes n's parent current for the calling goroutine, whatever node
// is current at the time. A node entered with an explicit parent restores
// the node that was current when it was entered instead.
//
// A goroutine's cell is removed once Exit or an Adopt restore leaves it
// with no current node. A goroutine that returns while a node is still
// current keeps its cell for the life of the Stack, since goroutine ids
// are not reused. Run such goroutines through Adopt, whose restore clears
// the cell however the goroutine left its nodes.
func (s *Stack) Exit(n *Node) {
	if n == nil {
		return
	}
	s.set(clock.GoroutineID(), n.restore)
}

// Adopt makes n current for the calling goroutine and returns a function
// that restores the previous node. Goroutines started on behalf of a section
// call it first so their entries keep the logical parent.
func (s *Stack) Adopt(n *Node) (restore func()) {
	gid := clock.GoroutineID()
	prev := s.load(gid)
	s.set(gid, n)
	return func() { s.set(gid, prev) }
}

// Inner returns the cached synthetic child of parent, or nil for a nil
// parent.
func (s *Stack) Inner(parent *Node) *Node {
	if parent == nil {
		return nil
	}
	return parent.Inner(s.sw.Ticks())
}

// Len returns the number of goroutines with a current node.
func (s *Stack) Len() int {
	n := 0
	s.cells.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (s *Stack) load(gid int64) *Node {
	v, ok := s.cells.Load(gid)
	if !ok {
		return nil
	}
	return v.(*Node)
}

func (s *Stack) set(gid int64, n *Node) {
	if n == nil {
		s.cells.Delete(gid)
		return
	}
	s.cells.Store(gid, n)
}
