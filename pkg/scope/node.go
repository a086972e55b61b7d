package scope

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

// NodeSpec holds the attributes of a section being entered.
type NodeSpec struct {
	// Key is the logical type key of the section owner.
	Key string

	// Name is an optional explicit section name.
	Name string

	Payload any

	// Level is the default level of the section's start and stop entries.
	Level log.Level

	// MinLevel is the lowest level logged inside the section.
	MinLevel log.Level

	Category   string
	Properties map[string]any
	Source     string

	// Member, File and Line locate the code that entered the section.
	Member string
	File   string
	Line   int

	// Parent overrides the goroutine's current node as parent.
	Parent *Node

	// StartTicks is the stopwatch reading at entry. Zero means now.
	StartTicks int64
}

var seq atomic.Uint64

// Node is one active or finished code section.
type Node struct {
	id     string
	seq    uint64
	parent *Node
	depth  int
	inner  bool
	spec   NodeSpec

	// restore is the node made current again on Exit. It is the parent
	// unless the parent was given explicitly.
	restore *Node

	innerOnce sync.Once
	innerNode *Node
}

func newNode(spec NodeSpec, parent *Node, inner bool) *Node {
	n := &Node{
		id:     uuid.NewString(),
		seq:    seq.Add(1),
		parent: parent,
		inner:  inner,
		spec:   spec,
	}
	n.spec.Parent = nil
	n.restore = parent
	if parent != nil {
		n.depth = parent.depth + 1
	}
	return n
}

// ID returns the unique node id.
func (n *Node) ID() string { return n.id }

// Seq returns the process-wide creation sequence number.
func (n *Node) Seq() uint64 { return n.seq }

// Parent returns the node that was current when n was entered.
func (n *Node) Parent() *Node { return n.parent }

// ParentID returns the parent id, or "" for a root node.
func (n *Node) ParentID() string {
	if n.parent == nil {
		return ""
	}
	return n.parent.id
}

// Key returns the logical type key sinks are resolved by.
func (n *Node) Key() string { return n.spec.Key }

// Name returns the explicit section name, or "".
func (n *Node) Name() string { return n.spec.Name }

// Member returns the name of the function that entered the section.
func (n *Node) Member() string { return n.spec.Member }

// File returns the base name of the source file that entered the section.
func (n *Node) File() string { return n.spec.File }

// Line returns the source line that entered the section.
func (n *Node) Line() int { return n.spec.Line }

// Depth returns the number of ancestors. Root nodes have depth 0.
func (n *Node) Depth() int { return n.depth }

// Source returns the source label, usually the package part of the key.
func (n *Node) Source() string { return n.spec.Source }

// Payload returns the value attached when the section began.
func (n *Node) Payload() any { return n.spec.Payload }

// IsInner reports whether n is a synthetic node anchoring ad-hoc entries.
func (n *Node) IsInner() bool { return n.inner }

// Category returns the explicit category, falling back to the key.
func (n *Node) Category() string {
	if n.spec.Category != "" {
		return n.spec.Category
	}
	return n.spec.Key
}

// Properties returns the section properties. Callers must not modify them.
func (n *Node) Properties() map[string]any { return n.spec.Properties }

// StartTicks returns the stopwatch reading at entry.
func (n *Node) StartTicks() int64 { return n.spec.StartTicks }

// Level returns the level of the section's own start and stop entries.
func (n *Node) Level() log.Level { return n.spec.Level }

// MinLevel returns the lowest level logged inside the section.
func (n *Node) MinLevel() log.Level { return n.spec.MinLevel }

// Inner returns the synthetic child used to anchor ad-hoc entries logged
// directly inside n. It is created on first use and reused afterwards.
func (n *Node) Inner(startTicks int64) *Node {
	n.innerOnce.Do(func() {
		spec := n.spec
		spec.StartTicks = startTicks
		n.innerNode = newNode(spec, n, true)
	})
	return n.innerNode
}

var _ log.Scope = (*Node)(nil)

// Synthetic creates a detached inner node that is not current on any
// goroutine. Its parent is spec.Parent. It anchors entries logged where no
// section is active.
func Synthetic(spec NodeSpec) *Node {
	return newNode(spec, spec.Parent, true)
}
