// Package scope tracks the code section each goroutine is currently
// executing.
//
// A Stack keeps one current Node per goroutine. Entering a section makes the
// current node its parent; exiting restores that parent. Exit does not
// enforce strict nesting: it always restores the exited node's recorded
// parent, so sections disposed out of order by asynchronous continuations
// never leave a goroutine without a current section. The price is that a
// stale section can become current again when siblings are disposed out of
// order.
//
// Goroutines started by a section do not inherit it automatically. Use
// Stack.Adopt, or carry the node in a context.Context with ContextWith.
package scope
