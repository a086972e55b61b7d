// Package clock provides the process-wide time and identity sources used by
// the tracing packages.
//
// Every trace entry carries ticks from the same Stopwatch, so elapsed values
// of entries produced by different goroutines are directly comparable. The
// stopwatch is driven by a github.com/benbjohnson/clock Clock, which lets
// tests substitute a mock clock and advance time deterministically.
//
// # Identity
//
// Process returns the process name, id and host, computed once. Goroutine
// captures the calling goroutine id, which plays the role a managed thread
// id plays in other runtimes.
package clock
