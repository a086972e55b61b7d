// Package resolve maps type keys to the sinks that receive their entries.
//
// Keys are plain strings. KeyOf derives one from a Go type so call sites can
// write resolve.KeyOf[*Worker]() instead of repeating a literal. A key with
// no registered resolver falls back to the default resolver; a resolver
// that returns no sink means the entry is dropped.
package resolve
