// Package log defines the trace entry model and the sinks entries are
// delivered to.
//
// An Entry is one log event produced inside a code section. Its message is
// produced lazily: the Message capability runs at most once, and only when a
// sink enabled for the entry's level asks for the text.
//
// # Sinks
//
// Applications configure delivery by providing Sink implementations:
//
//	// Console output with colored level tags
//	sink := log.NewConsoleSink(os.Stderr, log.DefaultFormatOptions(), log.ColorAuto)
//
//	// Binary trace file, viewable with the tracelog CLI
//	file, _ := log.NewFileSink("/var/log/app/trace.tlog")
//
//	// Both, plus the process slog logger
//	log.NewMultiSink(sink, file, log.NewSlogSink(slog.Default()))
//
// A sink that fails or panics never affects the other sinks of a MultiSink
// and never reaches the code that produced the entry.
//
// # File Format
//
// Trace files are a stream of CBOR-encoded Records using integer keys, with
// the .tlog extension. Reader streams them back with optional filtering.
package log
