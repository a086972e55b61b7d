package log

import (
	"context"
	"log/slog"
)

// SlogSink writes entries to an slog.Logger.
// Useful when the host already routes its own logs through slog.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a new SlogSink that writes to the given slog.Logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

// Enabled reports whether the slog handler accepts the mapped level.
func (s *SlogSink) Enabled(level Level) bool {
	return level < LevelNone && s.logger.Enabled(context.Background(), level.Slog())
}

// Write logs the entry with its provenance as attributes.
func (s *SlogSink) Write(e *Entry, message string) error {
	attrs := []slog.Attr{
		slog.String("kind", e.Kind.String()),
		slog.Int64("elapsed_ms", e.ElapsedMilliseconds),
		slog.Int64("goroutine", e.Thread.ID),
	}

	if e.Category != "" {
		attrs = append(attrs, slog.String("category", e.Category))
	}
	if e.Source != "" {
		attrs = append(attrs, slog.String("source", e.Source))
	}

	if sc := e.Scope; sc != nil {
		attrs = append(attrs,
			slog.String("key", sc.Key()),
			slog.String("scope_id", sc.ID()),
			slog.Int("depth", sc.Depth()),
		)
		if sc.Member() != "" {
			attrs = append(attrs, slog.String("member", sc.Member()))
		}
	}

	if e.Kind == KindStop {
		attrs = append(attrs, slog.Duration("duration", e.Duration))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	}
	if len(e.Properties) > 0 {
		props := make([]any, 0, len(e.Properties))
		for k, v := range e.Properties {
			props = append(props, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("properties", props...))
	}

	s.logger.LogAttrs(context.Background(), e.Level.Slog(), message, attrs...)
	return nil
}

// Compile-time interface satisfaction check.
var _ Sink = (*SlogSink)(nil)
