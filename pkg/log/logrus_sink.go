package log

import (
	"github.com/sirupsen/logrus"
)

// LogrusSink forwards entries to a logrus logger.
type LogrusSink struct {
	logger *logrus.Logger
}

// NewLogrusSink creates a LogrusSink. A nil logger uses logrus.StandardLogger.
func NewLogrusSink(logger *logrus.Logger) *LogrusSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusSink{logger: logger}
}

// Enabled implements Sink.
func (s *LogrusSink) Enabled(level Level) bool {
	return level < LevelNone && s.logger.IsLevelEnabled(level.Logrus())
}

// Write implements Sink.
func (s *LogrusSink) Write(e *Entry, message string) error {
	fields := logrus.Fields{
		"kind":       e.Kind.String(),
		"elapsed_ms": e.ElapsedMilliseconds,
		"goroutine":  e.Thread.ID,
	}
	if e.Category != "" {
		fields["category"] = e.Category
	}
	if sc := e.Scope; sc != nil {
		fields["key"] = sc.Key()
		fields["scope_id"] = sc.ID()
		if sc.Member() != "" {
			fields["member"] = sc.Member()
		}
	}
	if e.Kind == KindStop {
		fields["duration"] = e.Duration.String()
	}
	for k, v := range e.Properties {
		if _, taken := fields[k]; !taken {
			fields[k] = v
		}
	}

	entry := s.logger.WithFields(fields)
	if e.Err != nil {
		entry = entry.WithError(e.Err)
	}
	if !e.Time.IsZero() {
		entry = entry.WithTime(e.Time)
	}
	entry.Log(e.Level.Logrus(), message)
	return nil
}

var _ Sink = (*LogrusSink)(nil)
