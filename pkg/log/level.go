package log

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is the severity of an entry.
type Level int8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInformation
	LevelWarning
	LevelError
	LevelCritical
	// LevelNone disables output when used as a minimum level.
	LevelNone
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "Trace"
	case LevelDebug:
		return "Debug"
	case LevelInformation:
		return "Information"
	case LevelWarning:
		return "Warning"
	case LevelError:
		return "Error"
	case LevelCritical:
		return "Critical"
	case LevelNone:
		return "None"
	default:
		return "Unknown"
	}
}

// Short returns the three-letter tag used by the text formatter.
func (l Level) Short() string {
	switch l {
	case LevelTrace:
		return "TRC"
	case LevelDebug:
		return "DBG"
	case LevelInformation:
		return "INF"
	case LevelWarning:
		return "WRN"
	case LevelError:
		return "ERR"
	case LevelCritical:
		return "CRT"
	case LevelNone:
		return "NON"
	default:
		return "???"
	}
}

// ParseLevel converts a level name to a Level. Matching is case-insensitive
// and accepts both full names and the three-letter tags.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "trc", "verbose":
		return LevelTrace, nil
	case "debug", "dbg":
		return LevelDebug, nil
	case "information", "info", "inf":
		return LevelInformation, nil
	case "warning", "warn", "wrn":
		return LevelWarning, nil
	case "error", "err":
		return LevelError, nil
	case "critical", "crit", "crt":
		return LevelCritical, nil
	case "none", "off":
		return LevelNone, nil
	default:
		return LevelNone, fmt.Errorf("invalid level: %q (expected: trace|debug|information|warning|error|critical|none)", s)
	}
}

// EventType is the trace-event severity encoding used by interop sinks.
type EventType int

const (
	EventCritical    EventType = 1
	EventError       EventType = 2
	EventWarning     EventType = 4
	EventInformation EventType = 8
	EventVerbose     EventType = 16
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventCritical:
		return "Critical"
	case EventError:
		return "Error"
	case EventWarning:
		return "Warning"
	case EventInformation:
		return "Information"
	case EventVerbose:
		return "Verbose"
	default:
		return "Unknown"
	}
}

// SourceLevels is a bit mask of accepted event types. It is the threshold
// a code section applies to the entries logged inside it.
type SourceLevels int

const (
	SourceOff         SourceLevels = 0
	SourceCritical    SourceLevels = 0x01
	SourceError       SourceLevels = 0x03
	SourceWarning     SourceLevels = 0x07
	SourceInformation SourceLevels = 0x0F
	SourceVerbose     SourceLevels = 0x1F
	SourceAll         SourceLevels = -1
)

// Allows reports whether an event of type t passes the mask.
func (s SourceLevels) Allows(t EventType) bool {
	return int(s)&int(t) != 0
}

// String returns the source level name.
func (s SourceLevels) String() string {
	switch s {
	case SourceOff:
		return "Off"
	case SourceCritical:
		return "Critical"
	case SourceError:
		return "Error"
	case SourceWarning:
		return "Warning"
	case SourceInformation:
		return "Information"
	case SourceVerbose:
		return "Verbose"
	case SourceAll:
		return "All"
	default:
		return fmt.Sprintf("SourceLevels(%#x)", int(s))
	}
}

// EventType maps the level onto the event type encoding.
func (l Level) EventType() EventType {
	switch l {
	case LevelInformation:
		return EventInformation
	case LevelWarning:
		return EventWarning
	case LevelError:
		return EventError
	case LevelCritical:
		return EventCritical
	default:
		return EventVerbose
	}
}

// SourceLevel maps the level onto the source level mask that admits it.
func (l Level) SourceLevel() SourceLevels {
	switch l {
	case LevelInformation:
		return SourceInformation
	case LevelWarning:
		return SourceWarning
	case LevelError:
		return SourceError
	case LevelCritical:
		return SourceCritical
	default:
		return SourceVerbose
	}
}

// Slog maps the level onto a log/slog level.
func (l Level) Slog() slog.Level {
	switch l {
	case LevelTrace:
		return slog.LevelDebug - 4
	case LevelDebug:
		return slog.LevelDebug
	case LevelInformation:
		return slog.LevelInfo
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelError + 4
	}
}

// Logrus maps the level onto a logrus level. Critical maps to ErrorLevel
// because logrus panics on PanicLevel entries.
func (l Level) Logrus() logrus.Level {
	switch l {
	case LevelTrace:
		return logrus.TraceLevel
	case LevelDebug:
		return logrus.DebugLevel
	case LevelInformation:
		return logrus.InfoLevel
	case LevelWarning:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}
