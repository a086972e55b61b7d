package log

import (
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ColorMode selects whether ConsoleSink colors level tags.
type ColorMode int

const (
	// ColorAuto colors output when the writer is a terminal.
	ColorAuto ColorMode = iota
	// ColorOn always colors output.
	ColorOn
	// ColorOff never colors output.
	ColorOff
)

// ParseColorMode converts auto|on|off to a ColorMode. Unknown values map to
// ColorAuto.
func ParseColorMode(s string) ColorMode {
	switch s {
	case "on", "always", "true":
		return ColorOn
	case "off", "never", "false":
		return ColorOff
	default:
		return ColorAuto
	}
}

var levelColors = map[Level]*color.Color{
	LevelTrace:       color.New(color.FgHiBlack),
	LevelDebug:       color.New(color.FgCyan),
	LevelInformation: color.New(color.FgGreen),
	LevelWarning:     color.New(color.FgYellow, color.Bold),
	LevelError:       color.New(color.FgRed, color.Bold),
	LevelCritical:    color.New(color.FgHiWhite, color.BgRed, color.Bold),
}

// ConsoleSink writes text-formatted entries to a console stream, coloring
// the level tag when enabled.
type ConsoleSink struct {
	mu       sync.Mutex
	w        io.Writer
	text     *TextFormatter
	colored  bool
	minLevel Level
}

// NewConsoleSink creates a ConsoleSink writing to w.
func NewConsoleSink(w io.Writer, opts FormatOptions, mode ColorMode) *ConsoleSink {
	return &ConsoleSink{
		w:       w,
		text:    NewTextFormatter(opts),
		colored: useColor(w, mode),
	}
}

func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorOn:
		return true
	case ColorOff:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Colored reports whether level tags are colored.
func (s *ConsoleSink) Colored() bool { return s.colored }

// SetMinLevel sets the lowest level written.
func (s *ConsoleSink) SetMinLevel(level Level) *ConsoleSink {
	s.mu.Lock()
	s.minLevel = level
	s.mu.Unlock()
	return s
}

// Enabled implements Sink.
func (s *ConsoleSink) Enabled(level Level) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return level >= s.minLevel && level < LevelNone
}

// Write implements Sink.
func (s *ConsoleSink) Write(e *Entry, message string) error {
	tag := e.Level.Short()
	if s.colored {
		if c, ok := levelColors[e.Level]; ok {
			tag = colorize(c, tag)
		}
	}
	line := s.text.format(e, message, tag) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, line)
	return err
}

// colorize forces color regardless of color.NoColor, which only reflects
// the process stdout.
func colorize(c *color.Color, s string) string {
	cc := *c
	cc.EnableColor()
	return cc.Sprint(s)
}

var _ Sink = (*ConsoleSink)(nil)
