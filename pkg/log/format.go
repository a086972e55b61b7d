package log

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"
)

// Formatter renders an entry and its message into one line of output.
type Formatter interface {
	Format(e *Entry, message string) string
}

// FormatOptions controls the text rendering of entries.
type FormatOptions struct {
	// TimeFormat is the layout of the timestamp column. Empty omits it.
	TimeFormat string

	// UTC renders timestamps in UTC instead of local time.
	UTC bool

	// IncludeThreadID adds the goroutine id column.
	IncludeThreadID bool

	// CollapseMultiline replaces line breaks with ⏎ so every entry stays on
	// one line. Entries with DisableCRLFReplace keep their line breaks.
	CollapseMultiline bool

	// Indent prefixes the scope column with IndentWidth spaces per depth.
	Indent      bool
	IndentWidth int
}

// DefaultFormatOptions returns the options used by console sinks.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		TimeFormat:        "15:04:05.000",
		IncludeThreadID:   true,
		CollapseMultiline: true,
		Indent:            true,
		IndentWidth:       2,
	}
}

const lineBreakMark = "⏎"

// CollapseLineBreaks replaces CRLF, CR and LF with a visible marker.
func CollapseLineBreaks(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", lineBreakMark)
	s = strings.ReplaceAll(s, "\r", lineBreakMark)
	return strings.ReplaceAll(s, "\n", lineBreakMark)
}

// TextFormatter renders entries as aligned, human-readable columns:
//
//	time  elapsed  [gid]  indent key.member  LVL  message
type TextFormatter struct {
	Options FormatOptions
}

// NewTextFormatter creates a TextFormatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{Options: opts}
}

// Format implements Formatter.
func (f *TextFormatter) Format(e *Entry, message string) string {
	return f.format(e, message, e.Level.Short())
}

func (f *TextFormatter) format(e *Entry, message, level string) string {
	o := f.Options
	var b strings.Builder

	if o.TimeFormat != "" {
		ts := e.Time
		if o.UTC {
			ts = ts.UTC()
		}
		b.WriteString(ts.Format(o.TimeFormat))
		b.WriteString("  ")
	}

	fmt.Fprintf(&b, "%6dms  ", e.ElapsedMilliseconds)

	if o.IncludeThreadID {
		fmt.Fprintf(&b, "[%d]  ", e.Thread.ID)
	}

	if o.Indent && e.Scope != nil {
		width := o.IndentWidth
		if width <= 0 {
			width = 2
		}
		b.WriteString(strings.Repeat(" ", e.Scope.Depth()*width))
	}
	b.WriteString(scopeLabel(e))
	b.WriteString("  ")
	b.WriteString(level)
	b.WriteString("  ")

	switch e.Kind {
	case KindStart:
		b.WriteString("→ ")
	case KindStop:
		b.WriteString("← ")
	}

	if o.CollapseMultiline && !e.DisableCRLFReplace {
		message = CollapseLineBreaks(message)
	}
	b.WriteString(message)

	if e.Err != nil {
		b.WriteString(" error=")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// scopeLabel is key.member for method scopes and the explicit name for named
// scopes, falling back to the entry category.
func scopeLabel(e *Entry) string {
	s := e.Scope
	if s == nil {
		if e.Category != "" {
			return e.Category
		}
		return "-"
	}
	if s.Name() != "" {
		return s.Name()
	}
	if s.Member() == "" {
		return s.Key()
	}
	return s.Key() + "." + s.Member()
}

// JSONFormatter renders each entry as one JSON object.
type JSONFormatter struct{}

var jsonArenas fastjson.ArenaPool

// Format implements Formatter.
func (JSONFormatter) Format(e *Entry, message string) string {
	a := jsonArenas.Get()
	defer jsonArenas.Put(a)

	o := a.NewObject()
	o.Set("time", a.NewString(e.Time.Format(time.RFC3339Nano)))
	o.Set("kind", a.NewString(e.Kind.String()))
	o.Set("level", a.NewString(e.Level.String()))
	o.Set("eventType", a.NewNumberInt(int(e.EventType)))
	o.Set("elapsedMs", a.NewNumberString(strconv.FormatInt(e.ElapsedMilliseconds, 10)))
	o.Set("goroutine", a.NewNumberString(strconv.FormatInt(e.Thread.ID, 10)))
	if e.Category != "" {
		o.Set("category", a.NewString(e.Category))
	}
	if e.Source != "" {
		o.Set("source", a.NewString(e.Source))
	}
	if s := e.Scope; s != nil {
		o.Set("key", a.NewString(s.Key()))
		o.Set("scope", a.NewString(s.ID()))
		if s.ParentID() != "" {
			o.Set("parent", a.NewString(s.ParentID()))
		}
		if s.Member() != "" {
			o.Set("member", a.NewString(s.Member()))
		}
		o.Set("depth", a.NewNumberInt(s.Depth()))
	}
	if e.Kind == KindStop {
		o.Set("durationMs", a.NewNumberFloat64(float64(e.Duration)/float64(time.Millisecond)))
	}
	o.Set("message", a.NewString(message))
	if e.Err != nil {
		o.Set("error", a.NewString(e.Err.Error()))
	}
	if len(e.Properties) > 0 {
		props := a.NewObject()
		for k, v := range e.Properties {
			props.Set(k, jsonValue(a, v))
		}
		o.Set("properties", props)
	}
	return string(o.MarshalTo(nil))
}

func jsonValue(a *fastjson.Arena, v any) *fastjson.Value {
	switch x := v.(type) {
	case nil:
		return a.NewNull()
	case string:
		return a.NewString(x)
	case bool:
		if x {
			return a.NewTrue()
		}
		return a.NewFalse()
	case int:
		return a.NewNumberInt(x)
	case int64:
		return a.NewNumberString(strconv.FormatInt(x, 10))
	case uint64:
		return a.NewNumberString(strconv.FormatUint(x, 10))
	case float64:
		return a.NewNumberFloat64(x)
	case fmt.Stringer:
		return a.NewString(x.String())
	default:
		return a.NewString(fmt.Sprint(x))
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Formatter = (*TextFormatter)(nil)
	_ Formatter = JSONFormatter{}
)
