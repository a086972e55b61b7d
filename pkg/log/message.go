package log

import "fmt"

// Message produces the text of an entry on demand.
type Message interface {
	Produce() string
}

// Text is a pre-rendered message.
type Text string

// Produce returns the text unchanged.
func (t Text) Produce() string { return string(t) }

type funcMessage func() string

func (f funcMessage) Produce() string { return f() }

// Func wraps a producer function. A nil function yields a nil Message.
func Func(fn func() string) Message {
	if fn == nil {
		return nil
	}
	return funcMessage(fn)
}

type formatted struct {
	format string
	args   []any
}

func (f formatted) Produce() string {
	if len(f.args) == 0 {
		return f.format
	}
	return fmt.Sprintf(f.format, f.args...)
}

// Sprintf defers fmt.Sprintf until the message is needed.
func Sprintf(format string, args ...any) Message {
	return formatted{format: format, args: args}
}
