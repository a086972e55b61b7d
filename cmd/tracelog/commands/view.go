// Package commands implements the tracelog CLI commands.
package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

// ViewFilter specifies criteria for filtering records in the view command.
type ViewFilter struct {
	MinLevel *log.Level
	Kind     *log.Kind
	Key      string
	Category string
}

// ViewOptions controls how records are rendered.
type ViewOptions struct {
	Format log.FormatOptions
	Color  log.ColorMode
}

// DefaultViewOptions returns the options used by the view command.
func DefaultViewOptions() ViewOptions {
	return ViewOptions{Format: log.DefaultFormatOptions(), Color: log.ColorAuto}
}

// RunView reads the trace file and writes each matching record to w as an
// indented text line.
func RunView(path string, filter ViewFilter, opts ViewOptions, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, log.Filter{
		MinLevel: filter.MinLevel,
		Kind:     filter.Kind,
		Key:      filter.Key,
		Category: filter.Category,
	})
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	console := log.NewConsoleSink(w, opts.Format, opts.Color)
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read record: %w", err)
		}
		if err := console.Write(rec.Entry(), rec.Message); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
}

// ParseLevelFlag parses a --level flag value.
func ParseLevelFlag(s string) (log.Level, error) {
	return log.ParseLevel(s)
}

// ParseKindFlag parses a --kind flag value.
func ParseKindFlag(s string) (log.Kind, error) {
	return log.ParseKind(s)
}
