package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output    string
	MinLevel  string
	Kind      string
	Key       string
	Category  string
	ScopeID   string
	Goroutine int64
	TimeStart string
	TimeEnd   string
}

// BuildFilter converts the textual options into a log.Filter.
func (opts FilterOptions) BuildFilter() (log.Filter, error) {
	filter := log.Filter{
		Key:         opts.Key,
		Category:    opts.Category,
		ScopeID:     opts.ScopeID,
		GoroutineID: opts.Goroutine,
	}

	if opts.MinLevel != "" {
		l, err := ParseLevelFlag(opts.MinLevel)
		if err != nil {
			return log.Filter{}, err
		}
		filter.MinLevel = &l
	}

	if opts.Kind != "" {
		k, err := ParseKindFlag(opts.Kind)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Kind = &k
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}
	return filter, nil
}

// RunFilter filters the trace file and writes matching records to a new
// trace file, reporting the count to w.
func RunFilter(path string, opts FilterOptions, w io.Writer) error {
	filter, err := opts.BuildFilter()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	sink, err := log.NewFileSink(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer sink.Close()

	count := 0
	err = eachRecord(reader, func(rec log.Record) error {
		if err := sink.Log(rec); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Filtered %d records to %s\n", count, opts.Output)
	return nil
}
