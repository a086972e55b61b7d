package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalRecords int
	ByLevel      map[log.Level]int
	ByKind       map[log.Kind]int
	ByKey        map[string]int
	Goroutines   map[int64]int
	Errors       int

	// Slowest holds completed scopes ordered by descending duration.
	Slowest []ScopeTiming

	// Open counts scopes that started but never stopped.
	Open int

	TimeRange struct {
		Start time.Time
		End   time.Time
	}
}

// ScopeTiming is the duration of one completed scope.
type ScopeTiming struct {
	ScopeID  string
	Label    string
	Duration time.Duration
}

// DefaultSlowest is the number of slowest scopes reported.
const DefaultSlowest = 5

// CollectStats reads every record of the trace file, keeping up to slowest
// scope timings.
func CollectStats(path string, slowest int) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		ByLevel:    make(map[log.Level]int),
		ByKind:     make(map[log.Kind]int),
		ByKey:      make(map[string]int),
		Goroutines: make(map[int64]int),
	}
	open := make(map[string]struct{})

	err = eachRecord(reader, func(rec log.Record) error {
		stats.TotalRecords++
		stats.ByLevel[rec.Level]++
		stats.ByKind[rec.Kind]++
		if rec.Key != "" {
			stats.ByKey[rec.Key]++
		}
		stats.Goroutines[rec.GoroutineID]++
		if rec.Error != "" {
			stats.Errors++
		}

		if stats.TimeRange.Start.IsZero() || rec.Time.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = rec.Time
		}
		if rec.Time.After(stats.TimeRange.End) {
			stats.TimeRange.End = rec.Time
		}

		switch rec.Kind {
		case log.KindStart:
			open[rec.ScopeID] = struct{}{}
		case log.KindStop:
			delete(open, rec.ScopeID)
			stats.Slowest = append(stats.Slowest, ScopeTiming{
				ScopeID:  rec.ScopeID,
				Label:    recordLabel(rec),
				Duration: rec.Duration,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats.Open = len(open)
	sort.SliceStable(stats.Slowest, func(i, j int) bool {
		return stats.Slowest[i].Duration > stats.Slowest[j].Duration
	})
	if slowest >= 0 && len(stats.Slowest) > slowest {
		stats.Slowest = stats.Slowest[:slowest]
	}
	return stats, nil
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path, DefaultSlowest)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func recordLabel(rec log.Record) string {
	switch {
	case rec.Name != "":
		return rec.Name
	case rec.Member != "":
		return rec.Key + "." + rec.Member
	default:
		return rec.Key
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalRecords > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Records: %d\n", stats.TotalRecords)
	fmt.Fprintf(w, "Goroutines:    %d\n", len(stats.Goroutines))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Records by Level:")
	for l := log.LevelTrace; l < log.LevelNone; l++ {
		if count := stats.ByLevel[l]; count > 0 {
			fmt.Fprintf(w, "  %-13s %d\n", l.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Records by Kind:")
	for _, k := range []log.Kind{log.KindMessage, log.KindStart, log.KindStop} {
		if count := stats.ByKind[k]; count > 0 {
			fmt.Fprintf(w, "  %-13s %d\n", k.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.ByKey) > 0 {
		keys := make([]string, 0, len(stats.ByKey))
		for k := range stats.ByKey {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "Records by Key:")
		for _, k := range keys {
			fmt.Fprintf(w, "  %-24s %d\n", k+":", stats.ByKey[k])
		}
		fmt.Fprintln(w)
	}

	if len(stats.Slowest) > 0 {
		fmt.Fprintln(w, "Slowest Scopes:")
		for _, s := range stats.Slowest {
			fmt.Fprintf(w, "  %-32s %s\n", s.Label, s.Duration.Round(time.Microsecond))
		}
		fmt.Fprintln(w)
	}

	if stats.Open > 0 {
		fmt.Fprintf(w, "Open Scopes: %d\n", stats.Open)
	}
	if stats.Errors > 0 {
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
