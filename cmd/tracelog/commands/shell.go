package commands

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

const defaultPage = 20

// Shell is an interactive browser over the records of one trace file.
type Shell struct {
	records []log.Record
	view    []int
	filter  log.Filter
	cursor  int
	console *log.ConsoleSink
	out     io.Writer
}

// NewShell loads every record of the trace file.
func NewShell(path string, out io.Writer, opts ViewOptions) (*Shell, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	records, err := reader.All()
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	s := &Shell{
		records: records,
		console: log.NewConsoleSink(out, opts.Format, opts.Color),
		out:     out,
	}
	s.apply()
	return s, nil
}

// RunShell starts the interactive command loop on the terminal.
func RunShell(path string, opts ViewOptions) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "tracelog> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("help"),
			readline.PcItem("next"),
			readline.PcItem("top"),
			readline.PcItem("level"),
			readline.PcItem("kind",
				readline.PcItem("message"),
				readline.PcItem("start"),
				readline.PcItem("stop"),
			),
			readline.PcItem("key"),
			readline.PcItem("category"),
			readline.PcItem("scope"),
			readline.PcItem("clear"),
			readline.PcItem("slow"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	s, err := NewShell(path, rl.Stdout(), opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Loaded %d records. Type 'help' for commands.\n", len(s.records))

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}
		if s.Exec(line) {
			return nil
		}
	}
}

// Exec runs one shell command and reports whether the shell should exit.
func (s *Shell) Exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "next", "n":
		s.cmdNext(args)
	case "top":
		s.cursor = 0
		s.cmdNext(args)
	case "level":
		s.cmdLevel(args)
	case "kind":
		s.cmdKind(args)
	case "key":
		s.filter.Key = argOrEmpty(args)
		s.apply()
	case "category", "cat":
		s.filter.Category = argOrEmpty(args)
		s.apply()
	case "scope":
		s.filter.ScopeID = argOrEmpty(args)
		s.apply()
	case "clear":
		s.filter = log.Filter{}
		s.apply()
	case "slow":
		s.cmdSlow(args)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

// Matched returns the number of records passing the current filter.
func (s *Shell) Matched() int { return len(s.view) }

func (s *Shell) apply() {
	s.view = s.view[:0]
	for i := range s.records {
		if s.filter.Matches(s.records[i]) {
			s.view = append(s.view, i)
		}
	}
	s.cursor = 0
}

func (s *Shell) cmdNext(args []string) {
	n := pageSize(args)
	if s.cursor >= len(s.view) {
		fmt.Fprintln(s.out, "(end of trace)")
		return
	}
	end := min(s.cursor+n, len(s.view))
	for _, idx := range s.view[s.cursor:end] {
		rec := s.records[idx]
		s.console.Write(rec.Entry(), rec.Message)
	}
	s.cursor = end
	fmt.Fprintf(s.out, "-- %d/%d --\n", s.cursor, len(s.view))
}

func (s *Shell) cmdLevel(args []string) {
	if len(args) == 0 {
		s.filter.MinLevel = nil
		s.apply()
		return
	}
	l, err := ParseLevelFlag(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.filter.MinLevel = &l
	s.apply()
}

func (s *Shell) cmdKind(args []string) {
	if len(args) == 0 {
		s.filter.Kind = nil
		s.apply()
		return
	}
	k, err := ParseKindFlag(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.filter.Kind = &k
	s.apply()
}

func (s *Shell) cmdSlow(args []string) {
	n := DefaultSlowest
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			n = v
		}
	}
	var timings []ScopeTiming
	for _, idx := range s.view {
		rec := s.records[idx]
		if rec.Kind == log.KindStop {
			timings = append(timings, ScopeTiming{ScopeID: rec.ScopeID, Label: recordLabel(rec), Duration: rec.Duration})
		}
	}
	sort.SliceStable(timings, func(i, j int) bool { return timings[i].Duration > timings[j].Duration })
	if len(timings) > n {
		timings = timings[:n]
	}
	if len(timings) == 0 {
		fmt.Fprintln(s.out, "(no completed scopes)")
		return
	}
	for _, t := range timings {
		fmt.Fprintf(s.out, "  %-32s %-12s %s\n", t.Label, t.Duration.Round(time.Microsecond), t.ScopeID)
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Trace Browser Commands:
  next [n]          - Show the next n records (default 20)
  top [n]           - Restart from the first record
  level [lvl]       - Keep records at or above lvl (no arg clears)
  kind [k]          - Keep message, start or stop records
  key [k]           - Keep records of one scope key
  category [c]      - Keep records under a dotted category
  scope [id]        - Keep records of one scope
  clear             - Remove all filters
  slow [n]          - List the slowest completed scopes
  quit              - Exit`)
}

func pageSize(args []string) int {
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			return n
		}
	}
	return defaultPage
}

func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
