// Command tracelog is a tool for viewing and analyzing trace files.
//
// Trace files are written by the file sink when logging.file.enabled is set
// in appsettings, or by any program that adds log.NewFileSink to its tracer.
//
// Usage:
//
//	tracelog <command> [flags] <file.tlog>
//
// Examples:
//
//	# View all records
//	tracelog view service.tlog
//
//	# View warnings and errors of one key
//	tracelog view --level warning --key OrderService service.tlog
//
//	# Export to compressed JSONL
//	tracelog export --format jsonl --zstd -o service.jsonl.zst service.tlog
//
//	# Keep only section boundaries
//	tracelog filter --kind stop -o stops.tlog service.tlog
//
//	# Show statistics
//	tracelog stats service.tlog
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/MatteoDelliRocioli/telemetry/cmd/tracelog/commands"
	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

var rootCmd = &cobra.Command{
	Use:          "tracelog",
	Short:        "Trace file viewer and analyzer",
	Long:         `tracelog reads the CBOR trace files written by the telemetry file sink.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("local", false, "show local time instead of UTC")
	rootCmd.PersistentFlags().Bool("no-indent", false, "do not indent records by scope depth")

	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newFilterCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newShellCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// viewOptions reads the persistent display flags.
func viewOptions(cmd *cobra.Command) commands.ViewOptions {
	opts := commands.DefaultViewOptions()
	flags := cmd.Flags()
	if mode, err := flags.GetString("color"); err == nil {
		opts.Color = log.ParseColorMode(mode)
	}
	if local, err := flags.GetBool("local"); err == nil && local {
		opts.Format.UTC = false
	}
	if noIndent, err := flags.GetBool("no-indent"); err == nil && noIndent {
		opts.Format.Indent = false
	}
	return opts
}

func newViewCmd() *cobra.Command {
	var level, kind, key, category string
	cmd := &cobra.Command{
		Use:   "view [flags] <file.tlog>",
		Short: "View trace file in human-readable format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := commands.ViewFilter{Key: key, Category: category}
			if level != "" {
				l, err := commands.ParseLevelFlag(level)
				if err != nil {
					return err
				}
				filter.MinLevel = &l
			}
			if kind != "" {
				k, err := commands.ParseKindFlag(kind)
				if err != nil {
					return err
				}
				filter.Kind = &k
			}
			return commands.RunView(args[0], filter, viewOptions(cmd), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "minimum level (trace, debug, information, warning, error, critical)")
	cmd.Flags().StringVar(&kind, "kind", "", "record kind (message, start, stop)")
	cmd.Flags().StringVar(&key, "key", "", "scope key")
	cmd.Flags().StringVar(&category, "category", "", "dotted category prefix")
	return cmd
}

func newExportCmd() *cobra.Command {
	var opts commands.ExportOptions
	cmd := &cobra.Command{
		Use:   "export [flags] <file.tlog>",
		Short: "Export trace file to JSONL, CSV or msgpack",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return commands.RunExport(args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.Format, "format", "jsonl", "output format (jsonl, csv, msgpack)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.Zstd, "zstd", false, "compress output with zstd")
	return cmd
}

func newFilterCmd() *cobra.Command {
	var opts commands.FilterOptions
	cmd := &cobra.Command{
		Use:   "filter [flags] <file.tlog>",
		Short: "Filter trace file and write to new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunFilter(args[0], opts, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.Output, "output", "o", "", "output file (required)")
	f.StringVar(&opts.MinLevel, "level", "", "minimum level")
	f.StringVar(&opts.Kind, "kind", "", "record kind (message, start, stop)")
	f.StringVar(&opts.Key, "key", "", "scope key")
	f.StringVar(&opts.Category, "category", "", "dotted category prefix")
	f.StringVar(&opts.ScopeID, "scope-id", "", "scope id")
	f.Int64Var(&opts.Goroutine, "goroutine", 0, "goroutine id")
	f.StringVar(&opts.TimeStart, "time-start", "", "keep records at or after this time (RFC3339)")
	f.StringVar(&opts.TimeEnd, "time-end", "", "keep records before this time (RFC3339)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file.tlog>",
		Short: "Show statistics about the trace file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunStats(args[0], cmd.OutOrStdout())
		},
	}
}

func newImportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "import [flags] <file.jsonl>",
		Short: "Convert exported JSONL (optionally zstd) back into a trace file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunImport(args[0], output, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output trace file (required)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell <file.tlog>",
		Short: "Browse a trace file interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunShell(args[0], viewOptions(cmd))
		},
	}
}
