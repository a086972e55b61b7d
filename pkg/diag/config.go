package diag

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/MatteoDelliRocioli/telemetry/pkg/config"
	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

// FromConfig creates a Tracer whose default resolver delivers to the sinks
// enabled in cfg, filtered by the configured per-category minimum levels.
// The tracer starts locked unless cfg.Logging.StartUnlocked is set.
func FromConfig(cfg *config.Config, opts ...Option) (*Tracer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	sinks, err := BuildSinks(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Logging.StartUnlocked {
		opts = append(opts, WithUnlocked())
	}
	if len(sinks) > 0 {
		levels, err := cfg.CategoryLevels()
		if err != nil {
			closeAll(sinks)
			return nil, err
		}
		opts = append(opts, WithSink(log.NewLevelFilter(log.NewMultiSink(sinks...), levels)))
	}
	return New(opts...), nil
}

// BuildSinks creates the sinks enabled in cfg.
func BuildSinks(cfg *config.Config) ([]log.Sink, error) {
	l := cfg.Logging
	var sinks []log.Sink

	if l.Console.Enabled {
		var w io.Writer = os.Stderr
		if l.Console.Stream == "stdout" {
			w = os.Stdout
		}
		switch l.Console.Format {
		case "json":
			sinks = append(sinks, log.NewWriterSink(w, log.JSONFormatter{}))
		case "", "text":
			sinks = append(sinks, log.NewConsoleSink(w, cfg.FormatOptions(), log.ParseColorMode(l.Console.Color)))
		default:
			return nil, fmt.Errorf("diag: unknown console format %q", l.Console.Format)
		}
	}

	if l.File.Enabled {
		fs, err := log.NewFileSink(l.File.Path)
		if err != nil {
			closeAll(sinks)
			return nil, fmt.Errorf("diag: open trace file: %w", err)
		}
		if l.File.MinLevel != "" {
			lvl, err := log.ParseLevel(l.File.MinLevel)
			if err != nil {
				closeAll(append(sinks, fs))
				return nil, fmt.Errorf("diag: file min level: %w", err)
			}
			fs.SetMinLevel(lvl)
		}
		sinks = append(sinks, fs)
	}

	if l.Slog.Enabled {
		sinks = append(sinks, log.NewSlogSink(slog.Default()))
	}

	if l.Logrus.Enabled {
		logger := logrus.New()
		logger.SetOutput(os.Stderr)
		if l.Logrus.JSON {
			logger.SetFormatter(&logrus.JSONFormatter{})
		}
		if l.Logrus.Level != "" {
			lvl, err := logrus.ParseLevel(l.Logrus.Level)
			if err != nil {
				closeAll(sinks)
				return nil, fmt.Errorf("diag: logrus level: %w", err)
			}
			logger.SetLevel(lvl)
		}
		sinks = append(sinks, log.NewLogrusSink(logger))
	}

	return sinks, nil
}

func closeAll(sinks []log.Sink) {
	for _, s := range sinks {
		if c, ok := s.(io.Closer); ok {
			c.Close()
		}
	}
}
