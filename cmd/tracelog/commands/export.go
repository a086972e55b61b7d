package commands

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

// ExportOptions specifies the output of the export command.
type ExportOptions struct {
	// Format is jsonl, csv or msgpack.
	Format string
	// Output is the destination file; empty writes to stdout.
	Output string
	// Zstd compresses the output stream.
	Zstd bool
}

// RunExport exports the trace file to the specified format.
func RunExport(path string, opts ExportOptions) (err error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if opts.Zstd {
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		defer func() {
			if cerr := enc.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to flush zstd stream: %w", cerr)
			}
		}()
		w = enc
	}

	switch opts.Format {
	case "jsonl", "":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	case "msgpack":
		return exportMsgpack(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv, msgpack)", opts.Format)
	}
}

// eachRecord calls fn for every record until EOF.
func eachRecord(reader *log.Reader, fn func(log.Record) error) error {
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read record: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	var buf []byte
	return eachRecord(reader, func(rec log.Record) error {
		buf = append(rec.AppendJSON(buf[:0]), '\n')
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		return nil
	})
}

var csvHeader = []string{
	"time", "elapsed_ms", "goroutine", "kind", "level", "key", "member",
	"scope_id", "parent_id", "depth", "category", "duration_us", "message", "error",
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	err := eachRecord(reader, func(rec log.Record) error {
		duration := ""
		if rec.Kind == log.KindStop {
			duration = strconv.FormatInt(rec.Duration.Microseconds(), 10)
		}
		row := []string{
			rec.Time.UTC().Format("2006-01-02T15:04:05.000000Z"),
			strconv.FormatInt(rec.ElapsedMilliseconds, 10),
			strconv.FormatInt(rec.GoroutineID, 10),
			rec.Kind.String(),
			rec.Level.String(),
			rec.Key,
			rec.Member,
			rec.ScopeID,
			rec.ParentID,
			strconv.Itoa(rec.Depth),
			rec.Category,
			duration,
			rec.Message,
			rec.Error,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// exportMsgpack writes one msgpack map per record, keyed by the record's
// JSON field names.
func exportMsgpack(reader *log.Reader, w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	enc.SetOmitEmpty(true)
	return eachRecord(reader, func(rec log.Record) error {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		return nil
	})
}
