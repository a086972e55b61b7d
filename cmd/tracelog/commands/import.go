package commands

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/valyala/fastjson"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

const maxImportLine = 4 << 20

var importParsers fastjson.ParserPool

// RunImport reads JSONL records, as written by "export --format jsonl", and
// appends them to a trace file. Zstd-compressed input is detected
// automatically.
func RunImport(input, output string, w io.Writer) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	sink, err := log.NewFileSink(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer sink.Close()

	count, err := importJSONL(f, sink)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Imported %d records to %s\n", count, output)
	return nil
}

func importJSONL(r io.Reader, sink *log.FileSink) (int, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(len(zstdMagic)); err == nil && bytes.Equal(magic, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return 0, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer dec.Close()
		r = dec
	} else {
		r = br
	}

	p := importParsers.Get()
	defer importParsers.Put(p)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)

	count, line := 0, 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		v, err := p.ParseBytes(data)
		if err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := log.RecordFromJSON(v)
		if err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		if err := sink.Log(rec); err != nil {
			return count, fmt.Errorf("failed to write record: %w", err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("failed to read input: %w", err)
	}
	return count, nil
}
