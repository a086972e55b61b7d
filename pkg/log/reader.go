package log

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter specifies criteria for filtering trace records.
// Empty/nil fields match all records for that criterion.
type Filter struct {
	// MinLevel keeps records at or above this level.
	MinLevel *Level

	// Kind keeps records of this kind.
	Kind *Kind

	// Key filters by exact scope key.
	Key string

	// Category keeps records whose category equals or is nested under
	// this dotted prefix.
	Category string

	// ScopeID keeps records of one scope.
	ScopeID string

	// GoroutineID keeps records produced by one goroutine.
	GoroutineID int64

	// TimeStart filters records at or after this time.
	TimeStart *time.Time

	// TimeEnd filters records before this time.
	TimeEnd *time.Time
}

// Matches returns true if the record matches all filter criteria.
func (f *Filter) Matches(r Record) bool {
	if f.MinLevel != nil && r.Level < *f.MinLevel {
		return false
	}
	if f.Kind != nil && r.Kind != *f.Kind {
		return false
	}
	if f.Key != "" && r.Key != f.Key {
		return false
	}
	if f.Category != "" && r.Category != f.Category && !strings.HasPrefix(r.Category, f.Category+".") {
		return false
	}
	if f.ScopeID != "" && r.ScopeID != f.ScopeID {
		return false
	}
	if f.GoroutineID != 0 && r.GoroutineID != f.GoroutineID {
		return false
	}
	if f.TimeStart != nil && r.Time.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !r.Time.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// Reader reads trace records from a CBOR-encoded file.
// It provides an iterator interface for streaming large files.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader creates a Reader that reads all records from the specified file.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader creates a Reader that reads records matching the filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next record that matches the filter.
// Returns io.EOF when no more records are available.
func (r *Reader) Next() (Record, error) {
	for {
		var rec Record
		if err := r.decoder.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return Record{}, io.EOF
			}
			return Record{}, err
		}

		if r.filter.Matches(rec) {
			return rec, nil
		}
	}
}

// All reads every remaining matching record.
func (r *Reader) All() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
