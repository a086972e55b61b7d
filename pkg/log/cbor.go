package log

import (
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// recEncMode is the CBOR encoder mode for trace records.
// Configured for nanosecond-precision timestamps and deterministic encoding.
var recEncMode cbor.EncMode

// recDecMode is the CBOR decoder mode for trace records.
var recDecMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	recEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create record CBOR encoder mode: %v", err))
	}

	// Nested property maps decode to map[string]any so they export as JSON.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
		DefaultMapType:    reflect.TypeOf(map[string]any(nil)),
	}
	recDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create record CBOR decoder mode: %v", err))
	}
}

// EncodeRecord encodes a Record to CBOR bytes.
func EncodeRecord(r Record) ([]byte, error) {
	return recEncMode.Marshal(r)
}

// DecodeRecord decodes CBOR bytes into a Record.
func DecodeRecord(data []byte) (Record, error) {
	var r Record
	if err := recDecMode.Unmarshal(data, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// NewEncoder creates a CBOR encoder for records that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return recEncMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder for records that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return recDecMode.NewDecoder(r)
}
