package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

func readAll(t *testing.T, path string) []log.Record {
	t.Helper()
	r, err := log.NewReader(path)
	require.NoError(t, err)
	defer r.Close()
	recs, err := r.All()
	require.NoError(t, err)
	return recs
}

func TestFilterByKind(t *testing.T) {
	path := createTestTraceFile(t, sampleTrace())
	out := filepath.Join(t.TempDir(), "stops.tlog")

	var buf bytes.Buffer
	require.NoError(t, RunFilter(path, FilterOptions{Output: out, Kind: "stop"}, &buf))

	recs := readAll(t, out)
	require.Len(t, recs, 2)
	assert.Equal(t, "Payment", recs[0].Key)
	assert.Equal(t, "Order", recs[1].Key)
	assert.Contains(t, buf.String(), "Filtered 2 records")
}

func TestFilterCombinesCriteria(t *testing.T) {
	path := createTestTraceFile(t, sampleTrace())
	out := filepath.Join(t.TempDir(), "out.tlog")

	opts := FilterOptions{
		Output:    out,
		MinLevel:  "debug",
		Category:  "shop",
		Goroutine: 1,
		TimeStart: "2026-03-14T09:26:53Z",
		TimeEnd:   "2026-03-14T09:26:54Z",
		ScopeID:   "s2",
	}
	require.NoError(t, RunFilter(path, opts, &bytes.Buffer{}))

	recs := readAll(t, out)
	require.Len(t, recs, 3)
	for _, r := range recs {
		assert.Equal(t, "s2", r.ScopeID)
	}
}

func TestFilterRejectsBadOptions(t *testing.T) {
	path := createTestTraceFile(t, sampleTrace())
	out := filepath.Join(t.TempDir(), "out.tlog")

	for _, opts := range []FilterOptions{
		{Output: out, MinLevel: "loud"},
		{Output: out, Kind: "middle"},
		{Output: out, TimeStart: "yesterday"},
		{Output: out, TimeEnd: "tomorrow"},
	} {
		assert.Error(t, RunFilter(path, opts, &bytes.Buffer{}))
	}
}
