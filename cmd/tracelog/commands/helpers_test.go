package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

var testEpoch = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func createTestTraceFile(t *testing.T, records []log.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.tlog")

	sink, err := log.NewFileSink(path)
	require.NoError(t, err)
	for _, r := range records {
		require.NoError(t, sink.Log(r))
	}
	require.NoError(t, sink.Close())
	return path
}

// sampleTrace is an Order scope containing a nested Payment scope.
func sampleTrace() []log.Record {
	at := func(ms int) time.Time { return testEpoch.Add(time.Duration(ms) * time.Millisecond) }
	return []log.Record{
		{Time: at(0), Kind: log.KindStart, Level: log.LevelDebug, Key: "Order", Member: "Place", ScopeID: "s1", GoroutineID: 1, Category: "shop.order", Message: "Place()"},
		{Time: at(1), Kind: log.KindMessage, Level: log.LevelInformation, Key: "Order", Member: "Place", ScopeID: "s1", GoroutineID: 1, Category: "shop.order", Message: "validating"},
		{Time: at(2), Kind: log.KindStart, Level: log.LevelDebug, Key: "Payment", Member: "Charge", ScopeID: "s2", ParentID: "s1", Depth: 1, GoroutineID: 1, Category: "shop.payment", Message: "Charge()"},
		{Time: at(3), Kind: log.KindMessage, Level: log.LevelWarning, Key: "Payment", Member: "Charge", ScopeID: "s2", ParentID: "s1", Depth: 1, GoroutineID: 1, Category: "shop.payment", Message: "retrying", Error: "timeout"},
		{Time: at(9), Kind: log.KindStop, Level: log.LevelDebug, Key: "Payment", Member: "Charge", ScopeID: "s2", ParentID: "s1", Depth: 1, GoroutineID: 1, Category: "shop.payment", Duration: 7 * time.Millisecond, Message: "Charge completed in 7ms"},
		{Time: at(10), Kind: log.KindStop, Level: log.LevelDebug, Key: "Order", Member: "Place", ScopeID: "s1", GoroutineID: 1, Category: "shop.order", Duration: 10 * time.Millisecond, Message: "Place completed in 10ms"},
		{Time: at(11), Kind: log.KindStart, Level: log.LevelDebug, Key: "Audit", Name: "nightly", ScopeID: "s3", GoroutineID: 2, Category: "shop.audit", Message: "nightly()"},
	}
}

func plainViewOptions() ViewOptions {
	opts := DefaultViewOptions()
	opts.Color = log.ColorOff
	return opts
}
