package telemetry_test

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/MatteoDelliRocioli/telemetry/pkg/config"
	"github.com/MatteoDelliRocioli/telemetry/pkg/diag"
	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

func readTrace(t *testing.T, path string) []log.Record {
	t.Helper()
	r, err := log.NewReader(path)
	require.NoError(t, err)
	defer r.Close()
	recs, err := r.All()
	require.NoError(t, err)
	return recs
}

// TestE2E_BufferedConcurrentScopes runs nested sections on several
// goroutines before delivery is unlocked, then checks the trace file keeps
// every entry with correct nesting and per-goroutine order.
func TestE2E_BufferedConcurrentScopes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.tlog")
	cfg := config.Default()
	cfg.Logging.Console.Enabled = false
	cfg.Logging.File = config.File{Enabled: true, Path: path}
	cfg.Logging.MinimumLevel = map[string]string{config.DefaultCategory: "Trace"}

	tr, err := diag.FromConfig(cfg)
	require.NoError(t, err)

	const workers = 8
	var g errgroup.Group
	for i := range workers {
		g.Go(func() error {
			job := tr.BeginNamedScope("Job", fmt.Sprintf("job-%d", i))
			step := tr.BeginMethodScope("Step")
			step.Infof("work %d", i)
			step.End()
			job.End()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, workers*5, tr.Gate().Stats().Queued)
	tr.Ready()
	require.NoError(t, tr.Close())

	recs := readTrace(t, path)
	require.Len(t, recs, workers*5)

	byGoroutine := make(map[int64][]log.Record)
	for _, r := range recs {
		byGoroutine[r.GoroutineID] = append(byGoroutine[r.GoroutineID], r)
	}
	require.Len(t, byGoroutine, workers)

	for gid, rs := range byGoroutine {
		require.Len(t, rs, 5, "goroutine %d", gid)
		kinds := []log.Kind{rs[0].Kind, rs[1].Kind, rs[2].Kind, rs[3].Kind, rs[4].Kind}
		assert.Equal(t, []log.Kind{log.KindStart, log.KindStart, log.KindMessage, log.KindStop, log.KindStop}, kinds)

		job, step := rs[0], rs[1]
		assert.Equal(t, "Job", job.Key)
		assert.Equal(t, 0, job.Depth)
		assert.Equal(t, "Step", step.Key)
		assert.Equal(t, job.ScopeID, step.ParentID)
		assert.Equal(t, 1, step.Depth)
		assert.Equal(t, step.ScopeID, rs[2].ScopeID)
		assert.Equal(t, step.ScopeID, rs[3].ScopeID)
		assert.Equal(t, job.ScopeID, rs[4].ScopeID)
	}
}

// TestE2E_ConfigDrivesCategoryLevels loads layered YAML settings and checks
// that per-category thresholds decide what reaches the trace file.
func TestE2E_ConfigDrivesCategoryLevels(t *testing.T) {
	for _, key := range []string{config.EnvAppEnv, config.EnvGeneric, config.EnvMinLevel} {
		t.Setenv(key, "")
	}
	t.Setenv(config.EnvEnvironment, "staging")

	dir := t.TempDir()
	path := filepath.Join(dir, "trace.tlog")
	base := fmt.Sprintf(`logging:
  minimumLevel:
    Default: Information
    billing: Debug
  console:
    enabled: false
  file:
    enabled: true
    path: %q
`, path)
	overlay := `logging:
  minimumLevel:
    billing.audit: Error
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "appsettings.yaml"), []byte(base), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "appsettings.staging.yaml"), []byte(overlay), 0o644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)

	tr, err := diag.FromConfig(cfg)
	require.NoError(t, err)

	invoice := tr.BeginMethodScope("Invoice", diag.WithCategory("billing.invoice"))
	invoice.Debug("calc")
	invoice.Info("trail", diag.EntryCategory("billing.audit.trail"))
	invoice.Error("audit failed", diag.EntryCategory("billing.audit"))
	invoice.End()

	shipping := tr.BeginMethodScope("Shipping")
	shipping.Info("shipped")
	shipping.End()

	tr.Ready()
	require.NoError(t, tr.Close())

	recs := readTrace(t, path)
	var got []string
	for _, r := range recs {
		got = append(got, r.Kind.String()+":"+r.Key)
	}
	assert.Equal(t, []string{
		"start:Invoice",
		"message:Invoice",
		"message:Invoice",
		"stop:Invoice",
		"message:Shipping",
	}, got)
	assert.Equal(t, "calc", recs[1].Message)
	assert.Equal(t, "audit failed", recs[2].Message)
	assert.Equal(t, "shipped", recs[4].Message)
}

// TestE2E_LateSinkSeesBootstrapEntries logs through the default tracer
// before any sink exists, then installs a configured tracer.
func TestE2E_LateSinkSeesBootstrapEntries(t *testing.T) {
	prev := diag.Default()
	t.Cleanup(func() { diag.SetDefault(prev) })
	diag.SetDefault(diag.New())

	diag.Info("booting")
	diag.Warn("config missing, using defaults")

	var mu sync.Mutex
	var seen []string
	sink := log.SinkFunc(func(_ *log.Entry, message string) error {
		mu.Lock()
		seen = append(seen, message)
		mu.Unlock()
		return nil
	})
	diag.SetDefault(diag.New(diag.WithSink(sink)))
	diag.Info("ready")
	diag.Ready()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"booting", "config missing, using defaults", "ready"}, seen)
}
