package daemon

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"submux/internal/config"
	"submux/internal/logging"
	"submux/internal/pipeline"
)

func TestMain(m *testing.M) {
	logging.Configure(logging.Config{Level: "error", Output: io.Discard})
	goleak.VerifyTestMain(m)
}

// countingRunner records cycle invocations and flags overlap.
type countingRunner struct {
	cycles  int32
	running int32
	overlap int32
	block   time.Duration
}

func (c *countingRunner) RunAll(ctx context.Context) pipeline.Stats {
	if atomic.AddInt32(&c.running, 1) > 1 {
		atomic.StoreInt32(&c.overlap, 1)
	}
	defer atomic.AddInt32(&c.running, -1)

	atomic.AddInt32(&c.cycles, 1)
	if c.block > 0 {
		select {
		case <-time.After(c.block):
		case <-ctx.Done():
		}
	}
	return pipeline.Stats{}
}

func daemonConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DownloadingFolder = t.TempDir()
	cfg.ToWatchFolder = t.TempDir()
	cfg.ScanInterval = 20 * time.Millisecond
	cfg.Watch = false
	return &cfg
}

func TestRun_ImmediateCycleAtStart(t *testing.T) {
	cfg := daemonConfig(t)
	cfg.ScanInterval = time.Hour // only the startup kick can fire
	runner := &countingRunner{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(cfg, runner).Run(ctx) }()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runner.cycles) >= 1
	}, 2*time.Second, 5*time.Millisecond, "startup cycle never ran")

	cancel()
	require.NoError(t, <-done)
}

func TestRun_TimerTriggersRepeatedCycles(t *testing.T) {
	cfg := daemonConfig(t)
	runner := &countingRunner{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(cfg, runner).Run(ctx) }()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runner.cycles) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Zero(t, atomic.LoadInt32(&runner.overlap), "cycles must never overlap")
}

func TestRun_TriggersCoalesceWhileBusy(t *testing.T) {
	cfg := daemonConfig(t)
	cfg.ScanInterval = 10 * time.Millisecond
	runner := &countingRunner{block: 150 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(cfg, runner).Run(ctx) }()

	// Many timer ticks land during one long cycle; they must fold into at
	// most one follow-up cycle each time, never run concurrently.
	time.Sleep(400 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Zero(t, atomic.LoadInt32(&runner.overlap))
	assert.LessOrEqual(t, atomic.LoadInt32(&runner.cycles), int32(5))
}

func TestRun_WatcherWakesCycle(t *testing.T) {
	cfg := daemonConfig(t)
	cfg.ScanInterval = time.Hour
	cfg.Watch = true
	runner := &countingRunner{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(cfg, runner).Run(ctx) }()

	// Let the startup cycle pass first.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runner.cycles) >= 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.DownloadingFolder, "fresh.mkv"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runner.cycles) >= 2
	}, 2*time.Second, 5*time.Millisecond, "file creation did not wake a cycle")

	cancel()
	require.NoError(t, <-done)
}
