package scheduler

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stale-cleaner/internal/config"
	"stale-cleaner/internal/prune"
)

func staleFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))
}

func testConfig(targets ...string) *config.Config {
	cfg := &config.Config{Marker: config.DefaultMarker, IntervalMinutes: 60}
	for _, p := range targets {
		cfg.Targets = append(cfg.Targets, config.Target{Path: p, Age: config.Age(24 * time.Hour)})
	}
	return cfg
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestRunOnceCleansAllTargets(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	staleFile(t, filepath.Join(a, "x", "old.log"))
	staleFile(t, filepath.Join(b, "old.log"))
	staleFile(t, filepath.Join(b, "pinned", config.DefaultMarker))
	staleFile(t, filepath.Join(b, "pinned", "old.log"))

	require.NoError(t, RunOnce(context.Background(), testConfig(a, b), quietLogger(), nil))

	assert.NoDirExists(t, filepath.Join(a, "x"))
	assert.NoFileExists(t, filepath.Join(b, "old.log"))
	assert.FileExists(t, filepath.Join(b, "pinned", "old.log"))
	assert.DirExists(t, a)
	assert.DirExists(t, b)
}

func TestRunOnceContinuesAfterFailingTarget(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	good := t.TempDir()
	staleFile(t, filepath.Join(good, "old.log"))

	err := RunOnce(context.Background(), testConfig(missing, good), quietLogger(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, prune.ErrRootNotExist)
	assert.Contains(t, err.Error(), missing)

	assert.NoFileExists(t, filepath.Join(good, "old.log"))
}

func TestRunOnceStopsOnCancelledContext(t *testing.T) {
	dir := t.TempDir()
	staleFile(t, filepath.Join(dir, "old.log"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunOnce(ctx, testConfig(dir), quietLogger(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.FileExists(t, filepath.Join(dir, "old.log"))
}

func TestRunOnceNilConfig(t *testing.T) {
	assert.Error(t, RunOnce(context.Background(), nil, quietLogger(), nil))
}

func TestRunCleansOnTrigger(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")
	staleFile(t, first)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trigger := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, testConfig(dir), quietLogger(), nil, trigger)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(first)
		return os.IsNotExist(err)
	}, 5*time.Second, 10*time.Millisecond, "initial cycle should run immediately")

	staleFile(t, second)
	trigger <- struct{}{}

	require.Eventually(t, func() bool {
		_, err := os.Stat(second)
		return os.IsNotExist(err)
	}, 5*time.Second, 10*time.Millisecond, "triggered cycle should run")

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
