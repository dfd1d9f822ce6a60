package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartWatcherEmitsAllowedFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Folder: dir, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("x"), 0o644))

	select {
	case p := <-events:
		assert.Equal(t, filepath.Join(dir, "a.pdf"), p)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for a.pdf")
	}

	cancel()
	for range events {
	}
}

func TestStartWatcherRequiresFolder(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)

	_, _, err = StartWatcher(context.Background(), WatchConfig{Folder: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
