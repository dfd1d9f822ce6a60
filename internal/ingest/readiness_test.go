package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSizes returns the queued sizes in order, repeating the last one.
func fakeSizes(sizes ...int64) func(string) (int64, error) {
	i := 0
	return func(string) (int64, error) {
		s := sizes[i]
		if i < len(sizes)-1 {
			i++
		}
		return s, nil
	}
}

func noSleep(ctx context.Context, _ time.Duration) bool { return ctx.Err() == nil }

func newTestReadiness(size func(string) (int64, error)) *Readiness {
	r := NewReadiness(ReadinessConfig{MaxWait: 2 * time.Second, Interval: 500 * time.Millisecond}, nil)
	r.sizeOf = size
	r.sleep = noSleep
	return r
}

func TestReadinessStableFile(t *testing.T) {
	r := newTestReadiness(fakeSizes(1024, 1024))
	assert.True(t, r.IsReady(context.Background(), "x.pdf"))
}

func TestReadinessSettlesAfterGrowth(t *testing.T) {
	r := newTestReadiness(fakeSizes(10, 200, 512, 512))
	assert.True(t, r.IsReady(context.Background(), "x.pdf"))
}

func TestReadinessPauseThenGrowthNotReady(t *testing.T) {
	r := newTestReadiness(fakeSizes(100, 100, 200, 300, 400))
	assert.False(t, r.IsReady(context.Background(), "x.pdf"))
}

func TestReadinessSamplesWholeWindow(t *testing.T) {
	calls := 0
	r := newTestReadiness(func(string) (int64, error) {
		calls++
		return 100, nil
	})
	assert.True(t, r.IsReady(context.Background(), "x.pdf"))
	// 2s window at 500ms: one initial sample plus four more
	assert.Equal(t, 5, calls)
}

func TestReadinessZeroBytesNeverReady(t *testing.T) {
	r := newTestReadiness(fakeSizes(0))
	assert.False(t, r.IsReady(context.Background(), "x.pdf"))
}

func TestReadinessKeepsGrowing(t *testing.T) {
	n := int64(0)
	r := newTestReadiness(func(string) (int64, error) {
		n += 100
		return n, nil
	})
	assert.False(t, r.IsReady(context.Background(), "x.pdf"))
}

func TestReadinessStatError(t *testing.T) {
	calls := 0
	r := newTestReadiness(func(string) (int64, error) {
		calls++
		if calls > 1 {
			return 0, os.ErrNotExist
		}
		return 100, nil
	})
	assert.False(t, r.IsReady(context.Background(), "x.pdf"))

	r = newTestReadiness(func(string) (int64, error) { return 0, errors.New("boom") })
	assert.False(t, r.IsReady(context.Background(), "x.pdf"))
}

func TestReadinessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newTestReadiness(fakeSizes(100))
	assert.False(t, r.IsReady(ctx, "x.pdf"))
}

func TestReadinessRealFile(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "a.pdf")
	empty := filepath.Join(dir, "b.pdf")
	require.NoError(t, os.WriteFile(full, []byte("%PDF-1.4 content"), 0o644))
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	r := NewReadiness(ReadinessConfig{MaxWait: 100 * time.Millisecond, Interval: 10 * time.Millisecond}, nil)
	assert.True(t, r.IsReady(context.Background(), full))
	assert.False(t, r.IsReady(context.Background(), empty))
	assert.False(t, r.IsReady(context.Background(), filepath.Join(dir, "missing.pdf")))
}
