package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-watch/internal/common"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("*/5 * * * *"))
	assert.NoError(t, Validate("@every 1m"))

	err := Validate("every five minutes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConfig))
}

func TestRunNowInvokesJob(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler("@every 1h", func(ctx context.Context) {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		calls.Add(1)
	}, time.Minute, nil)

	s.RunNow()
	assert.Equal(t, int32(1), calls.Load())
}

func TestStartTicksAndStops(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler("@every 1s", func(context.Context) { calls.Add(1) }, 0, nil)
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)
	<-s.Stop().Done()
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewScheduler("not a cron", func(context.Context) {}, 0, nil)
	err := s.Start()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConfig))
}
