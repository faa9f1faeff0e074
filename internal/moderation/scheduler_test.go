package moderation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSubmitter struct {
	ticks atomic.Int32
}

func (c *countingSubmitter) Submit(_ context.Context, ev Event) error {
	if _, ok := ev.(Tick); ok {
		c.ticks.Add(1)
	}
	return nil
}

func TestSchedulerFiresTicks(t *testing.T) {
	target := &countingSubmitter{}
	s := NewScheduler(10*time.Millisecond, target)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	require.Eventually(t, func() bool { return target.ticks.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	time.Sleep(30 * time.Millisecond)
	stopped := target.ticks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, target.ticks.Load())
}

func TestSchedulerTriggerNow(t *testing.T) {
	target := &countingSubmitter{}
	s := NewScheduler(time.Hour, target)

	require.NoError(t, s.TriggerNow(context.Background()))
	assert.Equal(t, int32(1), target.ticks.Load())
	assert.Equal(t, time.Hour, s.Interval())
}
