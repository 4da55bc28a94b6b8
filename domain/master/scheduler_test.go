package master

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (m *manualTicker) C() <-chan time.Time { return m.c }
func (m *manualTicker) Stop()               { m.stopped.Store(true) }

func TestSchedulerRunsOnTick(t *testing.T) {
	tk := &manualTicker{c: make(chan time.Time)}
	ran := make(chan struct{}, 4)
	s := NewScheduler(func(context.Context) error {
		ran <- struct{}{}
		return nil
	}, time.Hour, func(time.Duration) Ticker { return tk }, nil)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Running())
	assert.Error(t, s.Start(context.Background()))

	tk.c <- time.Now()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("sync did not run after tick")
	}
	tk.c <- time.Now()
	<-ran

	s.Stop()
	assert.False(t, s.Running())
	assert.True(t, tk.stopped.Load())
	s.Stop()
}

func TestSchedulerRejectsBadInterval(t *testing.T) {
	s := NewScheduler(func(context.Context) error { return nil }, 0, nil, nil)
	assert.Error(t, s.Start(context.Background()))
}

func TestSchedulerStopsWithContext(t *testing.T) {
	tk := &manualTicker{c: make(chan time.Time)}
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(func(context.Context) error { return nil }, time.Minute, func(time.Duration) Ticker { return tk }, nil)
	require.NoError(t, s.Start(ctx))
	cancel()
	s.Stop()
	assert.True(t, tk.stopped.Load())
}
