package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New(context.Background(), "not a cron", func(context.Context) error { return nil }, nil)
	assert.Error(t, err)
}

func TestRunNow(t *testing.T) {
	var calls int32
	s, err := New(context.Background(), "0 30 16 * * 0-4", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, nil)
	require.NoError(t, err)

	require.NoError(t, s.RunNow(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRunNow_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	s, err := New(context.Background(), "@every 1h", func(context.Context) error { return boom }, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, s.RunNow(context.Background()), boom)
}

func TestSchedule_Fires(t *testing.T) {
	fired := make(chan struct{}, 10)
	s, err := New(context.Background(), "* * * * * *", func(context.Context) error {
		fired <- struct{}{}
		return nil
	}, nil)
	require.NoError(t, err)

	s.Start()
	defer s.Stop(context.Background())

	assert.False(t, s.Next().IsZero())

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}
}
