package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// blockingService blocks in Start until stopped, like a real listener.
type blockingService struct {
	started atomic.Bool
	stopped atomic.Bool
	startFn func() error
}

func (s *blockingService) Start() error {
	s.started.Store(true)
	if s.startFn != nil {
		return s.startFn()
	}
	for !s.stopped.Load() {
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

func (s *blockingService) Stop() {
	s.stopped.Store(true)
}

func TestLifecycle_StartsAllAndStopsOnCancel(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))

	http := &blockingService{}
	stream := &blockingService{}
	lc.Add("http", http)
	lc.Add("stream", stream)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()

	require.Eventually(t, func() bool {
		return http.started.Load() && stream.started.Load()
	}, 2*time.Second, 10*time.Millisecond, "services did not start")

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}

	assert.True(t, http.stopped.Load())
	assert.True(t, stream.stopped.Load())
}

func TestLifecycle_ServiceErrorTriggersShutdown(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))

	healthy := &blockingService{}
	failing := &blockingService{startFn: func() error { return errors.New("bind: address in use") }}
	lc.Add("healthy", healthy)
	lc.Add("failing", failing)

	done := make(chan error, 1)
	go func() { done <- lc.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down after service error")
	}
	assert.True(t, healthy.stopped.Load())
}

func TestFuncService(t *testing.T) {
	started := false
	stopped := false

	svc := &FuncService{
		StartFn: func() error { started = true; return nil },
		StopFn:  func() { stopped = true },
	}

	require.NoError(t, svc.Start())
	assert.True(t, started)

	svc.Stop()
	assert.True(t, stopped)
}
