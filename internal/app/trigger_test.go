package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"homestock_notifier/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingChecker struct {
	runs    atomic.Int32
	release chan struct{}
}

func (c *countingChecker) RunExpiryCheck(ctx context.Context) notification.RunSummary {
	c.runs.Add(1)
	if c.release != nil {
		<-c.release
	}
	return notification.RunSummary{Success: true, Message: "ok"}
}

func TestTriggerCoalescesQueuedRequests(t *testing.T) {
	trigger := NewTrigger(&countingChecker{}, testLogger(), time.Second)

	assert.True(t, trigger.Request())
	assert.False(t, trigger.Request())
	assert.False(t, trigger.Request())
}

func TestTriggerRunsQueuedCheck(t *testing.T) {
	checker := &countingChecker{release: make(chan struct{})}
	trigger := NewTrigger(checker, testLogger(), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		trigger.Run(ctx)
		close(done)
	}()

	require.True(t, trigger.Request())
	require.Eventually(t, func() bool { return checker.runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	// One request may queue behind the running check.
	assert.True(t, trigger.Request())
	assert.False(t, trigger.Request())

	close(checker.release)
	require.Eventually(t, func() bool { return checker.runs.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("trigger worker did not stop")
	}
}

type ctxRecordingChecker struct {
	started chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func (c *ctxRecordingChecker) RunExpiryCheck(ctx context.Context) notification.RunSummary {
	close(c.started)
	<-c.release
	c.ctxErr <- ctx.Err()
	return notification.RunSummary{Success: true}
}

func TestTriggerRunSurvivesWorkerShutdown(t *testing.T) {
	checker := &ctxRecordingChecker{
		started: make(chan struct{}),
		release: make(chan struct{}),
		ctxErr:  make(chan error, 1),
	}
	trigger := NewTrigger(checker, testLogger(), time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		trigger.Run(ctx)
		close(done)
	}()
	require.True(t, trigger.Request())
	<-checker.started

	cancel()
	close(checker.release)

	select {
	case err := <-checker.ctxErr:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("triggered run did not finish")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("trigger worker did not stop")
	}
}
