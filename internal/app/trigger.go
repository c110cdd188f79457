package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultTriggerTimeout = 5 * time.Minute

// Trigger runs expiry checks in the background on request, e.g. after a grocery is created.
// Requests arriving while one is already queued are coalesced into it.
type Trigger struct {
	checker  ExpiryChecker
	logger   *logrus.Entry
	timeout  time.Duration
	requests chan struct{}
}

func NewTrigger(checker ExpiryChecker, logger *logrus.Entry, timeout time.Duration) *Trigger {
	if timeout <= 0 {
		timeout = defaultTriggerTimeout
	}
	return &Trigger{
		checker:  checker,
		logger:   logger.WithField("component", "expiry_trigger"),
		timeout:  timeout,
		requests: make(chan struct{}, 1),
	}
}

// Request queues a run without blocking. It returns false when a run was already queued.
func (t *Trigger) Request() bool {
	select {
	case t.requests <- struct{}{}:
		return true
	default:
		t.logger.Debug("Expiry check already queued. Coalescing request.")
		return false
	}
}

// Run processes queued requests until ctx is canceled.
func (t *Trigger) Run(ctx context.Context) {
	t.logger.Info("Expiry trigger worker started")
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Expiry trigger worker stopped")
			return
		case <-t.requests:
			t.runOnce(ctx)
		}
	}
}

// runOnce is detached from ctx cancellation so a shutdown mid-run still persists the
// flags of groups already delivered. The timeout still bounds it.
func (t *Trigger) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
	defer cancel()
	summary := t.checker.RunExpiryCheck(runCtx)
	log := t.logger.WithField("users_notified", summary.UsersNotified)
	if !summary.Success {
		log.WithField("error", summary.Error).Error("Triggered expiry check failed: " + summary.Message)
		return
	}
	log.Info("Triggered expiry check finished: " + summary.Message)
}
