package scheduler

import (
	"context"
	"fmt"
	"time"

	"homestock_notifier/internal/app" // For ExpiryChecker interface
	"homestock_notifier/internal/domain/notification"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const defaultRunTimeout = 10 * time.Minute

// Reporter receives the summary of each scheduled run, e.g. to notify an operator.
type Reporter interface {
	Report(summary notification.RunSummary)
}

type ExpiryScheduler struct {
	cronEngine    *cron.Cron
	checker       app.ExpiryChecker
	reporter      Reporter // Optional
	logger        *logrus.Entry
	cronSpecDaily string
	runTimeout    time.Duration
}

func NewExpiryScheduler(
	checker app.ExpiryChecker,
	reporter Reporter,
	logger *logrus.Entry,
	cronSpecDaily string, // e.g., "0 9 * * *" (9:00 AM daily)
	runTimeout time.Duration,
) *ExpiryScheduler {
	if runTimeout <= 0 {
		runTimeout = defaultRunTimeout
	}
	return &ExpiryScheduler{
		cronEngine:    cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		checker:       checker,
		reporter:      reporter,
		logger:        logger.WithField("component", "scheduler"),
		cronSpecDaily: cronSpecDaily,
		runTimeout:    runTimeout,
	}
}

// Start registers the daily expiry check and starts the cron engine.
func (s *ExpiryScheduler) Start() error {
	s.logger.Info("Starting expiry check scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecDaily, func() {
		s.logger.Info("Cron job triggered for daily expiry check.")
		s.runScheduledCheck()
	})
	if err != nil {
		return fmt.Errorf("could not add daily expiry check cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cronSpecDaily).Info("Expiry check scheduler started.")
	return nil
}

// runScheduledCheck runs one check and logs its outcome. A failed run changes nothing
// beyond what the check itself did.
func (s *ExpiryScheduler) runScheduledCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	summary := s.checker.RunExpiryCheck(ctx)
	log := s.logger.WithFields(logrus.Fields{
		"candidates":     summary.Candidates,
		"users_notified": summary.UsersNotified,
		"duration_ms":    summary.Duration.Milliseconds(),
	})
	if summary.Success {
		log.Info("Scheduled expiry check finished: " + summary.Message)
	} else {
		log.WithField("error", summary.Error).Error("Scheduled expiry check failed: " + summary.Message)
	}

	if s.reporter != nil {
		s.reporter.Report(summary)
	}
}

func (s *ExpiryScheduler) Stop() {
	s.logger.Info("Stopping expiry check scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Expiry check scheduler gracefully stopped.")
}
