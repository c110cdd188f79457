// internal/app/expiry_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"homestock_notifier/internal/domain/grocery"
	"homestock_notifier/internal/domain/notification"
	"homestock_notifier/internal/domain/user"
	idb "homestock_notifier/internal/infra/database" // For ErrUserNotFound

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultHorizonDays         = 7
	defaultChannelTimeout      = 30 * time.Second
	defaultMaxConcurrentGroups = 10
	markTimeout                = 30 * time.Second
)

// Run results used for metrics labels.
const (
	RunResultSuccess = "success"
	RunResultFailure = "failure"
	RunResultSkipped = "skipped"
)

// ExpiryChecker is the entry point shared by the scheduler, the HTTP API, the
// background trigger and the operator bot.
type ExpiryChecker interface {
	RunExpiryCheck(ctx context.Context) notification.RunSummary
}

// MetricsRecorder receives run and channel observations.
type MetricsRecorder interface {
	ObserveRun(result string, duration time.Duration)
	IncChannelSend(channel notification.Channel, outcome notification.Outcome)
	AddRecordsMarked(n int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveRun(string, time.Duration) {}

func (noopMetrics) IncChannelSend(notification.Channel, notification.Outcome) {}

func (noopMetrics) AddRecordsMarked(int) {}

// ExpiryConfig holds the tunables of the expiry notifier.
type ExpiryConfig struct {
	HorizonDays         int           // Fixed at 7 in production
	CountryCode         string        // Used to normalise local phone numbers
	ChannelTimeout      time.Duration // Per channel send
	MaxConcurrentGroups int
}

func (c ExpiryConfig) withDefaults() ExpiryConfig {
	if c.HorizonDays <= 0 {
		c.HorizonDays = DefaultHorizonDays
	}
	if c.CountryCode == "" {
		c.CountryCode = DefaultCountryCode
	}
	if c.ChannelTimeout <= 0 {
		c.ChannelTimeout = defaultChannelTimeout
	}
	if c.MaxConcurrentGroups <= 0 {
		c.MaxConcurrentGroups = defaultMaxConcurrentGroups
	}
	return c
}

// ExpiryServiceParams configure the expiry service.
type ExpiryServiceParams struct {
	Groceries grocery.Repository
	Users     user.Repository
	Email     Sender
	Chat      Sender
	Text      Sender
	Lock      RunLock         // Optional
	Metrics   MetricsRecorder // Optional
	Logger    *logrus.Entry
	Config    ExpiryConfig
}

// ExpiryService finds groceries close to expiry and notifies their owners once.
type ExpiryService struct {
	groceryRepo grocery.Repository
	userRepo    user.Repository
	email       Sender
	chat        Sender
	text        Sender
	lock        RunLock
	metrics     MetricsRecorder
	logger      *logrus.Entry
	cfg         ExpiryConfig
	now         func() time.Time
}

func NewExpiryService(params ExpiryServiceParams) (*ExpiryService, error) {
	if params.Groceries == nil {
		return nil, fmt.Errorf("grocery repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Email == nil || params.Chat == nil || params.Text == nil {
		return nil, fmt.Errorf("email, chat and text senders required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	lock := params.Lock
	if lock == nil {
		lock = noopRunLock{}
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ExpiryService{
		groceryRepo: params.Groceries,
		userRepo:    params.Users,
		email:       params.Email,
		chat:        params.Chat,
		text:        params.Text,
		lock:        lock,
		metrics:     metrics,
		logger:      params.Logger.WithField("component", "expiry_service"),
		cfg:         params.Config.withDefaults(),
		now:         time.Now,
	}, nil
}

// RunExpiryCheck scans, groups, dispatches and flags expiring groceries.
// Channel failures never fail the run; only a scan-time store fault does.
func (s *ExpiryService) RunExpiryCheck(ctx context.Context) notification.RunSummary {
	startedAt := s.now()
	runLog := s.logger.WithField("run_id", uuid.NewString())
	summary := notification.RunSummary{StartedAt: startedAt}

	token, acquired, err := s.lock.Acquire(ctx)
	switch {
	case err != nil:
		runLog.WithError(err).Warn("Could not acquire run lock. Proceeding without it.")
	case !acquired:
		runLog.Info("Another expiry check is in progress. Skipping this run.")
		summary.Success = true
		summary.Skipped = true
		summary.Message = "Another expiry check is already running."
		return s.finish(summary, RunResultSkipped)
	default:
		defer func() {
			if relErr := s.lock.Release(context.WithoutCancel(ctx), token); relErr != nil {
				runLog.WithError(relErr).Error("Failed to release run lock")
			}
		}()
	}

	today := startOfDay(startedAt)
	windowEnd := endOfDay(today.AddDate(0, 0, s.cfg.HorizonDays))
	runLog.Infof("Checking for groceries expiring on or before %s", windowEnd.Format("2006-01-02"))

	found, candidates, err := s.scan(ctx, runLog, windowEnd)
	if err != nil {
		runLog.WithError(err).Error("Error checking expiring groceries")
		summary.Message = "Failed to check expiring groceries."
		summary.Error = err.Error()
		return s.finish(summary, RunResultFailure)
	}
	summary.RecordsFound = found
	summary.Candidates = len(candidates)

	groups := groupByOwner(candidates)
	summary.Groups = len(groups)
	runLog.Infof("Grouped groceries for %d users", len(groups))

	type groupResult struct {
		notified bool
		marked   int
	}
	results := make([]groupResult, len(groups))

	var eg errgroup.Group
	eg.SetLimit(s.cfg.MaxConcurrentGroups)
	for i, group := range groups {
		eg.Go(func() error {
			groupLog := runLog.WithFields(logrus.Fields{"user_id": group.User.ID, "items": len(group.Groceries)})
			notified := s.dispatch(ctx, groupLog, group)
			marked, markErr := s.markNotified(ctx, groupLog, group, notified)
			if markErr != nil {
				groupLog.WithError(markErr).Error("Some groceries could not be marked as notified")
			}
			results[i] = groupResult{notified: notified, marked: marked}
			return nil
		})
	}
	_ = eg.Wait() // Pipelines never return errors

	for _, r := range results {
		if r.notified {
			summary.UsersNotified++
		}
		summary.RecordsMarked += r.marked
	}
	s.metrics.AddRecordsMarked(summary.RecordsMarked)

	summary.Success = true
	summary.Message = fmt.Sprintf("Checked %d expiring groceries and sent notifications to %d users.", found, summary.UsersNotified)
	runLog.WithFields(logrus.Fields{
		"candidates":     summary.Candidates,
		"users_notified": summary.UsersNotified,
		"records_marked": summary.RecordsMarked,
	}).Info(summary.Message)
	return s.finish(summary, RunResultSuccess)
}

func (s *ExpiryService) finish(summary notification.RunSummary, result string) notification.RunSummary {
	summary.Duration = s.now().Sub(summary.StartedAt)
	s.metrics.ObserveRun(result, summary.Duration)
	return summary
}

// scan returns the number of groceries the store reported and the subset whose owner resolves.
func (s *ExpiryService) scan(ctx context.Context, log *logrus.Entry, windowEnd time.Time) (int, []*grocery.Grocery, error) {
	expiring, err := s.groceryRepo.FindExpiringUnnotified(ctx, windowEnd)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to find expiring groceries: %w", err)
	}
	log.Infof("Found %d groceries expiring within %d days", len(expiring), s.cfg.HorizonDays)

	owners := make(map[string]*user.User) // nil entry: owner known to be missing
	candidates := make([]*grocery.Grocery, 0, len(expiring))
	for _, g := range expiring {
		if g.NotificationSent || g.ExpiryDate.After(windowEnd) {
			continue
		}
		owner, err := s.resolveOwner(ctx, g, owners)
		if err != nil {
			return 0, nil, err
		}
		if owner == nil {
			log.WithFields(logrus.Fields{"grocery_id": g.ID, "grocery": g.Name, "owner_id": g.OwnerID}).
				Info("Grocery has no user. Skipping notification.")
			continue
		}
		g.Owner = owner
		candidates = append(candidates, g)
	}
	log.Infof("Proceeding with %d groceries with valid user", len(candidates))
	return len(expiring), candidates, nil
}

func (s *ExpiryService) resolveOwner(ctx context.Context, g *grocery.Grocery, owners map[string]*user.User) (*user.User, error) {
	if g.Owner != nil {
		return g.Owner, nil
	}
	if g.OwnerID == "" {
		return nil, nil
	}
	if owner, seen := owners[g.OwnerID]; seen {
		return owner, nil
	}
	owner, err := s.userRepo.GetByID(ctx, g.OwnerID)
	if err != nil {
		if errors.Is(err, idb.ErrUserNotFound) {
			owners[g.OwnerID] = nil
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve owner %s: %w", g.OwnerID, err)
	}
	owners[g.OwnerID] = owner
	return owner, nil
}

// groupByOwner partitions candidates by owner, keeping the order in which owners and
// their groceries were first encountered.
func groupByOwner(candidates []*grocery.Grocery) []*notification.Group {
	index := make(map[string]*notification.Group)
	groups := make([]*notification.Group, 0)
	for _, g := range candidates {
		if g.Owner == nil {
			continue
		}
		group, ok := index[g.Owner.ID]
		if !ok {
			group = &notification.Group{User: g.Owner}
			index[g.Owner.ID] = group
			groups = append(groups, group)
		}
		group.Groceries = append(group.Groceries, g)
	}
	return groups
}

// dispatch sends email alongside the chat+text pair and reports whether any channel delivered.
func (s *ExpiryService) dispatch(ctx context.Context, log *logrus.Entry, group *notification.Group) bool {
	recipient := notification.Recipient{
		UserID: group.User.ID,
		Name:   group.User.Name,
		Email:  group.User.Email,
	}
	hasPhone := group.User.HasPhone()
	if hasPhone {
		recipient.Phone = FormatPhoneNumber(group.User.PhoneNumber.String, s.cfg.CountryCode)
	}

	log.WithField("email", recipient.Email).Infof("Sending notifications for %d groceries", len(group.Groceries))

	var emailSent, chatSent, textSent bool
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		emailSent = s.send(ctx, log, s.email, recipient, group.Groceries)
	}()
	go func() {
		defer wg.Done()
		if !hasPhone {
			log.Info("User has no phone number. Skipping WhatsApp and SMS notifications.")
			s.metrics.IncChannelSend(notification.ChannelChat, notification.OutcomeSkipped)
			s.metrics.IncChannelSend(notification.ChannelText, notification.OutcomeSkipped)
			return
		}
		var pair sync.WaitGroup
		pair.Add(2)
		go func() {
			defer pair.Done()
			chatSent = s.send(ctx, log, s.chat, recipient, group.Groceries)
		}()
		go func() {
			defer pair.Done()
			textSent = s.send(ctx, log, s.text, recipient, group.Groceries)
		}()
		pair.Wait()
	}()
	wg.Wait()

	log.WithFields(logrus.Fields{
		"email_sent": emailSent,
		"chat_sent":  chatSent,
		"text_sent":  textSent,
	}).Info("Notification dispatch finished")
	return emailSent || chatSent || textSent
}

// send runs one channel under its own timeout. A panicking sender counts as a failure.
func (s *ExpiryService) send(ctx context.Context, log *logrus.Entry, sender Sender, recipient notification.Recipient, groceries []*grocery.Grocery) (ok bool) {
	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.ChannelTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			log.WithField("channel", sender.Channel()).Errorf("Sender panicked: %v", r)
			ok = false
		}
		outcome := notification.OutcomeFailed
		if ok {
			outcome = notification.OutcomeDelivered
		}
		s.metrics.IncChannelSend(sender.Channel(), outcome)
	}()
	return sender.Send(sendCtx, recipient, groceries)
}

// markNotified flags every grocery of a delivered group. Failed writes leave that grocery
// eligible for the next run and do not stop the others.
func (s *ExpiryService) markNotified(ctx context.Context, log *logrus.Entry, group *notification.Group, delivered bool) (int, error) {
	if !delivered {
		log.Warn("All channels failed. Groceries stay eligible for the next run.")
		return 0, nil
	}
	// Delivery already happened; the flags must land even if the run is being canceled.
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markTimeout)
	defer cancel()

	var errs error
	marked := 0
	for _, g := range group.Groceries {
		if err := s.groceryRepo.MarkNotified(markCtx, g.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("grocery %s: %w", g.ID, err))
			continue
		}
		marked++
		log.WithField("grocery_id", g.ID).Debugf("Marked notification as sent for grocery: %s", g.Name)
	}
	return marked, errs
}
