package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swiftfactureBack/internal/models"
)

const reminderLockKey = "locks:trial-reminders"

// DefaultReminderThresholds are the days-before-trial-end a reminder is sent.
var DefaultReminderThresholds = []int{7, 2, 1}

type TrialRepository interface {
	ListTrialsEndingBetween(ctx context.Context, status string, start, end time.Time) ([]models.BillingSubscription, error)
	HasEvent(ctx context.Context, organizationID, eventType string) (bool, error)
	LogEvent(ctx context.Context, organizationID, eventType string, metadata any) (models.BillingEvent, error)
	GetOrganization(ctx context.Context, id string) (models.Organization, error)
}

// IdentityLookup resolves a user record by id on behalf of the reminder job.
type IdentityLookup interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

type EmailDispatcher interface {
	SendTrialReminder(ctx context.Context, email models.TrialReminderEmail) error
}

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

type ReminderNotifier interface {
	NotifyTrialReminder(ctx context.Context, userID string, email models.TrialReminderEmail) error
}

type ReminderService struct {
	Billing    TrialRepository
	Identity   IdentityLookup
	Email      EmailDispatcher
	Locker     Locker
	Notifier   ReminderNotifier
	Logger     Logger
	Thresholds []int
	LockTTL    time.Duration
	Now        func() time.Time
}

// DayWindow returns the first and last millisecond of the UTC calendar day
// that lies daysAhead days after now.
func DayWindow(now time.Time, daysAhead int) (time.Time, time.Time) {
	target := now.UTC().AddDate(0, 0, daysAhead)
	start := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Millisecond)
	return start, end
}

// Run sends every due trial reminder once and returns how many were sent.
// Per-threshold and per-subscription failures are logged and skipped; an
// error is returned only when the run lock cannot be checked. A cancelled
// ctx stops the run early and still reports what was sent.
func (s *ReminderService) Run(ctx context.Context) (int, error) {
	if s.Locker != nil {
		ttl := s.LockTTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		release, ok, err := s.Locker.TryLock(ctx, reminderLockKey, ttl)
		if err != nil {
			return 0, fmt.Errorf("acquire reminder lock: %w", err)
		}
		if !ok {
			s.Logger.Infof("trial reminders: another run holds the lock, skipping")
			return 0, nil
		}
		defer release()
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	thresholds := s.Thresholds
	if len(thresholds) == 0 {
		thresholds = DefaultReminderThresholds
	}

	sent := 0
thresholdLoop:
	for _, days := range thresholds {
		if ctx.Err() != nil {
			break
		}
		start, end := DayWindow(now, days)
		subs, err := s.Billing.ListTrialsEndingBetween(ctx, models.SubscriptionStatusTrialing, start, end)
		if err != nil {
			s.Logger.Errorf("trial reminders: fetch trials ending %s (%d days): %v", start.Format("2006-01-02"), days, err)
			continue
		}
		for _, sub := range subs {
			if ctx.Err() != nil {
				break thresholdLoop
			}
			if s.remind(ctx, sub, days) {
				sent++
			}
		}
	}
	if err := ctx.Err(); err != nil {
		s.Logger.Errorf("trial reminders: run stopped early after %d sent: %v", sent, err)
	}
	s.Logger.Infof("trial reminders: sent %d", sent)
	return sent, nil
}

func (s *ReminderService) remind(ctx context.Context, sub models.BillingSubscription, days int) bool {
	eventType := models.TrialReminderEventType(days)

	exists, err := s.Billing.HasEvent(ctx, sub.OrganizationID, eventType)
	if err != nil {
		s.Logger.Errorf("trial reminders: check %s for org %s: %v", eventType, sub.OrganizationID, err)
		return false
	}
	if exists {
		return false
	}

	org, err := s.Billing.GetOrganization(ctx, sub.OrganizationID)
	if err != nil {
		s.Logger.Errorf("trial reminders: load org %s: %v", sub.OrganizationID, err)
		return false
	}
	owner, err := s.Identity.GetUserByID(ctx, org.OwnerID)
	if err == nil && owner.Email == "" {
		err = models.ErrEmailUnresolved
	}
	if err != nil {
		s.Logger.Errorf("trial reminders: resolve owner %s of org %s: %v", org.OwnerID, org.ID, err)
		return false
	}

	var trialEnd time.Time
	if sub.TrialEnd != nil {
		trialEnd = sub.TrialEnd.UTC()
	}
	email := models.TrialReminderEmail{
		Email:    owner.Email,
		Type:     models.EmailTypeTrialReminder,
		OrgName:  org.Name,
		DaysLeft: days,
		TrialEnd: trialEnd,
	}
	if err := s.Email.SendTrialReminder(ctx, email); err != nil {
		s.Logger.Errorf("trial reminders: dispatch %s to org %s: %v", eventType, org.ID, err)
		return false
	}

	metadata := map[string]any{"daysLeft": days, "trialEnd": trialEnd, "email": owner.Email}
	if _, err := s.Billing.LogEvent(ctx, org.ID, eventType, metadata); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			s.Logger.Infof("trial reminders: %s for org %s already logged", eventType, org.ID)
		} else {
			s.Logger.Errorf("trial reminders: log %s for org %s after dispatch: %v", eventType, org.ID, err)
		}
	}

	if s.Notifier != nil {
		if err := s.Notifier.NotifyTrialReminder(ctx, owner.ID, email); err != nil {
			s.Logger.Errorf("trial reminders: in-app notification for %s: %v", owner.ID, err)
		}
	}
	return true
}
