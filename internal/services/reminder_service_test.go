package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"swiftfactureBack/internal/models"
)

type stubBilling struct {
	subs      []models.BillingSubscription
	orgs      map[string]models.Organization
	events    map[string]bool
	fetchErr  map[int]error
	logErr    error
	fetches   int
	windowDay func(start time.Time) int
}

func newStubBilling() *stubBilling {
	return &stubBilling{orgs: map[string]models.Organization{}, events: map[string]bool{}, fetchErr: map[int]error{}}
}

func (s *stubBilling) ListTrialsEndingBetween(ctx context.Context, status string, start, end time.Time) ([]models.BillingSubscription, error) {
	s.fetches++
	for days, err := range s.fetchErr {
		if s.windowDay != nil && s.windowDay(start) == days {
			return nil, err
		}
	}
	var out []models.BillingSubscription
	for _, sub := range s.subs {
		if sub.Status != status || sub.TrialEnd == nil {
			continue
		}
		if !sub.TrialEnd.Before(start) && !sub.TrialEnd.After(end) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *stubBilling) HasEvent(ctx context.Context, orgID, eventType string) (bool, error) {
	return s.events[orgID+"/"+eventType], nil
}

func (s *stubBilling) LogEvent(ctx context.Context, orgID, eventType string, metadata any) (models.BillingEvent, error) {
	if s.logErr != nil {
		return models.BillingEvent{}, s.logErr
	}
	key := orgID + "/" + eventType
	if s.events[key] {
		return models.BillingEvent{}, models.ErrDuplicate
	}
	s.events[key] = true
	return models.BillingEvent{OrganizationID: orgID, EventType: eventType}, nil
}

func (s *stubBilling) GetOrganization(ctx context.Context, id string) (models.Organization, error) {
	org, ok := s.orgs[id]
	if !ok {
		return models.Organization{}, models.ErrNoRecord
	}
	return org, nil
}

type stubIdentity map[string]models.User

func (s stubIdentity) GetUserByID(ctx context.Context, id string) (models.User, error) {
	u, ok := s[id]
	if !ok {
		return models.User{}, models.ErrUserNotFound
	}
	return u, nil
}

type stubEmail struct {
	sent      []models.TrialReminderEmail
	fail      bool
	afterSend func()
}

func (s *stubEmail) SendTrialReminder(ctx context.Context, email models.TrialReminderEmail) error {
	if s.fail {
		return errors.New("smtp down")
	}
	s.sent = append(s.sent, email)
	if s.afterSend != nil {
		s.afterSend()
	}
	return nil
}

type stubLocker struct {
	held     bool
	err      error
	released bool
}

func (s *stubLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if s.err != nil || s.held {
		return nil, false, s.err
	}
	return func() { s.released = true }, true, nil
}

type stubReminderNotifier struct{ users []string }

func (s *stubReminderNotifier) NotifyTrialReminder(ctx context.Context, userID string, email models.TrialReminderEmail) error {
	s.users = append(s.users, userID)
	return nil
}

var reminderNow = time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)

func newReminderService(billing *stubBilling, identity stubIdentity, email *stubEmail) (*ReminderService, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return &ReminderService{
		Billing:  billing,
		Identity: identity,
		Email:    email,
		Logger:   zap.New(core).Sugar(),
		Now:      func() time.Time { return reminderNow },
	}, logs
}

func trial(id, org string, end time.Time) models.BillingSubscription {
	return models.BillingSubscription{ID: id, OrganizationID: org, Status: models.SubscriptionStatusTrialing, TrialEnd: &end}
}

func TestDayWindow(t *testing.T) {
	start, end := DayWindow(time.Date(2026, time.March, 1, 23, 0, 0, 0, time.FixedZone("X", -3*3600)), 7)
	if want := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
	if want := time.Date(2026, time.March, 9, 23, 59, 59, int(999*time.Millisecond), time.UTC); !end.Equal(want) {
		t.Errorf("end = %v, want %v", end, want)
	}
}

func TestReminderSendsOnce(t *testing.T) {
	billing := newStubBilling()
	billing.orgs["org-1"] = models.Organization{ID: "org-1", Name: "Acme", OwnerID: "owner-1"}
	billing.subs = []models.BillingSubscription{trial("sub-1", "org-1", reminderNow.AddDate(0, 0, 7).Add(3*time.Hour))}
	email := &stubEmail{}
	svc, _ := newReminderService(billing, stubIdentity{"owner-1": {ID: "owner-1", Email: "owner@acme.test"}}, email)

	n, err := svc.Run(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("first run = %d, %v; want 1", n, err)
	}
	n, err = svc.Run(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("second run = %d, %v; want 0", n, err)
	}
	if len(email.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(email.sent))
	}
	got := email.sent[0]
	if got.Email != "owner@acme.test" || got.OrgName != "Acme" || got.DaysLeft != 7 || got.Type != models.EmailTypeTrialReminder {
		t.Errorf("email = %+v", got)
	}
	if !billing.events["org-1/trial_reminder_7_days_left"] {
		t.Errorf("event not logged: %v", billing.events)
	}
}

func TestReminderCancelledRunKeepsCount(t *testing.T) {
	billing := newStubBilling()
	billing.orgs["org-1"] = models.Organization{ID: "org-1", Name: "Acme", OwnerID: "owner-1"}
	billing.orgs["org-2"] = models.Organization{ID: "org-2", Name: "Globex", OwnerID: "owner-2"}
	end := reminderNow.AddDate(0, 0, 7)
	billing.subs = []models.BillingSubscription{trial("sub-1", "org-1", end), trial("sub-2", "org-2", end)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	email := &stubEmail{afterSend: cancel}
	svc, logs := newReminderService(billing, stubIdentity{
		"owner-1": {ID: "owner-1", Email: "a@acme.test"},
		"owner-2": {ID: "owner-2", Email: "b@globex.test"},
	}, email)

	n, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("Run error = %v, want nil", err)
	}
	if n != 1 || len(email.sent) != 1 {
		t.Fatalf("sent = %d (%d emails), want 1", n, len(email.sent))
	}
	if logs.FilterMessageSnippet("stopped early").Len() != 1 {
		t.Errorf("missing early stop log: %v", logs.All())
	}
}

func TestReminderThresholdsAreIndependent(t *testing.T) {
	billing := newStubBilling()
	billing.orgs["org-1"] = models.Organization{ID: "org-1", Name: "Acme", OwnerID: "owner-1"}
	trialEnd := reminderNow.AddDate(0, 0, 7)
	billing.subs = []models.BillingSubscription{trial("sub-1", "org-1", trialEnd)}
	email := &stubEmail{}
	svc, _ := newReminderService(billing, stubIdentity{"owner-1": {ID: "owner-1", Email: "o@acme.test"}}, email)

	if n, _ := svc.Run(context.Background()); n != 1 {
		t.Fatalf("7-day run sent %d", n)
	}
	svc.Now = func() time.Time { return reminderNow.AddDate(0, 0, 5) }
	if n, _ := svc.Run(context.Background()); n != 1 {
		t.Fatalf("2-day run sent %d", n)
	}

	if !billing.events["org-1/trial_reminder_7_days_left"] || !billing.events["org-1/trial_reminder_2_days_left"] {
		t.Errorf("events = %v, want both thresholds", billing.events)
	}
	if len(billing.events) != 2 {
		t.Errorf("events = %v", billing.events)
	}
	if email.sent[1].DaysLeft != 2 {
		t.Errorf("second email days left = %d", email.sent[1].DaysLeft)
	}
}

func TestReminderOneDayEventName(t *testing.T) {
	billing := newStubBilling()
	billing.orgs["org-1"] = models.Organization{ID: "org-1", Name: "Acme", OwnerID: "owner-1"}
	billing.subs = []models.BillingSubscription{trial("sub-1", "org-1", reminderNow.AddDate(0, 0, 1))}
	svc, _ := newReminderService(billing, stubIdentity{"owner-1": {ID: "owner-1", Email: "o@acme.test"}}, &stubEmail{})

	if n, _ := svc.Run(context.Background()); n != 1 {
		t.Fatalf("sent %d", n)
	}
	if !billing.events["org-1/trial_reminder_1_day_left"] {
		t.Errorf("events = %v", billing.events)
	}
}

func TestReminderNoTrials(t *testing.T) {
	billing := newStubBilling()
	svc, _ := newReminderService(billing, stubIdentity{}, &stubEmail{})

	n, err := svc.Run(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("run = %d, %v", n, err)
	}
	if billing.fetches != 3 {
		t.Errorf("fetched %d thresholds, want 3", billing.fetches)
	}
}

func TestReminderSkipsUnresolvableOwner(t *testing.T) {
	billing := newStubBilling()
	billing.orgs["org-1"] = models.Organization{ID: "org-1", Name: "Acme", OwnerID: "ghost"}
	billing.orgs["org-2"] = models.Organization{ID: "org-2", Name: "Globex", OwnerID: "owner-2"}
	billing.orgs["org-3"] = models.Organization{ID: "org-3", Name: "Initech", OwnerID: "no-email"}
	end := reminderNow.AddDate(0, 0, 2)
	billing.subs = []models.BillingSubscription{
		trial("sub-1", "org-1", end),
		trial("sub-2", "org-2", end),
		trial("sub-3", "org-3", end),
	}
	identity := stubIdentity{
		"owner-2":  {ID: "owner-2", Email: "g@globex.test"},
		"no-email": {ID: "no-email"},
	}
	svc, logs := newReminderService(billing, identity, &stubEmail{})

	n, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("sent %d, want 1", n)
	}
	if billing.events["org-1/trial_reminder_2_days_left"] || billing.events["org-3/trial_reminder_2_days_left"] {
		t.Errorf("marker written for skipped org: %v", billing.events)
	}
	failures := logs.FilterLevelExact(zapcore.ErrorLevel).FilterMessageSnippet("resolve owner").All()
	if len(failures) != 2 {
		t.Errorf("logged %d owner failures, want 2", len(failures))
	}
}

func TestReminderFailedDispatchIsRetried(t *testing.T) {
	billing := newStubBilling()
	billing.orgs["org-1"] = models.Organization{ID: "org-1", Name: "Acme", OwnerID: "owner-1"}
	billing.subs = []models.BillingSubscription{trial("sub-1", "org-1", reminderNow.AddDate(0, 0, 7))}
	email := &stubEmail{fail: true}
	svc, _ := newReminderService(billing, stubIdentity{"owner-1": {ID: "owner-1", Email: "o@acme.test"}}, email)

	if n, _ := svc.Run(context.Background()); n != 0 {
		t.Fatalf("failed dispatch counted: %d", n)
	}
	if len(billing.events) != 0 {
		t.Fatalf("marker written despite failed dispatch: %v", billing.events)
	}
	email.fail = false
	if n, _ := svc.Run(context.Background()); n != 1 {
		t.Fatalf("retry sent %d, want 1", n)
	}
}

func TestReminderFetchFailureSkipsThresholdOnly(t *testing.T) {
	billing := newStubBilling()
	billing.orgs["org-1"] = models.Organization{ID: "org-1", Name: "Acme", OwnerID: "owner-1"}
	billing.subs = []models.BillingSubscription{trial("sub-1", "org-1", reminderNow.AddDate(0, 0, 1))}
	billing.fetchErr[7] = errors.New("timeout")
	billing.windowDay = func(start time.Time) int {
		return int(start.Sub(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)).Hours() / 24)
	}
	svc, logs := newReminderService(billing, stubIdentity{"owner-1": {ID: "owner-1", Email: "o@acme.test"}}, &stubEmail{})

	n, err := svc.Run(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("run = %d, %v; want 1", n, err)
	}
	if logs.FilterMessageSnippet("fetch trials").Len() != 1 {
		t.Errorf("fetch failure not logged: %v", logs.All())
	}
}

func TestReminderDuplicateMarkerStillCounts(t *testing.T) {
	billing := newStubBilling()
	billing.orgs["org-1"] = models.Organization{ID: "org-1", Name: "Acme", OwnerID: "owner-1"}
	billing.subs = []models.BillingSubscription{trial("sub-1", "org-1", reminderNow.AddDate(0, 0, 7))}
	billing.logErr = models.ErrDuplicate
	notifier := &stubReminderNotifier{}
	svc, logs := newReminderService(billing, stubIdentity{"owner-1": {ID: "owner-1", Email: "o@acme.test"}}, &stubEmail{})
	svc.Notifier = notifier

	if n, _ := svc.Run(context.Background()); n != 1 {
		t.Fatalf("sent %d, want 1", n)
	}
	if logs.FilterMessageSnippet("already logged").Len() != 1 {
		t.Errorf("duplicate marker not reported")
	}
	if len(notifier.users) != 1 || notifier.users[0] != "owner-1" {
		t.Errorf("notified %v", notifier.users)
	}
}

func TestReminderLock(t *testing.T) {
	billing := newStubBilling()
	svc, logs := newReminderService(billing, stubIdentity{}, &stubEmail{})

	held := &stubLocker{held: true}
	svc.Locker = held
	n, err := svc.Run(context.Background())
	if err != nil || n != 0 || billing.fetches != 0 {
		t.Fatalf("locked run = %d, %v, fetches %d", n, err, billing.fetches)
	}
	if logs.FilterMessageSnippet("holds the lock").Len() != 1 {
		t.Error("skip not logged")
	}

	free := &stubLocker{}
	svc.Locker = free
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !free.released {
		t.Error("lock not released")
	}

	svc.Locker = &stubLocker{err: errors.New("redis down")}
	if _, err := svc.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "redis down") {
		t.Errorf("lock error = %v", err)
	}
}
