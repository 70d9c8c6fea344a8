package services

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"swiftfactureBack/internal/models"
	"swiftfactureBack/utils"
)

type memUsers struct {
	users    map[string]models.User
	sessions map[string]models.Session
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]models.User{}, sessions: map[string]models.Session{}}
}

func (m *memUsers) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return models.User{}, models.ErrDuplicateEmail
		}
	}
	u.ID = "u" + string(rune('0'+len(m.users)+1))
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, models.ErrUserNotFound
}

func (m *memUsers) GetUserByID(ctx context.Context, id string) (models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return models.User{}, models.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) SetSession(ctx context.Context, s models.Session) error {
	m.sessions[s.UserID] = s
	return nil
}

func (m *memUsers) GetSessionByToken(ctx context.Context, token string) (models.Session, error) {
	for _, s := range m.sessions {
		if s.RefreshToken == token {
			return s, nil
		}
	}
	return models.Session{}, models.ErrNoRecord
}

func (m *memUsers) DeleteSession(ctx context.Context, userID string) error {
	delete(m.sessions, userID)
	return nil
}

type memProfiles struct {
	profiles map[string]models.Profile
	roles    map[string]string
}

func newMemProfiles() *memProfiles {
	return &memProfiles{profiles: map[string]models.Profile{}, roles: map[string]string{}}
}

func (m *memProfiles) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return models.Profile{}, models.ErrNoRecord
	}
	return p, nil
}

func (m *memProfiles) CreateProfile(ctx context.Context, p models.Profile) error {
	m.profiles[p.ID] = p
	return nil
}

func (m *memProfiles) GetRole(ctx context.Context, id string) (string, error) {
	if r, ok := m.roles[id]; ok {
		return r, nil
	}
	return models.RoleUser, nil
}

func newUserService(t *testing.T) (*UserService, *memUsers, *memProfiles) {
	t.Helper()
	tm, err := utils.NewManager("secret")
	if err != nil {
		t.Fatal(err)
	}
	users, profiles := newMemUsers(), newMemProfiles()
	return &UserService{
		Users:        users,
		Profiles:     profiles,
		TokenManager: tm,
		SigningKey:   "secret",
		AccessTTL:    time.Hour,
		RefreshTTL:   24 * time.Hour,
	}, users, profiles
}

func TestUserServiceSignUpSignIn(t *testing.T) {
	svc, users, profiles := newUserService(t)
	ctx := context.Background()

	tokens, err := svc.SignUp(ctx, models.SignUpRequest{Email: " Owner@Example.com", Password: "hunter22", FullName: "Owner"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	claims, err := svc.ParseAccessToken(tokens.AccessToken)
	if err != nil || claims.Role != models.RoleUser {
		t.Fatalf("claims = %+v, %v", claims, err)
	}
	if profiles.profiles[claims.UserID].FullName != "Owner" {
		t.Errorf("profile not created: %+v", profiles.profiles)
	}
	if users.users[claims.UserID].PasswordHash == "hunter22" {
		t.Error("password stored in clear text")
	}

	if _, err := svc.SignIn(ctx, "owner@example.com", "wrong"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := svc.SignIn(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v", err)
	}
	again, err := svc.SignIn(ctx, "owner@example.com", "hunter22")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	access, refreshed, err := svc.Refresh(ctx, again.RefreshToken)
	if err != nil || access == "" || refreshed.UserID != claims.UserID {
		t.Fatalf("Refresh = %q %+v %v", access, refreshed, err)
	}
	if _, _, err := svc.Refresh(ctx, tokens.RefreshToken); err == nil {
		t.Error("replaced refresh token still accepted")
	}

	if err := svc.SignOut(ctx, claims.UserID); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Refresh(ctx, again.RefreshToken); err == nil {
		t.Error("refresh accepted after sign out")
	}
}

func TestUserServiceRejectsForeignToken(t *testing.T) {
	svc, _, _ := newUserService(t)
	other := *svc
	other.SigningKey = "other"
	tokens, err := other.SignUp(context.Background(), models.SignUpRequest{Email: "a@b.c", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ParseAccessToken(tokens.AccessToken); err == nil {
		t.Error("token signed with another key accepted")
	}
}

func TestUserServiceSignInExternal(t *testing.T) {
	svc, users, _ := newUserService(t)
	ctx := context.Background()

	if _, err := svc.SignInExternal(ctx, "google", "New@Example.com", "New"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SignInExternal(ctx, "google", "new@example.com", "New"); err != nil {
		t.Fatal(err)
	}
	if len(users.users) != 1 {
		t.Errorf("external sign in created %d users", len(users.users))
	}
	for _, u := range users.users {
		if u.Provider != "google" || u.PasswordHash != "" {
			t.Errorf("user = %+v", u)
		}
	}
}

func TestUserServiceCurrentSession(t *testing.T) {
	svc, _, profiles := newUserService(t)
	ctx := context.Background()
	tokens, _ := svc.SignUp(ctx, models.SignUpRequest{Email: "admin@example.com", Password: "secret1"})
	claims, _ := svc.ParseAccessToken(tokens.AccessToken)
	profiles.roles[claims.UserID] = models.RoleAdmin

	cur, err := svc.CurrentSession(ctx, claims.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if cur.Role != models.RoleAdmin || cur.User.Email != "admin@example.com" || cur.Profile.ID != claims.UserID {
		t.Errorf("session = %+v", cur)
	}
}

type memMessages struct {
	rows []models.Message
	seq  int
}

func (m *memMessages) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	m.seq++
	msg.ID = "m" + string(rune('0'+m.seq))
	msg.CreatedAt = time.Unix(int64(m.seq), 0)
	m.rows = append(m.rows, msg)
	return msg, nil
}

func (m *memMessages) GetByID(ctx context.Context, id string) (models.Message, error) {
	for _, r := range m.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Message{}, models.ErrNoRecord
}

func (m *memMessages) List(ctx context.Context, f models.MessageFilter) ([]models.Message, error) {
	var out []models.Message
	for _, r := range m.rows {
		if f.ThreadUserID == "" || r.ThreadUserID == f.ThreadUserID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memMessages) ListSenders(ctx context.Context) ([]models.MessageSender, error) {
	seen := map[string]models.MessageSender{}
	for _, r := range m.rows {
		if !r.IsAdmin() {
			seen[r.UserID] = models.MessageSender{UserID: r.UserID, DisplayName: r.DisplayName, LastActivity: r.CreatedAt}
		}
	}
	var out []models.MessageSender
	for _, s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	return out, nil
}

func (m *memMessages) Delete(ctx context.Context, id string) error {
	for i, r := range m.rows {
		if r.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return models.ErrNoRecord
}

type recordingFeed struct {
	events []models.ChangeEvent
	err    error
}

func (f *recordingFeed) Publish(ctx context.Context, ev models.ChangeEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

func newMessageService() (*MessageService, *memMessages, *memProfiles, *memUsers, *recordingFeed) {
	repo, profiles, users, feed := &memMessages{}, newMemProfiles(), newMemUsers(), &recordingFeed{}
	return &MessageService{Repo: repo, Profiles: profiles, Users: users, Feed: feed, Logger: zap.NewNop().Sugar()}, repo, profiles, users, feed
}

func TestMessageServiceDisplayName(t *testing.T) {
	svc, _, profiles, users, _ := newMessageService()
	ctx := context.Background()
	profiles.profiles["p1"] = models.Profile{ID: "p1", DisplayName: "Nick", FullName: "Full"}
	profiles.profiles["p2"] = models.Profile{ID: "p2", FullName: "Full Two"}
	users.users["p3"] = models.User{ID: "p3", Email: "three@example.com"}

	for id, want := range map[string]string{"p1": "Nick", "p2": "Full Two", "p3": "three@example.com", "p4": "p4"} {
		if got := svc.ResolveDisplayName(ctx, id); got != want {
			t.Errorf("ResolveDisplayName(%s) = %q, want %q", id, got, want)
		}
	}
}

func TestMessageServiceSend(t *testing.T) {
	svc, repo, _, _, feed := newMessageService()
	ctx := context.Background()

	if _, err := svc.Send(ctx, models.Author{UserID: "u1"}, models.SendMessageRequest{Body: "   "}); !errors.Is(err, models.ErrEmptyMessage) {
		t.Fatalf("empty body err = %v", err)
	}

	m, err := svc.Send(ctx, models.Author{UserID: "u1", Role: models.RoleUser, DisplayName: "Cached"}, models.SendMessageRequest{Body: "help", Counterpart: "ignored"})
	if err != nil {
		t.Fatal(err)
	}
	if m.ThreadUserID != "u1" || m.DisplayName != "Cached" || m.IsAdmin() {
		t.Errorf("user message = %+v", m)
	}

	reply, err := svc.Send(ctx, models.Author{UserID: "a1", Role: models.RoleSuperAdmin}, models.SendMessageRequest{Body: "on it", Counterpart: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if reply.Body != models.AdminMessagePrefix+"on it" || reply.ThreadUserID != "u1" || reply.DisplayName != "a1" {
		t.Errorf("admin reply = %+v", reply)
	}

	if len(feed.events) != 2 || feed.events[1].Op != models.ChangeInsert || feed.events[1].RowID != reply.ID {
		t.Errorf("events = %+v", feed.events)
	}
	if len(repo.rows) != 2 {
		t.Errorf("stored %d rows", len(repo.rows))
	}
}

func TestMessageServiceListByRole(t *testing.T) {
	svc, _, _, _, _ := newMessageService()
	ctx := context.Background()
	svc.Send(ctx, models.Author{UserID: "u1"}, models.SendMessageRequest{Body: "one"})
	svc.Send(ctx, models.Author{UserID: "u2"}, models.SendMessageRequest{Body: "two"})

	all, _ := svc.List(ctx, models.RoleUser, "u1")
	if len(all) != 2 {
		t.Errorf("non-admin sees %d messages, want all 2", len(all))
	}
	thread, _ := svc.List(ctx, models.RoleAdmin, "u1")
	if len(thread) != 1 {
		t.Errorf("admin thread has %d messages, want 1", len(thread))
	}
	if _, err := svc.Senders(ctx, models.RoleUser); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("non-admin senders err = %v", err)
	}
	senders, _ := svc.Senders(ctx, models.RoleAdmin)
	if len(senders) != 2 || senders[0].UserID != "u2" {
		t.Errorf("senders = %+v", senders)
	}
}

func TestMessageServiceDelete(t *testing.T) {
	svc, repo, _, _, feed := newMessageService()
	ctx := context.Background()
	m, _ := svc.Send(ctx, models.Author{UserID: "u1"}, models.SendMessageRequest{Body: "oops"})

	if err := svc.Delete(ctx, models.RoleUser, m.ID); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("non-admin delete err = %v", err)
	}
	if err := svc.Delete(ctx, models.RoleAdmin, m.ID); err != nil {
		t.Fatal(err)
	}
	if len(repo.rows) != 0 {
		t.Error("row not deleted")
	}
	last := feed.events[len(feed.events)-1]
	if last.Op != models.ChangeDelete || last.RowID != m.ID || last.UserID != "u1" {
		t.Errorf("delete event = %+v", last)
	}
}

func TestMessageServicePublishFailureIsLogged(t *testing.T) {
	svc, _, _, _, feed := newMessageService()
	core, logs := observer.New(zapcore.ErrorLevel)
	svc.Logger = zap.New(core).Sugar()
	feed.err = errors.New("redis down")

	if _, err := svc.Send(context.Background(), models.Author{UserID: "u1"}, models.SendMessageRequest{Body: "hi"}); err != nil {
		t.Fatalf("send failed on publish error: %v", err)
	}
	if logs.FilterMessageSnippet("publish").Len() != 1 {
		t.Errorf("publish failure not logged: %v", logs.All())
	}
}

type memNotifications struct {
	created []models.Notification
	tokens  map[string][]string
}

func (m *memNotifications) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	m.created = append(m.created, n)
	return n, nil
}

func (m *memNotifications) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	return m.created, nil
}

func (m *memNotifications) DeviceTokens(ctx context.Context, userID string) ([]string, error) {
	return m.tokens[userID], nil
}

func (m *memNotifications) AddDeviceToken(ctx context.Context, userID, token string) error {
	m.tokens[userID] = append(m.tokens[userID], token)
	return nil
}

type stubPusher struct {
	tokens []string
	err    error
}

func (p *stubPusher) Push(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	p.tokens = append(p.tokens, tokens...)
	return p.err
}

func TestNotificationServiceTrialReminder(t *testing.T) {
	repo := &memNotifications{tokens: map[string][]string{}}
	pusher := &stubPusher{err: errors.New("fcm unavailable")}
	core, logs := observer.New(zapcore.ErrorLevel)
	svc := &NotificationService{Repo: repo, Pusher: pusher, Logger: zap.New(core).Sugar()}
	ctx := context.Background()

	if err := svc.RegisterDevice(ctx, "owner", "device-1"); err != nil {
		t.Fatal(err)
	}
	err := svc.NotifyTrialReminder(ctx, "owner", models.TrialReminderEmail{OrgName: "Acme", DaysLeft: 1})
	if err != nil {
		t.Fatalf("push failure leaked: %v", err)
	}
	if len(repo.created) != 1 || repo.created[0].Body != "The trial of Acme ends in 1 day." {
		t.Errorf("notifications = %+v", repo.created)
	}
	if len(pusher.tokens) != 1 || pusher.tokens[0] != "device-1" {
		t.Errorf("pushed to %v", pusher.tokens)
	}
	if logs.Len() != 1 {
		t.Errorf("push failure not logged")
	}
}

func TestNotificationServiceRejectsEmptyDeviceToken(t *testing.T) {
	repo := &memNotifications{tokens: map[string][]string{}}
	svc := &NotificationService{Repo: repo, Logger: zap.NewNop().Sugar()}

	for _, token := range []string{"", "   "} {
		err := svc.RegisterDevice(context.Background(), "owner", token)
		if !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("RegisterDevice(%q) = %v, want ErrInvalidInput", token, err)
		}
		if errors.Is(err, models.ErrInvalidCredentials) {
			t.Errorf("RegisterDevice(%q) reported as a credentials error", token)
		}
	}
	if len(repo.tokens["owner"]) != 0 {
		t.Errorf("stored tokens %v", repo.tokens["owner"])
	}
}
