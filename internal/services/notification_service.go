package services

import (
	"context"
	"fmt"
	"strings"

	"swiftfactureBack/internal/models"
)

const notificationTypeTrialReminder = "trial_reminder"

type NotificationStore interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	DeviceTokens(ctx context.Context, userID string) ([]string, error)
	AddDeviceToken(ctx context.Context, userID, token string) error
}

// Pusher delivers a push notification to device registration tokens.
type Pusher interface {
	Push(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

type NotificationService struct {
	Repo   NotificationStore
	Pusher Pusher
	Logger Logger
}

func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.Repo.ListByUser(ctx, userID)
}

func (s *NotificationService) RegisterDevice(ctx context.Context, userID, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("device token is required: %w", models.ErrInvalidInput)
	}
	return s.Repo.AddDeviceToken(ctx, userID, token)
}

// NotifyTrialReminder stores an in-app notification for the owner and pushes
// it to their devices. Push failures are logged only.
func (s *NotificationService) NotifyTrialReminder(ctx context.Context, userID string, email models.TrialReminderEmail) error {
	title := "Your trial is ending soon"
	body := fmt.Sprintf("The trial of %s ends in %d %s.", email.OrgName, email.DaysLeft, dayWord(email.DaysLeft))

	if _, err := s.Repo.Create(ctx, models.Notification{
		UserID: userID,
		Type:   notificationTypeTrialReminder,
		Title:  title,
		Body:   body,
	}); err != nil {
		return err
	}
	if s.Pusher == nil {
		return nil
	}
	tokens, err := s.Repo.DeviceTokens(ctx, userID)
	if err != nil {
		s.Logger.Errorf("notifications: device tokens of %s: %v", userID, err)
		return nil
	}
	if len(tokens) == 0 {
		return nil
	}
	data := map[string]string{"type": notificationTypeTrialReminder, "daysLeft": fmt.Sprint(email.DaysLeft)}
	if err := s.Pusher.Push(ctx, tokens, title, body, data); err != nil {
		s.Logger.Errorf("notifications: push to %s: %v", userID, err)
	}
	return nil
}

func dayWord(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
