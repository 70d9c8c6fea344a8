package services

import (
	"context"
	"errors"
	"strings"

	"swiftfactureBack/internal/models"
)

const messagesTable = "messages"

type MessageStore interface {
	Create(ctx context.Context, message models.Message) (models.Message, error)
	GetByID(ctx context.Context, id string) (models.Message, error)
	List(ctx context.Context, filter models.MessageFilter) ([]models.Message, error)
	ListSenders(ctx context.Context) ([]models.MessageSender, error)
	Delete(ctx context.Context, id string) error
}

type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	GetRole(ctx context.Context, userID string) (string, error)
}

type UserReader interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// ChangePublisher announces row changes to live panels.
type ChangePublisher interface {
	Publish(ctx context.Context, event models.ChangeEvent) error
}

type MessageService struct {
	Repo     MessageStore
	Profiles ProfileReader
	Users    UserReader
	Feed     ChangePublisher
	Logger   Logger
}

// ResolveDisplayName picks the name shown next to a user's messages: profile
// display name, then full name, then account email, then the raw id.
func (s *MessageService) ResolveDisplayName(ctx context.Context, userID string) string {
	if s.Profiles != nil {
		p, err := s.Profiles.GetProfile(ctx, userID)
		if err == nil {
			if p.DisplayName != "" {
				return p.DisplayName
			}
			if p.FullName != "" {
				return p.FullName
			}
		} else if !errors.Is(err, models.ErrNoRecord) {
			s.Logger.Errorf("messages: load profile %s: %v", userID, err)
		}
	}
	if s.Users != nil {
		if u, err := s.Users.GetUserByID(ctx, userID); err == nil && u.Email != "" {
			return u.Email
		}
	}
	return userID
}

// Send stores a message. Admin replies are marked with the admin prefix and
// filed under the counterpart's thread.
func (s *MessageService) Send(ctx context.Context, author models.Author, req models.SendMessageRequest) (models.Message, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return models.Message{}, models.ErrEmptyMessage
	}

	name := author.DisplayName
	if name == "" {
		name = s.ResolveDisplayName(ctx, author.UserID)
	}
	msg := models.Message{
		UserID:       author.UserID,
		ThreadUserID: author.UserID,
		DisplayName:  name,
		Body:         body,
	}
	if models.IsAdminRole(author.Role) {
		msg.Body = models.AdminMessagePrefix + body
		if req.Counterpart != "" {
			msg.ThreadUserID = req.Counterpart
		}
	}

	created, err := s.Repo.Create(ctx, msg)
	if err != nil {
		return models.Message{}, err
	}
	s.publish(ctx, models.ChangeInsert, created)
	return created, nil
}

// List returns what a panel shows: every message, or an admin's selected
// thread.
func (s *MessageService) List(ctx context.Context, role, counterpart string) ([]models.Message, error) {
	filter := models.MessageFilter{}
	if models.IsAdminRole(role) {
		filter.ThreadUserID = counterpart
	}
	return s.Repo.List(ctx, filter)
}

func (s *MessageService) Senders(ctx context.Context, role string) ([]models.MessageSender, error) {
	if !models.IsAdminRole(role) {
		return nil, models.ErrForbidden
	}
	return s.Repo.ListSenders(ctx)
}

func (s *MessageService) Delete(ctx context.Context, role, id string) error {
	if !models.IsAdminRole(role) {
		return models.ErrForbidden
	}
	msg, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, models.ChangeDelete, msg)
	return nil
}

func (s *MessageService) publish(ctx context.Context, op string, msg models.Message) {
	if s.Feed == nil {
		return
	}
	ev := models.ChangeEvent{Table: messagesTable, Op: op, RowID: msg.ID, UserID: msg.ThreadUserID}
	if err := s.Feed.Publish(ctx, ev); err != nil {
		s.Logger.Errorf("messages: publish %s %s: %v", op, msg.ID, err)
	}
}
