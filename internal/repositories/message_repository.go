package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"swiftfactureBack/internal/models"
)

type MessageRepository struct {
	DB *DB
}

func (r *MessageRepository) Create(ctx context.Context, message models.Message) (models.Message, error) {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.ThreadUserID == "" {
		message.ThreadUserID = message.UserID
	}
	message.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO messages (id, user_id, thread_user_id, display_name, body, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.DB.ExecContext(ctx, query,
		message.ID, message.UserID, message.ThreadUserID, message.DisplayName, message.Body, message.CreatedAt)
	if err != nil {
		return models.Message{}, err
	}
	return message, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (models.Message, error) {
	var m models.Message
	query := `SELECT id, user_id, thread_user_id, display_name, body, created_at FROM messages WHERE id = ?`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.UserID, &m.ThreadUserID, &m.DisplayName, &m.Body, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, models.ErrNoRecord
	}
	return m, err
}

// List returns messages oldest first, narrowed to a single thread when the
// filter names one.
func (r *MessageRepository) List(ctx context.Context, filter models.MessageFilter) ([]models.Message, error) {
	query := `SELECT id, user_id, thread_user_id, display_name, body, created_at FROM messages`
	var args []any
	if filter.ThreadUserID != "" {
		query += ` WHERE thread_user_id = ?`
		args = append(args, filter.ThreadUserID)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.ThreadUserID, &m.DisplayName, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// ListSenders returns each non-admin author once, with the display name of
// their latest message, most recently active first.
func (r *MessageRepository) ListSenders(ctx context.Context) ([]models.MessageSender, error) {
	query := `
        SELECT user_id, display_name, created_at
        FROM messages
        WHERE body NOT LIKE ?
        ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, models.AdminMessagePrefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]bool)
	senders := []models.MessageSender{}
	for rows.Next() {
		var s models.MessageSender
		if err := rows.Scan(&s.UserID, &s.DisplayName, &s.LastActivity); err != nil {
			return nil, err
		}
		if seen[s.UserID] {
			continue
		}
		seen[s.UserID] = true
		senders = append(senders, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return senders, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNoRecord
	}
	return nil
}
