package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"swiftfactureBack/internal/models"
)

type UserRepository struct {
	DB *DB
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Provider == "" {
		user.Provider = "email"
	}
	user.CreatedAt = time.Now().UTC()

	query := `INSERT INTO users (id, email, password_hash, provider, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.DB.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.Provider, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, models.ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT id, email, password_hash, provider, created_at FROM users WHERE id = ?`
	return r.scanUser(r.DB.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT id, email, password_hash, provider, created_at FROM users WHERE email = ?`
	return r.scanUser(r.DB.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) scanUser(row *sql.Row) (models.User, error) {
	var (
		user models.User
		hash sql.NullString
	)
	err := row.Scan(&user.ID, &user.Email, &hash, &user.Provider, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = hash.String
	return user, nil
}

// SetSession replaces the refresh session of a user.
func (r *UserRepository) SetSession(ctx context.Context, session models.Session) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, session.UserID); err != nil {
		return err
	}
	query := `INSERT INTO sessions (user_id, refresh_token, expires_at) VALUES (?, ?, ?)`
	_, err := r.DB.ExecContext(ctx, query, session.UserID, session.RefreshToken, session.ExpiresAt.UTC())
	return err
}

func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (models.Session, error) {
	var session models.Session
	query := `SELECT user_id, refresh_token, expires_at FROM sessions WHERE refresh_token = ?`
	err := r.DB.QueryRowContext(ctx, query, refreshToken).Scan(&session.UserID, &session.RefreshToken, &session.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, models.ErrNoRecord
	}
	return session, err
}

func (r *UserRepository) DeleteSession(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}
