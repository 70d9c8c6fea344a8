package repositories

import (
	"context"
	"database/sql"
	"errors"

	"swiftfactureBack/internal/models"
)

type ProfileRepository struct {
	DB *DB
}

func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	var (
		p                                models.Profile
		displayName, fullName, avatarURL sql.NullString
	)
	query := `SELECT id, display_name, full_name, avatar_url FROM profiles WHERE id = ?`
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&p.ID, &displayName, &fullName, &avatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, models.ErrNoRecord
	}
	if err != nil {
		return models.Profile{}, err
	}
	p.DisplayName = displayName.String
	p.FullName = fullName.String
	p.AvatarURL = avatarURL.String
	return p, nil
}

func (r *ProfileRepository) CreateProfile(ctx context.Context, p models.Profile) error {
	query := `INSERT INTO profiles (id, display_name, full_name, avatar_url) VALUES (?, ?, ?, ?)`
	_, err := r.DB.ExecContext(ctx, query, p.ID, p.DisplayName, p.FullName, p.AvatarURL)
	if isUniqueViolation(err) {
		return models.ErrDuplicate
	}
	return err
}

func (r *ProfileRepository) SetAvatar(ctx context.Context, userID, url string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE profiles SET avatar_url = ? WHERE id = ?`, url, userID)
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

// GetRole returns the role of a user; users without a user_roles row are
// plain users.
func (r *ProfileRepository) GetRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := r.DB.QueryRowContext(ctx, `SELECT role FROM user_roles WHERE user_id = ?`, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoleUser, nil
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

func (r *ProfileRepository) SetRole(ctx context.Context, userID, role string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ?`, userID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, `INSERT INTO user_roles (user_id, role) VALUES (?, ?)`, userID, role)
	return err
}
