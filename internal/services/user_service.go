package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"swiftfactureBack/internal/models"
	"swiftfactureBack/utils"
)

type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	SetSession(ctx context.Context, session models.Session) error
	GetSessionByToken(ctx context.Context, refreshToken string) (models.Session, error)
	DeleteSession(ctx context.Context, userID string) error
}

type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	CreateProfile(ctx context.Context, p models.Profile) error
	GetRole(ctx context.Context, userID string) (string, error)
}

type UserService struct {
	Users        UserStore
	Profiles     ProfileStore
	TokenManager *utils.Manager
	SigningKey   string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

func (s *UserService) SignUp(ctx context.Context, req models.SignUpRequest) (models.Tokens, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || len(req.Password) < 6 {
		return models.Tokens{}, models.ErrInvalidCredentials
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Tokens{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.Users.CreateUser(ctx, models.User{Email: email, PasswordHash: string(hashed), Provider: "email"})
	if err != nil {
		return models.Tokens{}, err
	}
	if err := s.Profiles.CreateProfile(ctx, models.Profile{ID: user.ID, FullName: req.FullName}); err != nil && !errors.Is(err, models.ErrDuplicate) {
		return models.Tokens{}, err
	}
	return s.createSession(ctx, user)
}

func (s *UserService) SignIn(ctx context.Context, email, password string) (models.Tokens, error) {
	user, err := s.Users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return models.Tokens{}, models.ErrInvalidCredentials
		}
		return models.Tokens{}, err
	}
	if user.PasswordHash == "" {
		return models.Tokens{}, models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.Tokens{}, models.ErrInvalidCredentials
	}
	return s.createSession(ctx, user)
}

// SignInExternal signs in a user authenticated by an OAuth provider, creating
// the account on first use.
func (s *UserService) SignInExternal(ctx context.Context, provider, email, fullName string) (models.Tokens, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return models.Tokens{}, models.ErrInvalidCredentials
	}
	user, err := s.Users.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrUserNotFound) {
		user, err = s.Users.CreateUser(ctx, models.User{Email: email, Provider: provider})
		if err == nil {
			err = s.Profiles.CreateProfile(ctx, models.Profile{ID: user.ID, FullName: fullName})
			if errors.Is(err, models.ErrDuplicate) {
				err = nil
			}
		}
	}
	if err != nil {
		return models.Tokens{}, err
	}
	return s.createSession(ctx, user)
}

func (s *UserService) SignOut(ctx context.Context, userID string) error {
	return s.Users.DeleteSession(ctx, userID)
}

// Refresh exchanges a live refresh token for a new access token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, *models.Claims, error) {
	session, err := s.Users.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		return "", nil, models.ErrInvalidCredentials
	}
	if session.ExpiresAt.Before(time.Now()) {
		return "", nil, models.ErrInvalidCredentials
	}
	role, err := s.Profiles.GetRole(ctx, session.UserID)
	if err != nil {
		return "", nil, err
	}
	token, claims, err := s.accessToken(session.UserID, role)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// ParseAccessToken validates an access token and returns its claims.
func (s *UserService) ParseAccessToken(accessToken string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.SigningKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, models.ErrInvalidCredentials
	}
	return claims, nil
}

// CurrentSession returns the user, role and profile behind a session.
func (s *UserService) CurrentSession(ctx context.Context, userID string) (models.CurrentSession, error) {
	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		return models.CurrentSession{}, err
	}
	role, err := s.Profiles.GetRole(ctx, userID)
	if err != nil {
		return models.CurrentSession{}, err
	}
	profile, err := s.Profiles.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, models.ErrNoRecord) {
		return models.CurrentSession{}, err
	}
	profile.ID = userID
	return models.CurrentSession{User: user, Role: role, Profile: profile}, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return s.Users.GetUserByID(ctx, id)
}

func (s *UserService) createSession(ctx context.Context, user models.User) (models.Tokens, error) {
	role, err := s.Profiles.GetRole(ctx, user.ID)
	if err != nil {
		return models.Tokens{}, err
	}
	access, _, err := s.accessToken(user.ID, role)
	if err != nil {
		return models.Tokens{}, err
	}
	refresh, err := s.TokenManager.NewRefreshToken()
	if err != nil {
		return models.Tokens{}, err
	}
	session := models.Session{
		UserID:       user.ID,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(s.RefreshTTL),
	}
	if err := s.Users.SetSession(ctx, session); err != nil {
		return models.Tokens{}, err
	}
	return models.Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *UserService) accessToken(userID, role string) (string, *models.Claims, error) {
	now := time.Now()
	claims := &models.Claims{
		UserID: userID,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(s.AccessTTL).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.SigningKey))
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}
