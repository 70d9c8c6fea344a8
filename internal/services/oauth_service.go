package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"swiftfactureBack/internal/models"
	"swiftfactureBack/utils"
)

var ErrUnknownProvider = errors.New("oauth: unknown provider")

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

type OAuthProvider struct {
	Config      *oauth2.Config
	UserInfoURL string
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) OAuthProvider {
	return OAuthProvider{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		UserInfoURL: googleUserInfoURL,
	}
}

type ExternalSignIn interface {
	SignInExternal(ctx context.Context, provider, email, fullName string) (models.Tokens, error)
}

type OAuthService struct {
	Providers  map[string]OAuthProvider
	States     *utils.Manager
	Users      ExternalSignIn
	HTTPClient *http.Client
	StateTTL   time.Duration
}

type oauthUserInfo struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
}

// AuthCodeURL returns the provider consent URL carrying a signed state.
func (s *OAuthService) AuthCodeURL(provider string) (string, error) {
	p, ok := s.Providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	ttl := s.StateTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	state, err := s.States.NewState(provider, ttl)
	if err != nil {
		return "", err
	}
	return p.Config.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Callback completes the redirect flow and signs the user in.
func (s *OAuthService) Callback(ctx context.Context, provider, state, code string) (models.Tokens, error) {
	p, ok := s.Providers[provider]
	if !ok {
		return models.Tokens{}, ErrUnknownProvider
	}
	issuedFor, err := s.States.ParseState(state)
	if err != nil || issuedFor != provider {
		return models.Tokens{}, fmt.Errorf("oauth state: %w", models.ErrInvalidCredentials)
	}
	if s.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.HTTPClient)
	}

	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return models.Tokens{}, fmt.Errorf("oauth exchange: %w", err)
	}
	info, err := s.userInfo(ctx, p, token)
	if err != nil {
		return models.Tokens{}, err
	}
	if info.Email == "" || (info.EmailVerified != nil && !*info.EmailVerified) {
		return models.Tokens{}, fmt.Errorf("oauth %s: %w", provider, models.ErrEmailUnresolved)
	}
	return s.Users.SignInExternal(ctx, provider, info.Email, info.Name)
}

func (s *OAuthService) userInfo(ctx context.Context, p OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	var info oauthUserInfo
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return info, err
	}
	resp, err := p.Config.Client(ctx, token).Do(req)
	if err != nil {
		return info, fmt.Errorf("oauth userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return info, fmt.Errorf("oauth userinfo: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return info, fmt.Errorf("oauth userinfo: %w", err)
	}
	return info, nil
}
