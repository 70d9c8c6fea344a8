package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"swiftfactureBack/internal/models"
	"swiftfactureBack/internal/services"
)

type OAuthAPI interface {
	AuthCodeURL(provider string) (string, error)
	Callback(ctx context.Context, provider, state, code string) (models.Tokens, error)
}

type OAuthHandler struct {
	Service OAuthAPI
	// SuccessURL receives the issued tokens in its fragment. Tokens are
	// returned as JSON when it is empty.
	SuccessURL string
}

func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	target, err := h.Service.AuthCodeURL(getParam(r, "provider"))
	if err != nil {
		if errors.Is(err, services.ErrUnknownProvider) {
			http.Error(w, "Unknown provider", http.StatusNotFound)
			return
		}
		writeError(w, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		http.Error(w, "Provider error: "+e, http.StatusUnauthorized)
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Error(w, "Missing code", http.StatusBadRequest)
		return
	}

	tokens, err := h.Service.Callback(r.Context(), getParam(r, "provider"), q.Get("state"), code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownProvider):
			http.Error(w, "Unknown provider", http.StatusNotFound)
		case errors.Is(err, models.ErrEmailUnresolved):
			http.Error(w, "Provider did not return a verified email", http.StatusBadRequest)
		default:
			writeError(w, err)
		}
		return
	}

	if h.SuccessURL == "" {
		writeJSON(w, http.StatusOK, tokens)
		return
	}
	fragment := url.Values{}
	fragment.Set("access_token", tokens.AccessToken)
	fragment.Set("refresh_token", tokens.RefreshToken)
	http.Redirect(w, r, h.SuccessURL+"#"+fragment.Encode(), http.StatusFound)
}
