package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"swiftfactureBack/internal/models"
)

type AuthAPI interface {
	SignUp(ctx context.Context, req models.SignUpRequest) (models.Tokens, error)
	SignIn(ctx context.Context, email, password string) (models.Tokens, error)
	SignOut(ctx context.Context, userID string) error
	CurrentSession(ctx context.Context, userID string) (models.CurrentSession, error)
}

type UserHandler struct {
	Service AuthAPI
}

func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tokens, err := h.Service.SignUp(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDuplicateEmail):
			http.Error(w, "Email already registered", http.StatusConflict)
		case errors.Is(err, models.ErrInvalidCredentials):
			http.Error(w, "Email and a password of at least 6 characters are required", http.StatusBadRequest)
		default:
			writeError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, tokens)
}

func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tokens, err := h.Service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (h *UserHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.SignOut(r.Context(), userIDFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, err := h.Service.CurrentSession(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
