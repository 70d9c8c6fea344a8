package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"swiftfactureBack/internal/models"
	"swiftfactureBack/internal/services"
)

type ReminderRunner interface {
	Run(ctx context.Context) (int, error)
}

type ReminderMailer interface {
	SendTrialReminder(ctx context.Context, email models.TrialReminderEmail) error
}

// FunctionsHandler serves the /functions/v1 endpoints.
type FunctionsHandler struct {
	Reminders ReminderRunner
	Mailer    ReminderMailer
	Secret    string
	// Timeout bounds one reminder run; the run outlives a dropped request.
	Timeout time.Duration
	Logger  services.Logger
}

const defaultReminderRunTimeout = 5 * time.Minute

type functionError struct {
	Error string `json:"error"`
}

func (h *FunctionsHandler) TrialReminders(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, functionError{Error: "unauthorized"})
		return
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultReminderRunTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
	defer cancel()

	sent, err := h.runReminders(ctx)
	if err != nil {
		h.Logger.Errorf("trial-reminders: %v", err)
		writeJSON(w, http.StatusInternalServerError, functionError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "remindersSent": sent})
}

func (h *FunctionsHandler) runReminders(ctx context.Context) (sent int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return h.Reminders.Run(ctx)
}

func (h *FunctionsHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, functionError{Error: "unauthorized"})
		return
	}

	var req models.TrialReminderEmail
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, functionError{Error: "invalid request body"})
		return
	}
	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, functionError{Error: "email is required"})
		return
	}
	if req.Type != "" && req.Type != models.EmailTypeTrialReminder {
		writeJSON(w, http.StatusBadRequest, functionError{Error: "unsupported type " + req.Type})
		return
	}

	if err := h.Mailer.SendTrialReminder(r.Context(), req); err != nil {
		h.Logger.Errorf("send-email to %s: %v", req.Email, err)
		writeJSON(w, http.StatusInternalServerError, functionError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *FunctionsHandler) authorized(r *http.Request) bool {
	if h.Secret == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.Secret)) == 1
}
