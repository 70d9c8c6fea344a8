package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"swiftfactureBack/internal/models"
)

type NotificationAPI interface {
	List(ctx context.Context, userID string) ([]models.Notification, error)
	RegisterDevice(ctx context.Context, userID, token string) error
}

type NotificationHandler struct {
	Service NotificationAPI
}

type registerDeviceRequest struct {
	Token string `json:"token"`
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}
	if err := h.Service.RegisterDevice(r.Context(), userIDFrom(r), req.Token); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
