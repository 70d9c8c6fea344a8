package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"swiftfactureBack/internal/models"
)

type MessageAPI interface {
	Send(ctx context.Context, author models.Author, req models.SendMessageRequest) (models.Message, error)
	List(ctx context.Context, role, counterpart string) ([]models.Message, error)
	Senders(ctx context.Context, role string) ([]models.MessageSender, error)
	Delete(ctx context.Context, role, id string) error
}

type MessageHandler struct {
	Service MessageAPI
}

func (h *MessageHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	author := models.Author{UserID: userIDFrom(r), Role: roleFrom(r)}
	msg, err := h.Service.Send(r.Context(), author, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.Service.List(r.Context(), roleFrom(r), r.URL.Query().Get("counterpart"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *MessageHandler) ListSenders(w http.ResponseWriter, r *http.Request) {
	senders, err := h.Service.Senders(r.Context(), roleFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, senders)
}

func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id := getParam(r, "id")
	if id == "" {
		http.Error(w, "Invalid message ID", http.StatusBadRequest)
		return
	}
	if err := h.Service.Delete(r.Context(), roleFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
