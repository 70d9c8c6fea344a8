package models

import (
	"strings"
	"time"
)

// AdminMessagePrefix marks a reply written by an admin. The role travels in
// the body rather than a column.
const AdminMessagePrefix = "[ADMIN] "

// Message is a chat message. Messages are created on send and never mutated
// by the chat itself.
type Message struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ThreadUserID string    `json:"thread_user_id"`
	DisplayName  string    `json:"display_name"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the message was sent by an admin.
func (m Message) IsAdmin() bool {
	return strings.HasPrefix(m.Body, AdminMessagePrefix)
}

// MessageFilter narrows a message listing. An empty ThreadUserID lists every
// message.
type MessageFilter struct {
	ThreadUserID string
}

// MessageSender is a distinct author shown in the admin counterpart selector.
type MessageSender struct {
	UserID       string    `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	LastActivity time.Time `json:"last_activity"`
}

// Change feed operations.
const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
)

// ChangeEvent is published on the change feed whenever a row of a watched
// collection changes.
type ChangeEvent struct {
	Table  string `json:"table"`
	Op     string `json:"op"`
	RowID  string `json:"row_id"`
	UserID string `json:"user_id,omitempty"`
}

// Author identifies who is sending a message. DisplayName may be empty, in
// which case it is resolved from the profile.
type Author struct {
	UserID      string
	Role        string
	DisplayName string
}

// SendMessageRequest is the body of POST /api/messages and of a "send" frame.
type SendMessageRequest struct {
	Body        string `json:"body"`
	Counterpart string `json:"counterpart,omitempty"`
}
