package models

import "time"

// Customer statuses.
const (
	CustomerStatusActive   = "active"
	CustomerStatusInactive = "inactive"
	CustomerStatusPending  = "pending"
	CustomerStatusBlocked  = "blocked"
)

// Customer types.
const (
	CustomerTypeBusiness   = "business"
	CustomerTypeIndividual = "individual"
)

type Customer struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Number    int       `json:"number"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	Country   string    `json:"country,omitempty"`
	Status    string    `json:"status"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}
