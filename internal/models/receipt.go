package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Receipt struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Number     string          `json:"number"`
	CustomerID string          `json:"customer_id"`
	Date       *time.Time      `json:"date,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Currency   string          `json:"currency"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}
