package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estimate statuses.
const (
	EstimateStatusDraft    = "draft"
	EstimateStatusSent     = "sent"
	EstimateStatusAccepted = "accepted"
	EstimateStatusDeclined = "declined"
)

// Estimate is a priced quotation sent ahead of an invoice.
type Estimate struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Number          string          `json:"number"`
	CustomerID      string          `json:"customer_id"`
	CustomerName    string          `json:"customer_name,omitempty"`
	Date            *time.Time      `json:"date,omitempty"`
	EstimateDate    *time.Time      `json:"estimate_date,omitempty"`
	ValidUntil      *time.Time      `json:"valid_until,omitempty"`
	Items           []LineItem      `json:"items"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time       `json:"created_at"`
}
