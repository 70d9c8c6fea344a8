package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice statuses.
const (
	InvoiceStatusDraft   = "draft"
	InvoiceStatusSent    = "sent"
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

// LineItem is a single billable row on an invoice or estimate.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Totals holds the computed money fields of a document.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// Invoice represents an invoice issued by a user to one of their customers.
type Invoice struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Number          string          `json:"number"`
	CustomerID      string          `json:"customer_id"`
	CustomerName    string          `json:"customer_name,omitempty"`
	IssueDate       *time.Time      `json:"date,omitempty"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	Items           []LineItem      `json:"items"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	Totals
	CreatedAt time.Time `json:"created_at"`
}

// ForeignInvoice is an invoice imported in an external format. Its total is
// kept as the raw text the source supplied and may not be numeric.
type ForeignInvoice struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Number       string     `json:"number"`
	CustomerID   string     `json:"customer_id"`
	CustomerName string     `json:"customer_name,omitempty"`
	Date         *time.Time `json:"date,omitempty"`
	Status       string     `json:"status"`
	Total        string     `json:"total"`
	CreatedAt    time.Time  `json:"created_at"`
}

var hundred = decimal.NewFromInt(100)

// ComputeTotals derives subtotal, discount, tax and total from line items.
// Discount applies before tax; every amount is rounded to 2 places.
func ComputeTotals(items []LineItem, taxRate, discountPercent decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Quantity.Mul(item.UnitPrice))
	}
	subtotal = subtotal.Round(2)
	discount := subtotal.Mul(discountPercent).Div(hundred).Round(2)
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxRate).Div(hundred).Round(2)
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          taxable.Add(tax),
	}
}
