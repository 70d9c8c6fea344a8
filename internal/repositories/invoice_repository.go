package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"swiftfactureBack/internal/models"
)

type InvoiceRepository struct {
	DB *DB
}

// Create stores the invoice with totals computed from its line items.
func (r *InvoiceRepository) Create(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.Status == "" {
		inv.Status = models.InvoiceStatusDraft
	}
	inv.Totals = models.ComputeTotals(inv.Items, inv.TaxRate, inv.DiscountPercent)
	inv.CreatedAt = time.Now().UTC()

	items, err := json.Marshal(inv.Items)
	if err != nil {
		return models.Invoice{}, fmt.Errorf("marshal items: %w", err)
	}

	query := `
        INSERT INTO invoices (id, user_id, number, customer_id, customer_name, issue_date, due_date, items,
                              tax_rate, discount_percent, currency, status, subtotal, tax_amount, discount_amount, total, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.DB.ExecContext(ctx, query,
		inv.ID, inv.UserID, inv.Number, inv.CustomerID, inv.CustomerName, nullTime(inv.IssueDate), nullTime(inv.DueDate), string(items),
		inv.TaxRate, inv.DiscountPercent, inv.Currency, inv.Status, inv.Subtotal, inv.TaxAmount, inv.DiscountAmount, inv.Total, inv.CreatedAt,
	)
	if err != nil {
		return models.Invoice{}, err
	}
	return inv, nil
}

func (r *InvoiceRepository) ListByUser(ctx context.Context, userID string) ([]models.Invoice, error) {
	query := `
        SELECT id, user_id, number, customer_id, customer_name, issue_date, due_date, items,
               tax_rate, discount_percent, currency, status, subtotal, tax_amount, discount_amount, total, created_at
        FROM invoices
        WHERE user_id = ?
        ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		var (
			inv                models.Invoice
			customerName       sql.NullString
			issueDate, dueDate sql.NullTime
			items              []byte
		)
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.Number, &inv.CustomerID, &customerName, &issueDate, &dueDate, &items,
			&inv.TaxRate, &inv.DiscountPercent, &inv.Currency, &inv.Status, &inv.Subtotal, &inv.TaxAmount, &inv.DiscountAmount, &inv.Total, &inv.CreatedAt); err != nil {
			return nil, err
		}
		inv.CustomerName = customerName.String
		inv.IssueDate = timePtr(issueDate)
		inv.DueDate = timePtr(dueDate)
		if len(items) > 0 {
			if err := json.Unmarshal(items, &inv.Items); err != nil {
				return nil, fmt.Errorf("invoice %s items: %w", inv.ID, err)
			}
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

// ListForeignByUser returns imported invoices with their raw total text.
func (r *InvoiceRepository) ListForeignByUser(ctx context.Context, userID string) ([]models.ForeignInvoice, error) {
	query := `
        SELECT id, user_id, number, customer_id, customer_name, date, status, total, created_at
        FROM foreign_invoices
        WHERE user_id = ?
        ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []models.ForeignInvoice{}
	for rows.Next() {
		var (
			inv                      models.ForeignInvoice
			customerID, customerName sql.NullString
			total                    sql.NullString
			date                     sql.NullTime
		)
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.Number, &customerID, &customerName, &date, &inv.Status, &total, &inv.CreatedAt); err != nil {
			return nil, err
		}
		inv.CustomerID = customerID.String
		inv.CustomerName = customerName.String
		inv.Date = timePtr(date)
		inv.Total = total.String
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}
