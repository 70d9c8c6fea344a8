package dashboard

import (
	"time"

	"swiftfactureBack/internal/models"
)

func FromInvoice(inv models.Invoice) Document {
	return Document{
		ID:           inv.ID,
		Number:       inv.Number,
		CustomerID:   inv.CustomerID,
		CustomerName: inv.CustomerName,
		Status:       inv.Status,
		Total:        inv.Total,
		Date:         inv.IssueDate,
		CreatedAt:    timeRef(inv.CreatedAt),
	}
}

// FromForeignInvoice keeps the raw total text; Amount decides whether it
// parses.
func FromForeignInvoice(inv models.ForeignInvoice) Document {
	return Document{
		ID:           inv.ID,
		Number:       inv.Number,
		CustomerID:   inv.CustomerID,
		CustomerName: inv.CustomerName,
		Status:       inv.Status,
		Total:        inv.Total,
		Date:         inv.Date,
		CreatedAt:    timeRef(inv.CreatedAt),
	}
}

func FromEstimate(est models.Estimate) Document {
	return Document{
		ID:           est.ID,
		Number:       est.Number,
		CustomerID:   est.CustomerID,
		CustomerName: est.CustomerName,
		Status:       est.Status,
		Total:        est.Total,
		Date:         est.Date,
		EstimateDate: est.EstimateDate,
		CreatedAt:    timeRef(est.CreatedAt),
	}
}

func FromReceipt(rec models.Receipt) Document {
	return Document{
		ID:         rec.ID,
		Number:     rec.Number,
		CustomerID: rec.CustomerID,
		Status:     rec.Status,
		Total:      rec.Total,
		Date:       rec.Date,
		CreatedAt:  timeRef(rec.CreatedAt),
	}
}

func FromCustomer(c models.Customer) Customer {
	return Customer{ID: c.ID, Name: c.Name, CreatedAt: timeRef(c.CreatedAt)}
}

func timeRef(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
