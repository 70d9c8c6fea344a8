package services

import (
	"context"
	"time"

	"swiftfactureBack/internal/dashboard"
	"swiftfactureBack/internal/models"
)

type InvoiceSource interface {
	ListByUser(ctx context.Context, userID string) ([]models.Invoice, error)
	ListForeignByUser(ctx context.Context, userID string) ([]models.ForeignInvoice, error)
}

type EstimateSource interface {
	ListByUser(ctx context.Context, userID string) ([]models.Estimate, error)
}

type ReceiptSource interface {
	ListByUser(ctx context.Context, userID string) ([]models.Receipt, error)
}

type CustomerSource interface {
	ListByUser(ctx context.Context, userID string) ([]models.Customer, error)
}

type DashboardService struct {
	Invoices  InvoiceSource
	Estimates EstimateSource
	Receipts  ReceiptSource
	Customers CustomerSource
	Logger    Logger
	Now       func() time.Time
}

// Summary builds the dashboard of a user. A failed fetch yields the zeroed
// summary instead of an error.
func (s *DashboardService) Summary(ctx context.Context, userID string) dashboard.Summary {
	in, err := s.load(ctx, userID)
	if err != nil {
		s.Logger.Errorf("dashboard: load data for user %s: %v", userID, err)
		return dashboard.Empty()
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return dashboard.Aggregate(in, now.UTC())
}

func (s *DashboardService) load(ctx context.Context, userID string) (dashboard.Input, error) {
	var in dashboard.Input

	invoices, err := s.Invoices.ListByUser(ctx, userID)
	if err != nil {
		return in, err
	}
	foreign, err := s.Invoices.ListForeignByUser(ctx, userID)
	if err != nil {
		return in, err
	}
	estimates, err := s.Estimates.ListByUser(ctx, userID)
	if err != nil {
		return in, err
	}
	receipts, err := s.Receipts.ListByUser(ctx, userID)
	if err != nil {
		return in, err
	}
	customers, err := s.Customers.ListByUser(ctx, userID)
	if err != nil {
		return in, err
	}

	for _, inv := range invoices {
		in.Invoices = append(in.Invoices, dashboard.FromInvoice(inv))
	}
	for _, inv := range foreign {
		in.Invoices = append(in.Invoices, dashboard.FromForeignInvoice(inv))
	}
	for _, est := range estimates {
		in.Estimates = append(in.Estimates, dashboard.FromEstimate(est))
	}
	for _, rec := range receipts {
		in.Receipts = append(in.Receipts, dashboard.FromReceipt(rec))
	}
	for _, c := range customers {
		in.Customers = append(in.Customers, dashboard.FromCustomer(c))
	}
	return in, nil
}
