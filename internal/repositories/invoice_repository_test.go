package repositories

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"swiftfactureBack/internal/models"
)

func TestInvoiceRepositoryCreateStoresTotals(t *testing.T) {
	repo := &InvoiceRepository{DB: newTestDB(t)}
	ctx := context.Background()

	inv, err := repo.Create(ctx, models.Invoice{
		UserID:   "u1",
		Number:   "INV-001",
		Currency: "EUR",
		Items: []models.LineItem{
			{Description: "Design", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(100)},
		},
		TaxRate:         decimal.NewFromInt(20),
		DiscountPercent: decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if inv.Status != models.InvoiceStatusDraft {
		t.Errorf("status = %q", inv.Status)
	}

	list, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d invoices", len(list))
	}
	got := list[0]
	if !got.Total.Equal(decimal.RequireFromString("324")) {
		t.Errorf("total = %s, want 324", got.Total)
	}
	if len(got.Items) != 1 || got.Items[0].Description != "Design" {
		t.Errorf("items = %+v", got.Items)
	}
}
