// Package dashboard turns the flat document lists of a user into the series
// shown on the dashboard. Everything here is a pure function of its inputs.
package dashboard

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"swiftfactureBack/internal/models"
)

const recentLimit = 5

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Document is the common shape of invoices, estimates and receipts as far as
// aggregation is concerned. Total is left untyped because foreign invoices
// carry it as free text.
type Document struct {
	ID           string
	Number       string
	CustomerID   string
	CustomerName string
	Status       string
	Total        any
	Date         *time.Time
	EstimateDate *time.Time
	CreatedAt    *time.Time
}

type Customer struct {
	ID        string
	Name      string
	CreatedAt *time.Time
}

type Input struct {
	Invoices  []Document
	Estimates []Document
	Receipts  []Document
	Customers []Customer
}

type StatusCounts struct {
	Paid    int `json:"paid"`
	Pending int `json:"pending"`
	Overdue int `json:"overdue"`
	Draft   int `json:"draft"`
}

type RevenuePoint struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

type MonthCounts struct {
	Month     string `json:"month"`
	Invoices  int    `json:"invoices"`
	Estimates int    `json:"estimates"`
	Receipts  int    `json:"receipts"`
	Customers int    `json:"customers"`
}

type RecentDocument struct {
	ID           string          `json:"id"`
	Number       string          `json:"number"`
	CustomerName string          `json:"customerName"`
	Status       string          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	Date         *time.Time      `json:"date,omitempty"`
}

type Summary struct {
	TotalInvoices   int              `json:"totalInvoices"`
	TotalRevenue    decimal.Decimal  `json:"totalRevenue"`
	Outstanding     int              `json:"outstanding"`
	ThisMonth       decimal.Decimal  `json:"thisMonth"`
	StatusData      StatusCounts     `json:"statusData"`
	RevenueData     []RevenuePoint   `json:"revenueData"`
	MonthlyData     []MonthCounts    `json:"monthlyData"`
	RecentInvoices  []RecentDocument `json:"recentInvoices"`
	RecentEstimates []RecentDocument `json:"recentEstimates"`
}

// Empty returns the zeroed summary: twelve empty buckets and no recents.
func Empty() Summary {
	s := Summary{
		TotalRevenue:    decimal.Zero,
		ThisMonth:       decimal.Zero,
		RevenueData:     make([]RevenuePoint, 12),
		MonthlyData:     make([]MonthCounts, 12),
		RecentInvoices:  []RecentDocument{},
		RecentEstimates: []RecentDocument{},
	}
	for i, label := range monthLabels {
		s.RevenueData[i] = RevenuePoint{Month: label, Revenue: decimal.Zero}
		s.MonthlyData[i] = MonthCounts{Month: label}
	}
	return s
}

// Aggregate computes the dashboard summary. now fixes the current year and
// month.
func Aggregate(in Input, now time.Time) Summary {
	s := Empty()
	year, month := now.Year(), now.Month()

	s.TotalInvoices = len(in.Invoices)
	for _, inv := range in.Invoices {
		total := Amount(inv.Total)
		s.TotalRevenue = s.TotalRevenue.Add(total)

		switch inv.Status {
		case models.InvoiceStatusPaid:
			s.StatusData.Paid++
		case models.InvoiceStatusPending:
			s.StatusData.Pending++
			s.Outstanding++
		case models.InvoiceStatusOverdue:
			s.StatusData.Overdue++
			s.Outstanding++
		case models.InvoiceStatusDraft:
			s.StatusData.Draft++
		}

		date := firstDate(inv.Date, inv.CreatedAt)
		if date == nil || date.Year() != year {
			continue
		}
		m := date.Month()
		s.RevenueData[m-1].Revenue = s.RevenueData[m-1].Revenue.Add(total)
		s.MonthlyData[m-1].Invoices++
		if m == month {
			s.ThisMonth = s.ThisMonth.Add(total)
		}
	}

	for _, est := range in.Estimates {
		if i, ok := monthIndex(year, est.Date, est.EstimateDate, est.CreatedAt); ok {
			s.MonthlyData[i].Estimates++
		}
	}
	for _, rec := range in.Receipts {
		if i, ok := monthIndex(year, rec.Date, rec.CreatedAt); ok {
			s.MonthlyData[i].Receipts++
		}
	}
	for _, c := range in.Customers {
		if i, ok := monthIndex(year, c.CreatedAt); ok {
			s.MonthlyData[i].Customers++
		}
	}

	names := make(map[string]string, len(in.Customers))
	for _, c := range in.Customers {
		names[c.ID] = c.Name
	}
	s.RecentInvoices = recent(in.Invoices, names, func(d Document) *time.Time {
		return firstDate(d.Date, d.CreatedAt)
	})
	s.RecentEstimates = recent(in.Estimates, names, func(d Document) *time.Time {
		return firstDate(d.Date, d.EstimateDate, d.CreatedAt)
	})
	return s
}

func firstDate(dates ...*time.Time) *time.Time {
	for _, d := range dates {
		if d != nil && !d.IsZero() {
			return d
		}
	}
	return nil
}

func monthIndex(year int, dates ...*time.Time) (int, bool) {
	d := firstDate(dates...)
	if d == nil || d.Year() != year {
		return 0, false
	}
	return int(d.Month()) - 1, true
}

func recent(docs []Document, names map[string]string, dateOf func(Document) *time.Time) []RecentDocument {
	sorted := make([]Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := dateOf(sorted[i]), dateOf(sorted[j])
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
	if len(sorted) > recentLimit {
		sorted = sorted[:recentLimit]
	}

	out := make([]RecentDocument, 0, len(sorted))
	for _, d := range sorted {
		out = append(out, RecentDocument{
			ID:           d.ID,
			Number:       d.Number,
			CustomerName: customerName(d, names),
			Status:       d.Status,
			Total:        Amount(d.Total),
			Date:         dateOf(d),
		})
	}
	return out
}

func customerName(d Document, names map[string]string) string {
	if name := names[d.CustomerID]; name != "" {
		return name
	}
	if d.CustomerName != "" {
		return d.CustomerName
	}
	return "N/A"
}
