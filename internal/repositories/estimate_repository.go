package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"swiftfactureBack/internal/models"
)

type EstimateRepository struct {
	DB *DB
}

func (r *EstimateRepository) ListByUser(ctx context.Context, userID string) ([]models.Estimate, error) {
	query := `
        SELECT id, user_id, number, customer_id, customer_name, date, estimate_date, valid_until, items,
               tax_rate, discount_percent, currency, status, total, created_at
        FROM estimates
        WHERE user_id = ?
        ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	estimates := []models.Estimate{}
	for rows.Next() {
		var (
			est                            models.Estimate
			customerName                   sql.NullString
			date, estimateDate, validUntil sql.NullTime
			items                          []byte
		)
		if err := rows.Scan(&est.ID, &est.UserID, &est.Number, &est.CustomerID, &customerName, &date, &estimateDate, &validUntil, &items,
			&est.TaxRate, &est.DiscountPercent, &est.Currency, &est.Status, &est.Total, &est.CreatedAt); err != nil {
			return nil, err
		}
		est.CustomerName = customerName.String
		est.Date = timePtr(date)
		est.EstimateDate = timePtr(estimateDate)
		est.ValidUntil = timePtr(validUntil)
		if len(items) > 0 {
			if err := json.Unmarshal(items, &est.Items); err != nil {
				return nil, fmt.Errorf("estimate %s items: %w", est.ID, err)
			}
		}
		estimates = append(estimates, est)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return estimates, nil
}
