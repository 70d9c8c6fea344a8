package repositories

import (
	"context"
	"database/sql"

	"swiftfactureBack/internal/models"
)

type ReceiptRepository struct {
	DB *DB
}

func (r *ReceiptRepository) ListByUser(ctx context.Context, userID string) ([]models.Receipt, error) {
	query := `
        SELECT id, user_id, number, customer_id, date, total, currency, status, created_at
        FROM receipts
        WHERE user_id = ?
        ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := []models.Receipt{}
	for rows.Next() {
		var (
			rec        models.Receipt
			customerID sql.NullString
			date       sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Number, &customerID, &date, &rec.Total, &rec.Currency, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.CustomerID = customerID.String
		rec.Date = timePtr(date)
		receipts = append(receipts, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return receipts, nil
}
