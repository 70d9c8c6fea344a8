package repositories

import (
	"context"
	"database/sql"

	"swiftfactureBack/internal/models"
)

type CustomerRepository struct {
	DB *DB
}

func (r *CustomerRepository) ListByUser(ctx context.Context, userID string) ([]models.Customer, error) {
	query := `
        SELECT id, user_id, number, type, name, email, phone, address, city, country, status, currency, created_at
        FROM customers
        WHERE user_id = ?
        ORDER BY number ASC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		var (
			c                                    models.Customer
			email, phone, address, city, country sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Number, &c.Type, &c.Name, &email, &phone, &address, &city, &country,
			&c.Status, &c.Currency, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Email = email.String
		c.Phone = phone.String
		c.Address = address.String
		c.City = city.String
		c.Country = country.String
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}
