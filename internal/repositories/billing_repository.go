package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"swiftfactureBack/internal/models"
)

type BillingRepository struct {
	DB *DB
}

// ListTrialsEndingBetween returns subscriptions in the given status whose
// trial_end lies within [start, end].
func (r *BillingRepository) ListTrialsEndingBetween(ctx context.Context, status string, start, end time.Time) ([]models.BillingSubscription, error) {
	query := `
        SELECT id, organization_id, status, trial_end, plan_id
        FROM billing_subscriptions
        WHERE status = ? AND trial_end >= ? AND trial_end <= ?
        ORDER BY trial_end`
	rows, err := r.DB.QueryContext(ctx, query, status, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.BillingSubscription
	for rows.Next() {
		var (
			sub      models.BillingSubscription
			trialEnd sql.NullTime
			planID   sql.NullString
		)
		if err := rows.Scan(&sub.ID, &sub.OrganizationID, &sub.Status, &trialEnd, &planID); err != nil {
			return nil, err
		}
		sub.TrialEnd = timePtr(trialEnd)
		sub.PlanID = planID.String
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *BillingRepository) HasEvent(ctx context.Context, organizationID, eventType string) (bool, error) {
	var id string
	query := `SELECT id FROM billing_events WHERE organization_id = ? AND event_type = ? LIMIT 1`
	err := r.DB.QueryRowContext(ctx, query, organizationID, eventType).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LogEvent records a billing event. A second event of the same type for the
// same organization returns models.ErrDuplicate.
func (r *BillingRepository) LogEvent(ctx context.Context, organizationID, eventType string, metadata any) (models.BillingEvent, error) {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return models.BillingEvent{}, err
	}
	ev := models.BillingEvent{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		EventType:      eventType,
		Metadata:       raw,
		CreatedAt:      time.Now().UTC(),
	}
	query := `INSERT INTO billing_events (id, organization_id, event_type, metadata, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err = r.DB.ExecContext(ctx, query, ev.ID, ev.OrganizationID, ev.EventType, string(raw), ev.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.BillingEvent{}, models.ErrDuplicate
		}
		return models.BillingEvent{}, err
	}
	return ev, nil
}

func (r *BillingRepository) GetOrganization(ctx context.Context, id string) (models.Organization, error) {
	var org models.Organization
	query := `SELECT id, name, owner_id FROM organizations WHERE id = ?`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&org.ID, &org.Name, &org.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Organization{}, models.ErrNoRecord
	}
	return org, err
}
