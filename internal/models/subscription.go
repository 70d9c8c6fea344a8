package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Billing subscription statuses as stored by the billing provider.
const (
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// BillingSubscription is the externally owned subscription record of an
// organization. The reminder job only reads it.
type BillingSubscription struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Status         string     `json:"status"`
	TrialEnd       *time.Time `json:"trial_end,omitempty"`
	PlanID         string     `json:"plan_id"`
}

// Organization owns billing subscriptions; OwnerID points at the identity
// provider user who receives billing mail.
type Organization struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

// BillingEvent is a logged billing fact. Reminder events double as
// idempotency markers: (OrganizationID, EventType) is unique.
type BillingEvent struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	EventType      string          `json:"event_type"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TrialReminderEventType names the reminder event for a day threshold:
// trial_reminder_7_days_left, trial_reminder_2_days_left, trial_reminder_1_day_left.
func TrialReminderEventType(daysLeft int) string {
	if daysLeft == 1 {
		return "trial_reminder_1_day_left"
	}
	return fmt.Sprintf("trial_reminder_%d_days_left", daysLeft)
}

// TrialReminderEmail is the payload accepted by the outbound notification
// function.
type TrialReminderEmail struct {
	Email    string    `json:"email"`
	Type     string    `json:"type"`
	OrgName  string    `json:"orgName"`
	DaysLeft int       `json:"daysLeft"`
	TrialEnd time.Time `json:"trialEnd"`
}

// EmailTypeTrialReminder is the notification type used for trial reminders.
const EmailTypeTrialReminder = "trial_reminder"
