package notify

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"swiftfactureBack/internal/models"
)

var trialReminderTmpl = template.Must(template.New("trial_reminder").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
  <h2>Your {{.OrgName}} trial ends in {{.DaysLeft}} {{.DayWord}}</h2>
  <p>Your free trial is scheduled to end on <strong>{{.TrialEnd}}</strong> (UTC).</p>
  <p>Choose a plan before then to keep sending invoices, estimates and receipts without interruption.</p>
  <p>If you have already subscribed, you can ignore this message.</p>
</body>
</html>`))

// RenderTrialReminder returns the subject and HTML body of a trial reminder.
func RenderTrialReminder(email models.TrialReminderEmail) (string, string, error) {
	if email.Email == "" {
		return "", "", errors.New("trial reminder: recipient is required")
	}
	if email.DaysLeft <= 0 {
		return "", "", fmt.Errorf("trial reminder: invalid daysLeft %d", email.DaysLeft)
	}
	dayWord := "days"
	if email.DaysLeft == 1 {
		dayWord = "day"
	}
	orgName := email.OrgName
	if orgName == "" {
		orgName = "SwiftFacture"
	}

	var buf bytes.Buffer
	err := trialReminderTmpl.Execute(&buf, struct {
		OrgName  string
		DaysLeft int
		DayWord  string
		TrialEnd string
	}{orgName, email.DaysLeft, dayWord, email.TrialEnd.UTC().Format("January 2, 2006 15:04")})
	if err != nil {
		return "", "", err
	}
	subject := fmt.Sprintf("Your %s trial ends in %d %s", orgName, email.DaysLeft, dayWord)
	return subject, buf.String(), nil
}
