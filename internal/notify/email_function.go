// Package notify delivers outbound notifications: reminder emails through the
// email function or SMTP, and device pushes through FCM.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"swiftfactureBack/internal/models"
)

// EmailFunctionClient posts reminder payloads to the send-email function.
type EmailFunctionClient struct {
	URL        string
	Key        string
	HTTPClient *http.Client
}

func NewEmailFunctionClient(url, key string) *EmailFunctionClient {
	return &EmailFunctionClient{URL: url, Key: key, HTTPClient: &http.Client{Timeout: 15 * time.Second}}
}

func (c *EmailFunctionClient) SendTrialReminder(ctx context.Context, email models.TrialReminderEmail) error {
	payload, err := json.Marshal(email)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Key != "" {
		req.Header.Set("Authorization", "Bearer "+c.Key)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("email function: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email function: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
