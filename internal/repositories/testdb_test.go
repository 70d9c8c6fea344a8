package repositories

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

const testSchema = `
CREATE TABLE users (id TEXT PRIMARY KEY, email TEXT NOT NULL UNIQUE, password_hash TEXT, provider TEXT NOT NULL, created_at TIMESTAMP NOT NULL);
CREATE TABLE sessions (user_id TEXT NOT NULL, refresh_token TEXT NOT NULL UNIQUE, expires_at TIMESTAMP NOT NULL);
CREATE TABLE profiles (id TEXT PRIMARY KEY, display_name TEXT, full_name TEXT, avatar_url TEXT);
CREATE TABLE user_roles (user_id TEXT PRIMARY KEY, role TEXT NOT NULL);
CREATE TABLE organizations (id TEXT PRIMARY KEY, name TEXT NOT NULL, owner_id TEXT NOT NULL);
CREATE TABLE billing_subscriptions (id TEXT PRIMARY KEY, organization_id TEXT NOT NULL, status TEXT NOT NULL, trial_end TIMESTAMP, plan_id TEXT);
CREATE TABLE billing_events (id TEXT PRIMARY KEY, organization_id TEXT NOT NULL, event_type TEXT NOT NULL, metadata TEXT, created_at TIMESTAMP NOT NULL,
    UNIQUE (organization_id, event_type));
CREATE TABLE messages (id TEXT PRIMARY KEY, user_id TEXT NOT NULL, thread_user_id TEXT NOT NULL, display_name TEXT NOT NULL, body TEXT NOT NULL, created_at TIMESTAMP NOT NULL);
CREATE TABLE notifications (id TEXT PRIMARY KEY, user_id TEXT NOT NULL, type TEXT NOT NULL, title TEXT NOT NULL, body TEXT NOT NULL, read BOOLEAN NOT NULL, created_at TIMESTAMP NOT NULL);
CREATE TABLE device_tokens (user_id TEXT NOT NULL, token TEXT NOT NULL, UNIQUE (user_id, token));
CREATE TABLE invoices (id TEXT PRIMARY KEY, user_id TEXT NOT NULL, number TEXT NOT NULL, customer_id TEXT, customer_name TEXT, issue_date TIMESTAMP, due_date TIMESTAMP,
    items TEXT, tax_rate TEXT, discount_percent TEXT, currency TEXT, status TEXT NOT NULL, subtotal TEXT, tax_amount TEXT, discount_amount TEXT, total TEXT, created_at TIMESTAMP NOT NULL);
`

// newTestDB opens a throwaway sqlite database with the tables the
// repositories in this package touch.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	raw, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	if _, err := raw.Exec(testSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return NewDB(raw, "sqlite3")
}
