package utils

import (
	"testing"
	"time"
)

func TestManagerState(t *testing.T) {
	m, err := NewManager("secret")
	if err != nil {
		t.Fatal(err)
	}
	state, err := m.NewState("google", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	provider, err := m.ParseState(state)
	if err != nil || provider != "google" {
		t.Fatalf("ParseState = %q, %v", provider, err)
	}

	other, _ := NewManager("other")
	if _, err := other.ParseState(state); err == nil {
		t.Error("state signed with another key was accepted")
	}

	expired, _ := m.NewState("google", -time.Minute)
	if _, err := m.ParseState(expired); err == nil {
		t.Error("expired state was accepted")
	}
}

func TestNewManagerRequiresKey(t *testing.T) {
	if _, err := NewManager(""); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestNewRefreshToken(t *testing.T) {
	m, _ := NewManager("secret")
	a, err := m.NewRefreshToken()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := m.NewRefreshToken()
	if len(a) != 64 || a == b {
		t.Errorf("refresh tokens %q %q", a, b)
	}
}
