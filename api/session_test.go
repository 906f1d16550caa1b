package api

import (
	"testing"
	"time"

	"vibelist-api/domain"
)

func TestSessionRoundTrip(t *testing.T) {
	sessions := NewSessions([]byte("test-secret"), time.Hour)
	account := domain.Account{Email: "ada@example.com", DisplayName: "Ada"}

	token, err := sessions.Issue(account)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	sess, err := sessions.SessionFromAuthHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sess.Email != "ada@example.com" || sess.DisplayName != "Ada" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestSessionRejectsBadHeaders(t *testing.T) {
	sessions := NewSessions([]byte("test-secret"), time.Hour)

	cases := []string{
		"",
		"   ",
		"Bearer",
		"Basic dXNlcjpwYXNz",
		"Bearer not-a-jwt",
		"Bearer a.b",
	}
	for _, header := range cases {
		if _, err := sessions.SessionFromAuthHeader(header); err == nil {
			t.Fatalf("expected header %q to be rejected", header)
		}
	}
}

func TestSessionRejectsForeignSignature(t *testing.T) {
	mine := NewSessions([]byte("test-secret"), time.Hour)
	theirs := NewSessions([]byte("other-secret"), time.Hour)

	token, err := theirs.Issue(domain.Account{Email: "eve@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := mine.SessionFromAuthHeader("Bearer " + token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestSessionRejectsExpiredToken(t *testing.T) {
	sessions := NewSessions([]byte("test-secret"), time.Hour)
	sessions.ttl = -time.Minute

	token, err := sessions.Issue(domain.Account{Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := sessions.SessionFromAuthHeader("Bearer " + token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
