package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/zainsaleem101/chat-app/internal/identity"
)

func testVerifier() *identity.MockVerifier {
	return &identity.MockVerifier{
		Principals: map[string]*identity.Principal{
			"good-token": {UserID: "u1", Username: "alice", Email: "alice@example.com", EmailVerified: true},
		},
	}
}

func TestAuthenticateBindsPrincipal(t *testing.T) {
	r := New(testVerifier(), time.Second, zap.NewNop())
	r.Admit("c1", "good-token")

	p, err := r.Authenticate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p.UserID != "u1" || p.Username != "alice" {
		t.Errorf("unexpected principal: %+v", p)
	}

	bound, ok := r.Principal("c1")
	if !ok || bound != p {
		t.Error("principal should be bound on the connection")
	}
}

func TestAuthenticateIdempotent(t *testing.T) {
	r := New(testVerifier(), time.Second, zap.NewNop())
	r.Admit("c1", "good-token")

	first, err := r.Authenticate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("first authenticate: %v", err)
	}
	second, err := r.Authenticate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("second authenticate: %v", err)
	}
	if first != second {
		t.Error("re-authentication must keep the original binding")
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	r := New(testVerifier(), time.Second, zap.NewNop())
	r.Admit("c1", "")

	if _, err := r.Authenticate(context.Background(), "c1"); !errors.Is(err, identity.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
	if _, ok := r.Principal("c1"); ok {
		t.Error("no principal should be bound after a failed authentication")
	}
}

func TestAuthenticateBadToken(t *testing.T) {
	r := New(testVerifier(), time.Second, zap.NewNop())
	r.Admit("c1", "bad-token")

	if _, err := r.Authenticate(context.Background(), "c1"); !errors.Is(err, identity.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthenticateTimeout(t *testing.T) {
	v := testVerifier()
	v.Delay = 200 * time.Millisecond
	r := New(v, 20*time.Millisecond, zap.NewNop())
	r.Admit("c1", "good-token")

	if _, err := r.Authenticate(context.Background(), "c1"); !errors.Is(err, identity.ErrAuthTimeout) {
		t.Errorf("expected ErrAuthTimeout, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	r := New(testVerifier(), time.Second, zap.NewNop())
	r.Admit("c1", "good-token")
	if r.Len() != 1 {
		t.Fatalf("expected 1 connection, got %d", r.Len())
	}

	r.Remove("c1")
	if r.Len() != 0 {
		t.Errorf("expected 0 connections, got %d", r.Len())
	}
	if _, err := r.Authenticate(context.Background(), "c1"); !errors.Is(err, identity.ErrUnauthenticated) {
		t.Errorf("removed connection should not authenticate, got %v", err)
	}

	// Removing twice is harmless.
	r.Remove("c1")
}
