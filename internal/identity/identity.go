// Package identity resolves bearer credentials to verified principals via an
// external auth service. The signaling core never inspects credentials itself.
package identity

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnauthenticated covers missing, invalid, and expired credentials as
	// well as principals whose email is not verified.
	ErrUnauthenticated = errors.New("authentication failed or email not verified")

	// ErrAuthTimeout is returned when the auth service does not answer in
	// time. Callers treat it the same as ErrUnauthenticated.
	ErrAuthTimeout = errors.New("authentication timed out")
)

// Principal is a verified identity.
type Principal struct {
	UserID        string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

// Verifier resolves a bearer token to a principal.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// UsernameFromEmail derives the display name shown to the peer: the local
// part of the email address.
func UsernameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}
