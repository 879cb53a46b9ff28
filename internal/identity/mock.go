package identity

import (
	"context"
	"time"
)

// MockVerifier returns canned principals for testing.
type MockVerifier struct {
	Principals map[string]*Principal // token -> principal
	Delay      time.Duration
	Err        error
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ErrAuthTimeout
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Principals[token]
	if !ok {
		return nil, ErrUnauthenticated
	}
	return p, nil
}
