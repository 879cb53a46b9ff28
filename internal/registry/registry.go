// Package registry tracks live connections and their authenticated identity.
package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zainsaleem101/chat-app/internal/identity"
	"github.com/zainsaleem101/chat-app/internal/metrics"
)

// Connection is one network session. The credential arrives once with the
// handshake; the principal is bound on the first successful verification.
type Connection struct {
	ID        string
	Token     string
	Principal *identity.Principal
}

// Registry owns the connection table.
type Registry struct {
	logger   *zap.Logger
	verifier identity.Verifier
	timeout  time.Duration

	mu    sync.RWMutex
	conns map[string]*Connection
}

func New(verifier identity.Verifier, timeout time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		logger:   logger,
		verifier: verifier,
		timeout:  timeout,
		conns:    make(map[string]*Connection),
	}
}

// Admit registers a new unauthenticated connection with its handshake
// credential. A duplicate connection ID is a programming error.
func (r *Registry) Admit(connID, token string) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connID]; ok {
		r.logger.Panic("duplicate connection id", zap.String("conn", connID))
	}
	c := &Connection{ID: connID, Token: token}
	r.conns[connID] = c
	metrics.ActiveConnections.Inc()
	return c
}

// Authenticate re-resolves the connection's principal from its stored
// credential, bounded by the configured timeout. The first success binds the
// principal; repeat calls re-validate but keep the original binding.
func (r *Registry) Authenticate(ctx context.Context, connID string) (*identity.Principal, error) {
	r.mu.RLock()
	c, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok || c.Token == "" {
		metrics.AuthFailuresTotal.Inc()
		return nil, identity.ErrUnauthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	p, err := r.verifier.Verify(ctx, c.Token)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = identity.ErrAuthTimeout
		}
		metrics.AuthFailuresTotal.Inc()
		return nil, err
	}

	r.mu.Lock()
	if c.Principal == nil {
		c.Principal = p
	}
	p = c.Principal
	r.mu.Unlock()
	return p, nil
}

// Principal returns the bound identity, if authentication has succeeded.
func (r *Registry) Principal(connID string) (*identity.Principal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connID]
	if !ok || c.Principal == nil {
		return nil, false
	}
	return c.Principal, true
}

// Remove drops the connection record. Called exactly once per connection,
// after room cleanup has run.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[connID]; !ok {
		return
	}
	delete(r.conns, connID)
	metrics.ActiveConnections.Dec()
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
