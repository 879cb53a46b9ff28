package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zainsaleem101/chat-app/internal/identity"
)

type handlers struct {
	verifier identity.Verifier
	timeout  time.Duration
	logger   *zap.Logger
}

// health handles GET /healthz.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// verify handles POST /auth/verify: resolves a credential to its principal.
// REST mirror of the handshake-time authentication on the realtime channel.
func (h *handlers) verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, `{"error":"token is required"}`, http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.verifier.Verify(ctx, req.Token)
	if err != nil {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"user": p})
}

// createRoom handles POST /v1/rooms: mints a fresh room ID for an
// authenticated caller. The room itself materializes when the creator
// arrives on the realtime channel.
func (h *handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.verifier.Verify(ctx, token)
	if err != nil {
		http.Error(w, `{"error":"authentication failed or email not verified"}`, http.StatusUnauthorized)
		return
	}

	roomID := uuid.New().String()
	h.logger.Info("room id minted", zap.String("room", roomID), zap.String("user", p.UserID))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"roomId": roomID})
}
