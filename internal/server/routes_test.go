package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zainsaleem101/chat-app/internal/config"
	"github.com/zainsaleem101/chat-app/internal/identity"
	"github.com/zainsaleem101/chat-app/internal/protocol"
	"github.com/zainsaleem101/chat-app/internal/registry"
	"github.com/zainsaleem101/chat-app/internal/room"
	"github.com/zainsaleem101/chat-app/internal/signaling"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()
	verifier := &identity.MockVerifier{
		Principals: map[string]*identity.Principal{
			"token-a": {UserID: "user-a", Username: "alice", Email: "alice@example.com", EmailVerified: true},
		},
	}
	cfg := &config.Config{
		AllowedOrigin: "*",
		AuthTimeout:   time.Second,
		SendQueueSize: 16,
	}
	reg := registry.New(verifier, cfg.AuthTimeout, logger)
	rooms := room.NewManager(logger)
	hub := signaling.NewHub(cfg, reg, rooms, logger)

	srv := httptest.NewServer(New(cfg, hub, verifier, logger))
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})
	return srv
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"ok"`) {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestVerifyEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/auth/verify", "application/json",
		bytes.NewReader([]byte(`{"token":"token-a"}`)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out struct {
		User identity.Principal `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.User.UserID != "user-a" || out.User.Username != "alice" {
		t.Errorf("unexpected principal: %+v", out.User)
	}
}

func TestVerifyEndpointRejectsBadToken(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/auth/verify", "application/json",
		bytes.NewReader([]byte(`{"token":"nope"}`)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/auth/verify", "application/json",
		bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateRoomEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/rooms", nil)
	req.Header.Set("Authorization", "Bearer token-a")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["roomId"] == "" {
		t.Error("expected a minted roomId")
	}
}

func TestCreateRoomEndpointRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/rooms", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestMetricsExposed(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "chatapp_signaling") {
		t.Error("expected signaling metrics in /metrics output")
	}
}

// The websocket upgrade must survive the full middleware stack (the logging
// wrapper has to pass hijacking through).
func TestWebsocketThroughRouter(t *testing.T) {
	srv := newTestServer(t)

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=token-a"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(protocol.Wrap(protocol.EventCreateRoom, nil)); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env protocol.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	if env.Event != protocol.EventRoomCreated {
		t.Errorf("event = %q, want room-created", env.Event)
	}
}
