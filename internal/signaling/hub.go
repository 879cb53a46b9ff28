// Package signaling relays negotiation, chat, caption and call-lifecycle
// messages between the two members of a room over websockets.
package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zainsaleem101/chat-app/internal/call"
	"github.com/zainsaleem101/chat-app/internal/config"
	"github.com/zainsaleem101/chat-app/internal/metrics"
	"github.com/zainsaleem101/chat-app/internal/protocol"
	"github.com/zainsaleem101/chat-app/internal/registry"
	"github.com/zainsaleem101/chat-app/internal/room"
)

// Hub wires connections to the room table and relays events between the two
// members of a room. Dispatch runs on each connection's read goroutine; the
// shared room and connection tables do their own locking.
type Hub struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *registry.Registry
	rooms    *room.Manager
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub(cfg *config.Config, reg *registry.Registry, rooms *room.Manager, logger *zap.Logger) *Hub {
	return &Hub{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		rooms:    rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return cfg.AllowedOrigin == "*" || r.Header.Get("Origin") == cfg.AllowedOrigin
			},
		},
		clients: make(map[string]*Client),
	}
}

// ServeWS upgrades an HTTP request onto the realtime channel. The bearer
// credential rides the handshake, via ?token= or the Authorization header,
// and is re-validated on each room-mutating action.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.New().String()
	client := newClient(id, h, conn, h.cfg.SendQueueSize, h.logger.With(zap.String("conn", id)))

	h.registry.Admit(id, bearerToken(r))
	h.mu.Lock()
	h.clients[id] = client
	h.mu.Unlock()

	h.logger.Info("connection established", zap.String("conn", id))
	go client.writePump()
	go client.readPump()
}

func bearerToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// Shutdown closes every live connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}

func (h *Hub) dispatch(c *Client, env *protocol.Envelope) {
	switch env.Event {
	case protocol.EventCreateRoom:
		h.handleCreateRoom(c)
	case protocol.EventJoinRoom:
		h.handleJoinRoom(c, env.Data)
	case protocol.EventLeaveRoom:
		h.handleLeaveRoom(c)
	case protocol.EventOffer:
		h.handleOffer(c, env.Data)
	case protocol.EventAnswer:
		h.handleAnswer(c, env.Data)
	case protocol.EventICECandidate:
		h.handleCandidate(c, env.Data)
	case protocol.EventChatMessage:
		h.handleChat(c, env.Data)
	case protocol.EventCaptions:
		h.relayToPeer(c, protocol.EventCaptions, env.Data)
	case protocol.EventEndCall:
		h.handleEndCall(c)
	case protocol.EventVideoEnabled:
		h.relayToPeer(c, protocol.EventEnableVideo, env.Data)
	case protocol.EventVideoDisabled:
		h.relayToPeer(c, protocol.EventDisableVideo, env.Data)
	default:
		c.logger.Warn("unknown event", zap.String("event", env.Event))
	}
}

func (h *Hub) handleCreateRoom(c *Client) {
	p, err := h.registry.Authenticate(context.Background(), c.id)
	if err != nil {
		c.enqueue(protocol.WrapString(protocol.EventError, err.Error()))
		return
	}

	roomID, err := h.rooms.Create(room.Member{ConnID: c.id, UserID: p.UserID, Username: p.Username})
	if err != nil {
		c.enqueue(protocol.WrapString(protocol.EventError, err.Error()))
		return
	}

	evt := protocol.RoomEvent{RoomID: roomID, UserID: p.UserID, Username: p.Username}
	c.enqueue(protocol.Wrap(protocol.EventRoomCreated, evt))
	// The creator's own join announcement, for a symmetric membership view.
	c.enqueue(protocol.Wrap(protocol.EventJoinedRoom, evt))
}

func (h *Hub) handleJoinRoom(c *Client, data json.RawMessage) {
	var req protocol.JoinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		c.enqueue(protocol.WrapString(protocol.EventError, "invalid join-room payload"))
		return
	}

	p, err := h.registry.Authenticate(context.Background(), c.id)
	if err != nil {
		c.enqueue(protocol.WrapString(protocol.EventError, err.Error()))
		return
	}

	res, err := h.rooms.Join(req.RoomID, room.Member{ConnID: c.id, UserID: p.UserID, Username: p.Username})
	switch {
	case errors.Is(err, room.ErrNotFound):
		metrics.JoinsRejectedTotal.WithLabelValues("not_found").Inc()
		c.enqueue(protocol.WrapString(protocol.EventError, "Room not found"))
		return
	case errors.Is(err, room.ErrFull):
		metrics.JoinsRejectedTotal.WithLabelValues("full").Inc()
		c.enqueue(protocol.WrapString(protocol.EventRoomFull, "Room is full"))
		return
	case err != nil:
		metrics.JoinsRejectedTotal.WithLabelValues("other").Inc()
		c.enqueue(protocol.WrapString(protocol.EventError, err.Error()))
		return
	}

	evt := protocol.Wrap(protocol.EventJoinedRoom, protocol.RoomEvent{
		RoomID:   res.RoomID,
		UserID:   p.UserID,
		Username: p.Username,
	})
	if res.Rejoined {
		// Already a member: confirm to the joiner only, no re-announcement.
		c.enqueue(evt)
		return
	}

	h.broadcast(res.Members, evt)
	if res.Ready {
		h.broadcast(res.Members, protocol.Wrap(protocol.EventReady, protocol.ReadyEvent{RoomID: res.RoomID}))
	}
}

func (h *Hub) handleLeaveRoom(c *Client) {
	h.removeFromRoom(c, protocol.ReasonLeft)
}

// handleDisconnect is the one-shot transport-loss path: release room
// membership, notify the remaining peer, then drop the connection record.
func (h *Hub) handleDisconnect(c *Client) {
	h.removeFromRoom(c, protocol.ReasonDisconnected)
	h.registry.Remove(c.id)

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()

	metrics.DisconnectsTotal.Inc()
	h.logger.Info("connection closed", zap.String("conn", c.id))
}

func (h *Hub) removeFromRoom(c *Client, reason string) {
	res, ok := h.rooms.Leave(c.id)
	if !ok {
		return
	}
	if len(res.Remaining) == 0 {
		return
	}

	peer := res.Remaining[0]
	if res.CallEnded {
		// Departure implicitly ends any in-progress call.
		h.sendTo(peer.ConnID, protocol.Wrap(protocol.EventCallEnded, protocol.CallEnded{
			UserID:   res.Member.UserID,
			Username: res.Member.Username,
		}))
	}
	h.sendTo(peer.ConnID, protocol.Wrap(protocol.EventUserDisconnected, protocol.UserDisconnected{
		UserID:   res.Member.UserID,
		Username: res.Member.Username,
		Reason:   reason,
	}))
}

func (h *Hub) handleOffer(c *Client, data json.RawMessage) {
	peer, err := h.rooms.CallOffer(c.id)
	if err != nil {
		h.callControlFailed(c, protocol.EventOffer, err)
		return
	}
	h.sendTo(peer.ConnID, protocol.Raw(protocol.EventOffer, data))
	metrics.MessagesRelayedTotal.WithLabelValues(protocol.EventOffer).Inc()
}

func (h *Hub) handleAnswer(c *Client, data json.RawMessage) {
	peer, err := h.rooms.CallAnswer(c.id)
	if err != nil {
		h.callControlFailed(c, protocol.EventAnswer, err)
		return
	}
	h.sendTo(peer.ConnID, protocol.Raw(protocol.EventAnswer, data))
	metrics.MessagesRelayedTotal.WithLabelValues(protocol.EventAnswer).Inc()
}

func (h *Hub) handleCandidate(c *Client, data json.RawMessage) {
	peer, err := h.rooms.Candidate(c.id)
	if err != nil {
		// Candidates are best-effort; the browser retries via renegotiation.
		c.logger.Debug("candidate dropped", zap.Error(err))
		return
	}
	h.sendTo(peer.ConnID, protocol.Raw(protocol.EventICECandidate, data))
	metrics.MessagesRelayedTotal.WithLabelValues(protocol.EventICECandidate).Inc()
}

func (h *Hub) handleEndCall(c *Client) {
	peer, ended, err := h.rooms.CallEnd(c.id)
	if err != nil {
		h.callControlFailed(c, protocol.EventEndCall, err)
		return
	}
	if !ended {
		return
	}

	p, ok := h.registry.Principal(c.id)
	if !ok {
		return
	}
	h.sendTo(peer.ConnID, protocol.Wrap(protocol.EventCallEnded, protocol.CallEnded{
		UserID:   p.UserID,
		Username: p.Username,
	}))
}

func (h *Hub) handleChat(c *Client, data json.RawMessage) {
	var req protocol.ChatMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.logger.Debug("invalid chat payload", zap.Error(err))
		return
	}
	p, ok := h.registry.Principal(c.id)
	if !ok {
		c.logger.Debug("chat from unauthenticated connection")
		return
	}
	_, members, err := h.rooms.Members(c.id)
	if err != nil {
		c.logger.Debug("chat dropped", zap.Error(err))
		return
	}

	// Broadcast to both members, sender included, so every client shares a
	// single transcript order.
	h.broadcast(members, protocol.Wrap(protocol.EventChatMessage, protocol.ChatMessage{
		UserID:   p.UserID,
		Username: p.Username,
		Message:  req.Message,
	}))
	metrics.MessagesRelayedTotal.WithLabelValues(protocol.EventChatMessage).Inc()
}

// relayToPeer forwards an opaque payload to the other member of the
// sender's room. Missing room or peer is a user-triggered race: log only.
func (h *Hub) relayToPeer(c *Client, event string, data json.RawMessage) {
	peer, err := h.rooms.Peer(c.id)
	if err != nil {
		c.logger.Debug("relay dropped", zap.String("event", event), zap.Error(err))
		return
	}
	h.sendTo(peer.ConnID, protocol.Raw(event, data))
	metrics.MessagesRelayedTotal.WithLabelValues(event).Inc()
}

// callControlFailed distinguishes the silent-drop case (sender has no room)
// from NoPeer, which is reported back as an error event.
func (h *Hub) callControlFailed(c *Client, event string, err error) {
	if errors.Is(err, room.ErrNoRoom) {
		c.logger.Debug("call control dropped", zap.String("event", event), zap.Error(err))
		return
	}
	if errors.Is(err, call.ErrNoPeer) {
		c.enqueue(protocol.WrapString(protocol.EventError, "no peer present"))
		return
	}
	c.enqueue(protocol.WrapString(protocol.EventError, err.Error()))
}

func (h *Hub) broadcast(members []room.Member, env *protocol.Envelope) {
	for _, m := range members {
		h.sendTo(m.ConnID, env)
	}
}

func (h *Hub) sendTo(connID string, env *protocol.Envelope) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		h.logger.Debug("send to unknown connection", zap.String("conn", connID), zap.String("event", env.Event))
		return
	}
	c.enqueue(env)
}
