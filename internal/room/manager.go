package room

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zainsaleem101/chat-app/internal/call"
	"github.com/zainsaleem101/chat-app/internal/metrics"
)

// Manager owns the room table and the connection→room index. A single mutex
// guards both, so capacity-check-then-admit and delete-on-empty are each one
// critical section, and a connection's room pointer can never disagree with
// the member set it points at.
type Manager struct {
	logger *zap.Logger

	mu     sync.Mutex
	rooms  map[string]*Room
	byConn map[string]string
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		logger: logger,
		rooms:  make(map[string]*Room),
		byConn: make(map[string]string),
	}
}

// Create allocates a fresh room with m as its sole member.
func (mg *Manager) Create(m Member) (string, error) {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	if _, ok := mg.byConn[m.ConnID]; ok {
		return "", ErrAlreadyInRoom
	}

	id := uuid.New().String()
	mg.rooms[id] = &Room{ID: id, members: []Member{m}}
	mg.byConn[m.ConnID] = id

	metrics.ActiveRooms.Inc()
	metrics.RoomsCreatedTotal.Inc()
	mg.logger.Info("room created", zap.String("room", id), zap.String("user", m.UserID))
	return id, nil
}

// JoinResult reports the outcome of a successful join.
type JoinResult struct {
	RoomID   string
	Members  []Member
	Ready    bool // this admission brought membership to two
	Rejoined bool // requester was already a member; nothing changed
}

// Join admits m into the room. The capacity check and the admission happen
// under one lock; two connections racing for the last slot cannot both win.
func (mg *Manager) Join(roomID string, m Member) (JoinResult, error) {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	r, ok := mg.rooms[roomID]
	if !ok {
		return JoinResult{}, ErrNotFound
	}
	if r.has(m.ConnID) {
		// Reconnect or duplicate emit: idempotent, no double count.
		return JoinResult{RoomID: roomID, Members: r.Members(), Rejoined: true}, nil
	}
	if cur, ok := mg.byConn[m.ConnID]; ok && cur != roomID {
		return JoinResult{}, ErrAlreadyInRoom
	}
	if len(r.members) > 2 {
		mg.logger.Panic("room over capacity", zap.String("room", roomID), zap.Int("members", len(r.members)))
	}
	if len(r.members) == 2 {
		return JoinResult{}, ErrFull
	}

	r.members = append(r.members, m)
	mg.byConn[m.ConnID] = roomID

	mg.logger.Info("member joined", zap.String("room", roomID), zap.String("user", m.UserID))
	return JoinResult{RoomID: roomID, Members: r.Members(), Ready: len(r.members) == 2}, nil
}

// LeaveResult reports what a departure observed.
type LeaveResult struct {
	RoomID    string
	Member    Member   // the departing member
	Remaining []Member // at most one
	CallEnded bool     // a live call was torn down by this departure
	Deleted   bool     // the room became empty and was removed
}

// Leave removes connID from its room, tearing down any live call and
// deleting the room if it empties. No-op for a connection without a room.
func (mg *Manager) Leave(connID string) (LeaveResult, bool) {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	roomID, ok := mg.byConn[connID]
	if !ok {
		return LeaveResult{}, false
	}
	r := mg.rooms[roomID]

	res := LeaveResult{RoomID: roomID}
	rest := r.members[:0]
	for _, m := range r.members {
		if m.ConnID == connID {
			res.Member = m
		} else {
			rest = append(rest, m)
		}
	}
	r.members = rest
	delete(mg.byConn, connID)
	res.Remaining = r.Members()

	if prev := r.Call.End(); prev != call.StateIdle {
		r.Call.Reset()
		res.CallEnded = true
		if prev == call.StateActive {
			metrics.ActiveCalls.Dec()
		}
	}

	if len(r.members) == 0 {
		delete(mg.rooms, roomID)
		res.Deleted = true
		metrics.ActiveRooms.Dec()
		mg.logger.Info("room deleted", zap.String("room", roomID))
	}

	mg.logger.Info("member left", zap.String("room", roomID), zap.String("user", res.Member.UserID))
	return res, true
}

// CallOffer advances the call machine for an offer from connID and returns
// the peer to forward it to.
func (mg *Manager) CallOffer(connID string) (Member, error) {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	r, peer, err := mg.roomAndPeer(connID)
	if err != nil {
		return Member{}, err
	}
	r.Call.Offer()
	return peer, nil
}

// CallAnswer advances the call machine for an answer from connID and returns
// the peer to forward it to.
func (mg *Manager) CallAnswer(connID string) (Member, error) {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	r, peer, err := mg.roomAndPeer(connID)
	if err != nil {
		return Member{}, err
	}
	if r.Call.Answer() {
		metrics.ActiveCalls.Inc()
	}
	return peer, nil
}

// CallEnd tears the call down to Idle. ended reports whether a call was
// actually in progress, so call-ended is announced at most once.
func (mg *Manager) CallEnd(connID string) (peer Member, ended bool, err error) {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	r, peer, err := mg.roomAndPeer(connID)
	if err != nil {
		return Member{}, false, err
	}
	prev := r.Call.End()
	r.Call.Reset()
	if prev == call.StateActive {
		metrics.ActiveCalls.Dec()
	}
	return peer, prev != call.StateIdle, nil
}

// Candidate returns the peer an ICE candidate from connID should be relayed
// to. Candidates are only meaningful while a call is being negotiated or
// running; otherwise they are dropped by the caller.
func (mg *Manager) Candidate(connID string) (Member, error) {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	r, peer, err := mg.roomAndPeer(connID)
	if err != nil {
		return Member{}, err
	}
	if !r.Call.Live() {
		return Member{}, ErrNoCall
	}
	return peer, nil
}

// Peer returns the other member of connID's room.
func (mg *Manager) Peer(connID string) (Member, error) {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	_, peer, err := mg.roomAndPeer(connID)
	return peer, err
}

// Members returns connID's room and its full member list, sender included.
func (mg *Manager) Members(connID string) (string, []Member, error) {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	roomID, ok := mg.byConn[connID]
	if !ok {
		return "", nil, ErrNoRoom
	}
	return roomID, mg.rooms[roomID].Members(), nil
}

// RoomOf returns the room connID currently belongs to.
func (mg *Manager) RoomOf(connID string) (string, bool) {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	id, ok := mg.byConn[connID]
	return id, ok
}

// Snapshot returns the member list of a room by ID.
func (mg *Manager) Snapshot(roomID string) ([]Member, bool) {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	r, ok := mg.rooms[roomID]
	if !ok {
		return nil, false
	}
	return r.Members(), true
}

// Len returns the number of rooms in the table.
func (mg *Manager) Len() int {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	return len(mg.rooms)
}

// roomAndPeer resolves connID's room and counterpart. Callers hold mg.mu.
func (mg *Manager) roomAndPeer(connID string) (*Room, Member, error) {
	roomID, ok := mg.byConn[connID]
	if !ok {
		return nil, Member{}, ErrNoRoom
	}
	r := mg.rooms[roomID]
	peer, ok := r.peer(connID)
	if !ok {
		return nil, Member{}, call.ErrNoPeer
	}
	return r, peer, nil
}
