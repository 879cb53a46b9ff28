// Package room owns the room table: ephemeral two-party pairings and the
// call state layered over each of them.
package room

import "github.com/zainsaleem101/chat-app/internal/call"

// Member identifies a room occupant.
type Member struct {
	ConnID   string
	UserID   string
	Username string
}

// Room pairs at most two connections. All fields are guarded by the owning
// Manager's lock.
type Room struct {
	ID      string
	members []Member // ordered by join time, length 0..2
	Call    call.Machine
}

func (r *Room) has(connID string) bool {
	for _, m := range r.members {
		if m.ConnID == connID {
			return true
		}
	}
	return false
}

func (r *Room) peer(connID string) (Member, bool) {
	for _, m := range r.members {
		if m.ConnID != connID {
			return m, true
		}
	}
	return Member{}, false
}

// Members returns a copy of the member list.
func (r *Room) Members() []Member {
	out := make([]Member, len(r.members))
	copy(out, r.members)
	return out
}
