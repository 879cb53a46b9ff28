// Package call tracks the per-room call lifecycle.
package call

import "errors"

// ErrNoPeer is returned for call-control actions in a room with one member.
var ErrNoPeer = errors.New("no peer present")

// State of the call layered over an established room.
type State int

const (
	StateIdle State = iota
	StateOffering
	StateActive
	StateEnding
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOffering:
		return "offering"
	case StateActive:
		return "active"
	case StateEnding:
		return "ending"
	default:
		return "unknown"
	}
}

// Machine is the call state machine for one room. It is not synchronized;
// the room manager applies transitions while holding the room table lock.
type Machine struct {
	state State
}

func (m *Machine) State() State { return m.state }

// Offer records an outgoing offer. A further offer while already Offering or
// Active is a renegotiation attempt and keeps the current state; the machine
// does not arbitrate SDP content. Reports whether a transition happened.
func (m *Machine) Offer() bool {
	if m.state != StateIdle {
		return false
	}
	m.state = StateOffering
	return true
}

// Answer completes negotiation. An answer outside Offering (stale answer
// after a teardown) is relayed by the caller without a transition.
func (m *Machine) Answer() bool {
	if m.state != StateOffering {
		return false
	}
	m.state = StateActive
	return true
}

// End moves to Ending and reports the state the call was in. StateIdle means
// there was no call and nothing should be announced. Reject during Offering
// is an End.
func (m *Machine) End() State {
	prev := m.state
	if prev != StateIdle {
		m.state = StateEnding
	}
	return prev
}

// Reset completes a teardown once the call-ended notification has been
// queued, so a subsequent offer is accepted again.
func (m *Machine) Reset() { m.state = StateIdle }

// Live reports whether candidates should be relayed: any non-Idle state.
func (m *Machine) Live() bool { return m.state != StateIdle }
