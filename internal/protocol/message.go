// Package protocol defines the message taxonomy exchanged on the realtime
// channel. Negotiation payloads (SDP, ICE) stay opaque json.RawMessage blobs.
package protocol

import "encoding/json"

// Client-to-server events.
const (
	EventCreateRoom    = "create-room"
	EventJoinRoom      = "join-room"
	EventLeaveRoom     = "leave-room"
	EventOffer         = "offer"
	EventAnswer        = "answer"
	EventICECandidate  = "ice-candidate"
	EventChatMessage   = "chat-message"
	EventCaptions      = "captions"
	EventEndCall       = "end-call"
	EventVideoEnabled  = "remote-video-enabled"
	EventVideoDisabled = "remote-video-disabled"
)

// Server-to-client events. Offer, answer, ice-candidate, chat-message and
// captions are echoed under their client-side names.
const (
	EventRoomCreated      = "room-created"
	EventJoinedRoom       = "joined-room"
	EventReady            = "ready"
	EventRoomFull         = "room-full"
	EventError            = "error"
	EventUserDisconnected = "user-disconnected"
	EventCallEnded        = "call-ended"
	EventEnableVideo      = "enable-remote-video"
	EventDisableVideo     = "disable-remote-video"
)

// Reasons carried by user-disconnected.
const (
	ReasonLeft         = "left"
	ReasonDisconnected = "disconnected"
)

// Envelope wraps every message on the realtime channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
}

// RoomEvent is the payload of room-created and joined-room.
type RoomEvent struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// ReadyEvent announces that both parties are present.
type ReadyEvent struct {
	RoomID string `json:"roomId"`
}

type ChatMessageRequest struct {
	Message string `json:"message"`
}

// ChatMessage is the broadcast form of a chat-message, stamped with the
// sender's identity so both transcripts agree.
type ChatMessage struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type UserDisconnected struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

type CallEnded struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Wrap marshals v as the data of a new envelope. The payload structs in this
// package cannot fail to marshal.
func Wrap(event string, v any) *Envelope {
	data, _ := json.Marshal(v)
	return &Envelope{Event: event, Data: data}
}

// WrapString builds an envelope whose data is a bare JSON string, used by
// the error and room-full events.
func WrapString(event, msg string) *Envelope {
	return Wrap(event, msg)
}

// Raw builds an envelope around an opaque payload, forwarded unmodified.
func Raw(event string, data json.RawMessage) *Envelope {
	return &Envelope{Event: event, Data: data}
}
