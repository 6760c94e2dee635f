package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client. The type
// field selects the handler; there is no reflection-based dispatch.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello   = "hello"
	InboundTypeJoin    = "join"
	InboundTypeLeave   = "leave"
	InboundTypeMsg     = "msg"
	InboundTypePrivate = "private"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// HelloData is sent by the client to introduce itself.
type HelloData struct {
	User     string `json:"user"`
	Token    string `json:"token,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// JoinData requests to subscribe to a specific room.
type JoinData struct {
	Room string `json:"room"`
}

// MsgData is a room message from the client. Timestamp is optional; a
// zero value means the server assigns receipt time.
type MsgData struct {
	Room      string `json:"room"`
	Content   string `json:"content"`
	Kind      string `json:"kind,omitempty"`
	Timestamp string `json:"ts,omitempty"` // RFC 3339
}

// PrivateData is a point-to-point message from the client. Any timestamp
// the client supplies is discarded server-side.
type PrivateData struct {
	To      string `json:"to"`
	Content string `json:"content"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage carries a persisted room message to subscribers.
type EventMessage struct {
	ID      int64  `json:"id,omitempty"`
	Room    string `json:"room"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
	Kind    string `json:"kind"`
	TS      string `json:"ts"` // RFC 3339
}

// EventPrivateMessage carries a private message to its receiver.
type EventPrivateMessage struct {
	ID      int64  `json:"id,omitempty"`
	Sender  string `json:"sender"`
	To      string `json:"to"`
	Content string `json:"content"`
	TS      string `json:"ts"` // RFC 3339
}

// EventUserJoined notifies that a user joined a room.
type EventUserJoined struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// EventUserLeft notifies that a user left a room.
type EventUserLeft struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
