package proto

import (
	"strconv"
	"time"
)

// ProtocolMessage is the wire envelope exchanged between the connection
// state machine and the transport. Exactly one ProtocolMessage is sent or
// received per frame.
type ProtocolMessage struct {
	Action            Action
	Flags             Flags
	Count             int
	Error             *ErrorInfo
	ID                string
	Channel           string
	ChannelSerial     string
	ConnectionID      string
	ConnectionKey     string
	ConnectionSerial  int64
	MsgSerial         int64
	Timestamp         time.Time
	Messages          []Message
	Presence          []PresenceMessage
	ConnectionDetails *ConnectionDetails
}

// Normalize applies the empty-field pruning, timestamp propagation, and
// id/connection_id propagation rules applied on both send and receive.
// It mutates pm
// in place and is idempotent.
//
// Send-side callers use it to prune before serialization; receive-side
// callers use it to propagate metadata down into the embedded messages.
func (pm *ProtocolMessage) Normalize() {
	pm.Messages = pruneEmptyMessages(pm.Messages)

	for i := range pm.Messages {
		m := &pm.Messages[i]
		if m.ID == "" && pm.ID != "" {
			m.ID = pm.ID + ":" + strconv.Itoa(i)
		}
		if m.ConnectionID == "" {
			m.ConnectionID = pm.ConnectionID
		}
		if m.Timestamp.IsZero() && !pm.Timestamp.IsZero() {
			m.Timestamp = pm.Timestamp
		}
	}

	for i := range pm.Presence {
		p := &pm.Presence[i]
		if p.ID == "" && pm.ID != "" {
			p.ID = pm.ID + ":" + strconv.Itoa(i)
		}
		if p.ConnectionID == "" {
			p.ConnectionID = pm.ConnectionID
		}
		if p.Timestamp.IsZero() && !pm.Timestamp.IsZero() {
			p.Timestamp = pm.Timestamp
		}
	}
}

func pruneEmptyMessages(msgs []Message) []Message {
	out := msgs[:0:0]
	for _, m := range msgs {
		if !m.IsEmpty() {
			out = append(out, m)
		}
	}
	return out
}

// HasMessages reports whether the messages array should be serialized at
// all: an all-empty array is omitted entirely on the wire.
func (pm *ProtocolMessage) HasMessages() bool {
	for _, m := range pm.Messages {
		if !m.IsEmpty() {
			return true
		}
	}
	return false
}
