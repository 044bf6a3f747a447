package proto

import "time"

// Message is a user-level envelope carried inside a ProtocolMessage's
// messages array. Data is opaque to this package: it may hold a string, a
// []byte, or a structured value (map/slice/number/bool) depending on how
// far through the codec pipeline it has travelled.
type Message struct {
	ID           string      `json:"id,omitempty"`
	ConnectionID string      `json:"connectionId,omitempty"`
	Name         string      `json:"name,omitempty"`
	Data         interface{} `json:"data,omitempty"`
	Encoding     string      `json:"encoding,omitempty"`
	Timestamp    time.Time   `json:"timestamp,omitempty"`
	ClientID     string      `json:"clientId,omitempty"`
	Extras       interface{} `json:"extras,omitempty"`
}

// IsEmpty reports whether m carries no meaningful content, used when
// pruning structurally empty entries from a ProtocolMessage's messages
// array before it is sent.
func (m Message) IsEmpty() bool {
	return m.ID == "" && m.ConnectionID == "" && m.Name == "" &&
		m.Data == nil && m.Encoding == "" && m.Timestamp.IsZero() &&
		m.ClientID == "" && m.Extras == nil
}

// PresenceMessage is the presence counterpart to Message.
type PresenceMessage struct {
	ID           string         `json:"id,omitempty"`
	ConnectionID string         `json:"connectionId,omitempty"`
	ClientID     string         `json:"clientId,omitempty"`
	Action       PresenceAction `json:"action"`
	Data         interface{}    `json:"data,omitempty"`
	Encoding     string         `json:"encoding,omitempty"`
	Timestamp    time.Time      `json:"timestamp,omitempty"`
}

// IsEmpty mirrors Message.IsEmpty for presence entries.
func (p PresenceMessage) IsEmpty() bool {
	return p.ID == "" && p.ConnectionID == "" && p.ClientID == "" &&
		p.Action == PresenceAbsent && p.Data == nil && p.Encoding == "" &&
		p.Timestamp.IsZero()
}
