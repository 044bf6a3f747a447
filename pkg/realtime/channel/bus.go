package channel

import (
	"github.com/sage-x-project/relay/pkg/realtime/ack"
	"github.com/sage-x-project/relay/pkg/realtime/codec"
	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

// Bus is the narrow handle a Channel holds back to its owning
// connection. It avoids a connection <-> registry <-> channel cyclic
// reference: a Channel never sees the connection's full state machine,
// only this interface.
type Bus interface {
	// Send enqueues pm for transmission on the connection's transport.
	// It never blocks on a network round-trip.
	Send(pm *proto.ProtocolMessage)

	// NextMsgSerial returns the connection's next monotonically
	// increasing msg_serial.
	NextMsgSerial() int64

	// Tracker returns the connection's acknowledgement tracker, shared
	// across every channel.
	Tracker() *ack.Tracker

	// IsConnected reports whether the connection is currently in the
	// Connected state.
	IsConnected() bool

	// Codec returns the codec pipeline used to encode/decode payloads.
	Codec() *codec.Pipeline

	// WireIsText reports whether the connection's serializer produces a
	// text-oriented wire format, which controls the codec's base64 step.
	WireIsText() bool

	// ConnectionID returns the current connection_id, or "" if none.
	ConnectionID() string
}
