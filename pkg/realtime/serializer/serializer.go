// Package serializer adapts the proto package's abstract ProtocolMessage
// model to and from concrete wire formats. The connection state machine
// picks one Serializer per connection and keeps it fixed for the
// connection's lifetime: a JSON implementation is
// provided here; a binary packed implementation is defined by the same
// interface but left to a caller-supplied implementation, since no
// packed-format library appears anywhere in the example corpus (see
// DESIGN.md).
package serializer

import "github.com/sage-x-project/relay/pkg/realtime/proto"

// Serializer converts a ProtocolMessage to and from one wire
// representation. Implementations must be safe for concurrent use; the
// connection actor is the only caller in practice, but request/response
// façade callers may share one from a separate goroutine.
type Serializer interface {
	// Name identifies the wire format, e.g. "json" or "packed".
	Name() string
	Encode(pm *proto.ProtocolMessage) ([]byte, error)
	Decode(data []byte) (*proto.ProtocolMessage, error)
}
