package serializer

import (
	"errors"

	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

// ErrPackedNotImplemented is returned by Packed's methods. A concrete
// binary packed codec is an external collaborator; callers that need
// one supply their own Serializer implementation.
var ErrPackedNotImplemented = errors.New("serializer: packed format requires a caller-supplied implementation")

// Packed is a placeholder satisfying Serializer for callers that select
// the packed wire format but have not wired a concrete implementation.
// It exists so connection.Options can name "packed" as a valid format
// choice without the core importing a packing library.
type Packed struct{}

func NewPacked() *Packed { return &Packed{} }

func (Packed) Name() string { return "packed" }

func (Packed) Encode(*proto.ProtocolMessage) ([]byte, error) {
	return nil, ErrPackedNotImplemented
}

func (Packed) Decode([]byte) (*proto.ProtocolMessage, error) {
	return nil, ErrPackedNotImplemented
}
