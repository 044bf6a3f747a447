package codec

import (
	"fmt"

	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

// UTF8Encoder is a pass-through on encode: a string payload is already a
// valid wire value for a text-oriented serializer, so no label is
// appended unless a later encoder (cipher) needs to convert it to bytes
// first, in which case that encoder appends the utf-8 label itself
//. On decode it reverses that conversion.
type UTF8Encoder struct{}

func (UTF8Encoder) Name() string { return "utf-8" }

func (UTF8Encoder) Encode(_ Frame, _ proto.ChannelOptions, _ bool) error {
	return nil
}

func (UTF8Encoder) OwnsLabel(label string) bool { return label == "utf-8" }

func (UTF8Encoder) Decode(f Frame, _ proto.ChannelOptions) error {
	b, ok := f.PayloadData().([]byte)
	if !ok {
		return fmt.Errorf("%w: utf-8 label on non-byte payload", ErrMalformedEncodingLabel)
	}
	rest, _, _ := trailingLabel(f.PayloadEncoding())
	f.SetPayloadData(string(b))
	f.SetPayloadEncoding(rest)
	return nil
}
