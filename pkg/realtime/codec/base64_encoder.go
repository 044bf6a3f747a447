package codec

import (
	"encoding/base64"
	"fmt"

	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

// Base64Encoder makes a byte payload safe for a text-oriented wire
// format. It is a no-op for binary-packed
// wire formats, which carry bytes natively.
type Base64Encoder struct{}

func (Base64Encoder) Name() string { return "base64" }

func (Base64Encoder) Encode(f Frame, _ proto.ChannelOptions, wireIsText bool) error {
	b, ok := f.PayloadData().([]byte)
	if !ok || !wireIsText {
		return nil
	}
	f.SetPayloadData(base64.StdEncoding.EncodeToString(b))
	f.SetPayloadEncoding(appendLabel(f.PayloadEncoding(), "base64"))
	return nil
}

func (Base64Encoder) OwnsLabel(label string) bool { return label == "base64" }

func (Base64Encoder) Decode(f Frame, _ proto.ChannelOptions) error {
	text, ok := f.PayloadData().(string)
	if !ok {
		return fmt.Errorf("%w: base64 label on non-string payload", ErrMalformedEncodingLabel)
	}
	b, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBase64Malformed, err)
	}
	rest, _, _ := trailingLabel(f.PayloadEncoding())
	f.SetPayloadData(b)
	f.SetPayloadEncoding(rest)
	return nil
}
