package codec

import (
	"errors"

	"github.com/sage-x-project/relay/internal/metrics"
	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

// Pipeline is the ordered encoder chain: JSON, UTF-8,
// cipher, base64, in that declared order. Encode traverses it forward;
// Decode traverses it in reverse, each encoder only firing when it owns
// the frame's current trailing label.
type Pipeline struct {
	encoders []Encoder
}

// Default returns the pipeline with the four declared encoders wired in
// declared order.
func Default() *Pipeline {
	return &Pipeline{encoders: []Encoder{
		JSONEncoder{},
		UTF8Encoder{},
		NewCipherEncoder(),
		Base64Encoder{},
	}}
}

// WithCipherFactory returns a copy of the pipeline using factory instead
// of DefaultCipherFactory for its cipher encoder.
func (p *Pipeline) WithCipherFactory(factory CipherFactory) *Pipeline {
	out := &Pipeline{encoders: make([]Encoder, len(p.encoders))}
	copy(out.encoders, p.encoders)
	for i, e := range out.encoders {
		if ce, ok := e.(*CipherEncoder); ok {
			cp := *ce
			cp.Factory = factory
			out.encoders[i] = &cp
		}
	}
	return out
}

func (p *Pipeline) encode(f Frame, opts proto.ChannelOptions, wireIsText bool) error {
	for _, e := range p.encoders {
		if err := e.Encode(f, opts, wireIsText); err != nil {
			recordEncodeError(err)
			return err
		}
	}
	return nil
}

func (p *Pipeline) decode(f Frame, opts proto.ChannelOptions) error {
	for i := len(p.encoders) - 1; i >= 0; i-- {
		e := p.encoders[i]
		for {
			_, label, ok := trailingLabel(f.PayloadEncoding())
			if !ok || !e.OwnsLabel(label) {
				break
			}
			if err := e.Decode(f, opts); err != nil {
				recordDecodeError(err)
				return err
			}
		}
	}
	return nil
}

// EncodeMessage runs m through the pipeline, mutating m.Data and
// m.Encoding in place.
func (p *Pipeline) EncodeMessage(m *proto.Message, opts proto.ChannelOptions, wireIsText bool) error {
	return p.encode(messageFrame{m}, opts, wireIsText)
}

// DecodeMessage reverses EncodeMessage.
func (p *Pipeline) DecodeMessage(m *proto.Message, opts proto.ChannelOptions) error {
	return p.decode(messageFrame{m}, opts)
}

// EncodePresence runs p through the pipeline for a presence entry.
func (p *Pipeline) EncodePresence(msg *proto.PresenceMessage, opts proto.ChannelOptions, wireIsText bool) error {
	return p.encode(presenceFrame{msg}, opts, wireIsText)
}

// DecodePresence reverses EncodePresence.
func (p *Pipeline) DecodePresence(msg *proto.PresenceMessage, opts proto.ChannelOptions) error {
	return p.decode(presenceFrame{msg}, opts)
}

func recordEncodeError(err error) {
	metrics.CodecEncodeErrors.WithLabelValues(errorKind(err)).Inc()
}

func recordDecodeError(err error) {
	metrics.CodecDecodeErrors.WithLabelValues(errorKind(err)).Inc()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrPayloadTypeUnsupported):
		return "payload_type_unsupported"
	case errors.Is(err, ErrEncryptionMisconfigured):
		return "encryption_misconfigured"
	case errors.Is(err, ErrCipherFailure):
		return "cipher_failure"
	case errors.Is(err, ErrMalformedEncodingLabel):
		return "malformed_encoding_label"
	case errors.Is(err, ErrBase64Malformed):
		return "base64_malformed"
	case errors.Is(err, ErrJSONMalformed):
		return "json_malformed"
	default:
		return "unknown"
	}
}
