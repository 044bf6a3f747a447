package codec

import "github.com/sage-x-project/relay/pkg/realtime/proto"

// Frame is the minimal surface an Encoder needs: a mutable data/encoding
// pair plus the channel options governing it. Message and
// PresenceMessage both satisfy it via the accessor adapters below.
type Frame interface {
	PayloadData() interface{}
	SetPayloadData(interface{})
	PayloadEncoding() string
	SetPayloadEncoding(string)
}

// Encoder is one link in the codec chain. Label detection belongs in
// each encoder (OwnsLabel), not a central dispatcher, so the chain stays
// open to new encoders.
type Encoder interface {
	Name() string

	// Encode applies this encoder's forward transform if it is
	// applicable to the frame's current payload, mutating data and
	// appending a label. wireIsText reports whether the active
	// Serializer produces a text wire format (only the base64 encoder
	// cares).
	Encode(f Frame, opts proto.ChannelOptions, wireIsText bool) error

	// OwnsLabel reports whether label is one this encoder produced, so
	// Decode should be invoked to reverse it.
	OwnsLabel(label string) bool

	// Decode reverses this encoder's transform. It is only ever called
	// when OwnsLabel matched the current trailing label.
	Decode(f Frame, opts proto.ChannelOptions) error
}

type messageFrame struct{ m *proto.Message }

func (f messageFrame) PayloadData() interface{}     { return f.m.Data }
func (f messageFrame) SetPayloadData(v interface{}) { f.m.Data = v }
func (f messageFrame) PayloadEncoding() string      { return f.m.Encoding }
func (f messageFrame) SetPayloadEncoding(e string)  { f.m.Encoding = e }

type presenceFrame struct{ p *proto.PresenceMessage }

func (f presenceFrame) PayloadData() interface{}     { return f.p.Data }
func (f presenceFrame) SetPayloadData(v interface{}) { f.p.Data = v }
func (f presenceFrame) PayloadEncoding() string      { return f.p.Encoding }
func (f presenceFrame) SetPayloadEncoding(e string)  { f.p.Encoding = e }
