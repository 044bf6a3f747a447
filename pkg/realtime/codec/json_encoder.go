package codec

import (
	"encoding/json"
	"fmt"

	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

// JSONEncoder replaces a structured value payload (map, slice) with its
// JSON text representation, and rejects payload types that may never be
// sent directly.
type JSONEncoder struct{}

func (JSONEncoder) Name() string { return "json" }

func (JSONEncoder) Encode(f Frame, _ proto.ChannelOptions, _ bool) error {
	data := f.PayloadData()
	switch data.(type) {
	case nil, string, []byte:
		return nil
	case map[string]interface{}, []interface{}:
		text, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrJSONMalformed, err)
		}
		f.SetPayloadData(string(text))
		f.SetPayloadEncoding(appendLabel(f.PayloadEncoding(), "json"))
		return nil
	default:
		if isUnsupportedScalar(data) {
			return ErrPayloadTypeUnsupported
		}
		return fmt.Errorf("%w: unrecognized payload type %T", ErrPayloadTypeUnsupported, data)
	}
}

func (JSONEncoder) OwnsLabel(label string) bool { return label == "json" }

func (JSONEncoder) Decode(f Frame, _ proto.ChannelOptions) error {
	text, ok := f.PayloadData().(string)
	if !ok {
		return fmt.Errorf("%w: json label on non-string payload", ErrJSONMalformed)
	}
	rest, _, _ := trailingLabel(f.PayloadEncoding())

	var value interface{}
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return fmt.Errorf("%w: %v", ErrJSONMalformed, err)
	}
	f.SetPayloadData(value)
	f.SetPayloadEncoding(rest)
	return nil
}

// isUnsupportedScalar reports whether v is a raw numeric, boolean, date,
// or small-integer scalar, which the unsupported payload
// policy forbids as a top-level payload.
func isUnsupportedScalar(v interface{}) bool {
	switch v.(type) {
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	if _, ok := v.(interface{ IsZero() bool }); ok {
		// time.Time and similar date-shaped values.
		return true
	}
	return false
}
