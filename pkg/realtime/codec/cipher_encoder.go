package codec

import (
	"fmt"
	"strings"

	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

// CipherEncoder is only active when channel_options.encrypted is true
//. It converts a string payload to UTF-8
// bytes first (appending the utf-8 label itself, ahead of its own),
// then encrypts and appends "cipher+<algorithm>-<keybits>-<mode>".
type CipherEncoder struct {
	Factory CipherFactory
}

func NewCipherEncoder() *CipherEncoder {
	return &CipherEncoder{Factory: DefaultCipherFactory}
}

func (*CipherEncoder) Name() string { return "cipher" }

func (e *CipherEncoder) Encode(f Frame, opts proto.ChannelOptions, _ bool) error {
	if !opts.Encrypted {
		return nil
	}
	if opts.CipherParams == nil {
		return ErrEncryptionMisconfigured
	}

	data := f.PayloadData()
	var plaintext []byte
	switch v := data.(type) {
	case string:
		plaintext = []byte(v)
		f.SetPayloadEncoding(appendLabel(f.PayloadEncoding(), "utf-8"))
	case []byte:
		plaintext = v
	case nil:
		return nil
	default:
		return fmt.Errorf("%w: cipher encoder requires string or byte payload, got %T", ErrPayloadTypeUnsupported, v)
	}

	c, err := e.Factory(*opts.CipherParams)
	if err != nil {
		return err
	}
	ciphertext, err := c.Encrypt(plaintext)
	if err != nil {
		return err
	}

	f.SetPayloadData(ciphertext)
	f.SetPayloadEncoding(appendLabel(f.PayloadEncoding(), opts.CipherParams.Label()))
	return nil
}

func (*CipherEncoder) OwnsLabel(label string) bool {
	return strings.HasPrefix(label, "cipher+")
}

func (e *CipherEncoder) Decode(f Frame, opts proto.ChannelOptions) error {
	if opts.CipherParams == nil {
		return ErrEncryptionMisconfigured
	}
	ciphertext, ok := f.PayloadData().([]byte)
	if !ok {
		return fmt.Errorf("%w: cipher label on non-byte payload", ErrMalformedEncodingLabel)
	}

	c, err := e.Factory(*opts.CipherParams)
	if err != nil {
		return err
	}
	plaintext, err := c.Decrypt(ciphertext)
	if err != nil {
		return err
	}

	rest, _, _ := trailingLabel(f.PayloadEncoding())
	f.SetPayloadData(plaintext)
	f.SetPayloadEncoding(rest)
	return nil
}
