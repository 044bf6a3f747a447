package codec

import "github.com/sage-x-project/relay/pkg/realtime/proto"

// Cipher is the external collaborator consumed for symmetric
// encryption: encrypt/decrypt a byte payload, with the IV
// prepended to the ciphertext on the wire. Implementations are
// stateless aside from IV generation and must be safe for concurrent
// use.
type Cipher interface {
	Encrypt(plaintext []byte) (ciphertextWithIV []byte, err error)
	Decrypt(ciphertextWithIV []byte) (plaintext []byte, err error)
}

// CipherFactory constructs a Cipher from CipherParams. DefaultCipherFactory
// below is the default; callers may register other algorithms by supplying
// their own CipherFactory to Pipeline.WithCipherFactory.
type CipherFactory func(params proto.CipherParams) (Cipher, error)

// DefaultCipherFactory dispatches on params.Algorithm/Mode. Only
// AES-CBC is implemented; any other combination is a configuration
// error surfaced as EncryptionMisconfigured.
func DefaultCipherFactory(params proto.CipherParams) (Cipher, error) {
	switch {
	case params.Algorithm == "aes" && params.Mode == "cbc":
		return NewAESCBC(params)
	default:
		return nil, ErrEncryptionMisconfigured
	}
}
