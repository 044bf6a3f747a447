package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

// AESCBC implements Cipher using AES in CBC mode with PKCS7 padding,
// the protocol's default cipher. crypto/cipher's block modes do not
// include a PKCS7 implementation, so padding is done here.
type AESCBC struct {
	block   cipher.Block
	ivFixed []byte // set only when CipherParams.IV was supplied explicitly
}

// NewAESCBC builds an AESCBC cipher from params. Key must be 16, 24 or
// 32 bytes (AES-128, AES-192 or AES-256); params.KeyLength is not
// checked against it.
func NewAESCBC(params proto.CipherParams) (*AESCBC, error) {
	block, err := aes.NewCipher(params.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipherFailure, err)
	}
	return &AESCBC{block: block, ivFixed: params.IV}, nil
}

func (c *AESCBC) Encrypt(plaintext []byte) ([]byte, error) {
	iv := c.ivFixed
	if len(iv) == 0 {
		iv = make([]byte, aes.BlockSize)
		if _, err := io.ReadFull(rand.Reader, iv); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCipherFailure, err)
		}
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes", ErrCipherFailure, aes.BlockSize)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(c.block, iv)
	mode.CryptBlocks(ciphertext, padded)

	out := make([]byte, len(iv)+len(ciphertext))
	copy(out, iv)
	copy(out[len(iv):], ciphertext)
	return out, nil
}

func (c *AESCBC) Decrypt(data []byte) ([]byte, error) {
	if len(data) < aes.BlockSize || (len(data)-aes.BlockSize)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length invalid", ErrCipherFailure)
	}
	iv := data[:aes.BlockSize]
	ciphertext := data[aes.BlockSize:]

	plaintext := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(c.block, iv)
	mode.CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipherFailure, err)
	}
	return unpadded, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(data))
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, fmt.Errorf("invalid padding byte %d", padLen)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("invalid padding content")
		}
	}
	return data[:len(data)-padLen], nil
}
