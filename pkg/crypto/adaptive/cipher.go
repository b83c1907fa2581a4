// Package adaptive provides authenticated encryption for records at rest.
//
// AES-GCM is preferred where the platform accelerates AES; ChaCha20-Poly1305
// is used elsewhere or when asked for explicitly.
package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// ErrCiphertextTooShort is returned when the input cannot hold a nonce.
var ErrCiphertextTooShort = errors.New("adaptive: ciphertext too short")

// Cipher provides authenticated encryption. Output is nonce || sealed.
type Cipher interface {
	Type() CipherType
	Encrypt(plaintext, additionalData []byte) ([]byte, error)
	Decrypt(ciphertext, additionalData []byte) ([]byte, error)
	NonceSize() int
	Overhead() int
}

// ParseCipherType resolves a configured algorithm name. Empty means Preferred().
func ParseCipherType(name string) (CipherType, error) {
	switch CipherType(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return Preferred(), nil
	case CipherAESGCM, "aes", "aes-256-gcm":
		return CipherAESGCM, nil
	case CipherChaCha20, "chacha20":
		return CipherChaCha20, nil
	default:
		return "", fmt.Errorf("adaptive: unknown cipher type %q", name)
	}
}

// Preferred returns the cipher best suited to the running platform.
func Preferred() CipherType {
	// Go uses AES-NI on amd64 and the ARMv8 crypto extensions on arm64.
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return CipherAESGCM
	default:
		return CipherChaCha20
	}
}

// New creates a cipher of the preferred type.
func New(key []byte) (Cipher, error) {
	return NewWithType(key, Preferred())
}

// NewWithType creates a cipher of the given type.
func NewWithType(key []byte, t CipherType) (Cipher, error) {
	switch t {
	case CipherAESGCM:
		return NewAESGCM(key)
	case CipherChaCha20:
		return NewChaCha20(key)
	default:
		return nil, fmt.Errorf("adaptive: unknown cipher type %q", t)
	}
}

// NewAESGCM creates an AES-GCM cipher. Key must be 16, 24 or 32 bytes.
func NewAESGCM(key []byte) (Cipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, errors.New("adaptive: AES-GCM key must be 16, 24 or 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &aeadCipher{typ: CipherAESGCM, aead: aead}, nil
}

// NewChaCha20 creates a ChaCha20-Poly1305 cipher. Key must be 32 bytes.
func NewChaCha20(key []byte) (Cipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.New("adaptive: ChaCha20-Poly1305 key must be 32 bytes")
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return &aeadCipher{typ: CipherChaCha20, aead: aead}, nil
}

type aeadCipher struct {
	typ  CipherType
	aead cipher.AEAD
}

func (c *aeadCipher) Type() CipherType { return c.typ }
func (c *aeadCipher) NonceSize() int   { return c.aead.NonceSize() }
func (c *aeadCipher) Overhead() int    { return c.aead.Overhead() }

func (c *aeadCipher) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (c *aeadCipher) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(ciphertext) < n {
		return nil, ErrCiphertextTooShort
	}
	return c.aead.Open(nil, ciphertext[:n], ciphertext[n:], additionalData)
}
