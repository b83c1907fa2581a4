package adaptive

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrKeyTooShort       = errors.New("adaptive: key too short (minimum 16 bytes)")
	ErrPassphraseTooWeak = errors.New("adaptive: passphrase too weak (minimum 8 characters)")
	ErrSaltRequired      = errors.New("adaptive: passphrase needs a salt to reproduce the key")
)

const (
	MinKeyLength        = 16
	MinPassphraseLength = 8
	SaltLength          = 16

	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
)

// KeyConfig describes where key material comes from. Passphrase wins over Key.
type KeyConfig struct {
	Key        []byte
	Passphrase []byte
	Salt       []byte
	Algorithm  string

	// Purpose is the HKDF info string. Different purposes yield independent keys
	// from the same master key.
	Purpose string
}

// Enabled reports whether any key material is configured.
func (c KeyConfig) Enabled() bool {
	return len(c.Key) > 0 || len(c.Passphrase) > 0
}

// Validate checks lengths without deriving anything.
func (c KeyConfig) Validate() error {
	if _, err := ParseCipherType(c.Algorithm); err != nil {
		return err
	}
	if len(c.Passphrase) > 0 {
		if len(c.Passphrase) < MinPassphraseLength {
			return ErrPassphraseTooWeak
		}
		if len(c.Salt) < SaltLength {
			return ErrSaltRequired
		}
		return nil
	}
	if len(c.Key) > 0 && len(c.Key) < MinKeyLength {
		return ErrKeyTooShort
	}
	return nil
}

// FromConfig builds a cipher from cfg. It returns (nil, nil) when no key material is set.
//
// The master key (raw or Argon2id-derived) is never used directly: a 32-byte
// subkey is expanded from it with HKDF-SHA256 using cfg.Purpose.
func FromConfig(cfg KeyConfig) (Cipher, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	typ, err := ParseCipherType(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	master := cfg.Key
	if len(cfg.Passphrase) > 0 {
		master = DeriveKey(cfg.Passphrase, cfg.Salt)
		defer Zero(master)
	}

	key, err := DeriveSubkey(master, cfg.Purpose, 32)
	if err != nil {
		return nil, err
	}
	defer Zero(key)
	return NewWithType(key, typ)
}

// DeriveKey derives a 32-byte key from a passphrase using Argon2id.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
}

// DeriveSubkey expands masterKey into a purpose-bound subkey using HKDF-SHA256.
func DeriveSubkey(masterKey []byte, info string, length int) ([]byte, error) {
	if len(masterKey) < MinKeyLength {
		return nil, ErrKeyTooShort
	}
	r := hkdf.New(sha256.New, masterKey, nil, []byte(info))
	key := make([]byte, length)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("adaptive: derive subkey: %w", err)
	}
	return key, nil
}

// GenerateKey returns length random bytes.
func GenerateKey(length int) ([]byte, error) {
	if length < MinKeyLength {
		return nil, ErrKeyTooShort
	}
	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("adaptive: generate key: %w", err)
	}
	return key, nil
}

// GenerateSalt returns a fresh random salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("adaptive: generate salt: %w", err)
	}
	return salt, nil
}

// DecodeKey accepts key material as hex or standard base64.
func DecodeKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if b, err := hex.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return nil, errors.New("adaptive: key must be hex or base64")
}

// Zero overwrites key in place.
func Zero(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
