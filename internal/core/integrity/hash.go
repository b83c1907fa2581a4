package integrity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
)

// Algorithm names a supported digest.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	BLAKE3 Algorithm = "blake3"

	// DefaultAlgorithm is used when no algorithm is configured.
	DefaultAlgorithm = SHA256
)

// ParseAlgorithm resolves a configured algorithm name. Empty means DefaultAlgorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return DefaultAlgorithm, nil
	case SHA256:
		return SHA256, nil
	case BLAKE3:
		return BLAKE3, nil
	default:
		return "", fmt.Errorf("integrity: unsupported hash algorithm %q", name)
	}
}

func (a Algorithm) newHash() hash.Hash {
	switch a {
	case BLAKE3:
		return blake3.New()
	default:
		return sha256.New()
	}
}

// Size returns the digest size in bytes (32 for both algorithms).
func (a Algorithm) Size() int {
	return a.newHash().Size()
}

// HashBytes returns the hex-encoded digest of data.
func (a Algorithm) HashBytes(data []byte) string {
	h := a.newHash()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// equalHex compares two hex digests in constant time, ignoring case.
func equalHex(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(a)), []byte(strings.ToLower(b))) == 1
}
