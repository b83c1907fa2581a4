// Package integrity computes and checks content checksums for snapshots.
//
// A snapshot is serialized canonically (encoding/json: map keys sorted, no
// HTML escaping, no trailing newline) and hashed. Two snapshots with the same
// logical content produce the same digest regardless of key insertion order.
package integrity

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/yndnr/statevault/internal/core/domain"
)

// Verifier stamps and checks snapshot checksums.
type Verifier struct {
	algo Algorithm
}

// New creates a verifier for the named algorithm ("sha256", "blake3").
func New(algorithm string) (*Verifier, error) {
	algo, err := ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	return &Verifier{algo: algo}, nil
}

// Default returns a SHA-256 verifier.
func Default() *Verifier {
	return &Verifier{algo: DefaultAlgorithm}
}

// Algorithm returns the digest algorithm in use.
func (v *Verifier) Algorithm() Algorithm {
	return v.algo
}

// Normalize deep-copies state into the JSON value model (nil, bool,
// json.Number, string, []any, map[string]any). Values without a canonical
// form (NaN, Inf, channels, funcs, complex numbers, strings or keys that are
// not valid UTF-8) yield ErrNonCanonical.
func (v *Verifier) Normalize(state map[string]any) (domain.Snapshot, error) {
	return Normalize(state)
}

// Checksum returns the hex digest of the canonical serialization of s.
func (v *Verifier) Checksum(s domain.Snapshot) (string, error) {
	data, err := Canonical(s)
	if err != nil {
		return "", err
	}
	return v.algo.HashBytes(data), nil
}

// Verify recomputes the checksum of s and compares it with want.
func (v *Verifier) Verify(s domain.Snapshot, want string) error {
	got, err := v.Checksum(s)
	if err != nil {
		return err
	}
	if !equalHex(got, want) {
		return domain.ErrIntegrityViolation.WithDetails(fmt.Sprintf("checksum %s, recomputed %s", short(want), short(got)))
	}
	return nil
}

// Normalize is the package-level form of Verifier.Normalize.
func Normalize(state map[string]any) (domain.Snapshot, error) {
	if state == nil {
		return domain.Snapshot{}, nil
	}
	data, err := marshal(state)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, domain.ErrNonCanonical.WithCause(err)
	}
	return domain.Snapshot(out), nil
}

// Canonical returns the canonical serialization of a snapshot.
func Canonical(s domain.Snapshot) ([]byte, error) {
	if s == nil {
		s = domain.Snapshot{}
	}
	return marshal(map[string]any(s))
}

// CanonicalValue returns the canonical serialization of a single value.
func CanonicalValue(value any) ([]byte, error) {
	return marshal(value)
}

// Equal reports structural equality of two values by comparing their
// canonical forms. An int and the json.Number holding the same literal are equal.
func Equal(a, b any) bool {
	ab, errA := marshal(a)
	bb, errB := marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

func marshal(value any) ([]byte, error) {
	if err := checkText(value); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, domain.ErrNonCanonical.WithCause(err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func short(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
