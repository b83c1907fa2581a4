package storage

import (
	"bytes"
	"fmt"

	"github.com/yndnr/statevault/pkg/crypto/adaptive"
)

// encryptedMagic prefixes sealed records.
var encryptedMagic = []byte("SVENC1")

// codec turns records into stored bytes, sealing them when a cipher is set.
// The version id is bound as additional data so a sealed record cannot be
// replayed under another id.
type codec struct {
	cipher adaptive.Cipher
}

func (c codec) encode(r *Record) ([]byte, error) {
	data, err := MarshalRecord(r)
	if err != nil {
		return nil, err
	}
	if c.cipher == nil {
		return data, nil
	}

	sealed, err := c.cipher.Encrypt(data, []byte(r.VersionID))
	if err != nil {
		return nil, fmt.Errorf("storage: encrypt record: %w", err)
	}
	out := make([]byte, 0, len(encryptedMagic)+len(sealed))
	out = append(out, encryptedMagic...)
	return append(out, sealed...), nil
}

func (c codec) decode(id string, data []byte) (*Record, error) {
	if bytes.HasPrefix(data, encryptedMagic) {
		if c.cipher == nil {
			return nil, ErrKeyRequired
		}
		plain, err := c.cipher.Decrypt(data[len(encryptedMagic):], []byte(id))
		if err != nil {
			return nil, fmt.Errorf("%w: decrypt: %v", ErrCorruptRecord, err)
		}
		data = plain
	} else if c.cipher != nil {
		return nil, fmt.Errorf("%w: expected encrypted record", ErrCorruptRecord)
	}

	r, err := UnmarshalRecord(data)
	if err != nil {
		return nil, err
	}
	if r.VersionID != id {
		return nil, fmt.Errorf("%w: record holds %q", ErrCorruptRecord, r.VersionID)
	}
	return r, nil
}
