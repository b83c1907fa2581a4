package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yndnr/statevault/internal/core/domain"
)

// Common errors
var (
	ErrRecordNotFound = errors.New("storage: record not found")
	ErrRecordExists   = errors.New("storage: record already exists")
	ErrCorruptRecord  = errors.New("storage: record is corrupt")
	ErrKeyRequired    = errors.New("storage: record is encrypted and no key is configured")
	ErrInvalidID      = errors.New("storage: invalid version id")
	ErrClosed         = errors.New("storage: store closed")
)

// Record is the durable form of a version. One record is kept per version.
type Record struct {
	VersionID     string          `json:"version_id"`
	CreatedAt     time.Time       `json:"created_at"`
	Snapshot      domain.Snapshot `json:"snapshot"`
	ParentID      *string         `json:"parent_version_id"`
	Metadata      map[string]any  `json:"metadata"`
	Checksum      string          `json:"checksum"`
	HashAlgorithm string          `json:"hash_algorithm,omitempty"`
}

// RecordFromVersion builds the durable record for v.
func RecordFromVersion(v *domain.Version, hashAlgorithm string) *Record {
	r := &Record{
		VersionID:     v.ID,
		CreatedAt:     v.CreatedAt,
		Snapshot:      v.Snapshot(),
		Metadata:      v.Metadata(),
		Checksum:      v.Checksum,
		HashAlgorithm: hashAlgorithm,
	}
	if v.HasParent() {
		parent := v.ParentID
		r.ParentID = &parent
	}
	return r
}

// Version converts the record back to a domain version. It does not verify the checksum.
func (r *Record) Version() *domain.Version {
	var parent string
	if r.ParentID != nil {
		parent = *r.ParentID
	}
	return domain.NewVersion(r.VersionID, r.CreatedAt, parent, r.Snapshot, r.Metadata, r.Checksum)
}

// RecordStore persists records keyed by version id.
//
// Records are immutable: Put never replaces an existing record. List returns
// ids in ascending order, which is creation order for ULID-based ids.
type RecordStore interface {
	Put(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// MarshalRecord encodes a record as JSON.
func MarshalRecord(r *Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("storage: marshal record: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalRecord decodes a JSON record. Numbers are kept as json.Number so
// that re-serialization reproduces the stored digits exactly.
func UnmarshalRecord(data []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if r.VersionID == "" {
		return nil, fmt.Errorf("%w: missing version_id", ErrCorruptRecord)
	}
	return &r, nil
}

// checkID rejects ids that cannot be used as a file name or key.
func checkID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
