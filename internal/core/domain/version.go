// Package domain defines the core domain models for statevault.
package domain

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// ChecksumFragmentLen is the number of checksum hex characters carried in a version ID.
	ChecksumFragmentLen = 8

	// versionIDLen is ULID (26) + "-" (1) + checksum fragment (8).
	versionIDLen = 26 + 1 + ChecksumFragmentLen
)

// Version is an immutable, checksummed snapshot of state plus metadata and a parent link.
//
// Snapshot and Metadata are owned by the Version; accessors hand out deep copies so
// callers can never mutate a created version.
type Version struct {
	ID        string
	CreatedAt time.Time
	ParentID  string
	Checksum  string

	snapshot Snapshot
	metadata map[string]any
}

// NewVersion assembles a Version. The snapshot must already be normalized to the
// JSON value model; both maps are deep-copied.
func NewVersion(id string, createdAt time.Time, parentID string, snapshot Snapshot, metadata map[string]any, checksum string) *Version {
	return &Version{
		ID:        id,
		CreatedAt: createdAt.UTC(),
		ParentID:  parentID,
		Checksum:  checksum,
		snapshot:  snapshot.Clone(),
		metadata:  cloneMap(metadata),
	}
}

// Snapshot returns a copy of the captured state.
func (v *Version) Snapshot() Snapshot {
	return v.snapshot.Clone()
}

// Metadata returns a copy of the caller-supplied annotations.
func (v *Version) Metadata() map[string]any {
	return cloneMap(v.metadata)
}

// HasParent reports whether the version was created on top of another one.
func (v *Version) HasParent() bool {
	return v.ParentID != ""
}

// IsRollback reports whether the version was produced by a rollback.
func (v *Version) IsRollback() bool {
	_, ok := v.metadata[MetaRollbackFrom]
	return ok
}

// HistoryEntry is a single row of the version history.
type HistoryEntry struct {
	VersionID string    `json:"version_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Metadata keys written by the store itself.
const (
	MetaRollbackFrom      = "rollback_from"
	MetaRollbackTarget    = "rollback_target"
	MetaRollbackTimestamp = "rollback_timestamp"
)

// NewEntropy returns a monotonic ULID entropy source. It is not safe for concurrent use.
func NewEntropy() io.Reader {
	return ulid.Monotonic(rand.Reader, 0)
}

// NewVersionID derives a version ID from the creation time and the snapshot checksum.
// Format: {ulid_lowercase}-{checksum[:8]}, 35 characters total.
func NewVersionID(t time.Time, checksum string, entropy io.Reader) (string, error) {
	if len(checksum) < ChecksumFragmentLen {
		return "", ErrInvalidArgument.WithDetails("checksum too short for version id")
	}
	if entropy == nil {
		entropy = NewEntropy()
	}
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return strings.ToLower(id.String()) + "-" + strings.ToLower(checksum[:ChecksumFragmentLen]), nil
}

// IsValidVersionID checks the {ulid}-{hex8} shape of a version ID.
func IsValidVersionID(id string) bool {
	if len(id) != versionIDLen || id[26] != '-' {
		return false
	}
	if _, err := ulid.ParseStrict(strings.ToUpper(id[:26])); err != nil {
		return false
	}
	_, err := hex.DecodeString(id[27:])
	return err == nil
}

// VersionIDTime extracts the millisecond creation time encoded in a version ID.
func VersionIDTime(id string) (time.Time, bool) {
	if !IsValidVersionID(id) {
		return time.Time{}, false
	}
	u, err := ulid.ParseStrict(strings.ToUpper(id[:26]))
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(u.Time()).UTC(), true
}
