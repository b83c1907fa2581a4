// Package domain defines the core domain models for statevault.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Version: immutable, checksummed snapshot with parent link and metadata
//   - Snapshot: the opaque keyed state payload and its deep-copy helpers
//   - StateDiff: added/modified/removed top-level keys between two versions
//   - Errors: domain-specific error definitions
//
// Version IDs are {ulid}-{checksum[:8]}: the ULID carries the creation
// millisecond and monotonic entropy, the suffix ties the ID to its content.
package domain
