// Package service provides the version store and the policies that act on it.
//
// This package contains:
//
//   - VersionStore: creates, persists, loads and indexes versions, and owns
//     the history and the current-version pointer
//   - RetentionPolicy: bounds the number of kept versions, evicting the oldest
//   - RollbackManager: restores an older snapshot as a new version
//
// The store assumes a single logical writer. Read operations (history, diff,
// load) may run concurrently with each other.
package service
