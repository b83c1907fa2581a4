// Package storage provides durable record stores for statevault versions.
//
// Every backend implements RecordStore and keeps one immutable record per
// version:
//
//   - FileStore: one JSON file per version, written via temp file + fsync + rename
//   - BadgerStore: dgraph-io/badger key "version/<id>"
//   - SQLiteStore: modernc.org/sqlite table "versions"
//   - MemoryStore: in-process map, for tests and throwaway stores
//
// Records may be sealed with an adaptive cipher. Sealed payloads start with
// the "SVENC1" magic and bind the version id as additional data.
package storage
