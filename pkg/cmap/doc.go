// Package cmap provides a string-keyed map sharded across RWMutex-guarded
// buckets.
//
// Keys hash to a shard with hash/maphash, so unrelated keys rarely contend:
//
//	m := cmap.New[[]byte]()
//	if !m.SetIfAbsent(id, data) {
//		// already present
//	}
//	data, ok := m.Get(id)
//
// All operations are safe for concurrent use. Count and Keys visit shards one
// at a time and may observe concurrent writes partially.
package cmap
