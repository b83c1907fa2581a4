package domain

import (
	"sort"
	"time"
)

// Snapshot is the opaque keyed payload captured by a Version.
//
// Values follow the JSON value model: nil, bool, json.Number, string, []any and
// map[string]any. Use integrity.Normalize to bring arbitrary Go values into that model.
type Snapshot map[string]any

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = CloneValue(v)
	}
	return out
}

// Keys returns the snapshot keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CloneValue deep-copies a JSON-model value. Other types are returned as is.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Snapshot:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// ValueChange carries both sides of a modified key.
type ValueChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// StateDiff describes the top-level difference between two versions' snapshots.
// It is computed on demand and never persisted.
type StateDiff struct {
	FromID     string                 `json:"from_version_id"`
	ToID       string                 `json:"to_version_id"`
	Added      map[string]any         `json:"added"`
	Modified   map[string]ValueChange `json:"modified"`
	Removed    []string               `json:"removed"`
	ComputedAt time.Time              `json:"computed_at"`
}

// IsEmpty reports whether the two snapshots were identical.
func (d *StateDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Removed) == 0
}

// ChangeCount returns the total number of changed keys.
func (d *StateDiff) ChangeCount() int {
	return len(d.Added) + len(d.Modified) + len(d.Removed)
}
