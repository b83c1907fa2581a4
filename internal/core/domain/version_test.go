package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

const testChecksum = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func TestNewVersionID(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := NewVersionID(now, testChecksum, nil)
	if err != nil {
		t.Fatalf("NewVersionID() error = %v", err)
	}
	if len(id) != versionIDLen {
		t.Errorf("ID length = %d, want %d", len(id), versionIDLen)
	}
	if !strings.HasSuffix(id, "-"+testChecksum[:ChecksumFragmentLen]) {
		t.Errorf("ID %q should end with checksum fragment", id)
	}
	if id != strings.ToLower(id) {
		t.Errorf("ID %q should be lowercase", id)
	}
	if !IsValidVersionID(id) {
		t.Errorf("IsValidVersionID(%q) = false", id)
	}

	got, ok := VersionIDTime(id)
	if !ok {
		t.Fatal("VersionIDTime() failed")
	}
	if !got.Equal(now) {
		t.Errorf("VersionIDTime() = %v, want %v", got, now)
	}
}

func TestNewVersionID_Unique(t *testing.T) {
	entropy := NewEntropy()
	now := time.Now()
	ids := make(map[string]bool)

	// Same time, same content: the monotonic entropy must still separate them.
	for i := 0; i < 1000; i++ {
		id, err := NewVersionID(now, testChecksum, entropy)
		if err != nil {
			t.Fatalf("NewVersionID() error = %v", err)
		}
		if ids[id] {
			t.Fatalf("duplicate ID generated: %q", id)
		}
		ids[id] = true
	}
}

func TestNewVersionID_ShortChecksum(t *testing.T) {
	_, err := NewVersionID(time.Now(), "abc", nil)
	if !IsDomainError(err, ErrInvalidArgument.Code) {
		t.Errorf("NewVersionID() error = %v, want ErrInvalidArgument", err)
	}
}

func TestIsValidVersionID(t *testing.T) {
	valid, _ := NewVersionID(time.Now(), testChecksum, nil)

	tests := []struct {
		id   string
		want bool
	}{
		{valid, true},
		{"", false},
		{"../../etc/passwd", false},
		{valid[:26], false},
		{valid[:26] + "_" + valid[27:], false},
		{valid[:27] + "zzzzzzzz", false},
		{"00000000000000000000000000-deadbeef", true},
	}

	for _, tt := range tests {
		if got := IsValidVersionID(tt.id); got != tt.want {
			t.Errorf("IsValidVersionID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestVersion_SnapshotIsCopied(t *testing.T) {
	input := Snapshot{
		"hp":     json.Number("100"),
		"nested": map[string]any{"x": json.Number("1")},
		"list":   []any{"a", "b"},
	}
	v := NewVersion("id", time.Now(), "", input, map[string]any{"note": "first"}, testChecksum)

	// Mutating the constructor input must not reach the version.
	input["hp"] = json.Number("1")
	input["nested"].(map[string]any)["x"] = json.Number("2")

	snap := v.Snapshot()
	if snap["hp"] != json.Number("100") {
		t.Errorf("hp = %v, want 100", snap["hp"])
	}
	if snap["nested"].(map[string]any)["x"] != json.Number("1") {
		t.Errorf("nested.x changed through caller alias")
	}

	// Mutating an accessor result must not reach the version either.
	snap["list"].([]any)[0] = "z"
	meta := v.Metadata()
	meta["note"] = "changed"

	if v.Snapshot()["list"].([]any)[0] != "a" {
		t.Error("list element changed through accessor alias")
	}
	if v.Metadata()["note"] != "first" {
		t.Error("metadata changed through accessor alias")
	}
}

func TestVersion_Flags(t *testing.T) {
	root := NewVersion("a", time.Now(), "", Snapshot{}, nil, testChecksum)
	if root.HasParent() || root.IsRollback() {
		t.Error("root version should have no parent and not be a rollback")
	}

	rb := NewVersion("b", time.Now(), "a", Snapshot{}, map[string]any{MetaRollbackFrom: "a"}, testChecksum)
	if !rb.HasParent() || !rb.IsRollback() {
		t.Error("rollback version should have a parent and rollback flag")
	}
}

func TestSnapshot_Keys(t *testing.T) {
	s := Snapshot{"b": 1, "a": 2, "c": 3}
	got := strings.Join(s.Keys(), ",")
	if got != "a,b,c" {
		t.Errorf("Keys() = %q, want %q", got, "a,b,c")
	}
}

func TestStateDiff_IsEmpty(t *testing.T) {
	d := &StateDiff{}
	if !d.IsEmpty() || d.ChangeCount() != 0 {
		t.Error("zero StateDiff should be empty")
	}

	d.Removed = []string{"x"}
	d.Added = map[string]any{"y": true}
	if d.IsEmpty() || d.ChangeCount() != 2 {
		t.Errorf("ChangeCount() = %d, want 2", d.ChangeCount())
	}
}
