package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/yndnr/statevault/internal/core/domain"
	"github.com/yndnr/statevault/pkg/crypto/adaptive"
)

var testTime = time.Date(2026, 3, 4, 5, 6, 7, 890, time.UTC)

func testRecord(id string) *Record {
	parent := "parent-id"
	return &Record{
		VersionID: id,
		CreatedAt: testTime,
		Snapshot: domain.Snapshot{
			"hp":    json.Number("100"),
			"name":  "hero",
			"items": []any{"sword", json.Number("2.5")},
			"pos":   map[string]any{"x": json.Number("1"), "y": json.Number("-3")},
			"none":  nil,
		},
		ParentID:      &parent,
		Metadata:      map[string]any{"reason": "checkpoint"},
		Checksum:      "abcdef0123456789",
		HashAlgorithm: "sha256",
	}
}

func testCipher(t *testing.T) adaptive.Cipher {
	t.Helper()
	c, err := adaptive.NewWithType(make([]byte, 32), adaptive.CipherChaCha20)
	if err != nil {
		t.Fatalf("NewWithType() error = %v", err)
	}
	return c
}

type backendFactory func(t *testing.T, opts ...Option) RecordStore

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"file": func(t *testing.T, opts ...Option) RecordStore {
			s, err := NewFileStore(t.TempDir(), opts...)
			if err != nil {
				t.Fatalf("NewFileStore() error = %v", err)
			}
			return s
		},
		"badger": func(t *testing.T, opts ...Option) RecordStore {
			cfg := DefaultBadgerConfig("")
			cfg.InMemory = true
			s, err := NewBadgerStore(cfg, opts...)
			if err != nil {
				t.Fatalf("NewBadgerStore() error = %v", err)
			}
			return s
		},
		"sqlite": func(t *testing.T, opts ...Option) RecordStore {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "versions.db"), opts...)
			if err != nil {
				t.Fatalf("OpenSQLite() error = %v", err)
			}
			return s
		},
		"memory": func(t *testing.T, opts ...Option) RecordStore {
			return NewMemoryStore(opts...)
		},
	}
}

func TestRecordStores(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			t.Run("plain", func(t *testing.T) {
				s := factory(t)
				defer s.Close()
				exerciseStore(t, s)
			})
			t.Run("encrypted", func(t *testing.T) {
				s := factory(t, WithCipher(testCipher(t)))
				defer s.Close()
				exerciseStore(t, s)
			})
		})
	}
}

func exerciseStore(t *testing.T, s RecordStore) {
	ctx := context.Background()

	t.Run("Put and Get", func(t *testing.T) {
		rec := testRecord("01a-0001")
		if err := s.Put(ctx, rec); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		got, err := s.Get(ctx, rec.VersionID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !got.CreatedAt.Equal(rec.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
		}
		got.CreatedAt = rec.CreatedAt
		if !reflect.DeepEqual(got, rec) {
			t.Errorf("Get() = %+v, want %+v", got, rec)
		}
	})

	t.Run("Put existing", func(t *testing.T) {
		if err := s.Put(ctx, testRecord("01a-0001")); !errors.Is(err, ErrRecordExists) {
			t.Errorf("Put(duplicate) error = %v, want ErrRecordExists", err)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		if _, err := s.Get(ctx, "nope"); !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("Get(missing) error = %v, want ErrRecordNotFound", err)
		}
	})

	t.Run("List ascending", func(t *testing.T) {
		for _, id := range []string{"01c-0003", "01b-0002"} {
			if err := s.Put(ctx, testRecord(id)); err != nil {
				t.Fatalf("Put(%s) error = %v", id, err)
			}
		}
		ids, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		want := []string{"01a-0001", "01b-0002", "01c-0003"}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("List() = %v, want %v", ids, want)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.Delete(ctx, "01b-0002"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := s.Get(ctx, "01b-0002"); !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("Get(deleted) error = %v, want ErrRecordNotFound", err)
		}
		if err := s.Delete(ctx, "01b-0002"); !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("Delete(deleted) error = %v, want ErrRecordNotFound", err)
		}
	})

	t.Run("Invalid id", func(t *testing.T) {
		if err := s.Put(ctx, testRecord("../escape")); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Put(../escape) error = %v, want ErrInvalidID", err)
		}
		if _, err := s.Get(ctx, "backup..old"); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Get(backup..old) error = %v, want ErrInvalidID", err)
		}
		if err := s.Delete(ctx, "a/b"); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Delete(a/b) error = %v, want ErrInvalidID", err)
		}
	})

	t.Run("Closed", func(t *testing.T) {
		if err := s.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if _, err := s.Get(ctx, "01a-0001"); !errors.Is(err, ErrClosed) {
			t.Errorf("Get() after Close error = %v, want ErrClosed", err)
		}
		if err := s.Put(ctx, testRecord("01d-0004")); !errors.Is(err, ErrClosed) {
			t.Errorf("Put() after Close error = %v, want ErrClosed", err)
		}
	})
}

func TestOpen(t *testing.T) {
	for _, backend := range []string{"", BackendFile, BackendBadger, BackendSQLite, BackendMemory} {
		t.Run(fmt.Sprintf("backend=%q", backend), func(t *testing.T) {
			s, err := Open(backend, t.TempDir())
			if err != nil {
				t.Fatalf("Open(%q) error = %v", backend, err)
			}
			defer s.Close()
			if err := s.Put(context.Background(), testRecord("id-1")); err != nil {
				t.Errorf("Put() error = %v", err)
			}
		})
	}

	if _, err := Open("etcd", t.TempDir()); err == nil {
		t.Error("Open(unknown) should fail")
	}
}

func TestOpen_BadgerTuning(t *testing.T) {
	s, err := Open(BackendBadger, t.TempDir(), WithBadgerTuning(false, 0))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	bs, ok := s.(*BadgerStore)
	if !ok {
		t.Fatalf("Open(badger) = %T, want *BadgerStore", s)
	}
	if bs.cfg.SyncWrites || bs.cfg.GCInterval != 0 {
		t.Errorf("cfg = %+v, want tuning applied", bs.cfg)
	}
}

func TestRecordFromVersion(t *testing.T) {
	v := domain.NewVersion("v2", testTime, "v1", domain.Snapshot{"a": "b"}, map[string]any{"k": "v"}, "sum")
	rec := RecordFromVersion(v, "blake3")

	if rec.ParentID == nil || *rec.ParentID != "v1" {
		t.Errorf("ParentID = %v, want v1", rec.ParentID)
	}
	if rec.HashAlgorithm != "blake3" || rec.Checksum != "sum" {
		t.Errorf("record = %+v", rec)
	}

	back := rec.Version()
	if back.ID != "v2" || back.ParentID != "v1" || back.Snapshot()["a"] != "b" || back.Metadata()["k"] != "v" {
		t.Errorf("Version() = %+v", back)
	}

	root := RecordFromVersion(domain.NewVersion("v1", testTime, "", nil, nil, "sum"), "sha256")
	if root.ParentID != nil {
		t.Errorf("root ParentID = %v, want nil", *root.ParentID)
	}
	data, _ := MarshalRecord(root)
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if v, ok := raw["parent_version_id"]; !ok || v != nil {
		t.Errorf("parent_version_id = %v (present %v), want explicit null", v, ok)
	}
}

func TestUnmarshalRecord_Corrupt(t *testing.T) {
	tests := map[string]string{
		"truncated":  `{"version_id":"x","snapshot":{"hp":`,
		"not json":   `garbage`,
		"missing id": `{"snapshot":{}}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := UnmarshalRecord([]byte(data)); !errors.Is(err, ErrCorruptRecord) {
				t.Errorf("UnmarshalRecord() error = %v, want ErrCorruptRecord", err)
			}
		})
	}
}

func TestUnmarshalRecord_KeepsNumbers(t *testing.T) {
	rec, err := UnmarshalRecord([]byte(`{"version_id":"x","snapshot":{"big":12345678901234567890,"f":1.50}}`))
	if err != nil {
		t.Fatalf("UnmarshalRecord() error = %v", err)
	}
	if rec.Snapshot["big"] != json.Number("12345678901234567890") {
		t.Errorf("big = %#v", rec.Snapshot["big"])
	}
	if rec.Snapshot["f"] != json.Number("1.50") {
		t.Errorf("f = %#v", rec.Snapshot["f"])
	}
}

func TestCodec(t *testing.T) {
	c := testCipher(t)
	sealed := codec{cipher: c}
	plain := codec{}

	data, err := sealed.encode(testRecord("id-1"))
	if err != nil {
		t.Fatalf("encode() error = %v", err)
	}

	if _, err := plain.decode("id-1", data); !errors.Is(err, ErrKeyRequired) {
		t.Errorf("decode(sealed, no key) error = %v, want ErrKeyRequired", err)
	}
	if _, err := sealed.decode("id-2", data); !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("decode(sealed, wrong id) error = %v, want ErrCorruptRecord", err)
	}

	plainData, _ := plain.encode(testRecord("id-1"))
	if _, err := sealed.decode("id-1", plainData); !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("decode(plain, with key) error = %v, want ErrCorruptRecord", err)
	}
	if _, err := plain.decode("other", plainData); !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("decode(plain, wrong id) error = %v, want ErrCorruptRecord", err)
	}
}
