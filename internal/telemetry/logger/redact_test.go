package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestRedactSensitive_SensitiveKeyName(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		key   string
		value string
	}{
		{"passphrase", "correct horse"},
		{"encryption_key", "00112233"},
		{"db_password", "hunter2"},
		{"client_secret", "s3cr3t"},
		{"api_key", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			buf.Reset()
			l.Info("test", tt.key, tt.value)

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("Failed to parse JSON log: %v", err)
			}
			if entry[tt.key] != redactedValue {
				t.Errorf("Key %q should be redacted, got %v", tt.key, entry[tt.key])
			}
		})
	}
}

func TestRedactSensitive_NormalValues(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})

	l.Info("version created", "version_id", "01j0-deadbeef", "checksum", "abc123", "key", "hp")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	for k, want := range map[string]string{"version_id": "01j0-deadbeef", "checksum": "abc123", "key": "hp"} {
		if entry[k] != want {
			t.Errorf("%s = %v, want %s", k, entry[k], want)
		}
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	a := slog.Group("security", slog.String("passphrase", "x"), slog.String("algorithm", "aes-gcm"))
	got := redactSensitive(a).Value.Group()

	if got[0].Value.String() != redactedValue {
		t.Errorf("grouped passphrase = %q, want redacted", got[0].Value.String())
	}
	if got[1].Value.String() != "aes-gcm" {
		t.Errorf("grouped algorithm = %q, want aes-gcm", got[1].Value.String())
	}
}

func TestRedactSensitive_EmptyValue(t *testing.T) {
	a := redactSensitive(slog.String("passphrase", ""))
	if a.Value.String() != "" {
		t.Errorf("empty value should stay empty, got %q", a.Value.String())
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"PASSPHRASE", true},
		{"Encryption_Key", true},
		{"token", true},
		{"version_id", false},
		{"key", false},
		{"max_versions", false},
	}

	for _, tt := range tests {
		if got := IsSensitiveKey(tt.key); got != tt.want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
