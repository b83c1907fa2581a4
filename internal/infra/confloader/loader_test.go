package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Storage struct {
		Root        string        `koanf:"root"`
		MaxVersions int           `koanf:"max_versions"`
		GCInterval  time.Duration `koanf:"gc_interval"`
	} `koanf:"storage"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statevault.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/path/to/config.yaml"))
	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.filePath != "/path/to/config.yaml" {
		t.Errorf("filePath = %q, want %q", l.filePath, "/path/to/config.yaml")
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"STATEVAULT_STORAGE_MAX_VERSIONS", "storage.max_versions"},
		{"STATEVAULT_LOG_LEVEL", "log.level"},
		{"STATEVAULT_SECURITY_ENCRYPTION_KEY", "security.encryption_key"},
		{"STATEVAULT_DEBUG", "debug"},
	}
	for _, tt := range tests {
		if got := EnvKey(DefaultEnvPrefix, tt.name); got != tt.want {
			t.Errorf("EnvKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  root: /var/lib/statevault
  max_versions: 5
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if root := l.GetString("storage.root"); root != "/var/lib/statevault" {
		t.Errorf("storage.root = %q, want %q", root, "/var/lib/statevault")
	}
	if n := l.GetInt("storage.max_versions"); n != 5 {
		t.Errorf("storage.max_versions = %d, want 5", n)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() should return error for nonexistent file")
	}
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v, want nil", err)
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("STATEVAULT_STORAGE_MAX_VERSIONS", "7")
	t.Setenv("STATEVAULT_LOG_LEVEL", "debug")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := l.GetString("storage.max_versions"); got != "7" {
		t.Errorf("storage.max_versions = %q, want %q", got, "7")
	}
	if got := l.GetString("log.level"); got != "debug" {
		t.Errorf("log.level = %q, want %q", got, "debug")
	}
}

func TestLoader_LoadMap_Nested(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"storage.root": "/data", "log.level": "warn"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	var cfg testConfig
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Storage.Root != "/data" || cfg.Log.Level != "warn" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
storage:
  root: from-file
  max_versions: 10
log:
  level: warn
`)
	t.Setenv("STATEVAULT_STORAGE_MAX_VERSIONS", "20")
	t.Setenv("STATEVAULT_STORAGE_ROOT", "from-env")

	l := NewLoader(
		WithDefaults(map[string]any{
			"storage.root":         "from-default",
			"storage.max_versions": 1,
			"storage.gc_interval":  "1m",
			"log.level":            "info",
		}),
		WithConfigFile(path),
		WithOverrides(map[string]any{"storage.root": "from-flag"}),
	)

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Root != "from-flag" {
		t.Errorf("Root = %q, want from-flag (override beats env)", cfg.Storage.Root)
	}
	if cfg.Storage.MaxVersions != 20 {
		t.Errorf("MaxVersions = %d, want 20 (env beats file)", cfg.Storage.MaxVersions)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q, want warn (file beats default)", cfg.Log.Level)
	}
	if cfg.Storage.GCInterval != time.Minute {
		t.Errorf("GCInterval = %v, want 1m (default)", cfg.Storage.GCInterval)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() = false after Load()")
	}
}

func TestLoader_Load_BadFile(t *testing.T) {
	path := writeConfig(t, "storage: [unclosed")

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestLoader_Keys(t *testing.T) {
	l := NewLoader()
	_ = l.LoadMap(map[string]any{"a.b": 1, "c": 2})

	if keys := l.Keys(); len(keys) != 2 {
		t.Errorf("Keys() = %v, want 2 keys", keys)
	}
	if l.Get("a.b") == nil {
		t.Error("Get(a.b) = nil")
	}
}
