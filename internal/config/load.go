package config

import (
	"github.com/yndnr/statevault/internal/infra/confloader"
)

// Load reads configuration from defaults, the YAML file at path (optional),
// STATEVAULT_ environment variables and overrides, in increasing priority.
// The result is not verified; call Verify before use.
func Load(path string, overrides map[string]any) (*Config, error) {
	l := confloader.NewLoader(
		confloader.WithDefaults(ToMap(Default())),
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	)

	cfg := &Config{}
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
