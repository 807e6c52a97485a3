package config

import (
	"fmt"

	"github.com/yndnr/snapmesh-go/internal/infra/confloader"
)

// EnvPrefix is the environment variable prefix, e.g.
// SNAPMESH_SNAPSHOT_MODE=record. SNAPMESH_UPDATE is accepted as a short
// form of SNAPMESH_SNAPSHOT_UPDATE.
const EnvPrefix = "SNAPMESH_"

// Load builds the configuration from defaults, an optional YAML file and
// the environment, then verifies it.
func Load(path string) (*Config, error) {
	return LoadWithOverrides(path, nil)
}

// LoadWithOverrides is Load with a final layer of dotted keys, such as
// {"snapshot.dir": "testdata"}, taken from command-line flags.
func LoadWithOverrides(path string, overrides map[string]any) (*Config, error) {
	cfg := Default()

	l := confloader.NewLoader(
		confloader.WithEnvPrefix(EnvPrefix),
		confloader.WithConfigFile(path),
		confloader.WithEnvAlias("UPDATE", "snapshot.update"),
		confloader.WithListKeys("snapshot.omitted_fields"),
	)
	if path != "" {
		if err := l.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := l.LoadEnv(); err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		if err := l.LoadMap(overrides); err != nil {
			return nil, err
		}
	}
	if err := l.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("verify config: %w", err)
	}
	return cfg, nil
}
