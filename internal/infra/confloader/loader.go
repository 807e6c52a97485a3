package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "SNAPMESH_"

// Loader loads configuration from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	aliases   map[string]string
	listKeys  map[string]bool
	loaded    bool
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithEnvAlias maps a short variable name (without prefix) to a full key,
// e.g. WithEnvAlias("UPDATE", "snapshot.update") accepts SNAPMESH_UPDATE.
func WithEnvAlias(name, key string) Option {
	return func(l *Loader) {
		l.aliases[strings.ToUpper(name)] = key
	}
}

// WithListKeys marks keys whose environment values are comma separated lists.
func WithListKeys(keys ...string) Option {
	return func(l *Loader) {
		for _, k := range keys {
			l.listKeys[k] = true
		}
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
		aliases:   make(map[string]string),
		listKeys:  make(map[string]bool),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load loads configuration from all sources and unmarshals into target.
// Values already set in target act as defaults; the file overrides them and
// the environment overrides the file.
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		if err := l.LoadFile(l.filePath); err != nil {
			return fmt.Errorf("load config file: %w", err)
		}
	}

	if err := l.LoadEnv(); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	l.loaded = true
	return nil
}

// LoadFile loads configuration from a YAML file.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}

	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}

	return nil
}

// LoadEnv loads configuration from environment variables.
// The first underscore after the prefix separates the section from the key,
// so SNAPMESH_SNAPSHOT_TITLE_FILTER becomes snapshot.title_filter.
func (l *Loader) LoadEnv() error {
	provider := env.ProviderWithValue(l.envPrefix, ".", func(name, value string) (string, any) {
		key := l.envKey(name)
		if key == "" {
			return "", nil
		}
		if l.listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := l.k.Load(provider, nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	return nil
}

// envKey converts SNAPMESH_SECTION_SOME_KEY into section.some_key.
func (l *Loader) envKey(name string) string {
	bare := strings.TrimPrefix(name, l.envPrefix)
	if key, ok := l.aliases[bare]; ok {
		return key
	}

	bare = strings.ToLower(bare)
	section, rest, ok := strings.Cut(bare, "_")
	if !ok || section == "" || rest == "" {
		return bare
	}
	return section + "." + rest
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadMap loads configuration from a map (flags or testing).
func (l *Loader) LoadMap(data map[string]any) error {
	if err := l.k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	return nil
}

// Unmarshal unmarshals the loaded configuration into the target struct.
// Uses koanf tags for struct field mapping.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}

// Get returns a value from the configuration by key.
func (l *Loader) Get(key string) any {
	return l.k.Get(key)
}

// GetString returns a string value from the configuration.
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// GetInt returns an int value from the configuration.
func (l *Loader) GetInt(key string) int {
	return l.k.Int(key)
}

// GetBool returns a bool value from the configuration.
func (l *Loader) GetBool(key string) bool {
	return l.k.Bool(key)
}

// GetStrings returns a string slice from the configuration.
func (l *Loader) GetStrings(key string) []string {
	return l.k.Strings(key)
}

// IsLoaded returns true if configuration has been loaded.
func (l *Loader) IsLoaded() bool {
	return l.loaded
}

// Keys returns all configuration keys.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}
