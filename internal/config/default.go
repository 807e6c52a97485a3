package config

import "github.com/yndnr/snapmesh-go/internal/core/domain"

// Default configuration values.
const (
	DefaultDir       = "__snapshots__"
	DefaultExtension = "json"
	DefaultMode      = "test"
	DefaultCodec     = "json"
	DefaultOnMissing = domain.OnMissingFail

	DefaultBackend   = BackendFile
	DefaultBadgerDir = ".snapmesh/badger"

	DefaultBroadcastNetwork = "tcp"
	DefaultBroadcastAddr    = "127.0.0.1:5990"
	DefaultBroadcastRate    = 200
	DefaultBroadcastBurst   = 50

	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Snapshot: SnapshotSection{
			Dir:       DefaultDir,
			Extension: DefaultExtension,
			Mode:      DefaultMode,
			Codec:     DefaultCodec,
			OnMissing: DefaultOnMissing,
		},
		Storage: StorageSection{
			Backend:   DefaultBackend,
			BadgerDir: DefaultBadgerDir,
		},
		Broadcast: BroadcastSection{
			Network: DefaultBroadcastNetwork,
			Addr:    DefaultBroadcastAddr,
			Rate:    DefaultBroadcastRate,
			Burst:   DefaultBroadcastBurst,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
