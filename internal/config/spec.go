package config

import "github.com/yndnr/snapmesh-go/internal/core/domain"

// Config is the root configuration of the snapshot engine.
type Config struct {
	Snapshot  SnapshotSection  `koanf:"snapshot"`
	Storage   StorageSection   `koanf:"storage"`
	Broadcast BroadcastSection `koanf:"broadcast"`
	Log       LogSection       `koanf:"log"`
}

// SnapshotSection configures matching and recording.
type SnapshotSection struct {
	// Dir is the root for baseline files.
	Dir string `koanf:"dir"`

	// Extension is the baseline file extension (json, snap, ...).
	Extension string `koanf:"extension"`

	// Mode is one of test, record (drive), new, broadcast (tcp), both.
	Mode string `koanf:"mode"`

	// Update promotes test mode to record mode (SNAPMESH_SNAPSHOT_UPDATE).
	Update bool `koanf:"update"`

	// TitleFilter is a regular expression; during a record pass only
	// matching titles are written, the rest are compared.
	TitleFilter string `koanf:"title_filter"`

	// Codec is json or exports.
	Codec string `koanf:"codec"`

	// OmittedFields are content keys the codec leaves out of files. Nil
	// means domain.DefaultOmittedFields; an empty list writes every key.
	OmittedFields []string `koanf:"omitted_fields"`

	// OnMissing decides what a compare finds when no baseline exists:
	// "fail" raises, "record" writes the value and passes.
	OnMissing string `koanf:"on_missing"`

	// PersistNormalized rewrites the baseline as soon as the post-process
	// hook replaces the expected value.
	PersistNormalized bool `koanf:"persist_normalized"`
}

// StorageSection selects the baseline backend.
type StorageSection struct {
	// Backend is file or badger.
	Backend string `koanf:"backend"`

	// BadgerDir is the database directory for the badger backend.
	BadgerDir string `koanf:"badger_dir"`
}

// BroadcastSection configures the live channel used by broadcast/both.
type BroadcastSection struct {
	// Network is unix or tcp.
	Network string `koanf:"network"`

	// Addr is the socket path or host:port of the viewer.
	Addr string `koanf:"addr"`

	// Rate is the sustained messages per second; 0 disables limiting.
	Rate float64 `koanf:"rate"`

	// Burst is the limiter bucket size.
	Burst int `koanf:"burst"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Omitted returns the keys the codec leaves out, resolving a nil
// OmittedFields to domain.DefaultOmittedFields.
func (s SnapshotSection) Omitted() []string {
	if s.OmittedFields == nil {
		return append([]string(nil), domain.DefaultOmittedFields...)
	}
	return s.OmittedFields
}
