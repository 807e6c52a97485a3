package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yndnr/snapmesh-go/internal/core/domain"
)

// knownModes lists every accepted snapshot.mode spelling.
var knownModes = map[string]bool{
	"test": true, "record": true, "drive": true, "new": true,
	"broadcast": true, "tcp": true, "both": true,
}

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifySnapshot(&cfg.Snapshot); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyBroadcast(&cfg.Broadcast)
}

func verifySnapshot(cfg *SnapshotSection) error {
	if cfg.Dir == "" {
		return errors.New("snapshot.dir is required")
	}
	if cfg.Extension == "" || strings.ContainsAny(cfg.Extension, `/\.`) {
		return fmt.Errorf("snapshot.extension %q is invalid", cfg.Extension)
	}
	if !knownModes[strings.ToLower(cfg.Mode)] {
		return fmt.Errorf("snapshot.mode %q is not one of test, record, new, broadcast, both", cfg.Mode)
	}
	switch cfg.Codec {
	case "json", "exports":
	default:
		return fmt.Errorf("snapshot.codec %q is not one of json, exports", cfg.Codec)
	}
	switch cfg.OnMissing {
	case domain.OnMissingFail, domain.OnMissingRecord:
	default:
		return fmt.Errorf("snapshot.on_missing %q is not one of fail, record", cfg.OnMissing)
	}
	if cfg.TitleFilter != "" {
		if _, err := regexp.Compile(cfg.TitleFilter); err != nil {
			return fmt.Errorf("snapshot.title_filter: %w", err)
		}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Backend {
	case BackendFile:
	case BackendBadger:
		if cfg.BadgerDir == "" {
			return errors.New("storage.badger_dir is required for the badger backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not one of file, badger", cfg.Backend)
	}
	return nil
}

func verifyBroadcast(cfg *BroadcastSection) error {
	switch cfg.Network {
	case "tcp", "unix":
	default:
		return fmt.Errorf("broadcast.network %q is not one of tcp, unix", cfg.Network)
	}
	if cfg.Rate < 0 {
		return errors.New("broadcast.rate must not be negative")
	}
	if cfg.Rate > 0 && cfg.Burst < 1 {
		return errors.New("broadcast.burst must be at least 1 when rate limiting")
	}
	return nil
}
