package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yndnr/snapmesh-go/internal/telemetry/logger"
)

// ErrNotFound is returned by Read when no data is stored under the name.
var ErrNotFound = errors.New("storage: not found")

// Lister is implemented by backends that can enumerate stored names.
type Lister interface {
	Names(prefix string) ([]string, error)
}

// Backend stores whole baseline files addressed by their path.
type Backend interface {
	// Read returns the stored bytes, or ErrNotFound.
	Read(name string) ([]byte, error)

	// Write replaces the stored bytes.
	Write(name string, data []byte) error

	// Close releases backend resources.
	Close() error
}

// FileBackend implements Backend on the local filesystem.
type FileBackend struct {
	// DirPerm is used when creating parent directories.
	DirPerm os.FileMode
	// FilePerm is used for written files.
	FilePerm os.FileMode
}

// NewFileBackend creates a filesystem backend with default permissions.
func NewFileBackend() *FileBackend {
	return &FileBackend{DirPerm: 0o755, FilePerm: 0o644}
}

// Read reads a file.
func (b *FileBackend) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Write writes a file atomically, creating its directory when missing.
func (b *FileBackend) Write(name string, data []byte) error {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, b.DirPerm); err != nil {
		return fmt.Errorf("storage: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(name)+".*.tmp")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write: %w", err)
	}
	if err := tmp.Chmod(b.FilePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close: %w", err)
	}
	if err := os.Rename(tmpPath, name); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}

// Names lists regular files whose path starts with prefix. Only the
// directory containing prefix is scanned. A missing directory yields no
// names.
func (b *FileBackend) Names(prefix string) ([]string, error) {
	dir := filepath.Dir(prefix)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := filepath.Join(dir, e.Name())
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}

// Close is a no-op for files.
func (b *FileBackend) Close() error {
	return nil
}

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindBadger = "badger"
)

// Open creates the backend named by kind. dir is only used by badger.
func Open(kind, dir string, log logger.Logger) (Backend, error) {
	switch kind {
	case "", KindFile:
		return NewFileBackend(), nil
	case KindBadger:
		b, err := NewBadgerBackend(BadgerConfig{Dir: dir}, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", kind)
	}
}
