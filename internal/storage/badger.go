package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/snapmesh-go/internal/telemetry/logger"
)

// BadgerConfig configures the embedded baseline database.
type BadgerConfig struct {
	// Dir is the database directory.
	Dir string

	// InMemory keeps the database in memory only (tests).
	InMemory bool

	// SyncWrites enables fsync after each write.
	SyncWrites bool
}

// BadgerBackend implements Backend using Badger v3. The baseline path is
// used verbatim as the key.
type BadgerBackend struct {
	db     *badger.DB
	logger logger.Logger
}

// NewBadgerBackend opens (or creates) the database.
func NewBadgerBackend(cfg BadgerConfig, log logger.Logger) (*BadgerBackend, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: log}
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	log.Debug("badger baseline store opened", "dir", cfg.Dir, "in_memory", cfg.InMemory)

	return &BadgerBackend{db: db, logger: log}, nil
}

// Read retrieves the baseline stored under name.
func (b *BadgerBackend) Read(name string) ([]byte, error) {
	var value []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Write stores the baseline under name.
func (b *BadgerBackend) Write(name string, data []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(name), data)
	})
}

// Names lists every stored baseline name with the given prefix.
func (b *BadgerBackend) Names(prefix string) ([]string, error) {
	var names []string

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return names, nil
}

// Close closes the database.
func (b *BadgerBackend) Close() error {
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	b.logger.Debug("badger baseline store closed")
	return nil
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
