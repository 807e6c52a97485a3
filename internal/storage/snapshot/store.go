package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yndnr/snapmesh-go/internal/core/domain"
	"github.com/yndnr/snapmesh-go/internal/storage"
	"github.com/yndnr/snapmesh-go/internal/telemetry/logger"
)

const (
	fileSuffix       = "_snapshots"
	styleExtension   = "css"
	DefaultExtension = "json"
	DefaultDir       = "__snapshots__"
)

// LoaderFunc replaces the default read-and-decode step. It receives the
// computed baseline path and the group name. Errors it returns are passed
// to the caller unchanged.
type LoaderFunc func(path, group string) (*domain.Content, error)

// Config configures the snapshot store.
type Config struct {
	Dir       string
	Extension string

	// Codec defaults to the JSON codec.
	Codec Codec
	// Backend defaults to the filesystem.
	Backend storage.Backend
	// Loader, when set, is used instead of Backend+Codec for reads.
	Loader LoaderFunc

	Logger logger.Logger
}

// DefaultConfig returns a configuration rooted at dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:       dir,
		Extension: DefaultExtension,
	}
}

// Store owns every Group of the run.
type Store struct {
	cfg     Config
	codec   Codec
	backend storage.Backend
	logger  logger.Logger
	groups  map[string]*Group
}

// NewStore creates a store. It touches no storage.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, domain.ErrConfiguration.WithDetails("snapshot dir is required")
	}
	if cfg.Extension == "" {
		cfg.Extension = DefaultExtension
	}

	s := &Store{
		cfg:     cfg,
		codec:   cfg.Codec,
		backend: cfg.Backend,
		logger:  cfg.Logger,
		groups:  make(map[string]*Group),
	}
	if s.codec == nil {
		s.codec = &JSONCodec{}
	}
	if s.backend == nil {
		s.backend = storage.NewFileBackend()
	}
	if s.logger == nil {
		s.logger = logger.Default()
	}
	return s, nil
}

// Codec returns the codec in use.
func (s *Store) Codec() Codec {
	return s.codec
}

// GetOrCreate returns the group, creating an unloaded one on first reference.
func (s *Store) GetOrCreate(group string) *Group {
	g, ok := s.groups[group]
	if !ok {
		g = newGroup(group)
		s.groups[group] = g
	}
	return g
}

// Groups returns the names of every group referenced so far, sorted.
func (s *Store) Groups() []string {
	names := make([]string, 0, len(s.groups))
	for name := range s.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Path returns <dir>/<group>_snapshots.<extension>.
func (s *Store) Path(group string) string {
	return filepath.Join(s.cfg.Dir, group+fileSuffix+"."+s.cfg.Extension)
}

// StylePath returns the sibling stylesheet path <dir>/<group>_snapshots.css.
func (s *Store) StylePath(group string) string {
	return filepath.Join(s.cfg.Dir, group+fileSuffix+"."+styleExtension)
}

// Load reads the baseline of group. A missing or undecodable baseline yields
// nil content and no error, unless a custom Loader is configured, in which
// case its result is returned as is.
func (s *Store) Load(group string) (*domain.Content, error) {
	path := s.Path(group)

	if s.cfg.Loader != nil {
		return s.cfg.Loader(path, group)
	}

	data, err := s.backend.Read(path)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug("baseline unreadable, treating as absent", "path", path, "error", err)
		}
		return nil, nil
	}

	content, err := s.codec.Decode(data)
	if err != nil {
		s.logger.Debug("baseline undecodable, treating as absent", "path", path, "error", err)
		return nil, nil
	}
	return content, nil
}

// EnsureLoaded loads g's baseline once per run. Loader errors leave the group
// unloaded so the next call retries.
func (s *Store) EnsureLoaded(g *Group) error {
	if g.loaded {
		return nil
	}
	content, err := s.Load(g.Name)
	if err != nil {
		return err
	}
	if g.Content == nil {
		g.Content = content
	}
	g.loaded = true
	return nil
}

// Persist encodes content and writes it to the group's baseline path. It
// reports false without writing when the stored bytes are already identical.
func (s *Store) Persist(group string, content *domain.Content) (bool, error) {
	data, err := s.codec.Encode(content)
	if err != nil {
		return false, domain.ErrStorageIO.WithDetails(group).WithCause(err)
	}
	return s.writeIfChanged(s.Path(group), data)
}

// PersistStyles writes the group's stylesheet with the same idempotence rule.
func (s *Store) PersistStyles(group, css string) (bool, error) {
	return s.writeIfChanged(s.StylePath(group), []byte(css))
}

func (s *Store) writeIfChanged(path string, data []byte) (bool, error) {
	existing, err := s.backend.Read(path)
	if err == nil && bytes.Equal(existing, data) {
		s.logger.Debug("baseline unchanged, skipping write", "path", path)
		return false, nil
	}

	if err := s.backend.Write(path, data); err != nil {
		return false, domain.ErrStorageIO.WithDetails(fmt.Sprintf("write %s", path)).WithCause(err)
	}
	s.logger.Debug("baseline written", "path", path, "bytes", len(data))
	return true, nil
}

// Discover lists the groups that have a baseline in the backend, sorted.
// Backends that cannot enumerate names report an error.
func (s *Store) Discover() ([]string, error) {
	lister, ok := s.backend.(storage.Lister)
	if !ok {
		return nil, fmt.Errorf("snapshot: backend %T cannot list baselines", s.backend)
	}
	names, err := lister.Names(s.cfg.Dir + string(filepath.Separator))
	if err != nil {
		return nil, fmt.Errorf("snapshot: list baselines: %w", err)
	}

	groups := make([]string, 0, len(names))
	for _, name := range names {
		if group, ok := s.GroupOf(name); ok {
			groups = append(groups, group)
		}
	}
	sort.Strings(groups)
	return groups, nil
}

// GroupOf returns the group whose baseline lives at path. Stylesheets,
// other extensions and files outside the snapshot dir report false.
func (s *Store) GroupOf(path string) (string, bool) {
	if filepath.Dir(path) != filepath.Clean(s.cfg.Dir) {
		return "", false
	}
	group, ok := strings.CutSuffix(filepath.Base(path), fileSuffix+"."+s.cfg.Extension)
	return group, ok && group != ""
}

// Inspect reads and decodes the baseline of group, reporting read and
// decode failures that Load treats as absence.
func (s *Store) Inspect(group string) (*domain.Content, error) {
	path := s.Path(group)
	data, err := s.backend.Read(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	content, err := s.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", path, err)
	}
	return content, nil
}
