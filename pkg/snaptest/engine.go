package snaptest

import (
	"errors"
	"fmt"

	"github.com/yndnr/snapmesh-go/internal/broadcast"
	"github.com/yndnr/snapmesh-go/internal/config"
	"github.com/yndnr/snapmesh-go/internal/core/domain"
	"github.com/yndnr/snapmesh-go/internal/core/service"
	"github.com/yndnr/snapmesh-go/internal/storage"
	"github.com/yndnr/snapmesh-go/internal/storage/snapshot"
	"github.com/yndnr/snapmesh-go/internal/telemetry/logger"
	"github.com/yndnr/snapmesh-go/internal/telemetry/metric"
)

// Config is the engine configuration (see snapmesh.yaml).
type Config = config.Config

// Hooks are the function-valued collaborators. New fills a nil Serializer
// with DefaultSerializer, so an engine never lacks one; service.NewMatcher
// used directly still rejects a nil Serializer with ErrConfiguration.
type Hooks = service.Hooks

// Hook payloads and options re-exported for callers.
type (
	SerializeFunc    = service.SerializeFunc
	PostProcessInput = service.PostProcessInput
	Normalization    = service.Normalization
	MatchOption      = service.MatchOption
	Message          = broadcast.Message
	Content          = domain.Content
	Metrics          = metric.Registry
)

// NewMetrics creates a metrics registry to pass to WithMetrics.
func NewMetrics() *Metrics {
	return metric.NewRegistry()
}

// Per-call options.
var (
	WithTitle        = service.WithTitle
	WithSerializer   = service.WithSerializer
	WithCSSClassName = service.WithCSSClassName
	WithDecorator    = service.WithDecorator
)

// Replace wraps a string for a Normalization field.
var Replace = service.Replace

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig reads a YAML file (optional) and SNAPMESH_* variables.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	tracker *service.Tracker
	metrics *metric.Registry
	loader  snapshot.LoaderFunc
	logger  logger.Logger
}

// WithTracker uses tracker instead of a private one.
func WithTracker(tracker *service.Tracker) Option {
	return func(o *engineOptions) {
		o.tracker = tracker
	}
}

// WithMetrics records assertion metrics in r.
func WithMetrics(r *Metrics) Option {
	return func(o *engineOptions) {
		o.metrics = r
	}
}

// WithLoader replaces the default baseline read and decode step.
func WithLoader(fn func(path, group string) (*Content, error)) Option {
	return func(o *engineOptions) {
		o.loader = fn
	}
}

// WithLogger replaces the logger built from the log section.
func WithLogger(l logger.Logger) Option {
	return func(o *engineOptions) {
		o.logger = l
	}
}

// Engine is the adapter boundary between a test framework and the matcher.
type Engine struct {
	cfg     *Config
	store   *snapshot.Store
	matcher *service.Matcher
	tracker *service.Tracker
	closers []func() error
}

// New builds an engine from cfg. The configuration is verified first.
func New(cfg *Config, hooks Hooks, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.Verify(cfg); err != nil {
		return nil, err
	}

	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracker == nil {
		o.tracker = service.NewTracker()
	}
	if o.logger == nil {
		l, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
		if err != nil {
			return nil, fmt.Errorf("snaptest: logger: %w", err)
		}
		o.logger = l
	}
	if hooks.Serializer == nil {
		hooks.Serializer = DefaultSerializer
	}

	e := &Engine{cfg: cfg, tracker: o.tracker}

	backend, err := storage.Open(cfg.Storage.Backend, cfg.Storage.BadgerDir, o.logger)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, backend.Close)

	codec, err := snapshot.NewCodec(cfg.Snapshot.Codec, cfg.Snapshot.Omitted())
	if err != nil {
		e.Close()
		return nil, err
	}

	e.store, err = snapshot.NewStore(snapshot.Config{
		Dir:       cfg.Snapshot.Dir,
		Extension: cfg.Snapshot.Extension,
		Codec:     codec,
		Backend:   backend,
		Loader:    o.loader,
		Logger:    o.logger,
	})
	if err != nil {
		e.Close()
		return nil, err
	}

	if hooks.Broadcaster == nil && broadcasts(cfg.Snapshot.Mode) {
		ch := broadcast.NewSocketChannel(broadcast.SocketConfig{
			Network: cfg.Broadcast.Network,
			Addr:    cfg.Broadcast.Addr,
			Rate:    cfg.Broadcast.Rate,
			Burst:   cfg.Broadcast.Burst,
		}, broadcast.WithLogger(o.logger), broadcast.WithMetrics(o.metrics))
		hooks.Broadcaster = ch
		e.closers = append(e.closers, ch.Close)
	}

	e.matcher, err = service.NewMatcher(e.store, e.tracker, service.MatcherConfig{
		Mode:              cfg.Snapshot.Mode,
		Update:            cfg.Snapshot.Update,
		TitleFilter:       cfg.Snapshot.TitleFilter,
		OnMissing:         cfg.Snapshot.OnMissing,
		PersistNormalized: cfg.Snapshot.PersistNormalized,
	}, hooks, service.WithLogger(o.logger), service.WithMetrics(o.metrics))
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// MustNew is New that panics on error, for package-level engines.
func MustNew(cfg *Config, hooks Hooks, opts ...Option) *Engine {
	e, err := New(cfg, hooks, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

func broadcasts(mode string) bool {
	m, err := service.ParseMode(mode)
	return err == nil && m.Broadcasts()
}

// RecordCurrentTest tells the engine which test is running.
func (e *Engine) RecordCurrentTest(group, title string) {
	e.tracker.SetCurrent(group, title)
}

// MatchSnapshot matches value against the current test's next snapshot.
func (e *Engine) MatchSnapshot(value any, opts ...MatchOption) error {
	return e.matcher.Match(value, opts...)
}

// Path returns the baseline file of group.
func (e *Engine) Path(group string) string {
	return e.store.Path(group)
}

// Close releases the storage backend and broadcast connection.
func (e *Engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
