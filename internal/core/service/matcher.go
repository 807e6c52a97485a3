package service

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/yndnr/snapmesh-go/internal/broadcast"
	"github.com/yndnr/snapmesh-go/internal/core/domain"
	"github.com/yndnr/snapmesh-go/internal/storage/snapshot"
	"github.com/yndnr/snapmesh-go/internal/telemetry/logger"
	"github.com/yndnr/snapmesh-go/internal/telemetry/metric"
)

// BaselineStore is the storage the Matcher needs. *snapshot.Store
// implements it.
type BaselineStore interface {
	GetOrCreate(group string) *snapshot.Group
	EnsureLoaded(g *snapshot.Group) error
	Persist(group string, content *domain.Content) (bool, error)
	PersistStyles(group, css string) (bool, error)
	Path(group string) string
	StylePath(group string) string
}

// SerializeFunc turns an asserted value into its snapshot text.
type SerializeFunc func(value any) (string, error)

// PostProcessInput is handed to the post-process hook before comparison.
type PostProcessInput struct {
	Group    string
	Title    string
	Key      string
	Actual   string
	Expected string
	// Found is false when the baseline has no entry for Key.
	Found bool
}

// Normalization is the hook's answer. A nil field leaves that side as is;
// a pointer to "" normalizes it to the empty string.
type Normalization struct {
	Actual   *string
	Expected *string
}

// Replace returns a pointer to s for use in a Normalization.
func Replace(s string) *string {
	return &s
}

// PostProcessFunc may normalize either side of a comparison.
type PostProcessFunc func(in PostProcessInput) Normalization

// Hooks are the function-valued collaborators of the Matcher.
type Hooks struct {
	// Serializer is required.
	Serializer SerializeFunc
	// PostProcess runs on the compare branch only.
	PostProcess PostProcessFunc
	// Styles produces the stylesheet written next to recorded baselines.
	Styles func() string
	// Broadcaster receives recorded content under broadcast and both.
	Broadcaster broadcast.Channel
}

// MatcherConfig is the scalar configuration of the Matcher.
type MatcherConfig struct {
	Mode              string
	Update            bool
	TitleFilter       string
	OnMissing         string
	PersistNormalized bool
}

// Matcher runs snapshot assertions.
type Matcher struct {
	store   BaselineStore
	tracker *Tracker
	cfg     MatcherConfig
	hooks   Hooks
	filter  *regexp.Regexp
	logger  logger.Logger
	metrics *metric.Registry
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithLogger sets the matcher logger.
func WithLogger(l logger.Logger) MatcherOption {
	return func(m *Matcher) {
		m.logger = l
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(r *metric.Registry) MatcherOption {
	return func(m *Matcher) {
		m.metrics = r
	}
}

// NewMatcher validates the configuration and creates a Matcher. A missing
// serializer, unknown mode or invalid title filter is ErrConfiguration.
func NewMatcher(store BaselineStore, tracker *Tracker, cfg MatcherConfig, hooks Hooks, opts ...MatcherOption) (*Matcher, error) {
	if store == nil {
		return nil, domain.ErrConfiguration.WithDetails("baseline store is required")
	}
	if hooks.Serializer == nil {
		return nil, domain.ErrConfiguration.WithDetails("default serializer is required")
	}
	if _, err := ParseMode(cfg.Mode); err != nil {
		return nil, err
	}
	switch cfg.OnMissing {
	case "":
		cfg.OnMissing = domain.OnMissingFail
	case domain.OnMissingFail, domain.OnMissingRecord:
	default:
		return nil, domain.ErrConfiguration.WithDetails("unknown on_missing policy " + cfg.OnMissing)
	}
	if tracker == nil {
		tracker = DefaultTracker()
	}

	m := &Matcher{
		store:   store,
		tracker: tracker,
		cfg:     cfg,
		hooks:   hooks,
		logger:  logger.Default(),
	}
	if cfg.TitleFilter != "" {
		re, err := regexp.Compile(cfg.TitleFilter)
		if err != nil {
			return nil, domain.ErrConfiguration.WithDetails("invalid title filter").WithCause(err)
		}
		m.filter = re
	}

	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Tracker returns the tracker the matcher reads test identity from.
func (m *Matcher) Tracker() *Tracker {
	return m.tracker
}

// MatchOption adjusts a single Match call.
type MatchOption func(*matchOptions)

type matchOptions struct {
	title        string
	serializer   SerializeFunc
	cssClassName string
	decorator    string
}

// WithTitle replaces the current test title for this call only.
func WithTitle(title string) MatchOption {
	return func(o *matchOptions) {
		o.title = title
	}
}

// WithSerializer replaces the default serializer for this call.
func WithSerializer(fn SerializeFunc) MatchOption {
	return func(o *matchOptions) {
		o.serializer = fn
	}
}

// WithCSSClassName records a style class name alongside written content.
func WithCSSClassName(name string) MatchOption {
	return func(o *matchOptions) {
		o.cssClassName = name
	}
}

// WithDecorator records a decorator tag alongside written content.
func WithDecorator(tag string) MatchOption {
	return func(o *matchOptions) {
		o.decorator = tag
	}
}

// Match asserts value against the baseline of the current test, or records
// it, depending on the resolved mode. Assertion failures are
// *domain.SnapshotError values.
func (m *Matcher) Match(value any, opts ...MatchOption) error {
	var o matchOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.title != "" {
		restore := m.tracker.Override(o.title)
		defer restore()
	}
	task := m.tracker.Current()

	g := m.store.GetOrCreate(task.Group)
	key, ordinal := g.Next(task.Title)

	mode, err := ResolveMode(m.cfg.Mode, m.cfg.Update)
	if err != nil {
		return err
	}

	log := m.logger.With("group", task.Group, "key", key, "mode", mode.String())

	serialize := m.hooks.Serializer
	if o.serializer != nil {
		serialize = o.serializer
	}
	raw, err := serialize(value)
	if err != nil {
		m.metrics.ObserveAssertion(mode.String(), metric.OutcomeError)
		return fmt.Errorf("snapshot: serialize %q: %w", key, err)
	}
	actual := Sanitize(raw)

	if mode.Writes() && m.selected(task.Title) {
		err = m.record(mode, g, key, actual, &o, log)
		if err != nil {
			m.metrics.ObserveAssertion(mode.String(), metric.OutcomeError)
			return err
		}
		m.metrics.ObserveAssertion(mode.String(), metric.OutcomeRecorded)
		log.Debug("snapshot recorded", "ordinal", ordinal)
		return nil
	}

	outcome, err := m.compare(task, g, key, actual, log)
	m.metrics.ObserveAssertion(mode.String(), outcome)
	return err
}

// selected reports whether title passes the title filter of a record pass.
func (m *Matcher) selected(title string) bool {
	return m.filter == nil || m.filter.MatchString(title)
}

func (m *Matcher) record(mode Mode, g *snapshot.Group, key, actual string, o *matchOptions, log logger.Logger) error {
	if mode.Fresh() {
		if g.ResetFresh() {
			log.Info("discarding previous baseline for fresh record")
		}
	} else if err := m.store.EnsureLoaded(g); err != nil {
		return err
	}

	content := g.EnsureContent()
	content.Set(key, actual)
	if o.cssClassName != "" {
		content.Set(domain.MetaCSSClassName, o.cssClassName)
	}
	if o.decorator != "" {
		content.Set(domain.MetaDecorator, o.decorator)
	}

	if err := m.handleStyles(mode, g.Name, log); err != nil {
		return err
	}

	if mode.Broadcasts() {
		m.send(broadcast.Message{File: m.store.Path(g.Name), Content: content.Clone()}, log)
	}

	if mode.WritesStorage() {
		return m.persist(g.Name, content)
	}
	return nil
}

func (m *Matcher) handleStyles(mode Mode, group string, log logger.Logger) error {
	if m.hooks.Styles == nil {
		return nil
	}
	css := m.hooks.Styles()

	if mode.Broadcasts() {
		file := filepath.Base(m.store.StylePath(group))
		m.send(broadcast.Message{File: file, Content: broadcast.Styles{Styles: css}}, log)
	}
	if mode.WritesStorage() {
		if _, err := m.store.PersistStyles(group, css); err != nil {
			return err
		}
	}
	return nil
}

// send delivers msg and logs failures; broadcasting never fails an assertion.
func (m *Matcher) send(msg broadcast.Message, log logger.Logger) {
	if m.hooks.Broadcaster == nil {
		log.Warn("broadcast requested but no channel configured", "file", msg.File)
		return
	}
	if err := m.hooks.Broadcaster.SendMessage(msg); err != nil {
		log.Warn("problem sending snapshot to broadcast channel", "file", msg.File, "error", err)
	}
}

func (m *Matcher) persist(group string, content *domain.Content) error {
	written, err := m.store.Persist(group, content)
	if err != nil {
		return err
	}
	m.metrics.ObserveWrite(written)
	return nil
}

func (m *Matcher) compare(task domain.Task, g *snapshot.Group, key, actual string, log logger.Logger) (string, error) {
	if g.Content == nil {
		if err := m.store.EnsureLoaded(g); err != nil {
			return metric.OutcomeError, err
		}
	}
	if g.Content == nil {
		if m.cfg.OnMissing == domain.OnMissingRecord {
			return m.recordMissing(g, key, actual, log)
		}
		return metric.OutcomeMissingGroup, domain.NewMissingGroupError(key, actual)
	}

	expected, found := g.Content.Get(key)

	if m.hooks.PostProcess != nil {
		n := m.hooks.PostProcess(PostProcessInput{
			Group:    task.Group,
			Title:    task.Title,
			Key:      key,
			Actual:   actual,
			Expected: expected,
			Found:    found,
		})
		if n.Actual != nil {
			actual = *n.Actual
		}
		if n.Expected != nil {
			expected, found = *n.Expected, true
			g.Content.Set(key, expected)
			if m.cfg.PersistNormalized {
				if err := m.persist(g.Name, g.Content); err != nil {
					return metric.OutcomeError, err
				}
			}
		}
	}

	if !found {
		if m.cfg.OnMissing == domain.OnMissingRecord {
			return m.recordMissing(g, key, actual, log)
		}
		return metric.OutcomeMissingSnapshot, domain.NewMissingSnapshotError(key, actual)
	}

	if expected != actual {
		se := domain.NewMismatchError(key, actual, expected)
		se.Diff = unifiedDiff(expected, actual)
		log.Debug("snapshot mismatch", "expected", expected, "actual", actual)
		return metric.OutcomeMismatch, se
	}
	return metric.OutcomePass, nil
}

// recordMissing writes a first-run value under the record on_missing policy.
func (m *Matcher) recordMissing(g *snapshot.Group, key, actual string, log logger.Logger) (string, error) {
	g.EnsureContent().Set(key, actual)
	if err := m.persist(g.Name, g.Content); err != nil {
		return metric.OutcomeError, err
	}
	log.Info("no baseline found, recorded current value")
	return metric.OutcomeRecorded, nil
}

func unifiedDiff(expected, actual string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}
