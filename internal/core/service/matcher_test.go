package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/snapmesh-go/internal/broadcast"
	"github.com/yndnr/snapmesh-go/internal/core/domain"
	"github.com/yndnr/snapmesh-go/internal/storage/snapshot"
	"github.com/yndnr/snapmesh-go/internal/telemetry/metric"
)

func identity(v any) (string, error) {
	return fmt.Sprint(v), nil
}

// run is one simulated test process sharing dir with earlier runs.
type run struct {
	store   *snapshot.Store
	tracker *Tracker
	matcher *Matcher
}

func newRun(t *testing.T, dir string, cfg MatcherConfig, hooks Hooks, opts ...MatcherOption) *run {
	t.Helper()
	t.Setenv(UpdateEnv, "")

	store, err := snapshot.NewStore(snapshot.DefaultConfig(dir))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if hooks.Serializer == nil {
		hooks.Serializer = identity
	}
	tracker := NewTracker()
	m, err := NewMatcher(store, tracker, cfg, hooks, opts...)
	if err != nil {
		t.Fatalf("NewMatcher() error = %v", err)
	}
	return &run{store: store, tracker: tracker, matcher: m}
}

func readBaseline(t *testing.T, dir, group string) *domain.Content {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, group+"_snapshots.json"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	c, err := (&snapshot.JSONCodec{}).Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return c
}

func writeBaseline(t *testing.T, dir, group string, pairs ...string) {
	t.Helper()
	c := domain.NewContent()
	for i := 0; i+1 < len(pairs); i += 2 {
		c.Set(pairs[i], pairs[i+1])
	}
	data, err := (&snapshot.JSONCodec{}).Encode(c)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, group+"_snapshots.json"), data, 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func mustGet(t *testing.T, c *domain.Content, key string) string {
	t.Helper()
	v, ok := c.Get(key)
	if !ok {
		t.Fatalf("content has no key %q (keys %v)", key, c.Keys())
	}
	return v
}

func TestNewMatcher_ConfigurationErrors(t *testing.T) {
	store, err := snapshot.NewStore(snapshot.DefaultConfig(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		store BaselineStore
		cfg   MatcherConfig
		hooks Hooks
	}{
		{"no serializer", store, MatcherConfig{}, Hooks{}},
		{"no store", nil, MatcherConfig{}, Hooks{Serializer: identity}},
		{"unknown mode", store, MatcherConfig{Mode: "replay"}, Hooks{Serializer: identity}},
		{"bad filter", store, MatcherConfig{TitleFilter: "("}, Hooks{Serializer: identity}},
		{"bad on_missing", store, MatcherConfig{OnMissing: "skip"}, Hooks{Serializer: identity}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMatcher(tt.store, NewTracker(), tt.cfg, tt.hooks)
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("NewMatcher() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestMatcher_RecordThenCompare(t *testing.T) {
	dir := t.TempDir()

	rec := newRun(t, dir, MatcherConfig{Mode: "record"}, Hooks{})
	rec.tracker.SetCurrent("Button", "renders default")
	if err := rec.matcher.Match("<button/>"); err != nil {
		t.Fatalf("record Match() error = %v", err)
	}

	baseline := readBaseline(t, dir, "Button")
	if got := mustGet(t, baseline, "renders default 1"); got != "<button/>" {
		t.Errorf("baseline = %q, want %q", got, "<button/>")
	}
	if baseline.Len() != 1 {
		t.Errorf("baseline keys = %v, want exactly one", baseline.Keys())
	}

	pass := newRun(t, dir, MatcherConfig{}, Hooks{})
	pass.tracker.SetCurrent("Button", "renders default")
	if err := pass.matcher.Match("<button/>"); err != nil {
		t.Fatalf("compare Match() error = %v", err)
	}

	fail := newRun(t, dir, MatcherConfig{}, Hooks{})
	fail.tracker.SetCurrent("Button", "renders default")
	err := fail.matcher.Match(`<button class="x"/>`)
	if !errors.Is(err, domain.ErrSnapshotMismatch) {
		t.Fatalf("Match() error = %v, want ErrSnapshotMismatch", err)
	}
	se, ok := domain.AsSnapshotError(err)
	if !ok {
		t.Fatalf("error %T is not a SnapshotError", err)
	}
	if se.Key != "renders default 1" {
		t.Errorf("Key = %q, want %q", se.Key, "renders default 1")
	}
	if se.Actual != `<button class="x"/>` || se.Expected != "<button/>" || !se.HasExpected {
		t.Errorf("Actual/Expected = %q/%q (%v)", se.Actual, se.Expected, se.HasExpected)
	}
	if !strings.Contains(se.Diff, "-<button/>") || !strings.Contains(se.Diff, `+<button class="x"/>`) {
		t.Errorf("Diff = %q, want both sides", se.Diff)
	}
}

func TestMatcher_RepeatedTitle(t *testing.T) {
	dir := t.TempDir()
	r := newRun(t, dir, MatcherConfig{Mode: "record"}, Hooks{})
	r.tracker.SetCurrent("G", "t")

	for _, v := range []string{"A", "B"} {
		if err := r.matcher.Match(v); err != nil {
			t.Fatalf("Match(%q) error = %v", v, err)
		}
	}

	baseline := readBaseline(t, dir, "G")
	if got := mustGet(t, baseline, "t 1"); got != "A" {
		t.Errorf("t 1 = %q, want A", got)
	}
	if got := mustGet(t, baseline, "t 2"); got != "B" {
		t.Errorf("t 2 = %q, want B", got)
	}
}

func TestMatcher_FreshDiscardsBaseline(t *testing.T) {
	dir := t.TempDir()
	writeBaseline(t, dir, "G", "t 1", "old", "stale 1", "gone")

	r := newRun(t, dir, MatcherConfig{Mode: "new"}, Hooks{})
	r.tracker.SetCurrent("G", "t")
	if err := r.matcher.Match("new"); err != nil {
		t.Fatalf("Match() error = %v", err)
	}

	baseline := readBaseline(t, dir, "G")
	if baseline.Len() != 1 || mustGet(t, baseline, "t 1") != "new" {
		t.Errorf("baseline keys = %v, want only t 1 = new", baseline.Keys())
	}

	// Later calls in the same run merge instead of resetting again.
	r.tracker.SetCurrent("G", "u")
	if err := r.matcher.Match("second"); err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	baseline = readBaseline(t, dir, "G")
	if baseline.Len() != 2 || mustGet(t, baseline, "t 1") != "new" {
		t.Errorf("baseline keys = %v, want t 1 and u 1", baseline.Keys())
	}
}

func TestMatcher_RecordMergesExisting(t *testing.T) {
	dir := t.TempDir()
	writeBaseline(t, dir, "G", "other 1", "kept")

	r := newRun(t, dir, MatcherConfig{Mode: "drive"}, Hooks{})
	r.tracker.SetCurrent("G", "t")
	if err := r.matcher.Match("v"); err != nil {
		t.Fatalf("Match() error = %v", err)
	}

	baseline := readBaseline(t, dir, "G")
	if got := mustGet(t, baseline, "other 1"); got != "kept" {
		t.Errorf("other 1 = %q, want kept", got)
	}
	if got := mustGet(t, baseline, "t 1"); got != "v" {
		t.Errorf("t 1 = %q, want v", got)
	}
}

func TestMatcher_PostProcessNormalizesExpected(t *testing.T) {
	dir := t.TempDir()
	writeBaseline(t, dir, "G", "t 1", "raw")

	var seen PostProcessInput
	hooks := Hooks{PostProcess: func(in PostProcessInput) Normalization {
		seen = in
		return Normalization{Expected: Replace("normalized")}
	}}
	r := newRun(t, dir, MatcherConfig{}, hooks)
	r.tracker.SetCurrent("G", "t")

	if err := r.matcher.Match("normalized"); err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if seen.Key != "t 1" || seen.Expected != "raw" || !seen.Found || seen.Group != "G" || seen.Title != "t" {
		t.Errorf("hook input = %+v", seen)
	}

	g := r.store.GetOrCreate("G")
	if got := mustGet(t, g.Content, "t 1"); got != "normalized" {
		t.Errorf("in-memory t 1 = %q, want normalized", got)
	}
	// Without persist_normalized the file is untouched until a record pass.
	if got := mustGet(t, readBaseline(t, dir, "G"), "t 1"); got != "raw" {
		t.Errorf("file t 1 = %q, want raw", got)
	}

	if _, err := r.store.Persist("G", g.Content); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if got := mustGet(t, readBaseline(t, dir, "G"), "t 1"); got != "normalized" {
		t.Errorf("rewritten t 1 = %q, want normalized", got)
	}
}

func TestMatcher_PersistNormalized(t *testing.T) {
	dir := t.TempDir()
	writeBaseline(t, dir, "G", "t 1", "raw ")

	hooks := Hooks{PostProcess: func(in PostProcessInput) Normalization {
		return Normalization{Expected: Replace(strings.TrimSpace(in.Expected))}
	}}
	r := newRun(t, dir, MatcherConfig{PersistNormalized: true}, hooks)
	r.tracker.SetCurrent("G", "t")

	if err := r.matcher.Match("raw"); err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got := mustGet(t, readBaseline(t, dir, "G"), "t 1"); got != "raw" {
		t.Errorf("file t 1 = %q, want raw", got)
	}
}

func TestMatcher_PostProcessReplacesActual(t *testing.T) {
	dir := t.TempDir()
	writeBaseline(t, dir, "G", "t 1", "stable")

	hooks := Hooks{PostProcess: func(in PostProcessInput) Normalization {
		return Normalization{Actual: Replace("stable")}
	}}
	r := newRun(t, dir, MatcherConfig{}, hooks)
	r.tracker.SetCurrent("G", "t")

	if err := r.matcher.Match("volatile 12:04"); err != nil {
		t.Errorf("Match() error = %v, want nil", err)
	}
}

func TestMatcher_PostProcessNormalizesToEmpty(t *testing.T) {
	dir := t.TempDir()
	writeBaseline(t, dir, "G", "t 1", "  ")

	hooks := Hooks{PostProcess: func(in PostProcessInput) Normalization {
		trimmed := strings.TrimSpace(in.Expected)
		return Normalization{Expected: &trimmed}
	}}
	r := newRun(t, dir, MatcherConfig{}, hooks)
	r.tracker.SetCurrent("G", "t")

	if err := r.matcher.Match(""); err != nil {
		t.Fatalf("Match() error = %v, want nil", err)
	}
	if got := mustGet(t, r.store.GetOrCreate("G").Content, "t 1"); got != "" {
		t.Errorf("in-memory t 1 = %q, want empty", got)
	}
}

func TestMatcher_PostProcessNilLeavesSides(t *testing.T) {
	dir := t.TempDir()
	writeBaseline(t, dir, "G", "t 1", "raw")

	hooks := Hooks{PostProcess: func(in PostProcessInput) Normalization {
		return Normalization{}
	}}
	r := newRun(t, dir, MatcherConfig{}, hooks)
	r.tracker.SetCurrent("G", "t")

	if err := r.matcher.Match("other"); !errors.Is(err, domain.ErrSnapshotMismatch) {
		t.Errorf("Match() error = %v, want mismatch", err)
	}
}

func TestMatcher_MissingBaseline(t *testing.T) {
	dir := t.TempDir()

	r := newRun(t, dir, MatcherConfig{}, Hooks{})
	r.tracker.SetCurrent("G", "t")
	err := r.matcher.Match("v")
	if !errors.Is(err, domain.ErrMissingBaselineGroup) {
		t.Fatalf("Match() error = %v, want ErrMissingBaselineGroup", err)
	}
	if se, _ := domain.AsSnapshotError(err); se.HasExpected || se.Actual != "v" {
		t.Errorf("SnapshotError = %+v, want actual v without expected", se)
	}

	writeBaseline(t, dir, "H", "other 1", "x")
	r.tracker.SetCurrent("H", "t")
	err = r.matcher.Match("v")
	if !errors.Is(err, domain.ErrMissingSnapshot) {
		t.Fatalf("Match() error = %v, want ErrMissingSnapshot", err)
	}
	se, _ := domain.AsSnapshotError(err)
	if se.Key != "t 1" || se.HasExpected {
		t.Errorf("SnapshotError = %+v, want key t 1 without expected", se)
	}
}

func TestMatcher_OnMissingRecord(t *testing.T) {
	dir := t.TempDir()
	writeBaseline(t, dir, "H", "t 1", "x")

	r := newRun(t, dir, MatcherConfig{OnMissing: domain.OnMissingRecord}, Hooks{})
	r.tracker.SetCurrent("G", "t")
	if err := r.matcher.Match("first"); err != nil {
		t.Fatalf("Match() missing group error = %v", err)
	}
	if got := mustGet(t, readBaseline(t, dir, "G"), "t 1"); got != "first" {
		t.Errorf("G t 1 = %q, want first", got)
	}

	r.tracker.SetCurrent("H", "t")
	if err := r.matcher.Match("x"); err != nil {
		t.Fatalf("Match() existing key error = %v", err)
	}
	if err := r.matcher.Match("second"); err != nil {
		t.Fatalf("Match() missing key error = %v", err)
	}
	if got := mustGet(t, readBaseline(t, dir, "H"), "t 2"); got != "second" {
		t.Errorf("H t 2 = %q, want second", got)
	}

	// A real mismatch still fails in a later run.
	next := newRun(t, dir, MatcherConfig{OnMissing: domain.OnMissingRecord}, Hooks{})
	next.tracker.SetCurrent("H", "t")
	if err := next.matcher.Match("y"); !errors.Is(err, domain.ErrSnapshotMismatch) {
		t.Errorf("Match() error = %v, want ErrSnapshotMismatch", err)
	}
}

func TestMatcher_OrdinalsSurviveFailures(t *testing.T) {
	dir := t.TempDir()
	writeBaseline(t, dir, "G", "t 1", "a", "t 2", "b", "t 3", "c")

	r := newRun(t, dir, MatcherConfig{}, Hooks{})
	r.tracker.SetCurrent("G", "t")

	var keys []string
	for _, v := range []string{"wrong", "b", "also wrong", "extra"} {
		err := r.matcher.Match(v)
		if se, ok := domain.AsSnapshotError(err); ok {
			keys = append(keys, se.Key)
		} else if err != nil {
			t.Fatalf("Match(%q) unexpected error = %v", v, err)
		} else {
			keys = append(keys, "pass")
		}
	}

	want := []string{"t 1", "pass", "t 3", "t 4"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("keys = %v, want %v", keys, want)
	}
	calls := r.store.GetOrCreate("G").Calls()
	if len(calls) != 1 || calls[0].Count != 5 {
		t.Errorf("calls = %+v, want t with next ordinal 5", calls)
	}
}

func TestMatcher_TitleOverrideRestored(t *testing.T) {
	dir := t.TempDir()
	r := newRun(t, dir, MatcherConfig{}, Hooks{})
	r.tracker.SetCurrent("G", "outer")

	err := r.matcher.Match("v", WithTitle("inner"))
	se, ok := domain.AsSnapshotError(err)
	if !ok {
		t.Fatalf("Match() error = %v, want SnapshotError", err)
	}
	if se.Key != "inner 1" {
		t.Errorf("Key = %q, want %q", se.Key, "inner 1")
	}
	if got := r.tracker.Current().Title; got != "outer" {
		t.Errorf("Title after failed Match = %q, want %q", got, "outer")
	}
}

func TestMatcher_SerializerOverrideAndSanitize(t *testing.T) {
	dir := t.TempDir()
	r := newRun(t, dir, MatcherConfig{Mode: "record"}, Hooks{})
	r.tracker.SetCurrent("G", "t")

	upper := func(v any) (string, error) {
		return strings.ToUpper(fmt.Sprint(v)) + "<!-- react-empty: 7 -->", nil
	}
	if err := r.matcher.Match("x", WithSerializer(upper)); err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got := mustGet(t, readBaseline(t, dir, "G"), "t 1"); got != "X" {
		t.Errorf("t 1 = %q, want X", got)
	}

	failing := func(any) (string, error) { return "", errors.New("cyclic value") }
	if err := r.matcher.Match("x", WithSerializer(failing)); err == nil {
		t.Error("Match() should surface serializer errors")
	}
}

func TestMatcher_Metadata(t *testing.T) {
	dir := t.TempDir()
	r := newRun(t, dir, MatcherConfig{Mode: "record"}, Hooks{})
	r.tracker.SetCurrent("G", "t")

	if err := r.matcher.Match("v", WithCSSClassName("css-1x"), WithDecorator("story")); err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	baseline := readBaseline(t, dir, "G")
	if got := mustGet(t, baseline, domain.MetaCSSClassName); got != "css-1x" {
		t.Errorf("cssClassName = %q, want css-1x", got)
	}
	if got := mustGet(t, baseline, domain.MetaDecorator); got != "story" {
		t.Errorf("decorator = %q, want story", got)
	}
}

func TestMatcher_TitleFilter(t *testing.T) {
	dir := t.TempDir()
	writeBaseline(t, dir, "G", "skipped 1", "old")

	r := newRun(t, dir, MatcherConfig{Mode: "record", TitleFilter: "^renders"}, Hooks{})
	r.tracker.SetCurrent("G", "renders default")
	if err := r.matcher.Match("new"); err != nil {
		t.Fatalf("Match() selected error = %v", err)
	}

	r.tracker.SetCurrent("G", "skipped")
	err := r.matcher.Match("changed")
	if !errors.Is(err, domain.ErrSnapshotMismatch) {
		t.Errorf("Match() filtered-out error = %v, want ErrSnapshotMismatch", err)
	}
	if got := mustGet(t, readBaseline(t, dir, "G"), "skipped 1"); got != "old" {
		t.Errorf("skipped 1 = %q, want old", got)
	}
}

type recordingChannel struct {
	msgs []broadcast.Message
	err  error
}

func (c *recordingChannel) SendMessage(msg broadcast.Message) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

func TestMatcher_Broadcast(t *testing.T) {
	dir := t.TempDir()
	ch := &recordingChannel{}
	hooks := Hooks{
		Broadcaster: ch,
		Styles:      func() string { return ".x{color:red}" },
	}
	r := newRun(t, dir, MatcherConfig{Mode: "tcp"}, hooks)
	r.tracker.SetCurrent("G", "t")

	if err := r.matcher.Match("v"); err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(ch.msgs) != 2 {
		t.Fatalf("messages = %d, want styles and content", len(ch.msgs))
	}
	if ch.msgs[0].File != "G_snapshots.css" {
		t.Errorf("styles file = %q, want G_snapshots.css", ch.msgs[0].File)
	}
	if s, ok := ch.msgs[0].Content.(broadcast.Styles); !ok || s.Styles != ".x{color:red}" {
		t.Errorf("styles content = %#v", ch.msgs[0].Content)
	}
	if ch.msgs[1].File != r.store.Path("G") {
		t.Errorf("content file = %q, want %q", ch.msgs[1].File, r.store.Path("G"))
	}
	if c, ok := ch.msgs[1].Content.(*domain.Content); !ok || mustGet(t, c, "t 1") != "v" {
		t.Errorf("content = %#v", ch.msgs[1].Content)
	}

	if _, err := os.Stat(r.store.Path("G")); !os.IsNotExist(err) {
		t.Errorf("broadcast mode wrote %s", r.store.Path("G"))
	}
}

func TestMatcher_BothWritesAndSurvivesBroadcastFailure(t *testing.T) {
	dir := t.TempDir()
	ch := &recordingChannel{err: errors.New("connection refused")}
	hooks := Hooks{
		Broadcaster: ch,
		Styles:      func() string { return ".x{}" },
	}
	reg := metric.NewRegistry()
	r := newRun(t, dir, MatcherConfig{Mode: "both"}, hooks, WithMetrics(reg))
	r.tracker.SetCurrent("G", "t")

	if err := r.matcher.Match("v"); err != nil {
		t.Fatalf("Match() error = %v, broadcast failures must not fail", err)
	}
	if got := mustGet(t, readBaseline(t, dir, "G"), "t 1"); got != "v" {
		t.Errorf("t 1 = %q, want v", got)
	}
	css, err := os.ReadFile(r.store.StylePath("G"))
	if err != nil || string(css) != ".x{}" {
		t.Errorf("styles = %q, %v", css, err)
	}
	if v := testutil.ToFloat64(reg.Assertions.WithLabelValues("both", metric.OutcomeRecorded)); v != 1 {
		t.Errorf("recorded = %v, want 1", v)
	}
	if v := testutil.ToFloat64(reg.Writes.WithLabelValues("written")); v != 1 {
		t.Errorf("written = %v, want 1", v)
	}
}

func TestMatcher_Metrics(t *testing.T) {
	dir := t.TempDir()
	writeBaseline(t, dir, "G", "t 1", "a")

	reg := metric.NewRegistry()
	r := newRun(t, dir, MatcherConfig{}, Hooks{}, WithMetrics(reg))
	r.tracker.SetCurrent("G", "t")

	_ = r.matcher.Match("a")
	_ = r.matcher.Match("b")
	r.tracker.SetCurrent("Missing", "t")
	_ = r.matcher.Match("c")

	for outcome, want := range map[string]float64{
		metric.OutcomePass:            1,
		metric.OutcomeMissingGroup:    1,
		metric.OutcomeMissingSnapshot: 1,
	} {
		if v := testutil.ToFloat64(reg.Assertions.WithLabelValues("test", outcome)); v != want {
			t.Errorf("%s = %v, want %v", outcome, v, want)
		}
	}
}

func TestMatcher_LoaderErrorPropagates(t *testing.T) {
	cfg := snapshot.DefaultConfig(t.TempDir())
	loadErr := errors.New("remote baseline unavailable")
	cfg.Loader = func(path, group string) (*domain.Content, error) {
		return nil, loadErr
	}
	store, err := snapshot.NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	tracker := NewTracker()
	tracker.SetCurrent("G", "t")
	m, err := NewMatcher(store, tracker, MatcherConfig{}, Hooks{Serializer: identity})
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Match("v"); !errors.Is(err, loadErr) {
		t.Errorf("Match() error = %v, want loader error", err)
	}
}

func TestMatcher_UpdateEnvPromotesRecord(t *testing.T) {
	dir := t.TempDir()
	r := newRun(t, dir, MatcherConfig{}, Hooks{})
	t.Setenv(UpdateEnv, "true")
	r.tracker.SetCurrent("G", "t")

	if err := r.matcher.Match("v"); err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got := mustGet(t, readBaseline(t, dir, "G"), "t 1"); got != "v" {
		t.Errorf("t 1 = %q, want v", got)
	}
}
