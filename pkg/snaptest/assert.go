package snaptest

import (
	"testing"

	"github.com/yndnr/snapmesh-go/internal/core/domain"
)

// Assert matches value and reports failures on t the way an equality
// assertion would: a diff for mismatches, the actual value when no
// baseline exists. Errors other than assertion failures stop the test.
func (e *Engine) Assert(t testing.TB, value any, opts ...MatchOption) {
	t.Helper()

	err := e.MatchSnapshot(value, opts...)
	if err == nil {
		return
	}

	se, ok := domain.AsSnapshotError(err)
	if !ok {
		t.Fatalf("snapshot: %v", err)
		return
	}
	if se.HasExpected {
		t.Errorf("snapshot %q does not match\n%s", se.Key, se.Diff)
		return
	}
	t.Errorf("%v\nactual:\n%s", se, se.Actual)
}

// Run runs fn as subtest title with the engine tracking group and title.
func (e *Engine) Run(t *testing.T, group, title string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run(title, func(t *testing.T) {
		e.RecordCurrentTest(group, title)
		fn(t)
	})
}

// IsMismatch reports whether err is a baseline mismatch.
func IsMismatch(err error) bool {
	return domain.IsDomainError(err, domain.ErrSnapshotMismatch.Code)
}

// IsMissing reports whether err means no baseline was recorded yet.
func IsMissing(err error) bool {
	return domain.IsDomainError(err, domain.ErrMissingSnapshot.Code) ||
		domain.IsDomainError(err, domain.ErrMissingBaselineGroup.Code)
}
