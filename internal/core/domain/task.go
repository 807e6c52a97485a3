package domain

import "strconv"

// Task identifies the test that is currently executing.
//
// Group is the stable namespace of the baseline file (usually the top-level
// suite name). Title is the leaf test name; the matcher may replace it for
// the duration of a single assertion.
type Task struct {
	Group string
	Title string
}

// IsZero reports whether no test has been registered.
func (t Task) IsZero() bool {
	return t.Group == "" && t.Title == ""
}

// SnapshotKey formats the storage key for the given title and ordinal.
func SnapshotKey(title string, ordinal int) string {
	return title + " " + strconv.Itoa(ordinal)
}
