package service

import (
	"sync"

	"github.com/yndnr/snapmesh-go/internal/core/domain"
)

// Tracker holds the identity of the test presently executing. The runner
// adapter sets it before each test; the Matcher only reads it and
// temporarily overrides the title.
type Tracker struct {
	mu   sync.RWMutex
	task domain.Task
}

var defaultTracker = &Tracker{}

// DefaultTracker returns the process-wide tracker used by adapters that have
// no better place to keep it.
func DefaultTracker() *Tracker {
	return defaultTracker
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetCurrent records the test about to run.
func (t *Tracker) SetCurrent(group, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.task = domain.Task{Group: group, Title: title}
}

// Current returns the test presently executing.
func (t *Tracker) Current() domain.Task {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.task
}

// Override replaces the current title until the returned func is called.
// Callers defer the restore so it runs on every exit path.
func (t *Tracker) Override(title string) (restore func()) {
	t.mu.Lock()
	prev := t.task.Title
	t.task.Title = title
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		t.task.Title = prev
		t.mu.Unlock()
	}
}
