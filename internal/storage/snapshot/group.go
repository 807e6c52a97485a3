package snapshot

import "github.com/yndnr/snapmesh-go/internal/core/domain"

// Group is the in-memory state of one baseline file.
type Group struct {
	// Name is the group (baseline file) name.
	Name string

	// Content is nil until loaded, or when no baseline exists.
	Content *domain.Content

	calls  []Call
	loaded bool
	fresh  bool
}

func newGroup(name string) *Group {
	return &Group{Name: name}
}

// Loaded reports whether a load from storage has been attempted successfully.
func (g *Group) Loaded() bool {
	return g.loaded
}

// EnsureContent makes Content a live mapping, creating an empty one if needed.
func (g *Group) EnsureContent() *domain.Content {
	if g.Content == nil {
		g.Content = domain.NewContent()
	}
	return g.Content
}

// ResetFresh discards the group's content the first time it is called in a
// run and reports whether it did. Later calls keep merging into the fresh
// content, which gives overwrite-all semantics scoped to the group.
func (g *Group) ResetFresh() bool {
	if g.fresh {
		return false
	}
	g.Content = domain.NewContent()
	g.fresh = true
	g.loaded = true
	return true
}
