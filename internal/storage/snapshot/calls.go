package snapshot

import "github.com/yndnr/snapmesh-go/internal/core/domain"

// Call is the counter entry of one title within a group.
type Call struct {
	Title string
	// Count is the next ordinal to hand out.
	Count int
}

// Next returns the snapshot key and ordinal for title and advances the
// counter. Ordinals start at 1 and are never reused within a run.
func (g *Group) Next(title string) (string, int) {
	for i := range g.calls {
		if g.calls[i].Title == title {
			ordinal := g.calls[i].Count
			g.calls[i].Count++
			return domain.SnapshotKey(title, ordinal), ordinal
		}
	}

	g.calls = append(g.calls, Call{Title: title, Count: 2})
	return domain.SnapshotKey(title, 1), 1
}

// Calls returns a copy of the counter table in first-seen order.
func (g *Group) Calls() []Call {
	out := make([]Call, len(g.calls))
	copy(out, g.calls)
	return out
}
