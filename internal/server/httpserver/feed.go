package httpserver

import (
	"sync"

	"github.com/yndnr/snapmesh-go/internal/broadcast"
)

// DefaultFeedSize is the number of messages a Feed keeps.
const DefaultFeedSize = 256

// Feed keeps the most recent broadcast messages in arrival order.
type Feed struct {
	mu    sync.RWMutex
	buf   []broadcast.Received
	next  int
	full  bool
	total uint64
}

// NewFeed creates a feed holding up to size messages.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{buf: make([]broadcast.Received, size)}
}

// Add appends msg, evicting the oldest message when full. It has the
// signature of broadcast.Handler.
func (f *Feed) Add(msg broadcast.Received) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.buf[f.next] = msg
	f.next = (f.next + 1) % len(f.buf)
	if f.next == 0 {
		f.full = true
	}
	f.total++
}

// Total is the number of messages ever added.
func (f *Feed) Total() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.total
}

// Recent returns up to limit messages, newest first. An empty file
// matches every message; limit <= 0 means no limit.
func (f *Feed) Recent(file string, limit int) []broadcast.Received {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := f.next
	if f.full {
		n = len(f.buf)
	}
	out := make([]broadcast.Received, 0, n)
	for i := 0; i < n; i++ {
		idx := (f.next - 1 - i + len(f.buf)) % len(f.buf)
		msg := f.buf[idx]
		if file != "" && msg.File != file {
			continue
		}
		out = append(out, msg)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Get returns the retained message with id.
func (f *Feed) Get(id string) (broadcast.Received, bool) {
	for _, msg := range f.Recent("", 0) {
		if msg.ID == id {
			return msg, true
		}
	}
	return broadcast.Received{}, false
}
