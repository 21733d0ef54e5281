// Package dedupe guards a fold against counting the same event twice.
package dedupe

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Deduper records seen event ids.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(id string) bool

	Size() int64
}

// guard implements Deduper with a map. It lives for one fold and may be
// shared by concurrent readers.
type guard struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	capacity int
	size     atomic.Int64
}

// New creates an empty guard.
func New(opts ...Option) Deduper {
	g := &guard{}
	for _, opt := range opts {
		opt(g)
	}
	g.seen = make(map[string]struct{}, g.capacity)
	return g
}

func (g *guard) SeenAndRecord(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.seen[id]; exists {
		return true
	}
	g.seen[id] = struct{}{}
	g.size.Add(1)
	return false
}

func (g *guard) Size() int64 {
	return g.size.Load()
}

// Key joins the parts identifying one contribution, e.g. a match id and
// the side it is read from.
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}
