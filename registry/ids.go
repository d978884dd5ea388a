package registry

import (
	"sync"
	"time"
)

// IDGenerator hands out record ids.
type IDGenerator interface {
	// Next returns an id greater than every id returned or observed so far.
	Next() int64
	// Observe records an id that is already in use.
	Observe(id int64)
}

// MillisIDs issues millisecond timestamps as ids. When the clock hasn't
// moved past the last id, the last id plus one is used instead.
type MillisIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewMillisIDs(now func() time.Time) *MillisIDs {
	if now == nil {
		now = time.Now
	}
	return &MillisIDs{now: now}
}

func (g *MillisIDs) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id

	return id
}

func (g *MillisIDs) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id > g.last {
		g.last = id
	}
}
