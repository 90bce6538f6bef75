package job

import "sync"

// CancelSet records cancellation requests. It is guarded independently of
// the job table, so the two locks are short-held and never nested, and is
// checked by the worker at its discrete safe points.
type CancelSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewCancelSet creates an empty set.
func NewCancelSet() *CancelSet {
	return &CancelSet{ids: make(map[string]struct{})}
}

// Request marks a job id as cancellation-requested.
func (c *CancelSet) Request(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[id] = struct{}{}
}

// Requested reports whether cancellation was requested for a job id.
func (c *CancelSet) Requested(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.ids[id]
	return ok
}
