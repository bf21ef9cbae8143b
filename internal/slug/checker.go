package slug

import (
	"context"
	"sync"
)

// Result is the outcome of one availability check.
type Result struct {
	Slug      string `json:"slug"`
	Available bool   `json:"available"`
	Seq       uint64 `json:"seq"`
}

// Checker sequences availability checks so that only the most recently issued
// one can publish a result. Issuing a check cancels the one in flight.
type Checker struct {
	svc *Service

	mu        sync.Mutex
	seq       uint64
	cancel    context.CancelFunc
	latest    Result
	hasLatest bool
}

// NewChecker creates a Checker over svc.
func NewChecker(svc *Service) *Checker {
	return &Checker{svc: svc}
}

// Check runs an availability check. current is false when a later check was
// issued before this one finished; its result is then discarded.
func (c *Checker) Check(ctx context.Context, slug, excludingRestaurantID string) (res Result, current bool) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	available := c.svc.IsAvailable(ctx, slug, excludingRestaurantID)
	res = Result{Slug: Key(slug), Available: available, Seq: seq}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return res, false
	}
	cancel()
	c.cancel = nil
	c.latest = res
	c.hasLatest = true
	return res, true
}

// Latest returns the result of the most recent check that was not superseded.
func (c *Checker) Latest() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, c.hasLatest
}
