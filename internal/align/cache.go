package align

// #region imports
import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// #endregion

// #region cached

// Cached memoizes assessments per (description, commitment) pair with TTL
// eviction, so an unchanged foreground window is not re-classified every
// poll tick.
type Cached struct {
	inner Classifier
	lru   *expirable.LRU[string, Assessment]
}

// NewCached wraps a classifier with an expiring LRU of the given size.
func NewCached(inner Classifier, size int, ttl time.Duration) *Cached {
	if size <= 0 {
		size = 256
	}
	return &Cached{
		inner: inner,
		lru:   expirable.NewLRU[string, Assessment](size, nil, ttl),
	}
}

// Analyze implements Classifier.
func (c *Cached) Analyze(ctx context.Context, description, commitment string) (Assessment, error) {
	key := description + "\x00" + commitment
	if a, ok := c.lru.Get(key); ok {
		return a, nil
	}
	a, err := c.inner.Analyze(ctx, description, commitment)
	if err != nil {
		return Assessment{}, err
	}
	c.lru.Add(key, a)
	return a, nil
}

// Len reports the number of live cache entries.
func (c *Cached) Len() int {
	return c.lru.Len()
}

// Purge drops every cached assessment. Called when the profile's
// distraction globs change, so stale verdicts do not outlive the edit.
func (c *Cached) Purge() {
	c.lru.Purge()
}

// #endregion
