// Package regcache caches boundary lookups in front of a slower tracking.BoundaryRegistry.
package regcache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/trezcool/classfence/core/tracking"
)

type Registry struct {
	next  tracking.BoundaryRegistry
	cache *cache.Cache
}

var _ tracking.BoundaryRegistry = (*Registry)(nil) // interface compliance check

// New wraps next; boundaries are kept for ttl. Misses and errors are not cached.
func New(next tracking.BoundaryRegistry, ttl time.Duration) *Registry {
	return &Registry{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (reg *Registry) BoundaryFor(ctx context.Context, subjectID string) (tracking.Boundary, error) {
	if b, found := reg.cache.Get(subjectID); found {
		return b.(tracking.Boundary), nil
	}

	b, err := reg.next.BoundaryFor(ctx, subjectID)
	if err != nil {
		return tracking.Boundary{}, err
	}
	reg.cache.Set(subjectID, b, cache.DefaultExpiration)
	return b, nil
}

// Invalidate drops the cached boundary of the subject, e.g. after an enrollment change.
func (reg *Registry) Invalidate(subjectID string) {
	reg.cache.Delete(subjectID)
}

// Flush drops every cached boundary.
func (reg *Registry) Flush() {
	reg.cache.Flush()
}
