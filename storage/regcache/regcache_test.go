package regcache

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classfence/core/tracking"
)

type countingRegistry struct {
	calls      int
	boundaries map[string]tracking.Boundary
}

func (reg *countingRegistry) BoundaryFor(_ context.Context, subjectID string) (tracking.Boundary, error) {
	reg.calls++
	if b, ok := reg.boundaries[subjectID]; ok {
		return b, nil
	}
	return tracking.Boundary{}, tracking.ErrNoBoundaryAssigned
}

func TestRegistry_BoundaryFor(t *testing.T) {
	ctx := context.Background()
	room := tracking.Boundary{ID: "c1", Center: tracking.Coordinate{Lat: 12.9716, Lng: 77.5946}, Radius: 50}
	next := &countingRegistry{boundaries: map[string]tracking.Boundary{"s1": room}}
	reg := New(next, time.Minute)

	for i := 0; i < 3; i++ {
		b, err := reg.BoundaryFor(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, room, b)
	}
	assert.Equal(t, 1, next.calls, "hits should be served from the cache")

	reg.Invalidate("s1")
	_, err := reg.BoundaryFor(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestRegistry_BoundaryFor_missesAreNotCached(t *testing.T) {
	ctx := context.Background()
	next := &countingRegistry{boundaries: map[string]tracking.Boundary{}}
	reg := New(next, time.Minute)

	_, err := reg.BoundaryFor(ctx, "s1")
	assert.Equal(t, tracking.ErrNoBoundaryAssigned, errors.Cause(err))

	next.boundaries["s1"] = tracking.Boundary{ID: "c1", Radius: 50}
	b, err := reg.BoundaryFor(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "c1", b.ID)
	assert.Equal(t, 2, next.calls)
}

func TestRegistry_BoundaryFor_expires(t *testing.T) {
	ctx := context.Background()
	next := &countingRegistry{boundaries: map[string]tracking.Boundary{"s1": {ID: "c1", Radius: 50}}}
	reg := New(next, 20*time.Millisecond)

	_, _ = reg.BoundaryFor(ctx, "s1")
	time.Sleep(40 * time.Millisecond)
	_, _ = reg.BoundaryFor(ctx, "s1")
	assert.Equal(t, 2, next.calls)
}
