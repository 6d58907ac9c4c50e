package viewcache

import (
	"context"
	"sync/atomic"
)

// Action performs the remote write of a mutation.
type Action func(ctx context.Context, input any) error

// Mutation is a one-shot write plus the resource keys it invalidates on
// success. On failure the named entries are left exactly as they were: the
// console is pessimistic everywhere except the open/close toggle, which
// uses Patch/Restore around its mutation instead.
type Mutation struct {
	cache       *Cache
	action      Action
	invalidates []Key
	pending     atomic.Int32
}

// NewMutation creates a Mutation bound to this cache.
func (c *Cache) NewMutation(action Action, invalidates ...Key) *Mutation {
	return &Mutation{cache: c, action: action, invalidates: invalidates}
}

// Do runs the action. When it succeeds, every declared key is invalidated —
// subscribed keys refetch automatically, unsubscribed keys are dropped.
// Racing mutations on the same key settle last-wins; completion order is
// not assumed to match issuance order.
func (m *Mutation) Do(ctx context.Context, input any) error {
	m.pending.Add(1)
	defer m.pending.Add(-1)

	if err := m.action(ctx, input); err != nil {
		return err
	}
	m.cache.Invalidate(m.invalidates...)
	return nil
}

// Pending reports whether any Do call is currently in flight.
func (m *Mutation) Pending() bool { return m.pending.Load() > 0 }
