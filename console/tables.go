package console

import (
	"context"

	"github.com/ordernow/consync/gateway"
	"github.com/ordernow/consync/viewcache"
)

// Tables is the table management screen client.
type Tables struct {
	gw    *gateway.Gateway
	cache *viewcache.Cache
}

// Key returns the tables listing resource key.
func (t *Tables) Key() viewcache.Key {
	return viewcache.NewKey("tables", nil)
}

// Subscribe attaches to the table listing.
func (t *Tables) Subscribe() *viewcache.Subscription {
	return t.cache.Subscribe(t.Key(), fetchJSON(t.gw, "/tables", nil), viewcache.Options{})
}

// Create adds a table and refreshes the listing.
func (t *Tables) Create(ctx context.Context, in TableInput) error {
	m := t.cache.NewMutation(func(ctx context.Context, input any) error {
		return t.gw.Post(ctx, "/tables", input, nil)
	}, t.Key())
	return m.Do(ctx, in)
}

// Update replaces a table's details and refreshes the listing.
func (t *Tables) Update(ctx context.Context, tableID string, in TableInput) error {
	m := t.cache.NewMutation(func(ctx context.Context, input any) error {
		return t.gw.Put(ctx, "/tables/"+tableID, input, nil)
	}, t.Key())
	return m.Do(ctx, in)
}

// ToggleActive flips whether a table can be booked.
func (t *Tables) ToggleActive(ctx context.Context, tableID string) error {
	m := t.cache.NewMutation(func(ctx context.Context, _ any) error {
		return t.gw.Patch(ctx, "/tables/"+tableID+"/toggle-active", nil, nil)
	}, t.Key())
	return m.Do(ctx, nil)
}

// Delete removes a table and refreshes the listing.
func (t *Tables) Delete(ctx context.Context, tableID string) error {
	m := t.cache.NewMutation(func(ctx context.Context, _ any) error {
		return t.gw.Delete(ctx, "/tables/"+tableID, nil)
	}, t.Key())
	return m.Do(ctx, nil)
}

// DecodeTables extracts the typed table list from a snapshot.
func DecodeTables(snap viewcache.Snapshot) ([]Table, error) {
	return decodeList[Table](snap)
}
