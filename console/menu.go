package console

import (
	"context"
	"net/url"

	"github.com/ordernow/consync/gateway"
	"github.com/ordernow/consync/viewcache"
)

// Menu is the menu management screen client. The listing is scoped to the
// owning restaurant.
type Menu struct {
	gw      *gateway.Gateway
	cache   *viewcache.Cache
	ownerID string
}

// Key returns the menu listing resource key.
func (m *Menu) Key() viewcache.Key {
	return viewcache.NewKey("menu-items", map[string]string{"owner": m.ownerID})
}

// Subscribe attaches to the menu item listing.
func (m *Menu) Subscribe() *viewcache.Subscription {
	path := "/menu-items/restaurant/" + m.ownerID
	return m.cache.Subscribe(m.Key(),
		fetchJSON(m.gw, path, url.Values{"limit": {"100"}}),
		viewcache.Options{})
}

// SetAvailability flips an item's sold-out state and refreshes the listing.
func (m *Menu) SetAvailability(ctx context.Context, itemID string, available bool) error {
	mu := m.cache.NewMutation(func(ctx context.Context, _ any) error {
		return m.gw.Put(ctx, "/menu-items/"+itemID,
			map[string]bool{"isAvailable": available}, nil)
	}, m.Key())
	return mu.Do(ctx, nil)
}

// Delete removes a menu item and refreshes the listing.
func (m *Menu) Delete(ctx context.Context, itemID string) error {
	mu := m.cache.NewMutation(func(ctx context.Context, _ any) error {
		return m.gw.Delete(ctx, "/menu-items/"+itemID, nil)
	}, m.Key())
	return mu.Do(ctx, nil)
}

// DecodeMenuItems extracts the typed item list from a snapshot.
func DecodeMenuItems(snap viewcache.Snapshot) ([]MenuItem, error) {
	return decodeList[MenuItem](snap)
}
