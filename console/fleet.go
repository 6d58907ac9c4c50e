package console

import (
	"context"

	"github.com/ordernow/consync/gateway"
	"github.com/ordernow/consync/viewcache"
)

// Fleet is the delivery partner management screen client.
type Fleet struct {
	gw    *gateway.Gateway
	cache *viewcache.Cache
}

// Key returns the partner listing resource key.
func (f *Fleet) Key() viewcache.Key {
	return viewcache.NewKey("delivery-partners", nil)
}

// Subscribe attaches to the partner listing.
func (f *Fleet) Subscribe() *viewcache.Subscription {
	return f.cache.Subscribe(f.Key(),
		fetchJSON(f.gw, "/owner/delivery-partners", nil),
		viewcache.Options{})
}

// Add onboards a delivery partner and refreshes the listing.
func (f *Fleet) Add(ctx context.Context, in PartnerInput) error {
	m := f.cache.NewMutation(func(ctx context.Context, input any) error {
		return f.gw.Post(ctx, "/owner/delivery-partners", input, nil)
	}, f.Key())
	return m.Do(ctx, in)
}

// DecodePartners extracts the typed partner list from a snapshot.
func DecodePartners(snap viewcache.Snapshot) ([]DeliveryPartner, error) {
	return decodeList[DeliveryPartner](snap)
}
