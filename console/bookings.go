package console

import (
	"context"
	"net/url"

	"github.com/ordernow/consync/gateway"
	"github.com/ordernow/consync/viewcache"
)

// Bookings is the reservations screen client.
type Bookings struct {
	gw    *gateway.Gateway
	cache *viewcache.Cache
}

// Key returns the bookings listing key for a day. date is "YYYY-MM-DD";
// empty means all upcoming bookings.
func (b *Bookings) Key(date string) viewcache.Key {
	params := map[string]string{}
	if date != "" {
		params["date"] = date
	}
	return viewcache.NewKey("bookings", params)
}

// Subscribe attaches to the booking listing for a day.
func (b *Bookings) Subscribe(date string) *viewcache.Subscription {
	query := url.Values{}
	if date != "" {
		query.Set("date", date)
	}
	return b.cache.Subscribe(b.Key(date),
		fetchJSON(b.gw, "/bookings/restaurant", query),
		viewcache.Options{})
}

// Cancel cancels a booking and refreshes the listing it came from.
func (b *Bookings) Cancel(ctx context.Context, bookingID, date string) error {
	m := b.cache.NewMutation(func(ctx context.Context, _ any) error {
		return b.gw.Patch(ctx, "/bookings/restaurant/"+bookingID+"/cancel", nil, nil)
	}, b.Key(date))
	return m.Do(ctx, nil)
}

// DecodeBookings extracts the typed booking list from a snapshot.
func DecodeBookings(snap viewcache.Snapshot) ([]Booking, error) {
	return decodeList[Booking](snap)
}
