package console

import (
	"context"
	"net/url"
	"time"

	"github.com/ordernow/consync/gateway"
	"github.com/ordernow/consync/viewcache"
)

// OrderTab selects one stage of the order pipeline. Each tab is a distinct
// resource key: switching tabs is a new subscription, never a mutation of
// the previous one.
type OrderTab string

const (
	TabNew            OrderTab = "new"
	TabPreparing      OrderTab = "preparing"
	TabOutForDelivery OrderTab = "out_for_delivery"
	TabPast           OrderTab = "past"
)

// newOrdersPollInterval is the default for the New tab, the only tab that
// polls. Polling is silent (no global loader).
const newOrdersPollInterval = 15 * time.Second

// orderListLimit caps every order listing request.
const orderListLimit = "50"

// tabFilter returns the status filter pair for a tab.
func (t OrderTab) tabFilter() (status, acceptance string) {
	switch t {
	case TabNew:
		return "placed", "pending"
	case TabPreparing:
		return "placed", "accepted"
	case TabOutForDelivery:
		return "out_for_delivery", "accepted"
	case TabPast:
		return "delivered", ""
	default:
		return "", ""
	}
}

// Orders is the live-orders screen client.
type Orders struct {
	gw           *gateway.Gateway
	cache        *viewcache.Cache
	pollInterval time.Duration
}

// Key returns the resource key for one tab.
func (o *Orders) Key(tab OrderTab) viewcache.Key {
	status, acceptance := tab.tabFilter()
	params := map[string]string{"limit": orderListLimit}
	if status != "" {
		params["status"] = status
	}
	if acceptance != "" {
		params["acceptanceStatus"] = acceptance
	}
	return viewcache.NewKey("orders", params)
}

// Subscribe attaches to a tab's order listing. The New tab polls on a fixed
// interval for as long as the subscription is open; the others fetch once
// per subscription.
func (o *Orders) Subscribe(tab OrderTab) *viewcache.Subscription {
	status, acceptance := tab.tabFilter()

	endpoint := "/orders/restaurant"
	if tab == TabNew {
		endpoint = "/orders/restaurant/new"
	}

	query := url.Values{"limit": {orderListLimit}}
	if status != "" {
		query.Set("status", status)
	}
	if acceptance != "" {
		query.Set("acceptanceStatus", acceptance)
	}

	opts := viewcache.Options{}
	if tab == TabNew {
		opts.PollInterval = o.pollInterval
	}
	return o.cache.Subscribe(o.Key(tab), fetchJSON(o.gw, endpoint, query), opts)
}

// Respond accepts or rejects a pending order and invalidates the tab the
// user is looking at, so the card leaves the listing without a manual
// refresh.
func (o *Orders) Respond(ctx context.Context, orderID string, accept bool, tab OrderTab) error {
	acceptance := "rejected"
	if accept {
		acceptance = "accepted"
	}
	m := o.cache.NewMutation(func(ctx context.Context, _ any) error {
		return o.gw.Patch(ctx, "/orders/"+orderID+"/respond",
			map[string]string{"acceptance": acceptance}, nil)
	}, o.Key(tab))
	return m.Do(ctx, nil)
}

// AssignDriver assigns a delivery partner to an order.
func (o *Orders) AssignDriver(ctx context.Context, orderID, partnerID string, tab OrderTab) error {
	m := o.cache.NewMutation(func(ctx context.Context, _ any) error {
		return o.gw.Patch(ctx, "/orders/"+orderID+"/assign-delivery",
			map[string]string{"deliveryPartnerId": partnerID}, nil)
	}, o.Key(tab))
	return m.Do(ctx, nil)
}

// DecodeOrders extracts the typed order list from a snapshot.
func DecodeOrders(snap viewcache.Snapshot) ([]Order, error) {
	return decodeList[Order](snap)
}
