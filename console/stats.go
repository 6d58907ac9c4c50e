package console

import (
	"encoding/json"

	"github.com/ordernow/consync/gateway"
	"github.com/ordernow/consync/viewcache"
)

// Stats is the dashboard/performance screen client: order statistics and
// the three report feeds.
type Stats struct {
	gw    *gateway.Gateway
	cache *viewcache.Cache
}

// Key returns the order statistics resource key.
func (s *Stats) Key() viewcache.Key {
	return viewcache.NewKey("order-stats", nil)
}

// Subscribe attaches to the order statistics.
func (s *Stats) Subscribe() *viewcache.Subscription {
	return s.cache.Subscribe(s.Key(),
		fetchJSON(s.gw, "/orders/restaurant/stats", nil),
		viewcache.Options{})
}

// SubscribeSalesReport attaches to the sales report feed.
func (s *Stats) SubscribeSalesReport() *viewcache.Subscription {
	return s.cache.Subscribe(viewcache.NewKey("report-sales", nil),
		fetchJSON(s.gw, "/orders/restaurant/reports/sales", nil),
		viewcache.Options{})
}

// SubscribeOrdersReport attaches to the orders report feed.
func (s *Stats) SubscribeOrdersReport() *viewcache.Subscription {
	return s.cache.Subscribe(viewcache.NewKey("report-orders", nil),
		fetchJSON(s.gw, "/orders/restaurant/reports/orders", nil),
		viewcache.Options{})
}

// SubscribeMenuPerformance attaches to the menu performance report feed.
func (s *Stats) SubscribeMenuPerformance() *viewcache.Subscription {
	return s.cache.Subscribe(viewcache.NewKey("report-menu-performance", nil),
		fetchJSON(s.gw, "/orders/restaurant/reports/menu-performance", nil),
		viewcache.Options{})
}

// DecodeOrderStats extracts the typed statistics from a snapshot.
func DecodeOrderStats(snap viewcache.Snapshot) (OrderStats, error) {
	return decodeOne[OrderStats](snap)
}

// DecodeReport returns a report payload as raw JSON; report shapes vary by
// backend version and the dashboard charts render them generically.
func DecodeReport(snap viewcache.Snapshot) json.RawMessage {
	return snap.Data
}
