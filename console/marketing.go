package console

import (
	"context"

	"github.com/ordernow/consync/gateway"
	"github.com/ordernow/consync/viewcache"
)

// Marketing is the announcements screen client. Creating announcements
// uploads media via multipart and stays outside the sync engine; the
// listing, stats and lifecycle toggles live here.
type Marketing struct {
	gw    *gateway.Gateway
	cache *viewcache.Cache
}

// Key returns the announcement listing resource key.
func (m *Marketing) Key() viewcache.Key {
	return viewcache.NewKey("announcements", nil)
}

// StatsKey returns the engagement stats resource key.
func (m *Marketing) StatsKey() viewcache.Key {
	return viewcache.NewKey("announcement-stats", nil)
}

// Subscribe attaches to the announcement listing.
func (m *Marketing) Subscribe() *viewcache.Subscription {
	return m.cache.Subscribe(m.Key(),
		fetchJSON(m.gw, "/announcements/owner/all", nil),
		viewcache.Options{})
}

// SubscribeStats attaches to the engagement stats.
func (m *Marketing) SubscribeStats() *viewcache.Subscription {
	return m.cache.Subscribe(m.StatsKey(),
		fetchJSON(m.gw, "/announcements/stats", nil),
		viewcache.Options{})
}

// Delete removes an announcement and refreshes the listing.
func (m *Marketing) Delete(ctx context.Context, announcementID string) error {
	mu := m.cache.NewMutation(func(ctx context.Context, _ any) error {
		return m.gw.Delete(ctx, "/announcements/"+announcementID, nil)
	}, m.Key())
	return mu.Do(ctx, nil)
}

// ToggleActive pauses or resumes an announcement.
func (m *Marketing) ToggleActive(ctx context.Context, announcementID string) error {
	mu := m.cache.NewMutation(func(ctx context.Context, _ any) error {
		return m.gw.Patch(ctx, "/announcements/"+announcementID+"/toggle-active", nil, nil)
	}, m.Key())
	return mu.Do(ctx, nil)
}

// DecodeAnnouncements extracts the typed announcement list from a snapshot.
func DecodeAnnouncements(snap viewcache.Snapshot) ([]Announcement, error) {
	return decodeList[Announcement](snap)
}

// DecodeAnnouncementStats extracts the typed stats from a snapshot.
func DecodeAnnouncementStats(snap viewcache.Snapshot) (AnnouncementStats, error) {
	return decodeOne[AnnouncementStats](snap)
}
