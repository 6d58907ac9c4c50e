package viewcache

import (
	"iter"
	"sort"
	"time"
)

// EntryInfo describes a cache entry as seen at a point in time. The struct
// is a snapshot; the cache may have moved on since it was created.
type EntryInfo struct {
	Key         string    `json:"key"`
	Status      Status    `json:"status"`
	Stale       bool      `json:"stale"`
	LastUpdated time.Time `json:"last_updated"`
	Subscribers int       `json:"subscribers"`
	Polling     bool      `json:"polling"`
}

// Entries returns an iterator over all live entries, ordered by key.
func (c *Cache) Entries() iter.Seq[EntryInfo] {
	return func(yield func(EntryInfo) bool) {
		c.mu.Lock()
		infos := make([]EntryInfo, 0, len(c.entries))
		for k, e := range c.entries {
			infos = append(infos, EntryInfo{
				Key:         k,
				Status:      e.status,
				Stale:       e.stale,
				LastUpdated: e.lastUpdated,
				Subscribers: len(e.subs),
				Polling:     e.pollStop != nil,
			})
		}
		c.mu.Unlock()

		sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
		for _, info := range infos {
			if !yield(info) {
				return
			}
		}
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
