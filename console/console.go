package console

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/ordernow/consync/gateway"
	"github.com/ordernow/consync/viewcache"
)

// Console bundles every screen client over one gateway and one cache.
type Console struct {
	Orders    *Orders
	Menu      *Menu
	Tables    *Tables
	Bookings  *Bookings
	Fleet     *Fleet
	Marketing *Marketing
	Settings  *Settings
	Stats     *Stats
}

// Option customises a Console.
type Option func(*Console)

// WithOrdersPollInterval overrides the New tab's 15s poll interval.
func WithOrdersPollInterval(d time.Duration) Option {
	return func(c *Console) {
		if d > 0 {
			c.Orders.pollInterval = d
		}
	}
}

// New wires all screen clients. ownerID scopes the menu listing, matching
// the per-owner menu route of the backend.
func New(gw *gateway.Gateway, cache *viewcache.Cache, ownerID string, opts ...Option) *Console {
	c := &Console{
		Orders:    &Orders{gw: gw, cache: cache, pollInterval: newOrdersPollInterval},
		Menu:      &Menu{gw: gw, cache: cache, ownerID: ownerID},
		Tables:    &Tables{gw: gw, cache: cache},
		Bookings:  &Bookings{gw: gw, cache: cache},
		Fleet:     &Fleet{gw: gw, cache: cache},
		Marketing: &Marketing{gw: gw, cache: cache},
		Settings:  &Settings{gw: gw, cache: cache},
		Stats:     &Stats{gw: gw, cache: cache},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fetchJSON adapts a gateway read into a viewcache fetcher: the envelope's
// data member is kept raw so the cache stays payload-agnostic.
func fetchJSON(gw *gateway.Gateway, path string, query url.Values) viewcache.Fetcher {
	return func(ctx context.Context) (json.RawMessage, error) {
		var raw json.RawMessage
		if err := gw.Get(ctx, path, query, &raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
}

// decodeList decodes a snapshot's payload into a slice of T. A snapshot that
// has no data yet yields an empty slice.
func decodeList[T any](snap viewcache.Snapshot) ([]T, error) {
	if len(snap.Data) == 0 {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(snap.Data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeOne decodes a snapshot's payload into a single T.
func decodeOne[T any](snap viewcache.Snapshot) (T, error) {
	var out T
	if len(snap.Data) == 0 {
		return out, nil
	}
	err := json.Unmarshal(snap.Data, &out)
	return out, err
}
