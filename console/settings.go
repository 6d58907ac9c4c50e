package console

import (
	"context"
	"encoding/json"

	"github.com/ordernow/consync/gateway"
	"github.com/ordernow/consync/viewcache"
)

// Settings is the account settings screen client, including the open/close
// toggle in the console header.
type Settings struct {
	gw    *gateway.Gateway
	cache *viewcache.Cache
}

// Key returns the restaurant profile resource key.
func (s *Settings) Key() viewcache.Key {
	return viewcache.NewKey("restaurant", nil)
}

// Subscribe attaches to the restaurant profile. Loading the settings screen
// shows the global loader; this is the one read that opts in.
func (s *Settings) Subscribe() *viewcache.Subscription {
	fetch := func(ctx context.Context) (json.RawMessage, error) {
		var raw json.RawMessage
		if err := s.gw.GetBusy(ctx, "/restaurants/me", nil, &raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
	return s.cache.Subscribe(s.Key(), fetch, viewcache.Options{})
}

// UpdateProfile saves the identity section and refreshes the profile.
func (s *Settings) UpdateProfile(ctx context.Context, in ProfileInput) error {
	m := s.cache.NewMutation(func(ctx context.Context, input any) error {
		return s.gw.Put(ctx, "/restaurants/profile", input, nil)
	}, s.Key())
	return m.Do(ctx, in)
}

// UpdateSettings saves the operational section and refreshes the profile.
func (s *Settings) UpdateSettings(ctx context.Context, in SettingsInput) error {
	m := s.cache.NewMutation(func(ctx context.Context, input any) error {
		return s.gw.Put(ctx, "/restaurants/settings", input, nil)
	}, s.Key())
	return m.Do(ctx, in)
}

// ToggleStatus flips the store between open and closed. This is the single
// optimistic mutation in the console: the cached profile's isActive flag is
// flipped immediately so the header switch responds instantly, and restored
// if the backend rejects the toggle. Success also invalidates the order
// stats the dashboard shows.
func (s *Settings) ToggleStatus(ctx context.Context, statsKey viewcache.Key) error {
	prev, patched := s.cache.Patch(s.Key(), flipIsActive)

	m := s.cache.NewMutation(func(ctx context.Context, _ any) error {
		return s.gw.Patch(ctx, "/restaurants/toggle-status", nil, nil)
	}, s.Key(), statsKey)

	if err := m.Do(ctx, nil); err != nil {
		if patched {
			s.cache.Restore(s.Key(), prev)
		}
		return err
	}
	return nil
}

// DecodeProfile extracts the typed profile from a snapshot.
func DecodeProfile(snap viewcache.Snapshot) (RestaurantProfile, error) {
	return decodeOne[RestaurantProfile](snap)
}

// flipIsActive toggles the isActive field of a raw profile document,
// leaving every other field untouched. A payload that does not parse is
// returned as-is.
func flipIsActive(data json.RawMessage) json.RawMessage {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return data
	}
	var active bool
	if err := json.Unmarshal(doc["isActive"], &active); err != nil {
		return data
	}
	flipped, err := json.Marshal(!active)
	if err != nil {
		return data
	}
	doc["isActive"] = flipped
	out, err := json.Marshal(doc)
	if err != nil {
		return data
	}
	return out
}
