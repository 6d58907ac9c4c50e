// Package offline holds the static substitution store that keeps the console
// demonstrably usable when the backend is unreachable. It maps known request
// path fragments to canned JSON payloads; the gateway consults it only on
// transport-level failures, never on HTTP error statuses.
//
// Payloads are versioned by code deployment only — no TTL, no invalidation.
// Each payload is the bare `data` member of the API envelope; the gateway
// wraps it in a synthetic success envelope so callers cannot tell a
// substitution happened.
package offline

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
)

//go:embed fixtures/*.json
var fixtureFS embed.FS

// fixtureFragments maps embedded fixture files to the path fragment they
// substitute for. Fragment matching is substring-based, so a fragment covers
// every endpoint whose path contains it (e.g. "/orders/restaurant" also
// serves "/orders/restaurant/new").
var fixtureFragments = map[string]string{
	"/orders/restaurant/stats": "order_stats.json",
	"/orders/restaurant":       "orders.json",
	"/menu-items/restaurant":   "menu_items.json",
	"/owner/delivery-partners": "delivery_partners.json",
	"/tables":                  "tables.json",
	"/bookings/restaurant":     "bookings.json",
	"/announcements/owner/all": "announcements.json",
	"/announcements/stats":     "announcement_stats.json",
	"/restaurants":             "restaurant_profile.json",
}

// Store is a read-only registry of path fragments and their payloads.
// Registration happens at startup; Lookup is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	fragments map[string]json.RawMessage
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{fragments: make(map[string]json.RawMessage)}
}

// Fixtures returns a Store pre-loaded with the embedded demo dataset:
// order stats, order/menu/table/booking listings, delivery partners,
// announcements and the restaurant profile.
func Fixtures() (*Store, error) {
	s := NewStore()
	for fragment, file := range fixtureFragments {
		payload, err := fs.ReadFile(fixtureFS, "fixtures/"+file)
		if err != nil {
			return nil, fmt.Errorf("offline: read fixture %s: %w", file, err)
		}
		if !json.Valid(payload) {
			return nil, fmt.Errorf("offline: fixture %s is not valid JSON", file)
		}
		s.Register(fragment, payload)
	}
	return s, nil
}

// MustFixtures is Fixtures for composition roots where a broken embedded
// fixture is a programming error.
func MustFixtures() *Store {
	s, err := Fixtures()
	if err != nil {
		panic(err)
	}
	return s
}

// Register adds or replaces the payload for a path fragment.
func (s *Store) Register(fragment string, payload json.RawMessage) {
	s.mu.Lock()
	s.fragments[fragment] = payload
	s.mu.Unlock()
}

// Lookup returns the payload for the first fragment contained in path.
// When several fragments match, the longest one wins (a fragment for a
// sub-resource beats the fragment for its parent collection); equal lengths
// tie-break lexicographically so the result never depends on map order.
// The matched fragment is returned for logging.
func (s *Store) Lookup(path string) (payload json.RawMessage, fragment string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for f, p := range s.fragments {
		if !strings.Contains(path, f) {
			continue
		}
		if !ok || len(f) > len(fragment) || (len(f) == len(fragment) && f < fragment) {
			payload, fragment, ok = p, f, true
		}
	}
	return payload, fragment, ok
}

// Fragments returns the registered fragments in sorted order.
func (s *Store) Fragments() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.fragments))
	for f := range s.fragments {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
