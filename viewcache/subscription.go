package viewcache

import "sync"

// Subscription is one screen's attachment to a resource key.
type Subscription struct {
	cache *Cache
	key   Key
	id    int
	ch    chan Snapshot

	mu     sync.Mutex
	last   Snapshot
	closed bool
}

// Key returns the subscribed resource key.
func (s *Subscription) Key() Key { return s.key }

// Updates streams every state transition of the entry, starting with its
// state at subscription time. The channel closes when Close is called.
// A subscriber that stops draining misses intermediate transitions; Current
// always has the latest.
func (s *Subscription) Updates() <-chan Snapshot { return s.ch }

// Current returns the most recent snapshot delivered to this subscription.
func (s *Subscription) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Refetch forces a fresh fetch of the key, sharing any fetch already in
// flight.
func (s *Subscription) Refetch() {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	if e := s.cache.entries[s.key.String()]; e != nil {
		s.cache.refetchLocked(e)
	}
}

// Close detaches the subscription. When it is the last one on the key, the
// entry is dropped and its poll ticker stops. Close is idempotent.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cache.unsubscribe(s.key, s.id)
}

func (s *Subscription) deliver(snap Snapshot) {
	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()

	select {
	case s.ch <- snap:
	default:
	}
}
