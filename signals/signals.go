// Package signals tracks the two process-wide UI indicators of the console
// sync engine: the busy counter behind the global loading spinner and the
// degraded-mode flag behind the offline banner.
//
// A Hub is injected into the gateway and into anything that renders the
// indicators; there are no package-level globals, so tests construct a fresh
// Hub each. Publishing never blocks: a subscriber that falls behind misses
// events rather than stalling the caller.
package signals

import (
	"log/slog"
	"sync"
)

// Kind identifies the event channel an Event belongs to.
type Kind string

const (
	// KindBusyChanged fires whenever the busy counter moves.
	KindBusyChanged Kind = "busy-state-changed"
	// KindDegradedEntered fires once, on the first transition into
	// degraded mode.
	KindDegradedEntered Kind = "degraded-mode-entered"
)

// Event is a broadcast state change.
type Event struct {
	Kind Kind
	// Busy is the counter value after the change (busy events only).
	Busy int
	// Reason is the request path that triggered degradation (degraded
	// events only).
	Reason string
}

// Snapshot is a point-in-time view of both indicators.
type Snapshot struct {
	Busy     int  `json:"busy"`
	Degraded bool `json:"degraded"`
}

// Hub owns the busy counter and the degraded flag.
// Safe for concurrent use.
type Hub struct {
	mu       sync.Mutex
	busy     int
	degraded bool
	subs     map[int]chan Event
	nextSub  int
	logger   *slog.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets a custom logger for the hub.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// NewHub creates a Hub with a zero busy counter and degraded mode off.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:   make(map[int]chan Event),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// BusyBegin increments the busy counter and broadcasts the new value.
func (h *Hub) BusyBegin() {
	h.mu.Lock()
	h.busy++
	n := h.busy
	h.publishLocked(Event{Kind: KindBusyChanged, Busy: n})
	h.mu.Unlock()
}

// BusyEnd decrements the busy counter and broadcasts the new value.
// The counter never goes negative: an unpaired BusyEnd is logged and clamped.
func (h *Hub) BusyEnd() {
	h.mu.Lock()
	if h.busy == 0 {
		h.logger.Warn("signals: BusyEnd without matching BusyBegin")
		h.mu.Unlock()
		return
	}
	h.busy--
	n := h.busy
	h.publishLocked(Event{Kind: KindBusyChanged, Busy: n})
	h.mu.Unlock()
}

// EnterDegraded raises the degraded-mode flag. The first call broadcasts a
// degraded event; later calls are no-ops. The flag is never cleared within a
// Hub lifetime; recovery means building a fresh Hub.
func (h *Hub) EnterDegraded(reason string) {
	h.mu.Lock()
	if h.degraded {
		h.mu.Unlock()
		return
	}
	h.degraded = true
	h.logger.Warn("signals: entering degraded mode", "reason", reason)
	h.publishLocked(Event{Kind: KindDegradedEntered, Reason: reason})
	h.mu.Unlock()
}

// Degraded reports whether degraded mode has been entered.
func (h *Hub) Degraded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.degraded
}

// Busy returns the current counter value.
func (h *Hub) Busy() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.busy
}

// Snapshot returns both indicators read under one lock.
func (h *Hub) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Snapshot{Busy: h.busy, Degraded: h.degraded}
}

// Subscribe registers a listener and returns its event channel plus a cancel
// function. The channel is buffered; events overflowing the buffer are
// dropped for that subscriber.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	ch := make(chan Event, 16)
	h.subs[id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) publishLocked(ev Event) {
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is not draining; drop rather than block.
		}
	}
}
