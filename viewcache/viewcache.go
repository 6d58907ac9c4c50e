// Package viewcache binds console screens to remote resources. Each screen
// subscribes to a resource key and receives every state transition of that
// key's cache entry; mutations declare the keys they invalidate, and
// subscribed keys refetch automatically when a mutation settles. This is the
// sole consistency mechanism tying writes back to reads.
//
//	sub := cache.Subscribe(ordersKey, fetchOrders, viewcache.Options{
//		PollInterval: 15 * time.Second,
//	})
//	defer sub.Close()
//	for snap := range sub.Updates() { render(snap) }
//
// Entries move idle → loading → success|error and back to loading on any
// refetch (manual, poll tick, or invalidation). There is no terminal state:
// an entry stays refetchable until its last subscriber closes, at which
// point it is dropped and any poll ticker for it stops.
package viewcache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle state of a cache entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Key addresses one logical cached read: a resource name plus its effective
// filter parameters in canonical order. Two fetches with equal keys are the
// same subscription; changing a parameter produces a different key, never a
// mutation of the old one.
type Key struct {
	resource string
	params   string
}

// NewKey builds a Key. Params are canonicalized by sorting, so construction
// order never matters.
func NewKey(resource string, params map[string]string) Key {
	if len(params) == 0 {
		return Key{resource: resource}
	}
	names := make([]string, 0, len(params))
	for n := range params {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, n := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(params[n])
	}
	return Key{resource: resource, params: b.String()}
}

// Resource returns the resource name component.
func (k Key) Resource() string { return k.resource }

// String returns the canonical form, e.g. "orders?acceptanceStatus=pending&status=placed".
func (k Key) String() string {
	if k.params == "" {
		return k.resource
	}
	return k.resource + "?" + k.params
}

// IsZero reports whether the key is empty.
func (k Key) IsZero() bool { return k.resource == "" && k.params == "" }

// Fetcher loads the current remote value for a key.
type Fetcher func(ctx context.Context) (json.RawMessage, error)

// Snapshot is an immutable view of a cache entry at one instant.
type Snapshot struct {
	Key         Key
	Status      Status
	Data        json.RawMessage
	Err         error
	LastUpdated time.Time
	Stale       bool
}

// Options tunes one subscription.
type Options struct {
	// PollInterval re-runs the fetcher on a timer while at least one
	// subscriber holds the key. Zero disables polling. The timer stops
	// when the last subscriber closes.
	PollInterval time.Duration
}

// Recorder receives cache metrics. *metrics.Manager satisfies it.
type Recorder interface {
	RecordSimple(name string, value float64, unit string)
}

// Cache owns every entry and subscription. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	group    singleflight.Group
	logger   *slog.Logger
	recorder Recorder
}

type entry struct {
	key     Key
	fetcher Fetcher

	status      Status
	data        json.RawMessage
	err         error
	lastUpdated time.Time
	stale       bool

	// gen increments on every invalidation. A fetch that settles under a
	// newer generation than it started with immediately refetches, so a
	// mutation landing mid-flight is never masked by stale in-flight data.
	gen int64

	subs     map[int]*Subscription
	nextSub  int
	pollStop chan struct{}
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithRecorder enables refetch metrics.
func WithRecorder(r Recorder) Option {
	return func(c *Cache) { c.recorder = r }
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Subscribe attaches a listener to key, creating the entry on first use.
// The subscriber immediately receives the entry's current snapshot, then
// every later transition. Concurrent subscriptions to an equal key share a
// single in-flight fetch; no duplicate network calls are issued.
func (c *Cache) Subscribe(key Key, fetcher Fetcher, opts Options) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key.String()]
	if e == nil {
		e = &entry{
			key:    key,
			status: StatusIdle,
			subs:   make(map[int]*Subscription),
		}
		c.entries[key.String()] = e
	}
	e.fetcher = fetcher

	sub := &Subscription{
		cache: c,
		key:   key,
		id:    e.nextSub,
		ch:    make(chan Snapshot, 32),
	}
	e.nextSub++
	e.subs[sub.id] = sub

	if opts.PollInterval > 0 && e.pollStop == nil {
		stop := make(chan struct{})
		e.pollStop = stop
		go c.pollLoop(key, opts.PollInterval, stop)
	}

	// Seed the subscriber with the current state before any transition.
	sub.deliver(e.snapshot())

	switch e.status {
	case StatusIdle, StatusError:
		c.refetchLocked(e)
	case StatusSuccess:
		if e.stale {
			c.refetchLocked(e)
		}
	}
	return sub
}

// Invalidate marks the given keys stale. Subscribed keys refetch
// immediately; unsubscribed keys are dropped so the next subscription
// fetches fresh. Unknown keys are ignored.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		e := c.entries[k.String()]
		if e == nil {
			continue
		}
		if len(e.subs) == 0 {
			delete(c.entries, k.String())
			continue
		}
		e.stale = true
		e.gen++
		c.logger.Debug("viewcache: invalidated", "key", k.String())
		c.refetchLocked(e)
	}
}

// Patch applies a local transform to a key's cached value without touching
// the remote resource — the optimistic path used by the restaurant
// open/close toggle. It returns the previous value so the caller can revert
// on mutation failure, and reports whether a successful entry was present
// to patch.
func (c *Cache) Patch(key Key, fn func(json.RawMessage) json.RawMessage) (prev json.RawMessage, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key.String()]
	if e == nil || e.status != StatusSuccess {
		return nil, false
	}
	prev = e.data
	e.data = fn(e.data)
	e.lastUpdated = time.Now()
	c.notifyLocked(e)
	return prev, true
}

// Restore reinstates a value previously returned by Patch.
func (c *Cache) Restore(key Key, prev json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key.String()]
	if e == nil || e.status != StatusSuccess {
		return
	}
	e.data = prev
	e.lastUpdated = time.Now()
	c.notifyLocked(e)
}

// refetchLocked transitions the entry to loading and starts the fetch.
// Callers hold c.mu. An entry already loading is left alone: the generation
// check on settle picks up any invalidation that arrived meanwhile.
func (c *Cache) refetchLocked(e *entry) {
	if e.status == StatusLoading {
		return
	}
	e.status = StatusLoading
	c.notifyLocked(e)

	key := e.key
	fetcher := e.fetcher
	startGen := e.gen

	go func() {
		// singleflight coalesces the one remaining duplicate-fetch
		// window: an entry dropped and re-created while its previous
		// fetch is still in flight joins that call instead of issuing
		// a second one.
		v, err, _ := c.group.Do(key.String(), func() (any, error) {
			return fetcher(context.Background())
		})

		c.mu.Lock()
		defer c.mu.Unlock()

		e, live := c.entries[key.String()]
		if !live {
			return
		}

		if err != nil {
			e.status = StatusError
			e.err = err
		} else {
			data, _ := v.(json.RawMessage)
			e.status = StatusSuccess
			e.data = data
			e.err = nil
		}
		e.lastUpdated = time.Now()

		if c.recorder != nil {
			c.recorder.RecordSimple("viewcache.refetch", 1, "count")
		}

		if e.gen != startGen {
			// Invalidated while the fetch was in flight: the result we
			// just stored may predate the mutation. Fetch again.
			c.notifyLocked(e)
			c.refetchLocked(e)
			return
		}
		e.stale = false
		c.notifyLocked(e)
	}()
}

func (c *Cache) pollLoop(key Key, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Debug("viewcache: polling started", "key", key.String(), "interval", interval)
	for {
		select {
		case <-stop:
			c.logger.Debug("viewcache: polling stopped", "key", key.String())
			return
		case <-ticker.C:
			c.mu.Lock()
			if e := c.entries[key.String()]; e != nil {
				c.refetchLocked(e)
			}
			c.mu.Unlock()
		}
	}
}

// notifyLocked pushes the entry's current snapshot to every subscriber.
// Callers hold c.mu.
func (c *Cache) notifyLocked(e *entry) {
	snap := e.snapshot()
	for _, sub := range e.subs {
		sub.deliver(snap)
	}
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		Key:         e.key,
		Status:      e.status,
		Data:        e.data,
		Err:         e.err,
		LastUpdated: e.lastUpdated,
		Stale:       e.stale,
	}
}

// unsubscribe detaches one subscription; the last one out drops the entry
// and stops its poll ticker.
func (c *Cache) unsubscribe(key Key, id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key.String()]
	if e == nil {
		return
	}
	sub, ok := e.subs[id]
	if !ok {
		return
	}
	delete(e.subs, id)
	close(sub.ch)

	if len(e.subs) == 0 {
		if e.pollStop != nil {
			close(e.pollStop)
			e.pollStop = nil
		}
		delete(c.entries, key.String())
		c.logger.Debug("viewcache: entry dropped", "key", key.String())
	}
}
