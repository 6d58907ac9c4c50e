package viewcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

// awaitStatus drains a subscription until it observes the wanted status and
// returns that snapshot.
func awaitStatus(t *testing.T, sub *Subscription, want Status) Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-sub.Updates():
			if !ok {
				t.Fatalf("updates closed while waiting for %q", want)
			}
			if snap.Status == want {
				return snap
			}
		case <-timeout:
			t.Fatalf("timed out waiting for status %q (current %q)", want, sub.Current().Status)
		}
	}
}

// awaitData drains a subscription until a success snapshot carries the wanted
// payload.
func awaitData(t *testing.T, sub *Subscription, want string) Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-sub.Updates():
			if !ok {
				t.Fatalf("updates closed while waiting for data %q", want)
			}
			if snap.Status == StatusSuccess && string(snap.Data) == want {
				return snap
			}
		case <-timeout:
			t.Fatalf("timed out waiting for data %q (current %q %s)",
				want, sub.Current().Status, sub.Current().Data)
		}
	}
}

func TestNewKey_Canonical(t *testing.T) {
	a := NewKey("orders", map[string]string{"status": "placed", "limit": "50"})
	b := NewKey("orders", map[string]string{"limit": "50", "status": "placed"})
	if a != b {
		t.Fatalf("equal params produced different keys: %q vs %q", a, b)
	}
	if got := a.String(); got != "orders?limit=50&status=placed" {
		t.Fatalf("String() = %q", got)
	}
	if NewKey("orders", nil).String() != "orders" {
		t.Fatal("param-less key must be the bare resource")
	}
	if a == NewKey("orders", map[string]string{"limit": "50"}) {
		t.Fatal("different params must produce different keys")
	}
}

func TestSubscribe_FirstFetchLifecycle(t *testing.T) {
	c := New()
	key := NewKey("tables", nil)

	sub := c.Subscribe(key, func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(`["t1"]`), nil
	}, Options{})
	defer sub.Close()

	// idle seed, then loading, then success.
	first := <-sub.Updates()
	if first.Status != StatusIdle {
		t.Fatalf("first snapshot = %q, want idle", first.Status)
	}
	awaitStatus(t, sub, StatusLoading)
	snap := awaitData(t, sub, `["t1"]`)
	if snap.Stale || snap.LastUpdated.IsZero() {
		t.Fatalf("settled snapshot = %+v", snap)
	}
}

func TestSubscribe_SharesOneFetch(t *testing.T) {
	c := New()
	key := NewKey("orders", map[string]string{"status": "placed"})

	var fetches atomic.Int32
	release := make(chan struct{})
	fetcher := func(ctx context.Context) (json.RawMessage, error) {
		fetches.Add(1)
		<-release
		return json.RawMessage(`[]`), nil
	}

	sub1 := c.Subscribe(key, fetcher, Options{})
	defer sub1.Close()
	sub2 := c.Subscribe(key, fetcher, Options{})
	defer sub2.Close()
	close(release)

	awaitStatus(t, sub1, StatusSuccess)
	awaitStatus(t, sub2, StatusSuccess)

	if got := fetches.Load(); got != 1 {
		t.Fatalf("fetches = %d, want 1 shared fetch", got)
	}
}

func TestSubscribe_ErrorThenRetryOnNextSubscriber(t *testing.T) {
	c := New()
	key := NewKey("bookings", nil)

	var calls atomic.Int32
	fetcher := func(ctx context.Context) (json.RawMessage, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("backend down")
		}
		return json.RawMessage(`["b1"]`), nil
	}

	sub := c.Subscribe(key, fetcher, Options{})
	snap := awaitStatus(t, sub, StatusError)
	if snap.Err == nil {
		t.Fatal("error snapshot carries no error")
	}

	// A second subscription to the errored entry retries.
	sub2 := c.Subscribe(key, fetcher, Options{})
	defer sub2.Close()
	awaitData(t, sub2, `["b1"]`)
	sub.Close()
}

func TestInvalidate_SubscribedKeyRefetches(t *testing.T) {
	c := New()
	key := NewKey("orders", nil)

	var version atomic.Int32
	fetcher := func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(fmt.Sprintf(`["v%d"]`, version.Add(1))), nil
	}

	sub := c.Subscribe(key, fetcher, Options{})
	defer sub.Close()
	awaitData(t, sub, `["v1"]`)

	c.Invalidate(key)
	awaitStatus(t, sub, StatusLoading)
	awaitData(t, sub, `["v2"]`)
}

func TestInvalidate_UnsubscribedKeyDropped(t *testing.T) {
	c := New()
	key := NewKey("menu-items", nil)

	sub := c.Subscribe(key, func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(`[]`), nil
	}, Options{})
	awaitStatus(t, sub, StatusSuccess)
	sub.Close()

	// Close dropped the entry already; invalidating must not resurrect it.
	c.Invalidate(key)
	if got := c.Len(); got != 0 {
		t.Fatalf("entries = %d, want 0", got)
	}
}

func TestInvalidate_UnknownKeyIgnored(t *testing.T) {
	c := New()
	c.Invalidate(NewKey("never-seen", nil))
	if got := c.Len(); got != 0 {
		t.Fatalf("entries = %d, want 0", got)
	}
}

func TestInvalidate_MidFlightFetchRefetches(t *testing.T) {
	c := New()
	key := NewKey("orders", nil)

	var fetches atomic.Int32
	release := make(chan struct{})
	fetcher := func(ctx context.Context) (json.RawMessage, error) {
		n := fetches.Add(1)
		if n == 1 {
			<-release
		}
		return json.RawMessage(fmt.Sprintf(`["fetch%d"]`, n)), nil
	}

	sub := c.Subscribe(key, fetcher, Options{})
	defer sub.Close()
	awaitStatus(t, sub, StatusLoading)

	// The mutation lands while the first fetch is still in flight; its
	// result may predate the write, so settling must trigger a refetch.
	c.Invalidate(key)
	close(release)

	awaitData(t, sub, `["fetch2"]`)
	if got := fetches.Load(); got != 2 {
		t.Fatalf("fetches = %d, want 2", got)
	}
}

func TestPolling_RefetchesUntilLastClose(t *testing.T) {
	c := New()
	key := NewKey("orders", map[string]string{"status": "placed"})

	var fetches atomic.Int32
	fetcher := func(ctx context.Context) (json.RawMessage, error) {
		fetches.Add(1)
		return json.RawMessage(`[]`), nil
	}

	sub := c.Subscribe(key, fetcher, Options{PollInterval: 20 * time.Millisecond})
	awaitStatus(t, sub, StatusSuccess)

	deadline := time.After(2 * time.Second)
	for fetches.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("fetches = %d, polling not driving refetches", fetches.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	sub.Close()
	// Let any tick already past the entry check settle before sampling.
	time.Sleep(50 * time.Millisecond)
	settled := fetches.Load()
	time.Sleep(100 * time.Millisecond)
	if got := fetches.Load(); got != settled {
		t.Fatalf("fetches moved %d -> %d after last close", settled, got)
	}
	if got := c.Len(); got != 0 {
		t.Fatalf("entries = %d after last close, want 0", got)
	}
}

func TestPatchRestore_OptimisticRoundTrip(t *testing.T) {
	c := New()
	key := NewKey("restaurant", nil)

	sub := c.Subscribe(key, func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(`{"isActive":true}`), nil
	}, Options{})
	defer sub.Close()
	awaitStatus(t, sub, StatusSuccess)

	prev, ok := c.Patch(key, func(data json.RawMessage) json.RawMessage {
		return json.RawMessage(`{"isActive":false}`)
	})
	if !ok {
		t.Fatal("Patch reported no entry")
	}
	awaitData(t, sub, `{"isActive":false}`)

	c.Restore(key, prev)
	awaitData(t, sub, `{"isActive":true}`)
}

func TestPatch_NoSuccessfulEntry(t *testing.T) {
	c := New()
	if _, ok := c.Patch(NewKey("restaurant", nil), func(d json.RawMessage) json.RawMessage { return d }); ok {
		t.Fatal("Patch on absent entry reported ok")
	}
}

func TestClose_Idempotent(t *testing.T) {
	c := New()
	sub := c.Subscribe(NewKey("tables", nil), func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(`[]`), nil
	}, Options{})
	awaitStatus(t, sub, StatusSuccess)

	sub.Close()
	sub.Close()

	if _, ok := <-sub.Updates(); ok {
		t.Fatal("updates channel still open after Close")
	}
}

func TestMutation_SuccessInvalidates(t *testing.T) {
	c := New()
	key := NewKey("tables", nil)

	var version atomic.Int32
	sub := c.Subscribe(key, func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(fmt.Sprintf(`["v%d"]`, version.Add(1))), nil
	}, Options{})
	defer sub.Close()
	awaitData(t, sub, `["v1"]`)

	var got any
	m := c.NewMutation(func(ctx context.Context, input any) error {
		got = input
		return nil
	}, key)
	if err := m.Do(context.Background(), "payload"); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != "payload" {
		t.Fatalf("action input = %v", got)
	}
	awaitData(t, sub, `["v2"]`)
	if m.Pending() {
		t.Fatal("Pending() = true after settle")
	}
}

func TestMutation_FailureLeavesCacheUntouched(t *testing.T) {
	c := New()
	key := NewKey("tables", nil)

	var fetches atomic.Int32
	sub := c.Subscribe(key, func(ctx context.Context) (json.RawMessage, error) {
		fetches.Add(1)
		return json.RawMessage(`["v1"]`), nil
	}, Options{})
	defer sub.Close()
	awaitData(t, sub, `["v1"]`)

	m := c.NewMutation(func(ctx context.Context, input any) error {
		return errors.New("rejected")
	}, key)
	if err := m.Do(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}

	time.Sleep(50 * time.Millisecond)
	if got := fetches.Load(); got != 1 {
		t.Fatalf("fetches = %d, failed mutation must not invalidate", got)
	}
	if snap := sub.Current(); snap.Status != StatusSuccess || string(snap.Data) != `["v1"]` {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestEntries_Inspect(t *testing.T) {
	c := New()
	sub := c.Subscribe(NewKey("orders", nil), func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(`[]`), nil
	}, Options{PollInterval: time.Minute})
	defer sub.Close()
	awaitStatus(t, sub, StatusSuccess)

	var infos []EntryInfo
	for info := range c.Entries() {
		infos = append(infos, info)
	}
	if len(infos) != 1 {
		t.Fatalf("entries = %d, want 1", len(infos))
	}
	if infos[0].Key != "orders" || infos[0].Subscribers != 1 || !infos[0].Polling {
		t.Fatalf("info = %+v", infos[0])
	}
}
