package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"live-dashboard/internal/fetcher"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(clock *fakeClock) *Cache[string] {
	return New[string](NewMemoryStore[string](), Options{Name: "test", Now: clock.Now}, zerolog.Nop())
}

func countingLoader(calls *int32, out fetcher.Outcome[string]) Loader[string] {
	return func(ctx context.Context) fetcher.Outcome[string] {
		atomic.AddInt32(calls, 1)
		return out
	}
}

func TestGetOrFetchWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)
	var calls int32
	load := countingLoader(&calls, fetcher.Success("v1"))

	for _, ttl := range []time.Duration{time.Second, 300 * time.Second, 600 * time.Second} {
		atomic.StoreInt32(&calls, 0)
		key := "k-" + ttl.String()
		c.GetOrFetch(context.Background(), key, ttl, load)
		clock.Advance(ttl - time.Nanosecond)
		out := c.GetOrFetch(context.Background(), key, ttl, load)
		if v, _ := out.Value(); v != "v1" {
			t.Fatalf("unexpected cached value %q", v)
		}
		if n := atomic.LoadInt32(&calls); n != 1 {
			t.Fatalf("ttl %s: expected 1 load within window, got %d", ttl, n)
		}
	}
}

func TestGetOrFetchExpires(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)

	for _, elapsed := range []time.Duration{300 * time.Second, 301 * time.Second, time.Hour} {
		var calls int32
		key := "k-" + elapsed.String()
		load := countingLoader(&calls, fetcher.Success("v"))
		c.GetOrFetch(context.Background(), key, 300*time.Second, load)
		clock.Advance(elapsed)
		c.GetOrFetch(context.Background(), key, 300*time.Second, load)
		if n := atomic.LoadInt32(&calls); n != 2 {
			t.Fatalf("elapsed %s >= ttl: expected 2 loads, got %d", elapsed, n)
		}
	}
}

func TestFailuresAreNotCached(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)
	var calls int32
	load := countingLoader(&calls, fetcher.Failure[string]("down"))

	first := c.GetOrFetch(context.Background(), "k", time.Minute, load)
	second := c.GetOrFetch(context.Background(), "k", time.Minute, load)
	if first.OK() || second.OK() {
		t.Fatal("failures must pass through")
	}
	if second.Reason() != "down" {
		t.Fatalf("unexpected reason %q", second.Reason())
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("failed loads must be retried on the next call, got %d loads", n)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)
	var calls int32
	load := countingLoader(&calls, fetcher.Success("v"))

	c.GetOrFetch(context.Background(), "k", time.Hour, load)
	c.Invalidate(context.Background(), "k")
	c.GetOrFetch(context.Background(), "k", time.Hour, load)
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("invalidate should force a reload, got %d loads", n)
	}
}

func TestDistinctKeysDistinctEntries(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)
	var calls int32
	load := countingLoader(&calls, fetcher.Success("v"))

	c.GetOrFetch(context.Background(), "ids=bitcoin", time.Hour, load)
	c.GetOrFetch(context.Background(), "ids=bitcoin,ethereum", time.Hour, load)
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("each key needs its own load, got %d", n)
	}
	if _, ok := c.Peek(context.Background(), "ids=bitcoin"); !ok {
		t.Fatal("entry should be cached")
	}
}

func TestConcurrentCallersShareOneLoad(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(clock)

	var calls int32
	release := make(chan struct{})
	load := func(ctx context.Context) fetcher.Outcome[string] {
		atomic.AddInt32(&calls, 1)
		<-release
		return fetcher.Success("v")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.GetOrFetch(context.Background(), "k", time.Minute, load)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected a single shared load, got %d", n)
	}
}

type brokenStore struct{}

func (brokenStore) Load(context.Context, string) (Entry[string], bool, error) {
	return Entry[string]{}, false, errors.New("unavailable")
}
func (brokenStore) Save(context.Context, string, Entry[string]) error { return errors.New("unavailable") }
func (brokenStore) Delete(context.Context, string) error              { return errors.New("unavailable") }

func TestStoreErrorsDegradeToMiss(t *testing.T) {
	c := New[string](brokenStore{}, Options{}, zerolog.Nop())
	var calls int32
	out := c.GetOrFetch(context.Background(), "k", time.Minute, countingLoader(&calls, fetcher.Success("v")))
	if v, ok := out.Value(); !ok || v != "v" {
		t.Fatalf("broken store must not hide the fetched value: %#v", out)
	}
	c.Invalidate(context.Background(), "k")
}

func TestEntryValid(t *testing.T) {
	at := time.Unix(100, 0)
	e := Entry[int]{FetchedAt: at, TTL: 10 * time.Second}
	if !e.Valid(at.Add(9 * time.Second)) {
		t.Fatal("entry should be live before ttl")
	}
	if e.Valid(at.Add(10 * time.Second)) {
		t.Fatal("entry must expire once age reaches ttl")
	}
}

func TestRedisKey(t *testing.T) {
	a := RedisKey("livedash", "https://example.test/a")
	b := RedisKey("livedash", "https://example.test/b")
	if a == b {
		t.Fatal("distinct urls must map to distinct redis keys")
	}
	if a != RedisKey("livedash", "https://example.test/a") {
		t.Fatal("redis keys must be deterministic")
	}
}
