package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 2, 19, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestTTLCache_SlidingExpiration(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := NewTTLCache(30*time.Minute, 2*time.Hour).WithClock(clock.Now)

	if _, ok := c.Get(); ok {
		t.Fatalf("empty cache should miss")
	}

	c.Set(&model.Snapshot{ID: "a"})
	clock.Advance(29 * time.Minute)
	if s, ok := c.Get(); !ok || s.ID != "a" {
		t.Fatalf("expected hit before sliding window elapses")
	}
	// 命中后滑动窗口重新计时
	clock.Advance(29 * time.Minute)
	if _, ok := c.Get(); !ok {
		t.Fatalf("hit should extend the sliding window")
	}
	clock.Advance(30 * time.Minute)
	if _, ok := c.Get(); ok {
		t.Fatalf("expected expiry after 30 idle minutes")
	}

	st := c.Stats()
	if st.Hits != 2 || st.Misses != 2 || st.Evictions != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestTTLCache_AbsoluteExpiration(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := NewTTLCache(0, 0).WithClock(clock.Now)
	c.Set(&model.Snapshot{ID: "a"})

	for i := 0; i < 7; i++ {
		clock.Advance(17 * time.Minute)
		if _, ok := c.Get(); !ok {
			t.Fatalf("expected hit at step %d", i)
		}
	}
	clock.Advance(2 * time.Minute) // 121 分钟
	if _, ok := c.Get(); ok {
		t.Fatalf("absolute lifetime should expire the entry even when accessed")
	}

	c.Set(&model.Snapshot{ID: "b"})
	if s, ok := c.Get(); !ok || s.ID != "b" {
		t.Fatalf("Set should reset both clocks")
	}
	c.Invalidate()
	if _, ok := c.Get(); ok {
		t.Fatalf("Invalidate should clear the entry")
	}
}

type fakeLoader struct {
	snap  *model.Snapshot
	calls int
}

func (l *fakeLoader) TryLoad() (*model.Snapshot, bool) {
	l.calls++
	return l.snap, l.snap != nil
}

func TestProvider_ReadThrough(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := NewTTLCache(time.Minute, time.Hour).WithClock(clock.Now)
	loader := &fakeLoader{}
	p := NewProvider(c, loader, nil)
	ctx := context.Background()

	if p.Current(ctx) != nil {
		t.Fatalf("no cache and no store should give nil")
	}

	loader.snap = &model.Snapshot{ID: "stored"}
	if s := p.Current(ctx); s == nil || s.ID != "stored" {
		t.Fatalf("expected store fallback, got %+v", s)
	}
	if s := p.Current(ctx); s == nil || loader.calls != 2 {
		t.Fatalf("second read should be served from cache, loader calls = %d", loader.calls)
	}

	p.Publish(&model.Snapshot{ID: "fresh"})
	if s := p.Current(ctx); s.ID != "fresh" {
		t.Fatalf("published snapshot not served: %s", s.ID)
	}

	p.Invalidate()
	if s := p.Current(ctx); s.ID != "stored" || loader.calls != 3 {
		t.Fatalf("invalidate should fall back to store, got %s calls %d", s.ID, loader.calls)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	p.Invalidate()
	if p.Current(cancelled) != nil {
		t.Fatalf("cancelled context should not hit the store")
	}
}

type blockingLoader struct {
	snap    *model.Snapshot
	started chan struct{}
	release chan struct{}
}

func (l *blockingLoader) TryLoad() (*model.Snapshot, bool) {
	close(l.started)
	<-l.release
	return l.snap, true
}

func TestProvider_RestoreDoesNotOverwritePublished(t *testing.T) {
	t.Parallel()

	c := NewTTLCache(time.Minute, time.Hour)
	loader := &blockingLoader{
		snap:    &model.Snapshot{ID: "old"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	p := NewProvider(c, loader, nil)

	done := make(chan *model.Snapshot)
	go func() { done <- p.Current(context.Background()) }()

	<-loader.started
	p.Publish(&model.Snapshot{ID: "new"})
	close(loader.release)

	if got := <-done; got == nil || got.ID != "new" {
		t.Fatalf("Current during publish = %+v, want new", got)
	}
	if got, ok := c.Get(); !ok || got.ID != "new" {
		t.Fatalf("cache holds %+v, want the published snapshot", got)
	}
}

func TestTTLCache_SetIfVersion(t *testing.T) {
	t.Parallel()

	c := NewTTLCache(time.Minute, time.Hour)
	v := c.Version()
	c.Invalidate()
	if c.SetIfVersion(&model.Snapshot{ID: "stale"}, v) {
		t.Fatalf("write with an outdated version should be refused")
	}
	if !c.SetIfVersion(&model.Snapshot{ID: "ok"}, c.Version()) {
		t.Fatalf("write with the current version should succeed")
	}
	if got, ok := c.Get(); !ok || got.ID != "ok" {
		t.Fatalf("Get = %+v", got)
	}
}
