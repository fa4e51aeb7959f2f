package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/Tuncayozalici/ONERI-sub000/internal/cache"
	"github.com/Tuncayozalici/ONERI-sub000/internal/metrics"
	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
	"github.com/Tuncayozalici/ONERI-sub000/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubBuilder 按调用次数返回不同结果
type stubBuilder struct {
	mu       sync.Mutex
	calls    int
	build    func(ctx context.Context, call int) (*model.Snapshot, error)
	inFlight int32
	overlap  int32
}

func (b *stubBuilder) Build(ctx context.Context) (*model.Snapshot, error) {
	if atomic.AddInt32(&b.inFlight, 1) > 1 {
		atomic.StoreInt32(&b.overlap, 1)
	}
	defer atomic.AddInt32(&b.inFlight, -1)

	b.mu.Lock()
	b.calls++
	call := b.calls
	b.mu.Unlock()
	return b.build(ctx, call)
}

func (b *stubBuilder) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func snapshotWithRows(id string) *model.Snapshot {
	return &model.Snapshot{
		ID:          id,
		GeneratedAt: time.Date(2026, 2, 19, 6, 0, 0, 0, time.UTC),
		Scrap:       []model.ScrapRow{
			{Date: civil.Date{Year: 2026, Month: time.February, Day: 18}, Material: "Sac", Quantity: 3},
			{Date: civil.Date{Year: 2026, Month: time.February, Day: 18}, Material: "Profil", Quantity: 4},
		},
		Reports: []model.SourceReport{{Source: "fire", Status: model.SourceImported, ImportedRows: 2}},
	}
}

type fixture struct {
	db       *store.Store
	snaps    *store.SnapshotStore
	provider *cache.Provider
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := store.New(filepath.Join(t.TempDir(), "oneri.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	snaps := store.NewSnapshotStore(db, discardLogger())
	return &fixture{
		db:       db,
		snaps:    snaps,
		provider: cache.NewProvider(cache.NewTTLCache(0, 0), snaps, discardLogger()),
		metrics:  metrics.New(),
	}
}

func (f *fixture) driver(b SnapshotBuilder) *Driver {
	return NewDriver(Options{
		Builder:   b,
		Saver:     f.snaps,
		Publisher: f.provider,
		Recorder:  f.db,
		Observer:  f.metrics,
		Interval:  time.Hour,
		Logger:    discardLogger(),
	})
}

func TestDriver_SuccessfulCyclePersistsAndPublishes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	d := f.driver(&stubBuilder{build: func(context.Context, int) (*model.Snapshot, error) {
		return snapshotWithRows("s1"), nil
	}})

	d.RunCycle(context.Background())

	res := d.LastResult()
	if res.Status != store.RefreshSucceeded || res.SnapshotID != "s1" || res.TotalRows != 2 || res.Origin != OriginSchedule {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := f.provider.Current(context.Background()); got == nil || got.ID != "s1" {
		t.Fatalf("snapshot not published: %+v", got)
	}
	if got, ok := f.snaps.TryLoad(); !ok || got.ID != "s1" {
		t.Fatalf("snapshot not persisted")
	}

	last, err := f.db.LastSuccessfulRefresh()
	if err != nil || last.CycleID != res.CycleID {
		t.Fatalf("refresh log = %+v err %v", last, err)
	}
	reports, err := f.db.SourceReports(last.ID)
	if err != nil || len(reports) != 1 || reports[0].Source != "fire" {
		t.Fatalf("source reports = %+v err %v", reports, err)
	}
}

func TestDriver_FailedCycleKeepsLastGoodSnapshot(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	d := f.driver(&stubBuilder{build: func(_ context.Context, call int) (*model.Snapshot, error) {
		switch call {
		case 1:
			return snapshotWithRows("good"), nil
		case 2:
			return nil, errors.New("disk unavailable")
		default:
			panic("unexpected nil map")
		}
	}})

	d.RunCycle(context.Background())
	d.RunCycle(context.Background())
	if res := d.LastResult(); res.Status != store.RefreshFailed || res.Error != "disk unavailable" {
		t.Fatalf("unexpected result: %+v", res)
	}

	res, err := d.RefreshNow(context.Background())
	if err == nil || res.Status != store.RefreshFailed || res.Origin != OriginManual {
		t.Fatalf("panic should surface as failed cycle: %+v err %v", res, err)
	}

	if got := f.provider.Current(context.Background()); got == nil || got.ID != "good" {
		t.Fatalf("last good snapshot should still be served, got %+v", got)
	}
	logs, _ := f.db.RecentRefreshLogs(10)
	if len(logs) != 3 || logs[0].Status != store.RefreshFailed || logs[2].Status != store.RefreshSucceeded {
		t.Fatalf("unexpected refresh logs: %+v", logs)
	}
}

func TestDriver_CancelledCycleIsNotAnError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	d := f.driver(&stubBuilder{build: func(ctx context.Context, _ int) (*model.Snapshot, error) {
		return nil, ctx.Err()
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := d.RefreshNow(ctx)
	if err == nil || res.Status != store.RefreshCancelled {
		t.Fatalf("unexpected cancelled result: %+v err %v", res, err)
	}
	if _, ok := f.snaps.TryLoad(); ok {
		t.Fatalf("cancelled cycle must not persist a snapshot")
	}
}

func TestDriver_ManualAndScheduledCyclesAreSerialized(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	b := &stubBuilder{build: func(context.Context, int) (*model.Snapshot, error) {
		time.Sleep(5 * time.Millisecond)
		return snapshotWithRows("s"), nil
	}}
	d := f.driver(b)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); d.RunCycle(context.Background()) }()
		go func() { defer wg.Done(); _, _ = d.RefreshNow(context.Background()) }()
	}
	wg.Wait()

	if b.Calls() != 8 {
		t.Fatalf("calls = %d, want 8", b.Calls())
	}
	if atomic.LoadInt32(&b.overlap) != 0 {
		t.Fatalf("cycles overlapped")
	}
}

func TestDriver_StartStopsOnContextDone(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	b := &stubBuilder{build: func(context.Context, int) (*model.Snapshot, error) {
		cancel()
		return snapshotWithRows("s"), nil
	}}
	d := NewDriver(Options{Builder: b, Interval: time.Hour, Logger: discardLogger()})
	d.Start(ctx)

	stopped := make(chan struct{})
	go func() {
		<-ctx.Done()
		d.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatalf("refresh loop did not stop after cancellation")
	}
	if b.Calls() != 1 {
		t.Fatalf("expected exactly one immediate cycle, got %d", b.Calls())
	}
}

func TestTickerScheduler_RunsImmediatelyThenOnTicks(t *testing.T) {
	t.Parallel()

	var calls int32
	ticked := make(chan struct{}, 16)
	s := NewTickerScheduler()
	s.Start(context.Background(), 10*time.Millisecond, func(context.Context) {
		atomic.AddInt32(&calls, 1)
		select {
		case ticked <- struct{}{}:
		default:
		}
	})

	for i := 0; i < 3; i++ {
		select {
		case <-ticked:
		case <-time.After(5 * time.Second):
			t.Fatalf("scheduler stalled after %d calls", i)
		}
	}
	s.Stop()

	after := atomic.LoadInt32(&calls)
	time.Sleep(30 * time.Millisecond)
	if atomic.LoadInt32(&calls) != after {
		t.Fatalf("scheduler kept running after Stop")
	}
	s.Stop()
}

func TestDriver_StartStopWithScheduler(t *testing.T) {
	t.Parallel()

	b := &stubBuilder{build: func(context.Context, int) (*model.Snapshot, error) {
		return snapshotWithRows("s"), nil
	}}
	d := NewDriver(Options{Builder: b, Interval: time.Hour, Logger: discardLogger()})

	d.Start(context.Background())
	deadline := time.Now().Add(5 * time.Second)
	for d.LastResult().Status != store.RefreshSucceeded {
		if time.Now().After(deadline) {
			t.Fatalf("scheduler did not finish the first cycle: %+v", d.LastResult())
		}
		time.Sleep(5 * time.Millisecond)
	}
	d.Stop()

	if b.Calls() != 1 {
		t.Fatalf("calls = %d, want 1 with an hourly interval", b.Calls())
	}
}
