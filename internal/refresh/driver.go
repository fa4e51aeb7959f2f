package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
	"github.com/Tuncayozalici/ONERI-sub000/internal/store"
)

// DefaultInterval 默认刷新间隔
const DefaultInterval = 15 * time.Minute

// 刷新触发来源
const (
	OriginSchedule = "schedule"
	OriginManual   = "manual"
)

// SnapshotBuilder 快照构建（*importer.Builder 实现）
type SnapshotBuilder interface {
	Build(ctx context.Context) (*model.Snapshot, error)
}

// SnapshotSaver 快照持久化（*store.SnapshotStore 实现）
type SnapshotSaver interface {
	Save(snap *model.Snapshot) error
}

// Publisher 快照发布到缓存（*cache.Provider 实现）
type Publisher interface {
	Publish(snap *model.Snapshot)
}

// CycleRecorder 刷新周期日志（*store.Store 实现），可选
type CycleRecorder interface {
	CreateRefreshLog(cycleID, origin string, startedAt time.Time) (int64, error)
	InsertSourceReports(refreshLogID int64, reports []model.SourceReport) error
	FinishRefreshLog(id int64, status, snapshotID string, totalRows int, errorMessage string, completedAt time.Time) error
}

// Observer 刷新指标（*metrics.Metrics 实现），可选
type Observer interface {
	ObserveRefresh(status string, elapsed time.Duration)
	ObserveSnapshot(snap *model.Snapshot)
}

// Result 一次刷新周期的结果
type Result struct {
	CycleID    string    `json:"cycleId"`
	Origin     string    `json:"origin"`
	Status     string    `json:"status"`
	SnapshotID string    `json:"snapshotId,omitempty"`
	TotalRows  int       `json:"totalRows"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Error      string    `json:"error,omitempty"`
}

// Options 刷新驱动的依赖
type Options struct {
	Builder   SnapshotBuilder
	Saver     SnapshotSaver
	Publisher Publisher
	Recorder  CycleRecorder
	Observer  Observer
	Scheduler Scheduler
	Interval  time.Duration
	Logger    *slog.Logger
}

// Driver 快照的唯一写入方：构建 -> 保存 -> 发布
type Driver struct {
	builder   SnapshotBuilder
	saver     SnapshotSaver
	publisher Publisher
	recorder  CycleRecorder
	observer  Observer
	scheduler Scheduler
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time

	cycleMu sync.Mutex // 串行化定时刷新与手动刷新

	mu   sync.RWMutex
	last Result
}

// NewDriver 创建刷新驱动
func NewDriver(opts Options) *Driver {
	d := &Driver{
		builder:   opts.Builder,
		saver:     opts.Saver,
		publisher: opts.Publisher,
		recorder:  opts.Recorder,
		observer:  opts.Observer,
		scheduler: opts.Scheduler,
		interval:  opts.Interval,
		logger:    opts.Logger,
		now:       time.Now,
	}
	if d.interval <= 0 {
		d.interval = DefaultInterval
	}
	if d.scheduler == nil {
		d.scheduler = NewTickerScheduler()
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Interval 刷新间隔
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// RunCycle 执行一次定时刷新；错误只记录日志
func (d *Driver) RunCycle(ctx context.Context) {
	_, _ = d.cycle(ctx, OriginSchedule)
}

// RefreshNow 立即执行一次刷新（例如上传新文件之后），与定时刷新串行
func (d *Driver) RefreshNow(ctx context.Context) (Result, error) {
	return d.cycle(ctx, OriginManual)
}

// Start 通过调度器在后台运行刷新循环：立即刷新一次，之后每隔 interval 刷新，直到 ctx 结束或 Stop
func (d *Driver) Start(ctx context.Context) {
	d.logger.Info("refresh scheduler started", "interval", d.interval.String())
	d.scheduler.Start(ctx, d.interval, d.RunCycle)
}

// Stop 停止后台刷新并等待当前周期结束
func (d *Driver) Stop() {
	d.scheduler.Stop()
	d.logger.Info("refresh scheduler stopped")
}

// LastResult 最近一次刷新周期的结果
func (d *Driver) LastResult() Result {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last
}

func (d *Driver) cycle(ctx context.Context, origin string) (res Result, err error) {
	d.cycleMu.Lock()
	defer d.cycleMu.Unlock()

	res = Result{
		CycleID:   uuid.NewString(),
		Origin:    origin,
		Status:    store.RefreshRunning,
		StartedAt: d.now(),
	}
	logger := d.logger.With("cycle_id", res.CycleID, "origin", origin)
	logID := d.startLog(logger, res)

	var snap *model.Snapshot
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("refresh cycle panicked: %v", p)
		}
		res = d.finish(ctx, logger, logID, res, snap, err)
		if res.Status != store.RefreshSucceeded && err == nil {
			err = errors.New(res.Error)
		}
	}()

	snap, err = d.builder.Build(ctx)
	if err != nil {
		snap = nil
		return res, err
	}
	if err := ctx.Err(); err != nil {
		snap = nil
		return res, err
	}
	if d.saver != nil {
		if err := d.saver.Save(snap); err != nil {
			snap = nil
			return res, fmt.Errorf("failed to persist snapshot: %w", err)
		}
	}
	if d.publisher != nil {
		d.publisher.Publish(snap)
	}
	return res, nil
}

func (d *Driver) startLog(logger *slog.Logger, res Result) int64 {
	if d.recorder == nil {
		return 0
	}
	id, err := d.recorder.CreateRefreshLog(res.CycleID, res.Origin, res.StartedAt)
	if err != nil {
		logger.Warn("failed to record refresh start", "error", err)
		return 0
	}
	return id
}

// finish 记录周期结果；取消不视为错误，只记录为 cancelled
func (d *Driver) finish(ctx context.Context, logger *slog.Logger, logID int64, res Result, snap *model.Snapshot, err error) Result {
	res.FinishedAt = d.now()
	elapsed := res.FinishedAt.Sub(res.StartedAt)

	switch {
	case err == nil && snap != nil:
		res.Status = store.RefreshSucceeded
		res.SnapshotID = snap.ID
		res.TotalRows = snap.TotalRows()
		logger.Info("refresh cycle finished", "snapshot_id", snap.ID, "rows", res.TotalRows, "elapsed", elapsed)
	case ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		res.Status = store.RefreshCancelled
		res.Error = context.Cause(ctx).Error()
		logger.Debug("refresh cycle cancelled")
	default:
		res.Status = store.RefreshFailed
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Error = "snapshot builder returned nothing"
		}
		logger.Error("refresh cycle failed", "error", res.Error, "elapsed", elapsed)
	}

	if d.observer != nil {
		d.observer.ObserveRefresh(res.Status, elapsed)
		if res.Status == store.RefreshSucceeded {
			d.observer.ObserveSnapshot(snap)
		}
	}

	if d.recorder != nil && logID > 0 {
		if snap != nil && res.Status == store.RefreshSucceeded {
			if err := d.recorder.InsertSourceReports(logID, snap.Reports); err != nil {
				logger.Warn("failed to record source reports", "error", err)
			}
		}
		if err := d.recorder.FinishRefreshLog(logID, res.Status, res.SnapshotID, res.TotalRows, res.Error, res.FinishedAt); err != nil {
			logger.Warn("failed to record refresh result", "error", err)
		}
	}

	d.mu.Lock()
	d.last = res
	d.mu.Unlock()
	return res
}
