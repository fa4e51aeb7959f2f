package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
	"github.com/Tuncayozalici/ONERI-sub000/internal/workbook"
)

// ProgressEvent 构建进度事件
type ProgressEvent struct {
	Type      string    `json:"type"`    // start/source_done/done
	Message   string    `json:"message"` // 事件消息
	Source    string    `json:"source,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Builder 快照构建器：对同一个工作簿目录执行所有提取器
type Builder struct {
	extractor *Extractor
	logger    *slog.Logger
	now       func() time.Time
	progress  func(ProgressEvent)
}

// NewBuilder 创建快照构建器
func NewBuilder(extractor *Extractor, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		extractor: extractor,
		logger:    logger,
		now:       time.Now,
	}
}

// NewDirBuilder 使用目录数据源创建快照构建器
func NewDirBuilder(root string, logger *slog.Logger) *Builder {
	return NewBuilder(NewExtractor(workbook.NewDirSource(root), logger), logger)
}

// OnProgress 设置进度回调
func (b *Builder) OnProgress(fn func(ProgressEvent)) {
	b.progress = fn
}

type buildStep struct {
	source string
	run    func(x *Extractor, snap *model.Snapshot) model.SourceReport
}

var buildSteps = []buildStep{
	{SourceProduction, func(x *Extractor, s *model.Snapshot) (r model.SourceReport) {
		s.Production, r = x.Production()
		return
	}},
	{SourceDowntime, func(x *Extractor, s *model.Snapshot) (r model.SourceReport) {
		s.Downtime, r = x.Downtime()
		return
	}},
	{SourceQualityErrors, func(x *Extractor, s *model.Snapshot) (r model.SourceReport) {
		s.QualityErrors, r = x.QualityErrors()
		return
	}},
	{SourcePaintErrors, func(x *Extractor, s *model.Snapshot) (r model.SourceReport) {
		s.PaintErrors, r = x.PaintErrors()
		return
	}},
	{SourceAssemblyErrors, func(x *Extractor, s *model.Snapshot) (r model.SourceReport) {
		s.AssemblyErrors, r = x.AssemblyErrors()
		return
	}},
	{SourceCnc, func(x *Extractor, s *model.Snapshot) (r model.SourceReport) {
		s.Cnc, r = x.Cnc()
		return
	}},
	{SourcePress, func(x *Extractor, s *model.Snapshot) (r model.SourceReport) {
		s.Press, r = x.Press()
		return
	}},
	{SourceWelding, func(x *Extractor, s *model.Snapshot) (r model.SourceReport) {
		s.Welding, r = x.Welding()
		return
	}},
	{SourcePaint, func(x *Extractor, s *model.Snapshot) (r model.SourceReport) {
		s.Paint, r = x.Paint()
		return
	}},
	{SourceMaintenance, func(x *Extractor, s *model.Snapshot) (r model.SourceReport) {
		s.Maintenance, r = x.Maintenance()
		return
	}},
	{SourceScrap, func(x *Extractor, s *model.Snapshot) (r model.SourceReport) {
		s.Scrap, r = x.Scrap()
		return
	}},
}

// Build 构建一个新的快照。单个数据源失败只会得到空集合；
// 只有 ctx 被取消时才返回错误，此时部分结果被丢弃
func (b *Builder) Build(ctx context.Context) (*model.Snapshot, error) {
	startTime := b.now()
	snap := &model.Snapshot{
		ID:      uuid.NewString(),
		Reports: make([]model.SourceReport, 0, len(buildSteps)),
	}

	b.sendProgress(ProgressEvent{
		Type:      "start",
		Message:   "snapshot build started",
		Data:      map[string]string{"snapshot_id": snap.ID},
		Timestamp: startTime,
	})

	for _, step := range buildSteps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("snapshot build interrupted before %s: %w", step.source, err)
		}
		report := step.run(b.extractor, snap)
		snap.Reports = append(snap.Reports, report)

		b.sendProgress(ProgressEvent{
			Type:      "source_done",
			Message:   fmt.Sprintf("%s: %s", step.source, report.Status),
			Source:    step.source,
			Data:      report,
			Timestamp: b.now(),
		})
	}

	snap.GeneratedAt = b.now()
	b.logger.Info("snapshot built",
		"snapshot_id", snap.ID,
		"rows", snap.TotalRows(),
		"duration", snap.GeneratedAt.Sub(startTime),
	)
	b.sendProgress(ProgressEvent{
		Type:      "done",
		Message:   "snapshot build finished",
		Data:      snap.Reports,
		Timestamp: snap.GeneratedAt,
	})
	return snap, nil
}

func (b *Builder) sendProgress(event ProgressEvent) {
	if b.progress != nil {
		b.progress(event)
	}
}
