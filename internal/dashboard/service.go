package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
)

// ErrUnknownDomain 未知看板
var ErrUnknownDomain = errors.New("unknown dashboard domain")

// 看板名称
const (
	DomainProduction  = "production"
	DomainDowntime    = "downtime"
	DomainQuality     = "quality"
	DomainEfficiency  = "efficiency"
	DomainPaint       = "paint"
	DomainMaintenance = "maintenance"
	DomainScrap       = "scrap"
	DomainOverview    = "overview"
)

// Domains 所有看板
var Domains = []string{
	DomainProduction, DomainDowntime, DomainQuality, DomainEfficiency,
	DomainPaint, DomainMaintenance, DomainScrap, DomainOverview,
}

// SnapshotProvider 当前快照（*cache.Provider 实现），未就绪时返回 nil
type SnapshotProvider interface {
	Current(ctx context.Context) *model.Snapshot
}

// Service 只读查询服务；查询从不因数据问题返回错误
type Service struct {
	provider SnapshotProvider
	now      func() time.Time
}

// NewService 创建查询服务
func NewService(provider SnapshotProvider) *Service {
	return &Service{provider: provider, now: time.Now}
}

// WithClock 替换时钟（测试用）
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) snapshot(ctx context.Context) (*model.Snapshot, civil.Date) {
	return s.provider.Current(ctx), civil.DateOf(s.now())
}

func (s *Service) Production(ctx context.Context, req Request) (ProductionView, Aux) {
	snap, today := s.snapshot(ctx)
	return ComputeProduction(snap, req, today)
}

func (s *Service) Downtime(ctx context.Context, req Request) (DowntimeView, Aux) {
	snap, today := s.snapshot(ctx)
	return ComputeDowntime(snap, req, today)
}

func (s *Service) Quality(ctx context.Context, req Request) (QualityView, Aux) {
	snap, today := s.snapshot(ctx)
	return ComputeQuality(snap, req, today)
}

func (s *Service) Efficiency(ctx context.Context, req Request) (EfficiencyView, Aux) {
	snap, today := s.snapshot(ctx)
	return ComputeEfficiency(snap, req, today)
}

func (s *Service) Paint(ctx context.Context, req Request) (PaintView, Aux) {
	snap, today := s.snapshot(ctx)
	return ComputePaint(snap, req, today)
}

func (s *Service) Maintenance(ctx context.Context, req Request) (MaintenanceView, Aux) {
	snap, today := s.snapshot(ctx)
	return ComputeMaintenance(snap, req, today)
}

func (s *Service) Scrap(ctx context.Context, req Request) (ScrapView, Aux) {
	snap, today := s.snapshot(ctx)
	return ComputeScrap(snap, req, today)
}

func (s *Service) Overview(ctx context.Context, req Request) (OverviewView, Aux) {
	snap, today := s.snapshot(ctx)
	return ComputeOverview(snap, req, today)
}

// Query 按名称分发到对应看板
func (s *Service) Query(ctx context.Context, domain string, req Request) (any, Aux, error) {
	switch domain {
	case DomainProduction:
		v, aux := s.Production(ctx, req)
		return v, aux, nil
	case DomainDowntime:
		v, aux := s.Downtime(ctx, req)
		return v, aux, nil
	case DomainQuality:
		v, aux := s.Quality(ctx, req)
		return v, aux, nil
	case DomainEfficiency:
		v, aux := s.Efficiency(ctx, req)
		return v, aux, nil
	case DomainPaint:
		v, aux := s.Paint(ctx, req)
		return v, aux, nil
	case DomainMaintenance:
		v, aux := s.Maintenance(ctx, req)
		return v, aux, nil
	case DomainScrap:
		v, aux := s.Scrap(ctx, req)
		return v, aux, nil
	case DomainOverview:
		v, aux := s.Overview(ctx, req)
		return v, aux, nil
	default:
		return nil, Aux{}, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
}

// Status 快照状态
type Status struct {
	Ready       bool                 `json:"ready"`
	SnapshotID  string               `json:"snapshotId,omitempty"`
	GeneratedAt *time.Time           `json:"generatedAt,omitempty"`
	TotalRows   int                  `json:"totalRows"`
	Sources     []model.SourceReport `json:"sources"`
	Notice      string               `json:"notice,omitempty"`
}

// Status 当前快照的概况与各数据源导入结果
func (s *Service) Status(ctx context.Context) Status {
	snap := s.provider.Current(ctx)
	if snap == nil {
		return Status{Sources: []model.SourceReport{}, Notice: NoticeNotReady}
	}
	generated := snap.GeneratedAt
	st := Status{
		Ready:       true,
		SnapshotID:  snap.ID,
		GeneratedAt: &generated,
		TotalRows:   snap.TotalRows(),
		Sources:     append([]model.SourceReport{}, snap.Reports...),
	}
	if snap.IsEmpty() {
		st.Notice = NoticeNotReady
	}
	return st
}
