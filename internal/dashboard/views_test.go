package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
)

// 2026-02-18 一天的三个缺陷来源，共 122 个缺陷
func plantSnapshot() *model.Snapshot {
	d := day(2026, 2, 18)
	return &model.Snapshot{
		ID:          "snap-1",
		GeneratedAt: time.Date(2026, 2, 19, 6, 0, 0, 0, time.UTC),
		Production: []model.ProductionRow{
			{Date: d, Department: "montaj", Product: "Dolap", Planned: 100, Produced: 80, Fire: 2},
			{Date: day(2026, 2, 17), Department: "Montaj", Product: "Dolap", Planned: 50, Produced: 50},
		},
		Downtime: []model.DowntimeRow{
			{Date: d, Machine: "Pres 1", Reason: "Arıza", Minutes: 30},
			{Date: d, Machine: "CNC 2", Reason: "Malzeme Bekleme", Minutes: 45},
			{Date: d, Machine: "pres 1", Reason: "arıza", Minutes: 20},
		},
		QualityErrors: []model.ErrorRow{
			{Date: d, Source: model.ErrorSourceQuality, Department: "Kalite", Operator: "Ali", Reason: "Ürün Uyuşmazlığı", Count: 14},
		},
		PaintErrors: []model.ErrorRow{
			{Date: d, Source: model.ErrorSourcePaint, Department: "Boyahane", Operator: "Ayşe", Reason: "Boya Kusuru", Count: 4},
			{Date: d, Source: model.ErrorSourcePaint, Department: "Boyahane", Operator: "Ayşe", Reason: "Ürün uyuşmazlığı", Count: 5},
		},
		AssemblyErrors: []model.ErrorRow{
			{Date: d, Source: model.ErrorSourceAssembly, Department: "Montaj", Operator: "Veli", Reason: "Makine Hatası", Count: 99},
		},
		Cnc: []model.CncRow{
			{Date: d, Machine: "CNC 2", Produced: 40, Efficiency: model.NewEfficiency(0.9, 80, 0.95, 0)},
		},
		Press: []model.PressRow{
			{Date: d, Machine: "Pres 1", Produced: 60, Efficiency: model.Efficiency{Performance: 90, Availability: 90, Quality: 100, OEE: 81}},
		},
		Welding: []model.WeldingRow{
			{Date: d, Machine: "Robot 1", Produced: 10, DowntimeMinutes: 15, Efficiency: model.Efficiency{}},
		},
		Paint: []model.PaintRow{
			{Date: d, Line: "Hat 1", Hung: 120, Painted: 100, Rework: 5, Quality: 95},
		},
		Maintenance: []model.MaintenanceRow{
			{Date: d, Machine: "Pres 1", FaultType: "Hidrolik", Technician: "Can", Minutes: 60},
		},
		Scrap: []model.ScrapRow{
			{Date: d, Department: "Pres", Material: "Sac", Reason: "Kesim", Quantity: 7},
		},
	}
}

func onFeb18() Request {
	d := day(2026, 2, 18)
	return Request{Date: &d}
}

var today = day(2026, 10, 18)

func TestComputeQuality_UnionOfThreeSources(t *testing.T) {
	t.Parallel()

	v, aux := ComputeQuality(plantSnapshot(), onFeb18(), today)
	if v.TotalDefects != 122 {
		t.Fatalf("TotalDefects = %d, want 122", v.TotalDefects)
	}
	if v.TopCause != "Makine Hatası (99)" {
		t.Fatalf("TopCause = %q", v.TopCause)
	}
	if v.TopDepartment != "Montaj (99)" || v.TopOperator != "Veli (99)" {
		t.Fatalf("top department/operator = %q / %q", v.TopDepartment, v.TopOperator)
	}
	if SumGroups(v.BySource) != 122 || v.BySource[0].Label != "Montaj" {
		t.Fatalf("BySource = %+v", v.BySource)
	}
	if len(v.Trend) != trendDays || v.Trend[trendDays-1].Value != 122 {
		t.Fatalf("Trend = %+v", v.Trend)
	}
	if aux.Notice != "" || aux.Label != "18.02.2026" {
		t.Fatalf("aux = %+v", aux)
	}
}

func TestComputeProduction_Achievement(t *testing.T) {
	t.Parallel()

	start, end := day(2026, 2, 18), day(2026, 2, 17)
	v, _ := ComputeProduction(plantSnapshot(), Request{Start: &start, End: &end}, today)
	if v.Planned != 150 || v.Produced != 130 || v.Fire != 2 {
		t.Fatalf("unexpected totals: %+v", v)
	}
	if v.Achievement != 86.67 {
		t.Fatalf("Achievement = %v", v.Achievement)
	}
	if len(v.ByDepartment) != 1 || v.ByDepartment[0] != (GroupTotal{"Montaj", 130}) {
		t.Fatalf("ByDepartment = %+v", v.ByDepartment)
	}
	if len(v.ProducedTrend) != 2 {
		t.Fatalf("range trend should cover the range, got %+v", v.ProducedTrend)
	}
}

func TestComputeDowntime_MachineFilter(t *testing.T) {
	t.Parallel()

	req := onFeb18()
	req.Machine = "PRES 1"
	v, _ := ComputeDowntime(plantSnapshot(), req, today)
	if v.TotalMinutes != 50 || v.Events != 2 {
		t.Fatalf("filtered totals = %+v", v)
	}
	if v.TopReason != "Arıza (50)" {
		t.Fatalf("TopReason = %q", v.TopReason)
	}
	if len(v.Machines) != 2 {
		t.Fatalf("Machines = %v", v.Machines)
	}

	all, _ := ComputeDowntime(plantSnapshot(), onFeb18(), today)
	if all.TotalMinutes != 95 || SumGroups(all.ByMachine) != all.TotalMinutes {
		t.Fatalf("unfiltered totals = %+v", all)
	}
}

func TestComputeEfficiency_AveragesPositiveMetrics(t *testing.T) {
	t.Parallel()

	v, _ := ComputeEfficiency(plantSnapshot(), onFeb18(), today)
	// CNC OEE 68.4 与冲压 81 的平均；焊接机器人没有指标不参与
	if v.OEE != 74.7 {
		t.Fatalf("OEE = %v", v.OEE)
	}
	if v.Produced != 110 {
		t.Fatalf("Produced = %d", v.Produced)
	}
	if len(v.ByLine) != 3 || v.ByLine[0] != (GroupTotal{"Pres", 81}) {
		t.Fatalf("ByLine = %+v", v.ByLine)
	}

	req := onFeb18()
	req.Machine = "cnc 2"
	cnc, _ := ComputeEfficiency(plantSnapshot(), req, today)
	if cnc.OEE != 68.4 || cnc.Performance != 90 || cnc.Produced != 40 {
		t.Fatalf("cnc only = %+v", cnc)
	}
}

func TestComputePaintMaintenanceScrap(t *testing.T) {
	t.Parallel()

	snap := plantSnapshot()
	paint, _ := ComputePaint(snap, onFeb18(), today)
	if paint.Painted != 100 || paint.ReworkRate != 5 || paint.Quality != 95 {
		t.Fatalf("paint = %+v", paint)
	}
	maint, _ := ComputeMaintenance(snap, onFeb18(), today)
	if maint.TotalMinutes != 60 || maint.Faults != 1 || maint.TopMachine != "Pres 1 (60)" {
		t.Fatalf("maintenance = %+v", maint)
	}
	scrap, _ := ComputeScrap(snap, onFeb18(), today)
	if scrap.TotalQuantity != 7 || scrap.TopMaterial != "Sac (7)" {
		t.Fatalf("scrap = %+v", scrap)
	}
}

func TestComputeOverview_CommonDenominators(t *testing.T) {
	t.Parallel()

	v, _ := ComputeOverview(plantSnapshot(), onFeb18(), today)
	if v.Produced != 80+40+60+10 {
		t.Fatalf("Produced = %d", v.Produced)
	}
	if v.DowntimeMinutes != 95+15+60 {
		t.Fatalf("DowntimeMinutes = %v", v.DowntimeMinutes)
	}
	if v.Defects != 122 || v.Scrap != 7 || v.OEE != 74.7 {
		t.Fatalf("overview = %+v", v)
	}
	last := v.DowntimeTrend[len(v.DowntimeTrend)-1]
	if last.Date != day(2026, 2, 18) || last.Value != 170 {
		t.Fatalf("downtime trend tail = %+v", last)
	}
}

func TestCompute_MissingSourceYieldsZerosAndNotice(t *testing.T) {
	t.Parallel()

	snap := plantSnapshot()
	snap.Scrap = nil
	v, aux := ComputeScrap(snap, onFeb18(), today)
	if v.TotalQuantity != 0 || v.ByMaterial == nil || len(v.ByMaterial) != 0 {
		t.Fatalf("scrap view = %+v", v)
	}
	if aux.Notice != NoticeNotReady {
		t.Fatalf("expected notice, got %+v", aux)
	}
}

func TestCompute_NilSnapshot(t *testing.T) {
	t.Parallel()

	v, aux := ComputeOverview(nil, Request{}, today)
	if v.Produced != 0 || aux.Notice != NoticeNotReady || aux.Start != today {
		t.Fatalf("overview on nil snapshot = %+v %+v", v, aux)
	}
	q, _ := ComputeQuality(nil, Request{}, today)
	if q.TotalDefects != 0 || len(q.Trend) != trendDays {
		t.Fatalf("quality on nil snapshot = %+v", q)
	}
}

type staticProvider struct{ snap *model.Snapshot }

func (p staticProvider) Current(context.Context) *model.Snapshot { return p.snap }

func TestService_QueryDispatchesByDomain(t *testing.T) {
	t.Parallel()

	svc := NewService(staticProvider{plantSnapshot()}).WithClock(func() time.Time {
		return time.Date(2026, 2, 19, 9, 0, 0, 0, time.UTC)
	})

	for _, domain := range Domains {
		data, aux, err := svc.Query(context.Background(), domain, Request{})
		if err != nil || data == nil {
			t.Fatalf("%s: err %v", domain, err)
		}
		// 默认日期：离昨天最近的有数据日期
		if aux.Start != day(2026, 2, 18) {
			t.Fatalf("%s resolved %v", domain, aux.Start)
		}
	}

	q, _, _ := svc.Query(context.Background(), DomainQuality, Request{})
	if q.(QualityView).TotalDefects != 122 {
		t.Fatalf("quality via Query = %+v", q)
	}

	if _, _, err := svc.Query(context.Background(), "finance", Request{}); !errors.Is(err, ErrUnknownDomain) {
		t.Fatalf("expected ErrUnknownDomain, got %v", err)
	}
}

func TestService_Status(t *testing.T) {
	t.Parallel()

	st := NewService(staticProvider{}).Status(context.Background())
	if st.Ready || st.Notice != NoticeNotReady || st.Sources == nil {
		t.Fatalf("status without snapshot = %+v", st)
	}

	snap := plantSnapshot()
	snap.Reports = []model.SourceReport{{Source: "fire", Status: model.SourceImported, ImportedRows: 1}}
	st = NewService(staticProvider{snap}).Status(context.Background())
	if !st.Ready || st.SnapshotID != "snap-1" || st.TotalRows != snap.TotalRows() || len(st.Sources) != 1 {
		t.Fatalf("status = %+v", st)
	}
}
