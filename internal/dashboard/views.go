package dashboard

import (
	"cloud.google.com/go/civil"

	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
	"github.com/Tuncayozalici/ONERI-sub000/internal/parser"
)

// resolveFor 按看板自身的日期解析时间段；没有数据时带上提示
func resolveFor(snap *model.Snapshot, dates []civil.Date, req Request, today civil.Date) Resolution {
	res := Resolve(req, UniqueDates(dates), today)
	if snap == nil || len(dates) == 0 {
		res.Aux.Notice = NoticeNotReady
	}
	return res
}

func machineFilter[T any](machine string, name func(T) string) func(T) bool {
	if machine == "" {
		return nil
	}
	return func(r T) bool { return parser.SameLabel(name(r), machine) }
}

func intMeasure[T any](f func(T) int) func(T) float64 {
	return func(r T) float64 { return float64(f(r)) }
}

// ProductionView 生产看板
type ProductionView struct {
	Planned       int          `json:"planned"`
	Produced      int          `json:"produced"`
	Fire          int          `json:"fire"`
	Achievement   float64      `json:"achievement"`
	ProducedTrend []Point      `json:"producedTrend"`
	PlannedTrend  []Point      `json:"plannedTrend"`
	ByDepartment  []GroupTotal `json:"byDepartment"`
	ByProduct     []GroupTotal `json:"byProduct"`
}

// ComputeProduction 计划、实际产量与达成率
func ComputeProduction(snap *model.Snapshot, req Request, today civil.Date) (ProductionView, Aux) {
	var rows []model.ProductionRow
	if snap != nil {
		rows = snap.Production
	}
	res := resolveFor(snap, model.Dates(rows), req, today)

	produced := func(r model.ProductionRow) int { return r.Produced }
	planned := func(r model.ProductionRow) int { return r.Planned }
	inPeriod := Filter(rows, res.Period, nil)

	v := ProductionView{
		Planned:       SumInt(inPeriod, planned),
		Produced:      SumInt(inPeriod, produced),
		Fire:          SumInt(inPeriod, func(r model.ProductionRow) int { return r.Fire }),
		ProducedTrend: DailySeries(res.Trend, rows, intMeasure(produced)),
		PlannedTrend:  DailySeries(res.Trend, rows, intMeasure(planned)),
		ByDepartment:  GroupTotals(inPeriod, func(r model.ProductionRow) string { return r.Department }, intMeasure(produced)),
		ByProduct:     GroupTotals(inPeriod, func(r model.ProductionRow) string { return r.Product }, intMeasure(produced)),
	}
	v.Achievement = Percent(float64(v.Produced), float64(v.Planned))
	return v, res.Aux
}

// DowntimeView 停机看板
type DowntimeView struct {
	TotalMinutes float64      `json:"totalMinutes"`
	Events       int          `json:"events"`
	TopReason    string       `json:"topReason"`
	Trend        []Point      `json:"trend"`
	ByReason     []GroupTotal `json:"byReason"`
	ByMachine    []GroupTotal `json:"byMachine"`
	ByDepartment []GroupTotal `json:"byDepartment"`
	Machines     []string     `json:"machines"`
}

// ComputeDowntime 停机分钟数，可按机器筛选
func ComputeDowntime(snap *model.Snapshot, req Request, today civil.Date) (DowntimeView, Aux) {
	var rows []model.DowntimeRow
	if snap != nil {
		rows = snap.Downtime
	}
	res := resolveFor(snap, model.Dates(rows), req, today)

	machineName := func(r model.DowntimeRow) string { return r.Machine }
	minutes := func(r model.DowntimeRow) float64 { return r.Minutes }
	keep := machineFilter(req.Machine, machineName)
	inPeriod := Filter(rows, res.Period, keep)
	inTrend := Filter(rows, res.Trend, keep)

	byReason := GroupTotals(inPeriod, func(r model.DowntimeRow) string { return r.Reason }, minutes)
	v := DowntimeView{
		TotalMinutes: Sum(inPeriod, minutes),
		Events:       len(inPeriod),
		TopReason:    TopLabels(byReason),
		Trend:        DailySeries(res.Trend, inTrend, minutes),
		ByReason:     byReason,
		ByMachine:    GroupTotals(inPeriod, machineName, minutes),
		ByDepartment: GroupTotals(inPeriod, func(r model.DowntimeRow) string { return r.Department }, minutes),
		Machines:     nonNil(DistinctLabels(rows, machineName)),
	}
	return v, res.Aux
}

// QualityView 质量看板，合并三个缺陷来源
type QualityView struct {
	TotalDefects  int          `json:"totalDefects"`
	TopCause      string       `json:"topCause"`
	TopDepartment string       `json:"topDepartment"`
	TopOperator   string       `json:"topOperator"`
	Trend         []Point      `json:"trend"`
	ByReason      []GroupTotal `json:"byReason"`
	ByDepartment  []GroupTotal `json:"byDepartment"`
	ByOperator    []GroupTotal `json:"byOperator"`
	BySource      []GroupTotal `json:"bySource"`
}

var errorSourceLabels = map[model.ErrorSource]string{
	model.ErrorSourceQuality:  "Kalite",
	model.ErrorSourcePaint:    "Boya",
	model.ErrorSourceAssembly: "Montaj",
}

// ComputeQuality 缺陷总数与原因分布
func ComputeQuality(snap *model.Snapshot, req Request, today civil.Date) (QualityView, Aux) {
	rows := snap.Errors()
	res := resolveFor(snap, model.Dates(rows), req, today)

	count := intMeasure(func(r model.ErrorRow) int { return r.Count })
	inPeriod := Filter(rows, res.Period, nil)

	byReason := GroupTotals(inPeriod, func(r model.ErrorRow) string { return r.Reason }, count)
	byDepartment := GroupTotals(inPeriod, func(r model.ErrorRow) string { return r.Department }, count)
	byOperator := GroupTotals(inPeriod, func(r model.ErrorRow) string { return r.Operator }, count)
	v := QualityView{
		TotalDefects:  SumInt(inPeriod, func(r model.ErrorRow) int { return r.Count }),
		TopCause:      TopLabels(byReason),
		TopDepartment: TopLabels(byDepartment),
		TopOperator:   TopLabels(byOperator),
		Trend:         DailySeries(res.Trend, rows, count),
		ByReason:      byReason,
		ByDepartment:  byDepartment,
		ByOperator:    byOperator,
		BySource: GroupTotals(inPeriod, func(r model.ErrorRow) string {
			return errorSourceLabels[r.Source]
		}, count),
	}
	return v, res.Aux
}

// EfficiencyView 设备效率看板（CNC / 冲压 / 焊接）
type EfficiencyView struct {
	Performance  float64      `json:"performance"`
	Availability float64      `json:"availability"`
	Quality      float64      `json:"quality"`
	OEE          float64      `json:"oee"`
	Produced     int          `json:"produced"`
	OEETrend     []Point      `json:"oeeTrend"`
	ByMachine    []GroupTotal `json:"byMachine"`
	ByLine       []GroupTotal `json:"byLine"`
	Machines     []string     `json:"machines"`
}

var lineLabels = map[model.Line]string{
	model.LineCnc:     "CNC",
	model.LinePress:   "Pres",
	model.LineWelding: "Kaynak",
}

// ComputeEfficiency OEE 各项平均值（只统计正值），可按机器筛选
func ComputeEfficiency(snap *model.Snapshot, req Request, today civil.Date) (EfficiencyView, Aux) {
	rows := snap.EfficiencyRows()
	res := resolveFor(snap, model.Dates(rows), req, today)

	machineName := func(r model.EfficiencyRow) string { return r.MachineName() }
	oee := func(r model.EfficiencyRow) float64 { return r.Metrics().OEE }
	keep := machineFilter(req.Machine, machineName)
	inPeriod := Filter(rows, res.Period, keep)
	inTrend := Filter(rows, res.Trend, keep)

	v := EfficiencyView{
		Performance:  AvgPositive(inPeriod, func(r model.EfficiencyRow) float64 { return r.Metrics().Performance }),
		Availability: AvgPositive(inPeriod, func(r model.EfficiencyRow) float64 { return r.Metrics().Availability }),
		Quality:      AvgPositive(inPeriod, func(r model.EfficiencyRow) float64 { return r.Metrics().Quality }),
		OEE:          AvgPositive(inPeriod, oee),
		Produced:     SumInt(inPeriod, func(r model.EfficiencyRow) int { return r.ProducedCount() }),
		OEETrend:     DailyAverage(res.Trend, inTrend, oee),
		ByMachine:    GroupAverages(inPeriod, machineName, oee),
		ByLine: GroupAverages(inPeriod, func(r model.EfficiencyRow) string {
			return lineLabels[r.LineName()]
		}, oee),
		Machines: nonNil(DistinctLabels(rows, machineName)),
	}
	return v, res.Aux
}

// PaintView 涂装车间看板
type PaintView struct {
	Hung        int          `json:"hung"`
	Painted     int          `json:"painted"`
	Rework      int          `json:"rework"`
	Quality     float64      `json:"quality"`
	ReworkRate  float64      `json:"reworkRate"`
	Trend       []Point      `json:"trend"`
	ByLine      []GroupTotal `json:"byLine"`
	QualityLine []GroupTotal `json:"qualityByLine"`
}

// ComputePaint 挂件、涂装完成与返工数量
func ComputePaint(snap *model.Snapshot, req Request, today civil.Date) (PaintView, Aux) {
	var rows []model.PaintRow
	if snap != nil {
		rows = snap.Paint
	}
	res := resolveFor(snap, model.Dates(rows), req, today)

	painted := intMeasure(func(r model.PaintRow) int { return r.Painted })
	line := func(r model.PaintRow) string { return r.Line }
	quality := func(r model.PaintRow) float64 { return r.Quality }
	inPeriod := Filter(rows, res.Period, nil)

	v := PaintView{
		Hung:        SumInt(inPeriod, func(r model.PaintRow) int { return r.Hung }),
		Painted:     SumInt(inPeriod, func(r model.PaintRow) int { return r.Painted }),
		Rework:      SumInt(inPeriod, func(r model.PaintRow) int { return r.Rework }),
		Quality:     AvgPositive(inPeriod, quality),
		Trend:       DailySeries(res.Trend, rows, painted),
		ByLine:      GroupTotals(inPeriod, line, painted),
		QualityLine: GroupAverages(inPeriod, line, quality),
	}
	v.ReworkRate = Percent(float64(v.Rework), float64(v.Painted))
	return v, res.Aux
}

// MaintenanceView 维修看板
type MaintenanceView struct {
	TotalMinutes float64      `json:"totalMinutes"`
	Faults       int          `json:"faults"`
	TopMachine   string       `json:"topMachine"`
	Trend        []Point      `json:"trend"`
	ByMachine    []GroupTotal `json:"byMachine"`
	ByFaultType  []GroupTotal `json:"byFaultType"`
	ByTechnician []GroupTotal `json:"byTechnician"`
}

// ComputeMaintenance 故障分钟数与次数
func ComputeMaintenance(snap *model.Snapshot, req Request, today civil.Date) (MaintenanceView, Aux) {
	var rows []model.MaintenanceRow
	if snap != nil {
		rows = snap.Maintenance
	}
	res := resolveFor(snap, model.Dates(rows), req, today)

	minutes := func(r model.MaintenanceRow) float64 { return r.Minutes }
	inPeriod := Filter(rows, res.Period, nil)

	byMachine := GroupTotals(inPeriod, func(r model.MaintenanceRow) string { return r.Machine }, minutes)
	v := MaintenanceView{
		TotalMinutes: Sum(inPeriod, minutes),
		Faults:       len(inPeriod),
		TopMachine:   TopLabels(byMachine),
		Trend:        DailySeries(res.Trend, rows, minutes),
		ByMachine:    byMachine,
		ByFaultType:  GroupTotals(inPeriod, func(r model.MaintenanceRow) string { return r.FaultType }, minutes),
		ByTechnician: GroupTotals(inPeriod, func(r model.MaintenanceRow) string { return r.Technician }, minutes),
	}
	return v, res.Aux
}

// ScrapView 废料看板
type ScrapView struct {
	TotalQuantity int          `json:"totalQuantity"`
	TopMaterial   string       `json:"topMaterial"`
	Trend         []Point      `json:"trend"`
	ByMaterial    []GroupTotal `json:"byMaterial"`
	ByReason      []GroupTotal `json:"byReason"`
	ByDepartment  []GroupTotal `json:"byDepartment"`
}

// ComputeScrap 废料数量分布
func ComputeScrap(snap *model.Snapshot, req Request, today civil.Date) (ScrapView, Aux) {
	var rows []model.ScrapRow
	if snap != nil {
		rows = snap.Scrap
	}
	res := resolveFor(snap, model.Dates(rows), req, today)

	qty := intMeasure(func(r model.ScrapRow) int { return r.Quantity })
	inPeriod := Filter(rows, res.Period, nil)

	byMaterial := GroupTotals(inPeriod, func(r model.ScrapRow) string { return r.Material }, qty)
	v := ScrapView{
		TotalQuantity: SumInt(inPeriod, func(r model.ScrapRow) int { return r.Quantity }),
		TopMaterial:   TopLabels(byMaterial),
		Trend:         DailySeries(res.Trend, rows, qty),
		ByMaterial:    byMaterial,
		ByReason:      GroupTotals(inPeriod, func(r model.ScrapRow) string { return r.Reason }, qty),
		ByDepartment:  GroupTotals(inPeriod, func(r model.ScrapRow) string { return r.Department }, qty),
	}
	return v, res.Aux
}

// OverviewView 首页汇总
type OverviewView struct {
	Produced        int     `json:"produced"`
	DowntimeMinutes float64 `json:"downtimeMinutes"`
	Defects         int     `json:"defects"`
	Scrap           int     `json:"scrap"`
	OEE             float64 `json:"oee"`
	ProducedTrend   []Point `json:"producedTrend"`
	DowntimeTrend   []Point `json:"downtimeTrend"`
	DefectTrend     []Point `json:"defectTrend"`
}

// ComputeOverview 各来源的公共指标：产量、停机分钟数、缺陷数、废料与平均 OEE
func ComputeOverview(snap *model.Snapshot, req Request, today civil.Date) (OverviewView, Aux) {
	var dates []civil.Date
	var production []model.ProductionRow
	var downtime []model.DowntimeRow
	var welding []model.WeldingRow
	var maintenance []model.MaintenanceRow
	var scrap []model.ScrapRow
	errs := snap.Errors()
	eff := snap.EfficiencyRows()
	if snap != nil {
		production, downtime, welding = snap.Production, snap.Downtime, snap.Welding
		maintenance, scrap = snap.Maintenance, snap.Scrap
		dates = append(dates, model.Dates(production)...)
		dates = append(dates, model.Dates(downtime)...)
		dates = append(dates, model.Dates(errs)...)
		dates = append(dates, model.Dates(eff)...)
		dates = append(dates, model.Dates(snap.Paint)...)
		dates = append(dates, model.Dates(maintenance)...)
		dates = append(dates, model.Dates(scrap)...)
	}
	res := resolveFor(snap, dates, req, today)
	p, w := res.Period, res.Trend

	producedP := intMeasure(func(r model.ProductionRow) int { return r.Produced })
	producedE := intMeasure(func(r model.EfficiencyRow) int { return r.ProducedCount() })
	downMin := func(r model.DowntimeRow) float64 { return r.Minutes }
	weldMin := func(r model.WeldingRow) float64 { return r.DowntimeMinutes }
	maintMin := func(r model.MaintenanceRow) float64 { return r.Minutes }
	defects := intMeasure(func(r model.ErrorRow) int { return r.Count })

	v := OverviewView{
		Produced: SumInt(Filter(production, p, nil), func(r model.ProductionRow) int { return r.Produced }) +
			SumInt(Filter(eff, p, nil), func(r model.EfficiencyRow) int { return r.ProducedCount() }),
		DowntimeMinutes: Sum([]float64{
			Sum(Filter(downtime, p, nil), downMin),
			Sum(Filter(welding, p, nil), weldMin),
			Sum(Filter(maintenance, p, nil), maintMin),
		}, func(f float64) float64 { return f }),
		Defects: SumInt(Filter(errs, p, nil), func(r model.ErrorRow) int { return r.Count }),
		Scrap:   SumInt(Filter(scrap, p, nil), func(r model.ScrapRow) int { return r.Quantity }),
		OEE:     AvgPositive(Filter(eff, p, nil), func(r model.EfficiencyRow) float64 { return r.Metrics().OEE }),
		ProducedTrend: MergeSeries(
			DailySeries(w, production, producedP),
			DailySeries(w, eff, producedE),
		),
		DowntimeTrend: MergeSeries(
			DailySeries(w, downtime, downMin),
			DailySeries(w, welding, weldMin),
			DailySeries(w, maintenance, maintMin),
		),
		DefectTrend: DailySeries(w, errs, defects),
	}
	return v, res.Aux
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
