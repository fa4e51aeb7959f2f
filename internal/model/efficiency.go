package model

import (
	"cloud.google.com/go/civil"

	"github.com/Tuncayozalici/ONERI-sub000/internal/parser"
)

// Line 设备线别
type Line string

const (
	LineCnc     Line = "cnc"
	LinePress   Line = "pres"
	LineWelding Line = "kaynak"
)

// Efficiency OEE 组成（均为 0-100 的百分比）
type Efficiency struct {
	Performance  float64 `json:"performance"`
	Availability float64 `json:"availability"`
	Quality      float64 `json:"quality"`
	OEE          float64 `json:"oee"`
}

// NewEfficiency 构造时即归一化百分比；OEE 缺失且三项齐全时由 P×A×Q 推算
func NewEfficiency(performance, availability, quality, oee float64) Efficiency {
	e := Efficiency{
		Performance:  parser.NormalizePercent(performance),
		Availability: parser.NormalizePercent(availability),
		Quality:      parser.NormalizePercent(quality),
		OEE:          parser.NormalizePercent(oee),
	}
	if e.OEE == 0 && e.Performance > 0 && e.Availability > 0 && e.Quality > 0 {
		e.OEE = parser.Round2(e.Performance * e.Availability * e.Quality / 10000)
	}
	return e
}

// BackfillRatio 有效工作率缺失时沿用可用率
func BackfillRatio(effective, availability float64) float64 {
	if effective <= 0 && availability > 0 {
		return availability
	}
	return effective
}

// EfficiencyRow 具备效率指标的行记录（CNC / 冲压 / 焊接机器人）
type EfficiencyRow interface {
	Dated
	MachineName() string
	Metrics() Efficiency
	ProducedCount() int
	LineName() Line
}

// CncRow CNC 机床效率（CNC Verimlilik）
type CncRow struct {
	Date                  civil.Date `json:"date"`
	Machine               string     `json:"machine"`
	Operator              string     `json:"operator"`
	Produced              int        `json:"produced"`
	Efficiency            Efficiency `json:"efficiency"`
	EffectiveWorkingRatio float64    `json:"effectiveWorkingRatio"`
	RowNo                 int        `json:"rowNo"`
}

func (r CncRow) Day() civil.Date     { return r.Date }
func (r CncRow) MachineName() string { return r.Machine }
func (r CncRow) Metrics() Efficiency { return r.Efficiency }
func (r CncRow) ProducedCount() int  { return r.Produced }
func (r CncRow) LineName() Line      { return LineCnc }

// PressRow 冲压线 OEE（Pres Hattı）
type PressRow struct {
	Date       civil.Date `json:"date"`
	Machine    string     `json:"machine"`
	Produced   int        `json:"produced"`
	Scrap      int        `json:"scrap"`
	Efficiency Efficiency `json:"efficiency"`
	RowNo      int        `json:"rowNo"`
}

func (r PressRow) Day() civil.Date     { return r.Date }
func (r PressRow) MachineName() string { return r.Machine }
func (r PressRow) Metrics() Efficiency { return r.Efficiency }
func (r PressRow) ProducedCount() int  { return r.Produced }
func (r PressRow) LineName() Line      { return LinePress }

// WeldingRow 焊接机器人（Robot Kaynak）
type WeldingRow struct {
	Date                  civil.Date `json:"date"`
	Machine               string     `json:"machine"`
	Operator              string     `json:"operator"`
	Produced              int        `json:"produced"`
	DowntimeMinutes       float64    `json:"downtimeMinutes"`
	Efficiency            Efficiency `json:"efficiency"`
	EffectiveWorkingRatio float64    `json:"effectiveWorkingRatio"`
	RowNo                 int        `json:"rowNo"`
}

func (r WeldingRow) Day() civil.Date     { return r.Date }
func (r WeldingRow) MachineName() string { return r.Machine }
func (r WeldingRow) Metrics() Efficiency { return r.Efficiency }
func (r WeldingRow) ProducedCount() int  { return r.Produced }
func (r WeldingRow) LineName() Line      { return LineWelding }
