package model

import (
	"time"

	"cloud.google.com/go/civil"
)

// SourceStatus 数据源读取状态
type SourceStatus string

const (
	SourceImported SourceStatus = "imported"
	SourceMissing  SourceStatus = "missing"
	SourceError    SourceStatus = "error"
)

// SourceReport 单个数据源的导入结果
type SourceReport struct {
	Source       string       `json:"source"`
	File         string       `json:"file,omitempty"`
	Sheet        string       `json:"sheet,omitempty"`
	Status       SourceStatus `json:"status"`
	ImportedRows int          `json:"importedRows"`
	SkippedRows  int          `json:"skippedRows"`
	UndatedRows  int          `json:"undatedRows"`
	Fallbacks    []string     `json:"fallbacks,omitempty"` // 使用了固定列位置的字段
	Error        string       `json:"error,omitempty"`
}

// Snapshot 一次完整导入得到的数据快照，构建完成后不再修改
type Snapshot struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generatedAt"`

	Production     []ProductionRow  `json:"production"`
	Downtime       []DowntimeRow    `json:"downtime"`
	QualityErrors  []ErrorRow       `json:"qualityErrors"`
	PaintErrors    []ErrorRow       `json:"paintErrors"`
	AssemblyErrors []ErrorRow       `json:"assemblyErrors"`
	Cnc            []CncRow         `json:"cnc"`
	Press          []PressRow       `json:"press"`
	Welding        []WeldingRow     `json:"welding"`
	Paint          []PaintRow       `json:"paint"`
	Maintenance    []MaintenanceRow `json:"maintenance"`
	Scrap          []ScrapRow       `json:"scrap"`

	Reports []SourceReport `json:"reports"`
}

// Errors 三个缺陷来源的合集（返回新切片）
func (s *Snapshot) Errors() []ErrorRow {
	if s == nil {
		return nil
	}
	out := make([]ErrorRow, 0, len(s.QualityErrors)+len(s.PaintErrors)+len(s.AssemblyErrors))
	out = append(out, s.QualityErrors...)
	out = append(out, s.PaintErrors...)
	out = append(out, s.AssemblyErrors...)
	return out
}

// EfficiencyRows CNC / 冲压 / 焊接三类效率记录的合集
func (s *Snapshot) EfficiencyRows() []EfficiencyRow {
	if s == nil {
		return nil
	}
	out := make([]EfficiencyRow, 0, len(s.Cnc)+len(s.Press)+len(s.Welding))
	for _, r := range s.Cnc {
		out = append(out, r)
	}
	for _, r := range s.Press {
		out = append(out, r)
	}
	for _, r := range s.Welding {
		out = append(out, r)
	}
	return out
}

// TotalRows 快照中的总行数
func (s *Snapshot) TotalRows() int {
	if s == nil {
		return 0
	}
	return len(s.Production) + len(s.Downtime) +
		len(s.QualityErrors) + len(s.PaintErrors) + len(s.AssemblyErrors) +
		len(s.Cnc) + len(s.Press) + len(s.Welding) +
		len(s.Paint) + len(s.Maintenance) + len(s.Scrap)
}

// IsEmpty 快照为空或没有任何行
func (s *Snapshot) IsEmpty() bool {
	return s.TotalRows() == 0
}

// Report 按数据源名称查找导入结果
func (s *Snapshot) Report(source string) (SourceReport, bool) {
	if s == nil {
		return SourceReport{}, false
	}
	for _, r := range s.Reports {
		if r.Source == source {
			return r, true
		}
	}
	return SourceReport{}, false
}

// Dates 提取行记录中出现过的日期
func Dates[T Dated](rows []T) []civil.Date {
	out := make([]civil.Date, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Day())
	}
	return out
}
