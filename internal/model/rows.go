package model

import "cloud.google.com/go/civil"

// Dated 所有行记录都带有日期
type Dated interface {
	Day() civil.Date
}

// ProductionRow 生产跟踪（Üretim Takip）
type ProductionRow struct {
	Date           civil.Date `json:"date"`
	Department     string     `json:"department"`
	Product        string     `json:"product"`
	ShiftCondition string     `json:"shiftCondition"`
	Planned        int        `json:"planned"`
	Produced       int        `json:"produced"`
	Fire           int        `json:"fire"`
	RowNo          int        `json:"rowNo"`
}

func (r ProductionRow) Day() civil.Date { return r.Date }

// DowntimeRow 停机记录（Duruş Kayıtları）
type DowntimeRow struct {
	Date       civil.Date `json:"date"`
	Machine    string     `json:"machine"`
	Department string     `json:"department"`
	Reason     string     `json:"reason"`
	Shift      string     `json:"shift"`
	Minutes    float64    `json:"minutes"`
	RowNo      int        `json:"rowNo"`
}

func (r DowntimeRow) Day() civil.Date { return r.Date }

// ErrorSource 缺陷记录的来源部门
type ErrorSource string

const (
	ErrorSourceQuality  ErrorSource = "kalite"
	ErrorSourcePaint    ErrorSource = "boya"
	ErrorSourceAssembly ErrorSource = "montaj"
)

// ErrorRow 缺陷/错误记录（Hata Listesi），三个来源共用同一结构
type ErrorRow struct {
	Date       civil.Date  `json:"date"`
	Source     ErrorSource `json:"source"`
	Department string      `json:"department"`
	Operator   string      `json:"operator"`
	Reason     string      `json:"reason"`
	Count      int         `json:"count"`
	RowNo      int         `json:"rowNo"`
}

func (r ErrorRow) Day() civil.Date { return r.Date }

// PaintRow 涂装车间产量（Boyahane Üretim）
type PaintRow struct {
	Date    civil.Date `json:"date"`
	Line    string     `json:"line"`
	Hung    int        `json:"hung"`
	Painted int        `json:"painted"`
	Rework  int        `json:"rework"`
	Quality float64    `json:"quality"`
	RowNo   int        `json:"rowNo"`
}

func (r PaintRow) Day() civil.Date { return r.Date }

// MaintenanceRow 维修故障记录（Bakım Arıza）
type MaintenanceRow struct {
	Date       civil.Date `json:"date"`
	Machine    string     `json:"machine"`
	FaultType  string     `json:"faultType"`
	Technician string     `json:"technician"`
	Minutes    float64    `json:"minutes"`
	RowNo      int        `json:"rowNo"`
}

func (r MaintenanceRow) Day() civil.Date { return r.Date }

// ScrapRow 废料记录（Fire Takip）
type ScrapRow struct {
	Date       civil.Date `json:"date"`
	Department string     `json:"department"`
	Material   string     `json:"material"`
	Reason     string     `json:"reason"`
	Quantity   int        `json:"quantity"`
	RowNo      int        `json:"rowNo"`
}

func (r ScrapRow) Day() civil.Date { return r.Date }
