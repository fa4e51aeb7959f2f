package importer

import (
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"

	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
	"github.com/Tuncayozalici/ONERI-sub000/internal/parser"
	"github.com/Tuncayozalici/ONERI-sub000/internal/workbook"
)

// 常见的默认工作表名，作为每个数据源候选列表的末尾
var defaultSheetNames = []string{"Sayfa1", "Sheet1", "Veri", "Data"}

// sourceDef 单个数据源的定义：候选文件、候选工作表、列定义和行映射
type sourceDef[T model.Dated] struct {
	name    string
	files   []string
	sheets  []string
	columns []parser.ColumnSpec
	mapRow  func(r rowReader) (T, error)
}

// rowReader 读取当前行中已解析列的值
type rowReader struct {
	sheet *workbook.Sheet
	cols  parser.Columns
	row   int
	now   time.Time
}

func (r rowReader) cell(key string) workbook.Cell {
	return r.cols.Cell(r.sheet, r.row, key)
}

func (r rowReader) date(key string) civil.Date {
	return parser.ParseDateIn(r.cell(key), r.now, r.sheet.Date1904())
}

func (r rowReader) text(key string) string {
	return parser.Text(r.cell(key))
}

func (r rowReader) percent(key string) float64 {
	return parser.NormalizePercent(parser.ParsePercent(r.cell(key)))
}

// rawPercent 未归一化的百分比，交给 model.NewEfficiency 统一处理
func (r rowReader) rawPercent(key string) float64 {
	return parser.ParsePercent(r.cell(key))
}

func (r rowReader) count(key string) int {
	return parser.ParseCount(r.cell(key))
}

func (r rowReader) minutes(key string) float64 {
	return parser.ParseMinutes(r.cell(key))
}

// extract 按统一流程读取一个数据源：定位文件 -> 打开 -> 找工作表 -> 解析列 -> 逐行映射
// 单行失败只跳过该行，缺少文件或工作表返回空结果
func extract[T model.Dated](x *Extractor, def sourceDef[T]) ([]T, model.SourceReport) {
	report := model.SourceReport{Source: def.name, Status: model.SourceMissing}
	logger := x.logger.With("source", def.name)

	path, ok := x.source.Locate(def.files...)
	if !ok {
		logger.Info("source workbook not found", "candidates", def.files)
		return []T{}, report
	}
	report.File = path

	wb, err := x.source.Open(path)
	if err != nil {
		report.Status = model.SourceError
		report.Error = err.Error()
		logger.Warn("failed to open workbook", "file", path, "error", err)
		return []T{}, report
	}
	defer wb.Close()

	sheetName, ok := workbook.FindSheet(wb, append(append([]string{}, def.sheets...), defaultSheetNames...)...)
	if !ok {
		logger.Info("sheet not found", "file", path, "candidates", def.sheets, "available", wb.SheetNames())
		return []T{}, report
	}
	report.Sheet = sheetName

	sheet, err := wb.Sheet(sheetName)
	if err != nil {
		report.Status = model.SourceError
		report.Error = err.Error()
		logger.Warn("failed to read sheet", "file", path, "sheet", sheetName, "error", err)
		return []T{}, report
	}

	cols, fellBack := parser.ResolveColumns(sheet.Header(), def.columns)
	if len(fellBack) > 0 {
		report.Fallbacks = fellBack
		logger.Debug("columns resolved by position", "sheet", sheetName, "columns", fellBack)
	}

	now := x.now()
	out := make([]T, 0, sheet.LastRow())
	for row := 2; row <= sheet.LastRow(); row++ {
		if sheet.RowEmpty(row) {
			continue
		}
		rec, err := mapRowSafe(def.mapRow, rowReader{sheet: sheet, cols: cols, row: row, now: now})
		if err != nil {
			report.SkippedRows++
			logger.Warn("row skipped", "sheet", sheetName, "row", row, "error", err)
			continue
		}
		if rec.Day() == parser.NoDate {
			report.UndatedRows++
			logger.Warn("row without date skipped", "sheet", sheetName, "row", row)
			continue
		}
		out = append(out, rec)
	}

	report.Status = model.SourceImported
	report.ImportedRows = len(out)
	logger.Debug("source imported",
		"sheet", sheetName,
		"rows", report.ImportedRows,
		"skipped", report.SkippedRows,
		"undated", report.UndatedRows,
	)
	return out, report
}

// mapRowSafe 隔离单行映射中的 panic
func mapRowSafe[T model.Dated](fn func(rowReader) (T, error), r rowReader) (rec T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while mapping row %d: %v", r.row, p)
		}
	}()
	return fn(r)
}

// Extractor 持有所有数据源共享的依赖
type Extractor struct {
	source   workbook.Source
	logger   *slog.Logger
	now      func() time.Time
	backfill map[string]bool
}

// DefaultBackfill 有效工作率缺失时用可用率补齐的数据源
func DefaultBackfill() map[string]bool {
	return map[string]bool{SourceCnc: true, SourceWelding: true}
}

// NewExtractor 创建行提取器
func NewExtractor(source workbook.Source, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{source: source, logger: logger, now: time.Now, backfill: DefaultBackfill()}
}

// WithClock 替换时钟（自由文本日期缺少年份时使用）
func (x *Extractor) WithClock(now func() time.Time) *Extractor {
	cp := *x
	cp.now = now
	return &cp
}

// WithBackfill 替换按数据源的补齐开关，nil 表示全部关闭
func (x *Extractor) WithBackfill(backfill map[string]bool) *Extractor {
	cp := *x
	cp.backfill = backfill
	return &cp
}

func (x *Extractor) backfillEnabled(source string) bool {
	return x.backfill[source]
}
