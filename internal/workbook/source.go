package workbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound 工作表不存在
var ErrSheetNotFound = errors.New("sheet not found")

// Workbook 已打开的工作簿
type Workbook interface {
	SheetNames() []string
	Sheet(name string) (*Sheet, error)
	Close() error
}

// Source 工作簿来源
type Source interface {
	// Locate 按顺序查找候选文件名，返回第一个存在的文件路径
	Locate(candidates ...string) (string, bool)
	Open(path string) (Workbook, error)
}

// DirSource 基于目录的工作簿来源
type DirSource struct {
	Root string
}

// NewDirSource 创建目录来源
func NewDirSource(root string) *DirSource {
	return &DirSource{Root: root}
}

// Locate 查找文件；精确匹配优先，其次忽略大小写匹配
func (d *DirSource) Locate(candidates ...string) (string, bool) {
	for _, name := range candidates {
		path := filepath.Join(d.Root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}

	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return "", false
	}
	for _, name := range candidates {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if strings.EqualFold(e.Name(), name) {
				return filepath.Join(d.Root, e.Name()), true
			}
		}
	}
	return "", false
}

// Open 打开 Excel 文件
func (d *DirSource) Open(path string) (Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", filepath.Base(path), err)
	}
	wb := &excelWorkbook{file: f, dateStyles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wb.date1904 = *props.Date1904
	}
	return wb, nil
}

// excelWorkbook 基于 excelize 的工作簿
type excelWorkbook struct {
	file       *excelize.File
	dateStyles map[int]bool
	date1904   bool
}

func (w *excelWorkbook) SheetNames() []string {
	return w.file.GetSheetList()
}

func (w *excelWorkbook) Close() error {
	return w.file.Close()
}

// Sheet 读取整个工作表
// 原始值（RawCellValue）决定单元格的原生类型，格式化值作为显示文本
func (w *excelWorkbook) Sheet(name string) (*Sheet, error) {
	if idx, err := w.file.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}

	rawRows, err := w.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	textRows, err := w.file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}

	cells := make([][]Cell, len(rawRows))
	for i, raw := range rawRows {
		cells[i] = make([]Cell, len(raw))
		for j, rawValue := range raw {
			text := rawValue
			if i < len(textRows) && j < len(textRows[i]) {
				text = textRows[i][j]
			}
			cells[i][j] = w.typedCell(name, j+1, i+1, rawValue, text)
		}
	}

	sheet := newSheet(name, cells)
	sheet.date1904 = w.date1904
	return sheet, nil
}

// typedCell 还原单元格的原生类型
func (w *excelWorkbook) typedCell(sheet string, col, row int, raw, text string) Cell {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Cell{Text: text}
	}

	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		switch strings.ToUpper(raw) {
		case "TRUE":
			return Cell{Value: true, Text: text}
		case "FALSE":
			return Cell{Value: false, Text: text}
		}
		return Cell{Value: raw, Text: text}
	}

	if w.isDateCell(sheet, col, row) {
		if t, err := excelize.ExcelDateToTime(num, w.date1904); err == nil {
			return Cell{Value: t, Text: text}
		}
	}
	return Cell{Value: num, Text: text}
}

func (w *excelWorkbook) isDateCell(sheet string, col, row int) bool {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false
	}
	styleID, err := w.file.GetCellStyle(sheet, ref)
	if err != nil || styleID == 0 {
		return false
	}
	if v, ok := w.dateStyles[styleID]; ok {
		return v
	}

	isDate := false
	if style, err := w.file.GetStyle(styleID); err == nil && style != nil {
		isDate = isDateNumFmt(style.NumFmt)
		if !isDate && style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		}
	}
	w.dateStyles[styleID] = isDate
	return isDate
}

// isDateNumFmt 内置日期/时间格式编号
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode 自定义格式是否为日期/时间格式
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range code {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.ToLower(b.String())
	if strings.ContainsAny(cleaned, "0#?") {
		return false
	}
	return strings.ContainsAny(cleaned, "ydh") || strings.Contains(cleaned, "ss")
}
