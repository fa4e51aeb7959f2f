package parser

import (
	"github.com/Tuncayozalici/ONERI-sub000/internal/workbook"
)

// NotFound 未找到列
const NotFound = -1

// FindColumn 在表头中查找第一个与任一别名匹配的列（0 起始）
func FindColumn(header []string, aliases ...string) int {
	if len(aliases) == 0 {
		return NotFound
	}
	wanted := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		if n := NormalizeHeader(a); n != "" {
			wanted[n] = struct{}{}
		}
	}

	for idx, col := range header {
		n := NormalizeHeader(col)
		if n == "" {
			continue
		}
		if _, ok := wanted[n]; ok {
			return idx
		}
	}
	return NotFound
}

// ResolveColumn 按别名查找列，找不到时使用固定位置
func ResolveColumn(header []string, fallback int, aliases ...string) int {
	if idx := FindColumn(header, aliases...); idx != NotFound {
		return idx
	}
	return fallback
}

// ColumnSpec 列定义：别名 + 兜底位置（0 起始，-1 表示没有兜底）
type ColumnSpec struct {
	Key      string
	Fallback int
	Aliases  []string
}

// Col 构造列定义
func Col(key string, fallback int, aliases ...string) ColumnSpec {
	return ColumnSpec{Key: key, Fallback: fallback, Aliases: aliases}
}

// Columns 已解析的列位置
type Columns map[string]int

// ResolveColumns 一次性解析整张表所需的所有列，返回使用了兜底位置的列
func ResolveColumns(header []string, specs []ColumnSpec) (Columns, []string) {
	cols := make(Columns, len(specs))
	var fellBack []string
	for _, spec := range specs {
		idx := FindColumn(header, spec.Aliases...)
		if idx == NotFound {
			idx = spec.Fallback
			fellBack = append(fellBack, spec.Key)
		}
		cols[spec.Key] = idx
	}
	return cols, fellBack
}

// Cell 读取某行中指定列的单元格
func (c Columns) Cell(sheet *workbook.Sheet, row int, key string) workbook.Cell {
	idx, ok := c[key]
	if !ok || idx < 0 {
		return workbook.Cell{}
	}
	return sheet.Cell(row, idx+1)
}
