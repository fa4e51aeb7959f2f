package workbook

import (
	"strconv"
	"strings"
	"time"
)

// Cell 单元格
// Value 为原生值：nil / float64 / int / bool / time.Time / string，公式单元格为 "=..."；
// Text 为 Excel 中显示的文本（公式单元格为缓存结果）。
type Cell struct {
	Value any
	Text  string
}

// IsEmpty 单元格是否为空
func (c Cell) IsEmpty() bool {
	if c.Value == nil {
		return strings.TrimSpace(c.Text) == ""
	}
	if s, ok := c.Value.(string); ok {
		return strings.TrimSpace(s) == "" && strings.TrimSpace(c.Text) == ""
	}
	return false
}

// String 返回单元格的文本表示（优先显示文本）
func (c Cell) String() string {
	if t := strings.TrimSpace(c.Text); t != "" {
		return t
	}
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format("02.01.2006")
	}
	return ""
}

// Sheet 工作表网格，行列均从 1 开始
type Sheet struct {
	name     string
	cells    [][]Cell
	lastRow  int
	lastCol  int
	date1904 bool
}

// NewSheet 由内存数据构建工作表（首行为表头）
func NewSheet(name string, rows [][]any) *Sheet {
	cells := make([][]Cell, len(rows))
	for i, row := range rows {
		cells[i] = make([]Cell, len(row))
		for j, v := range row {
			cells[i][j] = cellOf(v)
		}
	}
	return newSheet(name, cells)
}

// newSheet 以实际读到的单元格为准确定已用区域。
// 不参考 <dimension>：很多生成工具（包括 excelize）写入时保持 "A1"
func newSheet(name string, cells [][]Cell) *Sheet {
	s := &Sheet{name: name, cells: cells}

	// 去掉尾部空行，得到实际使用的最后一行
	last := len(cells)
	for last > 0 && rowEmpty(cells[last-1]) {
		last--
	}
	s.lastRow = last

	for i := 0; i < last; i++ {
		if n := len(cells[i]); n > s.lastCol {
			s.lastCol = n
		}
	}
	return s
}

func cellOf(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Cell{}
	case Cell:
		return x
	case string:
		return Cell{Value: x, Text: x}
	case int64:
		return Cell{Value: float64(x), Text: strconv.FormatInt(x, 10)}
	case float32:
		return cellOf(float64(x))
	}
	c := Cell{Value: v}
	c.Text = c.String()
	return c
}

func rowEmpty(row []Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Date1904 工作簿是否使用 1904 日期系统
func (s *Sheet) Date1904() bool {
	return s.date1904
}

// Name 工作表名称
func (s *Sheet) Name() string {
	return s.name
}

// Cell 读取单元格，越界返回空单元格
func (s *Sheet) Cell(row, col int) Cell {
	if row < 1 || col < 1 || row > len(s.cells) {
		return Cell{}
	}
	r := s.cells[row-1]
	if col > len(r) {
		return Cell{}
	}
	return r[col-1]
}

// LastRow 最后一个有数据的行号
func (s *Sheet) LastRow() int {
	return s.lastRow
}

// LastColumn 最大列号
func (s *Sheet) LastColumn() int {
	return s.lastCol
}

// Header 第一行的文本
func (s *Sheet) Header() []string {
	if s.lastRow == 0 {
		return nil
	}
	header := make([]string, s.lastCol)
	for col := 1; col <= s.lastCol; col++ {
		header[col-1] = s.Cell(1, col).String()
	}
	return header
}

// RowEmpty 判断某一行是否全部为空
func (s *Sheet) RowEmpty(row int) bool {
	if row < 1 || row > len(s.cells) {
		return true
	}
	return rowEmpty(s.cells[row-1])
}
