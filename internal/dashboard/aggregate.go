package dashboard

import (
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
	"github.com/Tuncayozalici/ONERI-sub000/internal/parser"
)

// UnknownLabel 分组标签为空时使用
const UnknownLabel = "Bilinmiyor"

// GroupTotal 分组合计
type GroupTotal struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// Point 趋势中的一天
type Point struct {
	Date  civil.Date `json:"date"`
	Value float64    `json:"value"`
}

// Filter 返回落在区间内且满足 keep 的行（新切片）
func Filter[T model.Dated](rows []T, p Period, keep func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if !p.Contains(r.Day()) {
			continue
		}
		if keep != nil && !keep(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sum 合计（保留两位小数）
func Sum[T any](rows []T, measure func(T) float64) float64 {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(decimal.NewFromFloat(measure(r)))
	}
	return total.Round(2).InexactFloat64()
}

// SumInt 整数合计
func SumInt[T any](rows []T, measure func(T) int) int {
	total := 0
	for _, r := range rows {
		total += measure(r)
	}
	return total
}

// AvgPositive 只对大于 0 的值求平均，没有时为 0
func AvgPositive[T any](rows []T, measure func(T) float64) float64 {
	total := decimal.Zero
	n := 0
	for _, r := range rows {
		v := measure(r)
		if v <= 0 {
			continue
		}
		total = total.Add(decimal.NewFromFloat(v))
		n++
	}
	if n == 0 {
		return 0
	}
	return total.Div(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64()
}

// Percent num/den*100，den 非正时为 0
func Percent(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return decimal.NewFromFloat(num).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromFloat(den)).
		Round(2).InexactFloat64()
}

// GroupLabel 分组标签：土耳其语规则的标题大小写，空值为 Bilinmiyor
func GroupLabel(s string) string {
	if l := parser.TitleLabel(s); l != "" {
		return l
	}
	return UnknownLabel
}

// labelGroups 把同一标签的不同写法（大小写、变音符号、空白）归到一组。
// 显示名取第一次出现的写法；全大写的写法（其中的 I 无法区分 i 与 ı）会被之后出现的大小写混合写法替换
type labelGroups struct {
	index  map[string]int
	labels []string
	upper  []bool
}

func newLabelGroups() *labelGroups {
	return &labelGroups{index: make(map[string]int)}
}

func (g *labelGroups) add(raw string) int {
	key := parser.NormalizeHeader(raw)
	display := GroupLabel(raw)
	if key == "" {
		key, display = parser.NormalizeHeader(UnknownLabel), UnknownLabel
	}
	upper := isAllUpper(raw)

	if i, ok := g.index[key]; ok {
		if g.upper[i] && !upper {
			g.labels[i], g.upper[i] = display, false
		}
		return i
	}
	g.index[key] = len(g.labels)
	g.labels = append(g.labels, display)
	g.upper = append(g.upper, upper)
	return len(g.labels) - 1
}

func isAllUpper(s string) bool {
	return strings.ToUpper(s) == s && strings.ToLower(s) != s
}

// GroupTotals 按标签分组求和，合计降序，相同合计按标签升序
func GroupTotals[T any](rows []T, label func(T) string, measure func(T) float64) []GroupTotal {
	groups := newLabelGroups()
	var sums []decimal.Decimal
	for _, r := range rows {
		i := groups.add(label(r))
		if i == len(sums) {
			sums = append(sums, decimal.Zero)
		}
		sums[i] = sums[i].Add(decimal.NewFromFloat(measure(r)))
	}

	out := make([]GroupTotal, 0, len(sums))
	for i, sum := range sums {
		out = append(out, GroupTotal{Label: groups.labels[i], Total: sum.Round(2).InexactFloat64()})
	}
	sortGroups(out)
	return out
}

// GroupAverages 按标签分组，对正值求平均
func GroupAverages[T any](rows []T, label func(T) string, measure func(T) float64) []GroupTotal {
	type acc struct {
		sum decimal.Decimal
		n   int64
	}
	groups := newLabelGroups()
	var accs []acc
	for _, r := range rows {
		i := groups.add(label(r))
		if i == len(accs) {
			accs = append(accs, acc{sum: decimal.Zero})
		}
		if v := measure(r); v > 0 {
			accs[i].sum = accs[i].sum.Add(decimal.NewFromFloat(v))
			accs[i].n++
		}
	}

	out := make([]GroupTotal, 0, len(accs))
	for i, a := range accs {
		avg := 0.0
		if a.n > 0 {
			avg = a.sum.Div(decimal.NewFromInt(a.n)).Round(2).InexactFloat64()
		}
		out = append(out, GroupTotal{Label: groups.labels[i], Total: avg})
	}
	sortGroups(out)
	return out
}

func sortGroups(groups []GroupTotal) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Total != groups[j].Total {
			return groups[i].Total > groups[j].Total
		}
		return groups[i].Label < groups[j].Label
	})
}

// SumGroups 分组合计之和
func SumGroups(groups []GroupTotal) float64 {
	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(decimal.NewFromFloat(g.Total))
	}
	return total.Round(2).InexactFloat64()
}

// TopLabels 最大合计的标签，格式 "{label} ({total})"，并列时以逗号连接
func TopLabels(groups []GroupTotal) string {
	if len(groups) == 0 {
		return ""
	}
	top := groups[0].Total
	for _, g := range groups[1:] {
		if g.Total > top {
			top = g.Total
		}
	}
	if top <= 0 {
		return ""
	}

	var parts []string
	for _, g := range groups {
		if g.Total == top {
			parts = append(parts, g.Label+" ("+formatNumber(g.Total)+")")
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DailySeries 窗口内每天的合计，没有数据的日子补 0
func DailySeries[T model.Dated](window Period, rows []T, measure func(T) float64) []Point {
	sums := make(map[civil.Date]decimal.Decimal)
	for _, r := range rows {
		d := r.Day()
		if !window.Contains(d) {
			continue
		}
		sums[d] = sums[d].Add(decimal.NewFromFloat(measure(r)))
	}

	dates := window.Dates()
	out := make([]Point, 0, len(dates))
	for _, d := range dates {
		out = append(out, Point{Date: d, Value: sums[d].Round(2).InexactFloat64()})
	}
	return out
}

// DailyAverage 窗口内每天正值的平均（百分比类指标），没有数据的日子补 0
func DailyAverage[T model.Dated](window Period, rows []T, measure func(T) float64) []Point {
	byDay := make(map[civil.Date][]T)
	for _, r := range rows {
		d := r.Day()
		if window.Contains(d) {
			byDay[d] = append(byDay[d], r)
		}
	}

	dates := window.Dates()
	out := make([]Point, 0, len(dates))
	for _, d := range dates {
		out = append(out, Point{Date: d, Value: AvgPositive(byDay[d], measure)})
	}
	return out
}

// MergeSeries 按日期逐点相加（窗口相同的序列）
func MergeSeries(series ...[]Point) []Point {
	if len(series) == 0 {
		return nil
	}
	out := make([]Point, len(series[0]))
	copy(out, series[0])
	for _, s := range series[1:] {
		for i := range out {
			if i < len(s) && s[i].Date == out[i].Date {
				out[i].Value = decimal.NewFromFloat(out[i].Value).Add(decimal.NewFromFloat(s[i].Value)).Round(2).InexactFloat64()
			}
		}
	}
	return out
}

// DistinctLabels 去重后的标签列表（用于机器筛选下拉框）
func DistinctLabels[T any](rows []T, label func(T) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		l := strings.TrimSpace(label(r))
		if l == "" {
			continue
		}
		key := parser.NormalizeHeader(l)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
