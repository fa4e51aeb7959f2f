package dashboard

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

// NoticeNotReady 快照未就绪或该看板没有数据时的提示
const NoticeNotReady = "veri hazır değil"

// 趋势窗口
const (
	trendDays    = 7
	maxTrendDays = 370
)

var monthNamesTR = [...]string{
	"", "Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

// Request 看板查询参数；Month/Year 为 0 表示未指定
type Request struct {
	Date    *civil.Date
	Start   *civil.Date
	End     *civil.Date
	Month   int
	Year    int
	Machine string
}

// Kind 时间段类型
type Kind string

const (
	KindDay   Kind = "day"
	KindRange Kind = "range"
	KindMonth Kind = "month"
)

// Period 闭区间 [Start, End]
type Period struct {
	Kind  Kind       `json:"kind"`
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

// Contains 日期是否落在区间内
func (p Period) Contains(d civil.Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days 区间包含的天数
func (p Period) Days() int {
	return p.End.DaysSince(p.Start) + 1
}

// Dates 区间内的每一天
func (p Period) Dates() []civil.Date {
	n := p.Days()
	if n <= 0 {
		return nil
	}
	out := make([]civil.Date, 0, n)
	for d := p.Start; !d.After(p.End); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// Aux 仅用于展示的附加信息
type Aux struct {
	Label        string     `json:"label"`
	Kind         Kind       `json:"kind"`
	Start        civil.Date `json:"start"`
	End          civil.Date `json:"end"`
	ResolvedYear int        `json:"resolvedYear,omitempty"`
	YearAdjusted bool       `json:"yearAdjusted,omitempty"`
	Notice       string     `json:"notice,omitempty"`
}

// Resolution 时间段解析结果
type Resolution struct {
	Period Period
	Trend  Period
	Aux    Aux
}

// NormalizeRange 保证 start <= end
func NormalizeRange(a, b civil.Date) (civil.Date, civil.Date) {
	if b.Before(a) {
		return b, a
	}
	return a, b
}

// Resolve 解析查询时间段
// 优先级：区间 > 月份（可带年份，找不到数据时取最近的有数据年份）> 指定日期 > 默认日期
func Resolve(req Request, available []civil.Date, today civil.Date) Resolution {
	var p Period
	var aux Aux

	switch {
	case req.Start != nil && req.End != nil:
		start, end := NormalizeRange(*req.Start, *req.End)
		p = Period{Kind: KindRange, Start: start, End: end}
	case req.Start != nil || req.End != nil:
		// 只给了一端时按单日处理
		d := req.Start
		if d == nil {
			d = req.End
		}
		p = Period{Kind: KindDay, Start: *d, End: *d}
	case req.Month >= 1 && req.Month <= 12:
		year := req.Year
		if year <= 0 {
			year = today.Year
		}
		resolved := resolveMonthYear(time.Month(req.Month), year, available)
		p = monthPeriod(resolved, time.Month(req.Month))
		aux.ResolvedYear = resolved
		aux.YearAdjusted = resolved != year
	case req.Date != nil:
		p = Period{Kind: KindDay, Start: *req.Date, End: *req.Date}
	default:
		d := defaultDate(available, today)
		p = Period{Kind: KindDay, Start: d, End: d}
	}

	aux.Kind = p.Kind
	aux.Start = p.Start
	aux.End = p.End
	aux.Label = periodLabel(p)
	return Resolution{Period: p, Trend: trendWindow(p), Aux: aux}
}

// resolveMonthYear 给定年份没有该月数据时，取距离最近的有数据年份（距离相同取较晚的年份）
func resolveMonthYear(month time.Month, year int, available []civil.Date) int {
	years := make(map[int]struct{})
	for _, d := range available {
		if d.Month == month {
			years[d.Year] = struct{}{}
		}
	}
	if len(years) == 0 {
		return year
	}
	if _, ok := years[year]; ok {
		return year
	}

	best := 0
	bestDist := -1
	for y := range years {
		dist := absInt(y - year)
		if bestDist < 0 || dist < bestDist || (dist == bestDist && y > best) {
			best, bestDist = y, dist
		}
	}
	return best
}

// defaultDate 距离昨天最近的有数据日期（距离相同取较新的日期）；没有数据时为今天
func defaultDate(available []civil.Date, today civil.Date) civil.Date {
	if len(available) == 0 {
		return today
	}
	target := today.AddDays(-1)
	best := available[0]
	bestDist := absInt(best.DaysSince(target))
	for _, d := range available[1:] {
		dist := absInt(d.DaysSince(target))
		if dist < bestDist || (dist == bestDist && d.After(best)) {
			best, bestDist = d, dist
		}
	}
	return best
}

func trendWindow(p Period) Period {
	if p.Kind != KindDay {
		if p.Days() > maxTrendDays {
			return Period{Kind: p.Kind, Start: p.End.AddDays(-(maxTrendDays - 1)), End: p.End}
		}
		return p
	}
	return Period{Kind: KindRange, Start: p.End.AddDays(-(trendDays - 1)), End: p.End}
}

func monthPeriod(year int, month time.Month) Period {
	start := civil.Date{Year: year, Month: month, Day: 1}
	end := civil.DateOf(time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC))
	return Period{Kind: KindMonth, Start: start, End: end}
}

func periodLabel(p Period) string {
	switch p.Kind {
	case KindMonth:
		return fmt.Sprintf("%s %d", monthNamesTR[int(p.Start.Month)], p.Start.Year)
	case KindRange:
		if p.Start == p.End {
			return formatDate(p.Start)
		}
		return formatDate(p.Start) + " - " + formatDate(p.End)
	default:
		return formatDate(p.Start)
	}
}

func formatDate(d civil.Date) string {
	return fmt.Sprintf("%02d.%02d.%04d", d.Day, int(d.Month), d.Year)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// UniqueDates 去重并升序排列
func UniqueDates(dates []civil.Date) []civil.Date {
	seen := make(map[civil.Date]struct{}, len(dates))
	out := make([]civil.Date, 0, len(dates))
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
