package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tuncayozalici/ONERI-sub000/internal/workbook"
)

var (
	// 土耳其语格式：1.234,5 / 1234,5
	trGroupedRe = regexp.MustCompile(`^[+-]?\d{1,3}(\.\d{3})+(,\d+)?$`)
	trPlainRe   = regexp.MustCompile(`^[+-]?\d+(,\d+)?$`)
	// 通用格式：1,234.5
	invGroupedRe = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

	leadingNumberRe = regexp.MustCompile(`^[+-]?\d+(?:[.,]\d+)*`)
	clockRe         = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)
	durationTokenRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*([a-z]+)`)
)

// durationUnits 时长单位（折叠后的完整单词）对应的分钟数
var durationUnits = map[string]float64{
	"hafta": 7 * minutesPerDay, "week": 7 * minutesPerDay, "weeks": 7 * minutesPerDay,
	"gun": minutesPerDay, "day": minutesPerDay, "days": minutesPerDay,
	"saat": 60, "sa": 60, "s": 60, "h": 60, "hr": 60, "hrs": 60, "hour": 60, "hours": 60,
	"dakika": 1, "dak": 1, "dk": 1, "dd": 1, "d": 1, "m": 1, "mn": 1, "min": 1, "minute": 1, "minutes": 1,
	"saniye": 1.0 / 60, "sn": 1.0 / 60, "sec": 1.0 / 60, "second": 1.0 / 60, "seconds": 1.0 / 60,
}

const minutesPerDay = 1440

// Round2 保留两位小数（远离零的四舍五入）
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Text 单元格文本（去首尾空白）
func Text(cell workbook.Cell) string {
	return strings.TrimSpace(cell.String())
}

// rawText 取用于解析的文本；公式单元格使用显示文本
func rawText(cell workbook.Cell) string {
	s, ok := cell.Value.(string)
	if !ok {
		return strings.TrimSpace(cell.String())
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=") {
		return strings.TrimSpace(cell.Text)
	}
	return s
}

// ParseFloat 解析数值：原生数值直接返回；文本先按土耳其语格式，再按通用格式
func ParseFloat(cell workbook.Cell) float64 {
	switch v := cell.Value.(type) {
	case float64:
		return finite(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case bool, time.Time:
		return 0
	}
	return parseDecimalText(rawText(cell))
}

// ParsePercent 解析百分比文本（去掉 % 符号，返回原始数值，不做归一化）
func ParsePercent(cell workbook.Cell) float64 {
	switch cell.Value.(type) {
	case float64, int, int64:
		return ParseFloat(cell)
	}
	s := rawText(cell)
	s = strings.ReplaceAll(s, "％", "%")
	s = strings.TrimSpace(strings.Trim(s, "%"))
	return parseDecimalText(s)
}

// NormalizePercent 百分比归一化
// (0,1] 视为小数比例并乘以 100；大于 100 截断为 100；小于等于 0 为 0。
// 对 (0,0.01] 内的值重复调用会再次放大，单元格只在提取时归一化一次
func NormalizePercent(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, -1) || x <= 0 {
		return 0
	}
	if x <= 1 {
		return Round2(x * 100)
	}
	if x > 100 {
		return 100
	}
	return x
}

// ParseCount 解析件数
func ParseCount(cell workbook.Cell) int {
	switch v := cell.Value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return roundCount(v)
	case bool, time.Time:
		// 列错位读到日期时不应产生巨大的件数
		return 0
	}

	s := rawText(cell)
	if s == "" {
		return 0
	}
	if m := leadingNumberRe.FindString(s); m != "" {
		return roundCount(parseDecimalText(m))
	}
	if strings.Contains(FoldTurkish(s), "yarim") {
		return 1
	}
	return 0
}

func roundCount(v float64) int {
	if math.IsNaN(v) || math.Abs(v) > math.MaxInt32 {
		return 0
	}
	return int(math.Round(v))
}

// ParseMinutes 解析时长（分钟）
// 数值：(0,1) 视为一天的比例；其余视为分钟。文本：按完整单位词累加（saat、dk、saniye 等）。
func ParseMinutes(cell workbook.Cell) float64 {
	switch v := cell.Value.(type) {
	case float64:
		return minutesFromNumber(v)
	case int:
		return minutesFromNumber(float64(v))
	case int64:
		return minutesFromNumber(float64(v))
	case time.Time:
		return Round2(float64(v.Hour()*60+v.Minute()) + float64(v.Second())/60)
	case bool:
		return 0
	}
	return parseMinutesText(rawText(cell))
}

func minutesFromNumber(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	if v < 1 {
		return Round2(v * minutesPerDay)
	}
	return v
}

func parseMinutesText(s string) float64 {
	folded := strings.TrimSpace(FoldTurkish(s))
	if folded == "" {
		return 0
	}
	if strings.Contains(folded, "yemek") || strings.Contains(folded, "mola") {
		return 0
	}
	if strings.Contains(folded, "yarim saat") {
		return 30
	}
	if m := clockRe.FindStringSubmatch(folded); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		return float64(h*60 + mins)
	}

	total := 0.0
	matched := false
	for _, m := range durationTokenRe.FindAllStringSubmatch(folded, -1) {
		unit, ok := durationUnits[m[2]]
		if !ok {
			continue
		}
		total += parseDecimalText(m[1]) * unit
		matched = true
	}
	if matched {
		return Round2(total)
	}

	if m := leadingNumberRe.FindString(folded); m != "" {
		if n := parseDecimalText(m); n > 0 {
			return n
		}
	}
	return 0
}

// parseDecimalText 先按土耳其语格式解析，失败后按通用格式解析，失败返回 0
func parseDecimalText(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "'", "").Replace(s)
	if s == "" {
		return 0
	}

	if trGroupedRe.MatchString(s) || trPlainRe.MatchString(s) {
		t := strings.ReplaceAll(s, ".", "")
		t = strings.Replace(t, ",", ".", 1)
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return finite(f)
		}
	}

	if invGroupedRe.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return finite(f)
	}
	return 0
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
