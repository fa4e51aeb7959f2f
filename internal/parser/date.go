package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"github.com/Tuncayozalici/ONERI-sub000/internal/workbook"
)

// NoDate 无法解析日期时的哨兵值
var NoDate = civil.Date{}

// Excel 序列日期的有效范围：1900-01-01 ~ 9999-12-31
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// 本地（tr-TR）格式优先，其次通用格式
var (
	localDateLayouts = []string{
		"02.01.2006",
		"2.1.2006",
		"02.01.2006 15:04:05",
		"2.1.2006 15:04:05",
		"02.01.2006 15:04",
		"2.1.2006 15:04",
		"02/01/2006",
		"2/1/2006",
		"02-01-2006",
		"02.01.06",
	}
	invariantDateLayouts = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2006/01/02",
		"01/02/2006",
		"1/2/2006",
		"01-02-06",
		"1/2/06",
	}

	compactDateRe = regexp.MustCompile(`^\d{8}$`)
)

var weekdayNames = map[string]struct{}{
	"pazartesi": {}, "sali": {}, "carsamba": {}, "persembe": {}, "cuma": {}, "cumartesi": {}, "pazar": {},
	"pzt": {}, "sal": {}, "car": {}, "crs": {}, "per": {}, "prs": {}, "cum": {}, "cmt": {}, "paz": {},
}

// 月份名称（已折叠为 ASCII），包含常见的拼写变体与缩写
var monthNames = map[string]time.Month{
	"ocak": time.January, "oca": time.January,
	"subat": time.February, "sub": time.February,
	"mart": time.March, "mar": time.March,
	"nisan": time.April, "nis": time.April,
	"mayis": time.May, "may": time.May,
	"haziran": time.June, "haz": time.June,
	"temmuz": time.July, "tem": time.July,
	"agustos": time.August, "austos": time.August, "agu": time.August, "agt": time.August, "agost": time.August,
	"eylul": time.September, "eyl": time.September,
	"ekim": time.October, "eki": time.October,
	"kasim": time.November, "kas": time.November,
	"aralik": time.December, "ara": time.December,
}

// ParseDate 解析日期，失败返回 NoDate
func ParseDate(cell workbook.Cell) civil.Date {
	return ParseDateAt(cell, time.Now())
}

// ParseDateAt 解析日期；自由文本缺少年份时使用 now 的年份
// 顺序：原生日期 -> Excel 序列号 -> 公式显示文本 -> 本地格式 -> 通用格式 -> YYYYMMDD -> 自由文本
func ParseDateAt(cell workbook.Cell, now time.Time) civil.Date {
	return ParseDateIn(cell, now, false)
}

// ParseDateIn 同 ParseDateAt，序列号按工作簿的日期系统（1900 / 1904）换算
func ParseDateIn(cell workbook.Cell, now time.Time, date1904 bool) civil.Date {
	switch v := cell.Value.(type) {
	case time.Time:
		if v.IsZero() {
			return NoDate
		}
		return civil.DateOf(v)
	case float64:
		if d, ok := serialToDate(v, date1904); ok {
			return d
		}
	case int:
		if d, ok := serialToDate(float64(v), date1904); ok {
			return d
		}
	}
	return ParseDateText(rawText(cell), now)
}

func serialToDate(v float64, date1904 bool) (civil.Date, bool) {
	if math.IsNaN(v) || v < minExcelSerial || v > maxExcelSerial {
		return NoDate, false
	}
	t, err := excelize.ExcelDateToTime(v, date1904)
	if err != nil {
		return NoDate, false
	}
	return civil.DateOf(t), true
}

// ParseDateText 解析日期文本
func ParseDateText(text string, now time.Time) civil.Date {
	text = strings.TrimSpace(text)
	if text == "" {
		return NoDate
	}

	for _, layout := range localDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return civil.DateOf(t)
		}
	}
	for _, layout := range invariantDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return civil.DateOf(t)
		}
	}

	if compactDateRe.MatchString(text) {
		if t, err := time.Parse("20060102", text); err == nil {
			return civil.DateOf(t)
		}
	}

	return parseFreeTextDate(text, now)
}

// parseFreeTextDate 解析 "18 Şubat 2026 Çarşamba" / "Pazartesi, 3 Mart" 一类的自由文本
func parseFreeTextDate(text string, now time.Time) civil.Date {
	folded := FoldTurkish(text)
	tokens := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var (
		month   time.Month
		numbers []string
	)
	for _, tok := range tokens {
		if _, ok := weekdayNames[tok]; ok {
			continue
		}
		if m, ok := monthNames[tok]; ok && month == 0 {
			month = m
			continue
		}
		if isDigits(tok) {
			numbers = append(numbers, tok)
		}
	}
	if month == 0 || len(numbers) == 0 {
		return NoDate
	}

	day := 0
	year := 0
	for i, n := range numbers {
		v, _ := strconv.Atoi(n)
		switch {
		case len(n) == 4 && year == 0:
			year = v
		case day == 0 && v >= 1 && v <= 31 && len(n) <= 2:
			day = v
		case i == len(numbers)-1 && len(n) == 2 && year == 0:
			year = 2000 + v
		}
	}
	if day == 0 {
		return NoDate
	}
	if year == 0 {
		year = now.Year()
	}

	d := civil.Date{Year: year, Month: month, Day: day}
	if !d.IsValid() {
		return NoDate
	}
	return d
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
