package parser

import (
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/Tuncayozalici/ONERI-sub000/internal/workbook"
)

func text(s string) workbook.Cell {
	return workbook.Cell{Value: s, Text: s}
}

func num(v float64) workbook.Cell {
	return workbook.Cell{Value: v}
}

func TestParseDate_FallbackChain(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	want := civil.Date{Year: 2026, Month: time.February, Day: 18}

	cases := []struct {
		name string
		cell workbook.Cell
	}{
		{"native", workbook.Cell{Value: time.Date(2026, 2, 18, 7, 30, 0, 0, time.UTC)}},
		{"serial", num(46071)},
		{"formula", workbook.Cell{Value: "=TODAY()-242", Text: "18.02.2026"}},
		{"local", text("18.02.2026")},
		{"local short", text("18.2.2026")},
		{"local slash", text("18/02/2026")},
		{"local time", text("18.02.2026 08:15:00")},
		{"invariant", text("2026-02-18")},
		{"compact", text("20260218")},
		{"free text", text("18 Şubat 2026 Çarşamba")},
		{"free text ascii", text("Carsamba, 18 Subat 2026")},
		{"free text short year", text("18 subat 26")},
		{"free text no year", text("18 Şubat")},
	}
	for _, tc := range cases {
		if got := ParseDateAt(tc.cell, now); got != want {
			t.Errorf("%s: ParseDateAt(%#v) = %v, want %v", tc.name, tc.cell.Value, got, want)
		}
	}
}

func TestParseDateIn_Date1904Serial(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	want := civil.Date{Year: 2026, Month: time.February, Day: 18}
	if got := ParseDateIn(num(44609), now, true); got != want {
		t.Fatalf("ParseDateIn(1904) = %v, want %v", got, want)
	}
	if got := ParseDateIn(num(46071), now, false); got != want {
		t.Fatalf("ParseDateIn(1900) = %v, want %v", got, want)
	}
}

func TestParseDate_GarbageReturnsNoDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	garbage := []workbook.Cell{
		{},
		text(""),
		text("   "),
		text("tarih"),
		text("31 Şubat 2026"),
		text("99.99.9999"),
		num(-5),
		num(0),
		num(math.NaN()),
		num(9e9),
		{Value: true},
		{Value: time.Time{}},
		{Value: "=A1", Text: ""},
	}
	for _, c := range garbage {
		if got := ParseDateAt(c, now); got != NoDate {
			t.Errorf("ParseDateAt(%#v) = %v, want NoDate", c, got)
		}
	}
}

func TestParseFloat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		cell workbook.Cell
		want float64
	}{
		{num(12.5), 12.5},
		{workbook.Cell{Value: 7}, 7},
		{text("12,5"), 12.5},
		{text("1.234,5"), 1234.5},
		{text("1.234"), 1234},
		{text("87.5"), 87.5},
		{text("1,234.50"), 1234.5},
		{text(" 3 400 "), 3400},
		{text("abc"), 0},
		{text(""), 0},
		{num(math.Inf(1)), 0},
		{text("NaN"), 0},
		{workbook.Cell{Value: time.Now()}, 0},
		{workbook.Cell{Value: "=SUM(A1:A3)", Text: "42,25"}, 42.25},
	}
	for _, tc := range cases {
		if got := ParseFloat(tc.cell); got != tc.want {
			t.Errorf("ParseFloat(%#v) = %v, want %v", tc.cell.Value, got, tc.want)
		}
	}
}

func TestParsePercent_Normalized(t *testing.T) {
	t.Parallel()

	cases := []struct {
		cell workbook.Cell
		want float64
	}{
		{text("87,5%"), 87.5},
		{text("%87,5"), 87.5},
		{text("87.5 ％"), 87.5},
		{num(0.4), 40},
		{num(0.8765), 87.65},
		{num(1), 100},
		{num(130), 100},
		{num(-3), 0},
		{text("yok"), 0},
	}
	for _, tc := range cases {
		if got := NormalizePercent(ParsePercent(tc.cell)); got != tc.want {
			t.Errorf("NormalizePercent(ParsePercent(%#v)) = %v, want %v", tc.cell.Value, got, tc.want)
		}
	}
}

func TestNormalizePercent_StableOutsideFractionBand(t *testing.T) {
	t.Parallel()

	values := []float64{-100, -0.5, 0, 0.011, 0.25, 0.5, 0.999, 1, 1.5, 42, 99.99, 100, 100.01, 250, 1e9, math.Inf(1), math.NaN()}
	for _, x := range values {
		once := NormalizePercent(x)
		twice := NormalizePercent(once)
		if once != twice {
			t.Errorf("NormalizePercent not stable for %v: %v -> %v", x, once, twice)
		}
		if once < 0 || once > 100 {
			t.Errorf("NormalizePercent(%v) = %v out of [0,100]", x, once)
		}
	}
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		cell workbook.Cell
		want int
	}{
		{workbook.Cell{Value: 14}, 14},
		{num(2.5), 3},
		{num(-2.5), -3},
		{num(4.49), 4},
		{workbook.Cell{Value: time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)}, 0},
		{text("5 adet"), 5},
		{text("12,6"), 13},
		{text("yarım"), 1},
		{text("YARIM"), 1},
		{text("adet yok"), 0},
		{text(""), 0},
		{num(math.NaN()), 0},
		{num(1e15), 0},
	}
	for _, tc := range cases {
		if got := ParseCount(tc.cell); got != tc.want {
			t.Errorf("ParseCount(%#v) = %d, want %d", tc.cell.Value, got, tc.want)
		}
	}
}

func TestParseMinutes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		cell workbook.Cell
		want float64
	}{
		{num(0.5), 720},
		{num(0.0625), 90},
		{num(45), 45},
		{workbook.Cell{Value: 20}, 20},
		{workbook.Cell{Value: time.Date(1899, 12, 30, 1, 30, 0, 0, time.UTC)}, 90},
		{text("1 saat 30 dk"), 90},
		{text("2 Saat"), 120},
		{text("45 dakika"), 45},
		{text("1,5 saat"), 90},
		{text("1sa 15dk"), 75},
		{text("yarım saat"), 30},
		{text("Yemek molası"), 0},
		{text("01:45"), 105},
		{text("35"), 35},
		{text("bilinmiyor"), 0},
		{text("45 saniye"), 0.75},
		{text("15 sn"), 0.25},
		{text("1 hafta"), 10080},
		{text("2 gün"), 2880},
		{text("1saat30dk"), 90},
		{num(-10), 0},
		{workbook.Cell{Value: false}, 0},
	}
	for _, tc := range cases {
		if got := ParseMinutes(tc.cell); got != tc.want {
			t.Errorf("ParseMinutes(%#v) = %v, want %v", tc.cell.Value, got, tc.want)
		}
	}
}

func TestRound2_HalfAwayFromZero(t *testing.T) {
	t.Parallel()

	if got := Round2(2.345); got != 2.35 {
		t.Fatalf("Round2(2.345) = %v", got)
	}
	if got := Round2(-2.345); got != -2.35 {
		t.Fatalf("Round2(-2.345) = %v", got)
	}
}
