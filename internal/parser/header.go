package parser

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// turkishFold 土耳其语特殊字母到 ASCII 的映射（无法通过 NFD 分解的部分）
var turkishFold = strings.NewReplacer(
	"ı", "i",
	"ş", "s",
	"ğ", "g",
	"ç", "c",
	"ö", "o",
	"ü", "u",
	"â", "a",
	"î", "i",
	"û", "u",
)

// FoldTurkish 小写化并去除变音符号，保留空白与标点
// "ÜRÜN Uyuşmazlığı" -> "urun uyusmazligi"
func FoldTurkish(s string) string {
	s = cases.Lower(language.Turkish).String(s)
	s = turkishFold.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeHeader 规范化表头用于匹配：大小写折叠、去变音符号、只保留字母和数字
// "Makine Adı" / "MAKİNE  ADI" / "makine_adi" 都得到 "makineadi"
func NormalizeHeader(s string) string {
	folded := FoldTurkish(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SameLabel 两个文本在规范化后是否相同
func SameLabel(a, b string) bool {
	return NormalizeHeader(a) == NormalizeHeader(b)
}

// TitleLabel 分组标签规范化：压缩空白并按土耳其语规则首字母大写
func TitleLabel(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return cases.Title(language.Turkish).String(s)
}
