package workbook

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FindSheet 按候选名称查找工作表：先精确匹配，再忽略大小写匹配（土耳其语大小写规则）
func FindSheet(wb Workbook, candidates ...string) (string, bool) {
	names := wb.SheetNames()

	for _, want := range candidates {
		for _, name := range names {
			if name == want {
				return name, true
			}
		}
	}

	for _, want := range candidates {
		fw := foldSheetName(want)
		for _, name := range names {
			if foldSheetName(name) == fw {
				return name, true
			}
		}
	}
	return "", false
}

func foldSheetName(s string) string {
	s = strings.TrimSpace(s)
	s = cases.Lower(language.Turkish).String(s)
	return strings.ReplaceAll(s, "ı", "i")
}
