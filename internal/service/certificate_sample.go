package service

import (
	"time"

	"github.com/goodsign/monday"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/model"
)

const (
	LocaleEnUS = "en_US"
	LocaleIdID = "id_ID"
)

// issueDateLayouts 各语言的长日期格式
var issueDateLayouts = map[string]string{
	LocaleEnUS: "January 2, 2006",
	LocaleIdID: "2 January 2006",
}

// SampleData 预览用示例数据，覆盖全部推荐字段
func SampleData(now time.Time, locale string) map[string]string {
	data := make(map[string]string, len(model.RecommendedKeys))
	for _, key := range model.RecommendedKeys {
		data[key] = sampleValue(key, now, locale)
	}
	return data
}

func sampleValue(key string, now time.Time, locale string) string {
	switch key {
	case "recipient_name":
		return "John Doe"
	case "course_name":
		return "Laravel Advanced Course"
	case "issue_date":
		return FormatIssueDate(now, locale)
	case "certificate_id":
		return "CERT-XXXXXXXX"
	case "signature_name":
		return "Jane Smith"
	default:
		return ""
	}
}

// FormatIssueDate 按语言输出长日期，未知语言按 en_US 处理
func FormatIssueDate(t time.Time, locale string) string {
	layout, ok := issueDateLayouts[locale]
	if !ok {
		return monday.Format(t, issueDateLayouts[LocaleEnUS], monday.LocaleEnUS)
	}
	return monday.Format(t, layout, monday.Locale(locale))
}
