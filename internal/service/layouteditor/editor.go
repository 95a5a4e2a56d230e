// Package layouteditor 对证书模板布局草稿做增删改，所有操作返回新切片，不修改入参。
package layouteditor

import (
	"strconv"
	"strings"

	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/model"
)

const (
	// DefaultCoordinate x/y 解析失败时的取值
	DefaultCoordinate = 0.0
	// DefaultCoercedFontSize fontSize 解析失败时的取值
	DefaultCoercedFontSize = 12
)

// Attribute 可编辑的字段属性名
type Attribute string

const (
	AttrKey        Attribute = "key"
	AttrLabel      Attribute = "label"
	AttrType       Attribute = "type"
	AttrX          Attribute = "x"
	AttrY          Attribute = "y"
	AttrFontFamily Attribute = "font_family"
	AttrFontSize   Attribute = "font_size"
	AttrColor      Attribute = "color"
	AttrAlign      Attribute = "align"
)

// 前端表单使用 camelCase
var attributeAliases = map[string]Attribute{
	"fontfamily": AttrFontFamily,
	"fontsize":   AttrFontSize,
}

// ParseAttribute 解析属性名，兼容 snake_case 与 camelCase
func ParseAttribute(name string) (Attribute, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := attributeAliases[n]; ok {
		return a, true
	}
	switch a := Attribute(n); a {
	case AttrKey, AttrLabel, AttrType, AttrX, AttrY, AttrFontFamily, AttrFontSize, AttrColor, AttrAlign:
		return a, true
	}
	return "", false
}

// AddField 追加一个默认字段
func AddField(layout model.Layout) model.Layout {
	out := make(model.Layout, len(layout), len(layout)+1)
	copy(out, layout)
	return append(out, model.NewLayoutField(len(layout)))
}

// RemoveField 删除 index 处的字段，越界时原样返回副本
func RemoveField(layout model.Layout, index int) model.Layout {
	if index < 0 || index >= len(layout) {
		return clone(layout)
	}
	out := make(model.Layout, 0, len(layout)-1)
	out = append(out, layout[:index]...)
	return append(out, layout[index+1:]...)
}

// SetField 按属性类型转换 raw 后写入 index 处的字段
func SetField(layout model.Layout, index int, attribute string, raw string) model.Layout {
	out := clone(layout)
	if index < 0 || index >= len(out) {
		return out
	}
	attr, ok := ParseAttribute(attribute)
	if !ok {
		return out
	}
	apply(&out[index], attr, raw)
	return out
}

func apply(f *model.LayoutField, attr Attribute, raw string) {
	switch attr {
	case AttrX:
		f.X = parseFloat(raw)
	case AttrY:
		f.Y = parseFloat(raw)
	case AttrFontSize:
		f.FontSize = parseInt(raw)
	case AttrAlign:
		// 直接转换，界面只提供三种取值
		f.Align = model.Align(raw)
	case AttrKey:
		f.Key = raw
	case AttrLabel:
		f.Label = raw
	case AttrType:
		f.Type = raw
	case AttrFontFamily:
		f.FontFamily = raw
	case AttrColor:
		f.Color = raw
	}
}

func parseFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return DefaultCoordinate
	}
	return v
}

// parseInt 取前导整数部分，如 "12.5" -> 12
func parseInt(raw string) int {
	s := strings.TrimSpace(raw)
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	if v, err := strconv.Atoi(s[:end]); err == nil {
		return v
	}
	return DefaultCoercedFontSize
}

func clone(layout model.Layout) model.Layout {
	out := make(model.Layout, len(layout))
	copy(out, layout)
	return out
}
