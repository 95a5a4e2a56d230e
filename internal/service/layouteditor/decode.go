package layouteditor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/model"
)

// DecodeLayout 解析提交的布局 JSON 数组；表单提交时数字可能是字符串，
// 每个属性都按 SetField 的规则转换，只有未提交的属性才补默认值
func DecodeLayout(raw []byte) (model.Layout, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return model.Layout{}, nil
	}

	var items []map[string]any
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("layout must be a JSON array of objects: %w", err)
	}

	layout := make(model.Layout, len(items))
	for i, item := range items {
		layout[i] = submittedDefaults()
		for name, v := range item {
			if v == nil {
				continue
			}
			attr, ok := ParseAttribute(name)
			if !ok {
				continue
			}
			apply(&layout[i], attr, stringify(v))
		}
		layout[i].Type = model.FieldTypeText
	}
	return layout, nil
}

// submittedDefaults 提交对象中缺失属性的取值；x/y 缺失时为 0，与解析失败一致
func submittedDefaults() model.LayoutField {
	return model.LayoutField{
		Type:       model.FieldTypeText,
		FontFamily: model.DefaultFontFamily,
		FontSize:   model.DefaultFontSize,
		Color:      model.DefaultColor,
		Align:      model.DefaultAlign,
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		data, _ := json.Marshal(val)
		return string(data)
	}
}
