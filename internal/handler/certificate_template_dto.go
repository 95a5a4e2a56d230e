package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// templatePayload 创建/更新模板请求，支持 multipart 表单与 JSON 两种提交方式；
// 表单提交时 layout 为 JSON 字符串
type templatePayload struct {
	Name        *string         `form:"name" json:"name" binding:"omitempty,max=255"`
	Description *string         `form:"description" json:"description" binding:"omitempty,max=5000"`
	IsActive    *bool           `form:"is_active" json:"is_active"`
	LayoutForm  *string         `form:"layout" json:"-"`
	LayoutJSON  json.RawMessage `form:"-" json:"layout"`
}

// layoutRaw 返回提交的布局原文，未提交时为 nil
func (p *templatePayload) layoutRaw() []byte {
	if p.LayoutForm != nil {
		return []byte(*p.LayoutForm)
	}
	if len(p.LayoutJSON) > 0 {
		return p.LayoutJSON
	}
	return nil
}

// GenerateRequest 生成证书请求
type GenerateRequest struct {
	Data map[string]string `json:"data"`
}

// PreviewResponse 预览响应
type PreviewResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}

// validationFields 将 validator 错误转换为 field -> message
func validationFields(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[name] = fmt.Sprintf("%s is required", name)
		case "max":
			fields[name] = fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		default:
			fields[name] = fmt.Sprintf("%s is invalid", name)
		}
	}
	return fields, true
}
