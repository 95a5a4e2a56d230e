package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CertificateTemplate 证书模板：背景文件 + 文本字段布局
type CertificateTemplate struct {
	ID              uint                             `gorm:"primaryKey"`
	Name            string                           `gorm:"size:255;not null"`
	Description     string                           `gorm:"type:text"`
	BackgroundAsset *string                          `gorm:"size:500"` // 存储引用，为空表示无背景
	Layout          datatypes.JSONSlice[LayoutField] `gorm:"not null"`
	IsActive        bool                             `gorm:"not null;default:false"`
	CreatedAt       time.Time                        `gorm:"autoCreateTime"`
	UpdatedAt       time.Time                        `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (CertificateTemplate) TableName() string {
	return "certificate_templates"
}

// BeforeSave 布局永远以 JSON 数组落库，不写 null
func (t *CertificateTemplate) BeforeSave(tx *gorm.DB) error {
	if t.Layout == nil {
		t.Layout = datatypes.JSONSlice[LayoutField]{}
	}
	return nil
}

// HasBackground 是否已上传背景
func (t *CertificateTemplate) HasBackground() bool {
	return t.BackgroundAsset != nil && *t.BackgroundAsset != ""
}

// Background 返回背景引用，无背景时为空串
func (t *CertificateTemplate) Background() string {
	if t.BackgroundAsset == nil {
		return ""
	}
	return *t.BackgroundAsset
}

// Fields 以 Layout 类型返回布局副本
func (t *CertificateTemplate) Fields() Layout {
	out := make(Layout, len(t.Layout))
	copy(out, t.Layout)
	return out
}

// SetFields 整体替换布局
func (t *CertificateTemplate) SetFields(layout Layout) {
	t.Layout = datatypes.JSONSlice[LayoutField](layout)
}

// Align 水平对齐方式
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Valid 是否为三种合法取值之一
func (a Align) Valid() bool {
	switch a {
	case AlignLeft, AlignCenter, AlignRight:
		return true
	}
	return false
}

const (
	FieldTypeText     = "text"
	DefaultFontFamily = "Inter"
	DefaultFontSize   = 20
	DefaultColor      = "#1f2937"
	DefaultAlign      = AlignCenter
	DefaultPosition   = 50.0
)

// RecommendedKeys 推荐的字段 key，不做强制校验
var RecommendedKeys = []string{
	"recipient_name",
	"course_name",
	"issue_date",
	"certificate_id",
	"signature_name",
}

// LayoutField 模板上的一个文本字段，x/y 为背景宽高的百分比
type LayoutField struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	Type       string  `json:"type"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	FontFamily string  `json:"font_family"`
	FontSize   int     `json:"font_size"`
	Color      string  `json:"color"`
	Align      Align   `json:"align"`
}

// Layout 有序字段列表，顺序即插入顺序
type Layout []LayoutField

// NewLayoutField 生成追加到长度为 count 的布局末尾的新字段
func NewLayoutField(count int) LayoutField {
	n := count + 1
	return LayoutField{
		Key:        fmt.Sprintf("custom_field_%d", n),
		Label:      fmt.Sprintf("Custom Field %d", n),
		Type:       FieldTypeText,
		X:          DefaultPosition,
		Y:          DefaultPosition,
		FontFamily: DefaultFontFamily,
		FontSize:   DefaultFontSize,
		Color:      DefaultColor,
		Align:      DefaultAlign,
	}
}

// Normalize 补齐缺省的字符串属性；数值属性保持原值，x/y 与字号的 0 都是合法输入
func (f *LayoutField) Normalize() {
	f.Type = FieldTypeText
	if f.FontFamily == "" {
		f.FontFamily = DefaultFontFamily
	}
	if f.Color == "" {
		f.Color = DefaultColor
	}
	if f.Align == "" {
		f.Align = DefaultAlign
	}
}
