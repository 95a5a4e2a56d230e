package renderer

import (
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/model"
)

// TextMetrics 文本在输出单位（像素或点）下的尺寸，Descent 为基线以下的正距离
type TextMetrics struct {
	Width   float64
	Ascent  float64
	Descent float64
}

// Point 输出坐标
type Point struct {
	X float64
	Y float64
}

// Place 计算文本左侧基线起点，坐标系原点在左上角。
// x/y 为百分比，不做截断；y 对应文本行的垂直中心。
func Place(f model.LayoutField, width, height float64, m TextMetrics) Point {
	anchorX := f.X / 100 * width
	anchorY := f.Y / 100 * height

	x := anchorX
	switch f.Align {
	case model.AlignLeft:
	case model.AlignRight:
		x = anchorX - m.Width
	default:
		x = anchorX - m.Width/2
	}

	return Point{X: x, Y: anchorY + (m.Ascent-m.Descent)/2}
}

// ToPDFUserSpace 左上原点坐标转换为 PDF 左下原点坐标
func ToPDFUserSpace(p Point, pageHeight float64) Point {
	return Point{X: p.X, Y: pageHeight - p.Y}
}

// Placement 某个字段实际绘制的位置，X/Y 为输出格式原生坐标系下的左侧基线
type Placement struct {
	Key   string  `json:"key"`
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
}
