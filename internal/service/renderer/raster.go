package renderer

import (
	"bytes"
	"context"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/model"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

// renderRaster 在图片背景上绘制文本，坐标单位为像素，原点左上
func (r *Renderer) renderRaster(ctx context.Context, background []byte, layout model.Layout, data map[string]string) (*output, error) {
	img, err := imaging.Decode(bytes.NewReader(background), imaging.AutoOrientation(true))
	if err != nil {
		return nil, renderErr("decode", err)
	}

	canvas := imaging.Clone(img)
	width := float64(canvas.Bounds().Dx())
	height := float64(canvas.Bounds().Dy())
	placements := make([]Placement, 0, len(layout))

	for _, field := range layout {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := lookupText(data, field.Key)
		f, err := r.fonts.Lookup(field.FontFamily)
		if err != nil {
			return nil, renderErr("font", err)
		}
		face, err := f.Face(fontSize(field))
		if err != nil {
			return nil, renderErr("font", err)
		}

		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(textColor(field)),
			Face: face,
		}
		metrics := face.Metrics()
		m := TextMetrics{
			Width:   fromFixed(d.MeasureString(text)),
			Ascent:  fromFixed(metrics.Ascent),
			Descent: fromFixed(metrics.Descent),
		}
		pt := Place(field, width, height, m)

		if text != "" {
			d.Dot = fixed.Point26_6{X: toFixed(pt.X), Y: toFixed(pt.Y)}
			d.DrawString(text)
		}
		face.Close()

		placements = append(placements, Placement{Key: field.Key, Text: text, X: pt.X, Y: pt.Y, Width: m.Width})
	}

	var buf bytes.Buffer
	var opts []imaging.EncodeOption
	if r.imageFormat == imaging.JPEG {
		opts = append(opts, imaging.JPEGQuality(95))
	}
	if err := imaging.Encode(&buf, canvas, r.imageFormat, opts...); err != nil {
		return nil, renderErr("encode", err)
	}

	out := &output{
		data:        buf.Bytes(),
		contentType: "image/png",
		ext:         ".png",
		width:       width,
		height:      height,
		placements:  placements,
	}
	if r.imageFormat == imaging.JPEG {
		out.contentType = "image/jpeg"
		out.ext = ".jpg"
	}
	return out, nil
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
