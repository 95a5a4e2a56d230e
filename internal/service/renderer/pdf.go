package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/model"
)

const pdfBox = "/MediaBox"

// renderPDF 以 PDF 第一页为背景生成新 PDF，单位为点。
// gofpdf 的用户坐标原点在左上，写入内容流时由它翻转 y；Placement 记录 PDF 原生的左下原点坐标。
func (r *Renderer) renderPDF(ctx context.Context, background []byte, layout model.Layout, data map[string]string) (out *output, err error) {
	defer func() {
		// gofpdi 解析损坏文件时会 panic
		if rec := recover(); rec != nil {
			out = nil
			err = renderErr("pdf", fmt.Errorf("%v", rec))
		}
	}()

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(background))
	tplID := importer.ImportPageFromStream(pdf, &rs, 1, pdfBox)

	box := importer.GetPageSizes()[1][pdfBox]
	width, height := box["w"], box["h"]
	if width <= 0 || height <= 0 {
		return nil, renderErr("pdf", errors.New("cannot determine background page size"))
	}

	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: width, Ht: height})
	importer.UseImportedTemplate(pdf, tplID, 0, 0, width, height)
	if err := pdf.Error(); err != nil {
		return nil, renderErr("pdf", err)
	}

	registered := make(map[string]bool)
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
		if !registered[f.Name] {
			// gofpdf 会就地改写传入的字体数据，每次渲染使用私有副本
			pdf.AddUTF8FontFromBytes(f.Name, "", bytes.Clone(f.Data))
			registered[f.Name] = true
		}

		size := fontSize(field)
		pdf.SetFont(f.Name, "", size)
		if err := pdf.Error(); err != nil {
			return nil, renderErr("font", err)
		}

		desc := pdf.GetFontDesc("", "")
		m := TextMetrics{
			Width:   pdf.GetStringWidth(text),
			Ascent:  float64(desc.Ascent) / 1000 * size,
			Descent: -float64(desc.Descent) / 1000 * size,
		}
		if m.Ascent <= 0 {
			m.Ascent, m.Descent = 0.8*size, 0.2*size
		}
		pt := Place(field, width, height, m)

		if text != "" {
			c := textColor(field)
			pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
			pdf.Text(pt.X, pt.Y, text)
		}

		native := ToPDFUserSpace(pt, height)
		placements = append(placements, Placement{Key: field.Key, Text: text, X: native.X, Y: native.Y, Width: m.Width})
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, renderErr("encode", err)
	}

	return &output{
		data:        buf.Bytes(),
		contentType: "application/pdf",
		ext:         ".pdf",
		width:       width,
		height:      height,
		placements:  placements,
	}, nil
}
