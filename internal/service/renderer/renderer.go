package renderer

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/model"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/pkg/fonts"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/pkg/storage"
	"k8s.io/klog/v2"
)

const (
	// PreviewDir 预览产物目录，可定期清理
	PreviewDir = "certificates/previews"
	// IssuedDir 正式颁发产物目录
	IssuedDir = "certificates/issued"
)

// Options 渲染选项
type Options struct {
	ImageFormat string // png, jpeg
}

// Renderer 将数据填入模板布局，生成新的证书文件；背景文件从不被修改
type Renderer struct {
	storage     storage.Storage
	fonts       *fonts.Registry
	imageFormat imaging.Format
}

// Artifact 生成的证书文件
type Artifact struct {
	Ref         string      `json:"ref"`
	URL         string      `json:"url"`
	ContentType string      `json:"content_type"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	Placements  []Placement `json:"placements"`
}

// output 后端渲染结果
type output struct {
	data        []byte
	contentType string
	ext         string
	width       float64
	height      float64
	placements  []Placement
}

// New 创建渲染器
func New(store storage.Storage, registry *fonts.Registry, opts Options) *Renderer {
	format := imaging.PNG
	if f, err := imaging.FormatFromExtension(opts.ImageFormat); err == nil && f == imaging.JPEG {
		format = imaging.JPEG
	}
	return &Renderer{
		storage:     store,
		fonts:       registry,
		imageFormat: format,
	}
}

// Render 渲染正式证书
func (r *Renderer) Render(ctx context.Context, tpl *model.CertificateTemplate, data map[string]string) (*Artifact, error) {
	return r.RenderTo(ctx, IssuedDir, tpl, data)
}

// RenderTo 渲染并保存到 dir；data 缺少的 key 以空串处理
func (r *Renderer) RenderTo(ctx context.Context, dir string, tpl *model.CertificateTemplate, data map[string]string) (*Artifact, error) {
	if tpl == nil || !tpl.HasBackground() {
		return nil, ErrAssetMissing
	}

	background, err := r.loadBackground(ctx, tpl.Background())
	if err != nil {
		return nil, err
	}

	mt := mimetype.Detect(background)
	var out *output
	switch {
	case mt.Is("application/pdf"):
		out, err = r.renderPDF(ctx, background, tpl.Fields(), data)
	case mt.Is("image/png"), mt.Is("image/jpeg"), mt.Is("image/webp"):
		out, err = r.renderRaster(ctx, background, tpl.Fields(), data)
	default:
		err = renderErr("detect", fmt.Errorf("unsupported background type %s", mt.String()))
	}
	if err != nil {
		klog.Errorf("证书渲染失败: template=%d, err=%v", tpl.ID, err)
		return nil, err
	}

	ref, err := r.storage.Store(ctx, dir, out.ext, bytes.NewReader(out.data))
	if err != nil {
		return nil, renderErr("store", err)
	}

	klog.V(6).Infof("证书渲染完成: template=%d, fields=%d, ref=%s", tpl.ID, len(out.placements), ref)
	return &Artifact{
		Ref:         ref,
		URL:         r.storage.URL(ref),
		ContentType: out.contentType,
		Width:       out.width,
		Height:      out.height,
		Placements:  out.placements,
	}, nil
}

// loadBackground 读取背景全部内容，读完即关闭
func (r *Renderer) loadBackground(ctx context.Context, ref string) ([]byte, error) {
	rc, err := r.storage.Open(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAssetMissing, ref, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAssetMissing, ref, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrAssetMissing, ref)
	}
	return data, nil
}

// textColor 解析字段颜色，无法解析时回退默认色
func textColor(f model.LayoutField) color.RGBA {
	if c, ok := parseHexColor(f.Color); ok {
		return c
	}
	klog.Warningf("字段 %s 颜色无效: %q，使用默认颜色", f.Key, f.Color)
	c, _ := parseHexColor(model.DefaultColor)
	return c
}

// fontSize 非正字号回退默认值
func fontSize(f model.LayoutField) float64 {
	if f.FontSize <= 0 {
		return model.DefaultFontSize
	}
	return float64(f.FontSize)
}

// lookupText 缺失的 key 返回空串
func lookupText(data map[string]string, key string) string {
	return data[key]
}
