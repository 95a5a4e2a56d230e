package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"k8s.io/klog/v2"
)

// BackgroundDir 模板背景文件目录
const BackgroundDir = "certificate-templates/backgrounds"

const defaultMaxUploadBytes int64 = 10 << 20

// allowedBackgroundTypes 允许的背景类型 -> 扩展名
var allowedBackgroundTypes = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// Upload 上传的背景文件
type Upload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// storeBackground 按内容识别类型后保存，返回存储引用
func (s *certificateTemplateService) storeBackground(ctx context.Context, upload *Upload) (string, error) {
	if upload.Reader == nil {
		return "", newValidationError("background", "background file is required")
	}

	limit := s.opts.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	if upload.Size > limit {
		return "", newValidationError("background", fmt.Sprintf("background must not exceed %d MB", limit>>20))
	}

	data, err := io.ReadAll(io.LimitReader(upload.Reader, limit+1))
	if err != nil {
		return "", fmt.Errorf("failed to read background upload: %w", err)
	}
	if int64(len(data)) > limit {
		return "", newValidationError("background", fmt.Sprintf("background must not exceed %d MB", limit>>20))
	}
	if len(data) == 0 {
		return "", newValidationError("background", "background file is empty")
	}

	mtype := mimetype.Detect(data)
	ext, ok := allowedBackgroundTypes[baseMIME(mtype)]
	if !ok {
		klog.V(6).Infof("拒绝背景上传: filename=%s, type=%s", upload.Filename, mtype.String())
		return "", newValidationError("background", "background must be a PNG, JPEG, WebP or PDF file")
	}

	ref, err := s.storage.Store(ctx, BackgroundDir, ext, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to store background: %w", err)
	}
	klog.V(6).Infof("背景文件已保存: filename=%s, ref=%s, size=%d", upload.Filename, ref, len(data))
	return ref, nil
}

// baseMIME 归一到允许列表中的类型（含别名）
func baseMIME(m *mimetype.MIME) string {
	for t := range allowedBackgroundTypes {
		if m.Is(t) {
			return t
		}
	}
	return m.String()
}
