package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/service"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/service/layouteditor"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/service/renderer"
	"k8s.io/klog/v2"
)

// CertificateTemplateHandler 证书模板 Handler
type CertificateTemplateHandler struct {
	service service.CertificateTemplateService
}

// NewCertificateTemplateHandler 创建 Handler
func NewCertificateTemplateHandler(svc service.CertificateTemplateService) *CertificateTemplateHandler {
	return &CertificateTemplateHandler{service: svc}
}

// RegisterRoutes 注册路由
func (h *CertificateTemplateHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/templates", h.ListTemplates)
	router.POST("/templates", h.CreateTemplate)
	router.GET("/templates/:id", h.GetTemplate)
	router.PUT("/templates/:id", h.UpdateTemplate)
	router.DELETE("/templates/:id", h.DeleteTemplate)
	router.PATCH("/templates/:id/active", h.ToggleActive)
	router.POST("/templates/:id/layout", h.EditLayout)
	router.POST("/templates/:id/preview", h.Preview)
	router.POST("/templates/:id/generate", h.Generate)
}

// ListTemplates 获取模板列表
func (h *CertificateTemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.service.List(c.Request.Context())
	if err != nil {
		klog.Errorf("ListTemplates: failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": templates})
}

// GetTemplate 获取模板详情
func (h *CertificateTemplateHandler) GetTemplate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	template, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, "GetTemplate", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": template})
}

// CreateTemplate 创建模板
func (h *CertificateTemplateHandler) CreateTemplate(c *gin.Context) {
	payload, upload, ok := bindTemplatePayload(c)
	if !ok {
		return
	}
	if upload != nil {
		defer upload.close()
	}

	req := service.CreateCertificateTemplateRequest{}
	if payload.Name != nil {
		req.Name = *payload.Name
	}
	if payload.Description != nil {
		req.Description = *payload.Description
	}
	if payload.IsActive != nil {
		req.IsActive = *payload.IsActive
	}
	if raw := payload.layoutRaw(); raw != nil {
		layout, err := layouteditor.DecodeLayout(raw)
		if err != nil {
			writeValidation(c, map[string]string{"layout": err.Error()})
			return
		}
		req.Layout = layout
	}
	if upload != nil {
		req.Background = upload.Upload
	}

	template, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, "CreateTemplate", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": template})
}

// UpdateTemplate 部分更新模板
func (h *CertificateTemplateHandler) UpdateTemplate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	payload, upload, ok := bindTemplatePayload(c)
	if !ok {
		return
	}
	if upload != nil {
		defer upload.close()
	}

	req := service.UpdateCertificateTemplateRequest{
		Name:        payload.Name,
		Description: payload.Description,
		IsActive:    payload.IsActive,
	}
	if raw := payload.layoutRaw(); raw != nil {
		layout, err := layouteditor.DecodeLayout(raw)
		if err != nil {
			writeValidation(c, map[string]string{"layout": err.Error()})
			return
		}
		req.Layout = &layout
	}
	if upload != nil {
		req.Background = upload.Upload
	}

	template, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, "UpdateTemplate", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": template})
}

// DeleteTemplate 删除模板
func (h *CertificateTemplateHandler) DeleteTemplate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, "DeleteTemplate", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// ToggleActive 切换启用状态
func (h *CertificateTemplateHandler) ToggleActive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	template, err := h.service.ToggleActive(c.Request.Context(), id)
	if err != nil {
		writeError(c, "ToggleActive", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": template})
}

// EditLayout 执行布局编辑命令
func (h *CertificateTemplateHandler) EditLayout(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmds, err := layouteditor.DecodeCommands(raw)
	if err != nil {
		klog.V(6).Infof("EditLayout: invalid commands: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.service.EditLayout(c.Request.Context(), id, cmds)
	if err != nil {
		writeError(c, "EditLayout", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": template})
}

// Preview 使用示例数据预览
func (h *CertificateTemplateHandler) Preview(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	artifact, err := h.service.Preview(c.Request.Context(), id)
	if err != nil {
		status, message := errorStatus(err)
		if status == http.StatusInternalServerError {
			klog.Errorf("Preview: failed: %v", err)
		}
		c.JSON(status, PreviewResponse{Success: false, Message: message})
		return
	}

	c.JSON(http.StatusOK, PreviewResponse{Success: true, URL: artifact.URL})
}

// Generate 生成正式证书
func (h *CertificateTemplateHandler) Generate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		klog.V(6).Infof("Generate: invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	artifact, err := h.service.Generate(c.Request.Context(), id, req.Data)
	if err != nil {
		writeError(c, "Generate", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": artifact})
}

// backgroundUpload 表单中的背景文件
type backgroundUpload struct {
	*service.Upload
	closer func() error
}

func (u *backgroundUpload) close() {
	if err := u.closer(); err != nil {
		klog.Warningf("关闭上传文件失败: %v", err)
	}
}

// bindTemplatePayload 按 Content-Type 绑定请求，失败时已写出响应
func bindTemplatePayload(c *gin.Context) (*templatePayload, *backgroundUpload, bool) {
	var payload templatePayload

	if !strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		if err := c.ShouldBindJSON(&payload); err != nil {
			writeBindError(c, err)
			return nil, nil, false
		}
		return &payload, nil, true
	}

	if err := c.ShouldBindWith(&payload, binding.FormMultipart); err != nil {
		writeBindError(c, err)
		return nil, nil, false
	}

	file, header, err := c.Request.FormFile("background")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return &payload, nil, true
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	upload := &backgroundUpload{
		Upload: &service.Upload{Filename: header.Filename, Size: header.Size, Reader: file},
		closer: file.Close,
	}
	return &payload, upload, true
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func writeBindError(c *gin.Context, err error) {
	if fields, ok := validationFields(err); ok {
		writeValidation(c, fields)
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func writeValidation(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "errors": fields})
}

func writeError(c *gin.Context, op string, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		writeValidation(c, verr.Fields)
		return
	}

	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		klog.Errorf("%s: failed: %v", op, err)
	}
	c.JSON(status, gin.H{"error": message})
}

// errorStatus 错误到 HTTP 状态码的映射
func errorStatus(err error) (int, string) {
	var rerr *renderer.RenderError
	switch {
	case errors.Is(err, service.ErrTemplateNotFound):
		return http.StatusNotFound, "certificate template not found"
	case errors.Is(err, service.ErrTemplateInactive):
		return http.StatusConflict, "certificate template is inactive"
	case errors.Is(err, renderer.ErrAssetMissing):
		return http.StatusUnprocessableEntity, "template background is missing"
	case errors.As(err, &rerr):
		return http.StatusInternalServerError, rerr.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
