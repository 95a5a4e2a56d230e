package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/eventbus"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/model"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/pkg/storage"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/repository"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/service/layouteditor"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/service/renderer"
	"k8s.io/klog/v2"
)

const maxTemplateNameLength = 255

// CertificateTemplateDTO 证书模板数据传输对象
type CertificateTemplateDTO struct {
	ID              uint         `json:"id"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	BackgroundAsset *string      `json:"background_asset"`
	BackgroundURL   string       `json:"background_url,omitempty"`
	Layout          model.Layout `json:"layout"`
	IsActive        bool         `json:"is_active"`
	CreatedAt       string       `json:"created_at"`
	UpdatedAt       string       `json:"updated_at"`
}

// CreateCertificateTemplateRequest 创建模板请求
type CreateCertificateTemplateRequest struct {
	Name        string
	Description string
	Layout      model.Layout
	IsActive    bool
	Background  *Upload
}

// UpdateCertificateTemplateRequest 部分更新请求，nil 表示保持原值
type UpdateCertificateTemplateRequest struct {
	Name        *string
	Description *string
	Layout      *model.Layout
	IsActive    *bool
	Background  *Upload
}

// CertificateTemplateService 证书模板服务接口
type CertificateTemplateService interface {
	List(ctx context.Context) ([]*CertificateTemplateDTO, error)
	Get(ctx context.Context, id uint) (*CertificateTemplateDTO, error)
	Create(ctx context.Context, req CreateCertificateTemplateRequest) (*CertificateTemplateDTO, error)
	Update(ctx context.Context, id uint, req UpdateCertificateTemplateRequest) (*CertificateTemplateDTO, error)
	Delete(ctx context.Context, id uint) error
	ToggleActive(ctx context.Context, id uint) (*CertificateTemplateDTO, error)
	EditLayout(ctx context.Context, id uint, cmds []layouteditor.Command) (*CertificateTemplateDTO, error)
	Preview(ctx context.Context, id uint) (*renderer.Artifact, error)
	Generate(ctx context.Context, id uint, data map[string]string) (*renderer.Artifact, error)
}

// certificateRenderer 渲染器依赖
type certificateRenderer interface {
	RenderTo(ctx context.Context, dir string, tpl *model.CertificateTemplate, data map[string]string) (*renderer.Artifact, error)
}

// CertificateTemplateOptions 服务选项
type CertificateTemplateOptions struct {
	MaxUploadBytes int64
	Locale         string
}

type certificateTemplateService struct {
	repo     repository.CertificateTemplateRepository
	storage  storage.Storage
	renderer certificateRenderer
	bus      *eventbus.TemplateEventBus
	opts     CertificateTemplateOptions
	now      func() time.Time
}

// NewCertificateTemplateService 创建服务实例；bus 可以为 nil
func NewCertificateTemplateService(
	repo repository.CertificateTemplateRepository,
	store storage.Storage,
	r certificateRenderer,
	bus *eventbus.TemplateEventBus,
	opts CertificateTemplateOptions,
) CertificateTemplateService {
	return &certificateTemplateService{
		repo:     repo,
		storage:  store,
		renderer: r,
		bus:      bus,
		opts:     opts,
		now:      time.Now,
	}
}

// List 获取模板列表
func (s *certificateTemplateService) List(ctx context.Context) ([]*CertificateTemplateDTO, error) {
	templates, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificate templates: %w", err)
	}

	result := make([]*CertificateTemplateDTO, len(templates))
	for i := range templates {
		result[i] = s.toDTO(&templates[i])
	}
	return result, nil
}

// Get 获取模板详情
func (s *certificateTemplateService) Get(ctx context.Context, id uint) (*CertificateTemplateDTO, error) {
	tpl, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(tpl), nil
}

// Create 创建模板，上传的背景会先保存再写库
func (s *certificateTemplateService) Create(ctx context.Context, req CreateCertificateTemplateRequest) (*CertificateTemplateDTO, error) {
	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}

	tpl := &model.CertificateTemplate{
		Name:        name,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	tpl.SetFields(normalizeLayout(req.Layout))

	if req.Background != nil {
		ref, err := s.storeBackground(ctx, req.Background)
		if err != nil {
			return nil, err
		}
		tpl.BackgroundAsset = &ref
	}

	if err := s.repo.Create(ctx, tpl); err != nil {
		s.discardBackground(ctx, tpl.Background())
		return nil, fmt.Errorf("failed to create certificate template: %w", err)
	}
	klog.V(6).Infof("证书模板已创建: id=%d, name=%s", tpl.ID, tpl.Name)

	s.publish(ctx, eventbus.TemplateEvent{
		Type:       eventbus.TemplateEventCreated,
		TemplateID: tpl.ID,
		Background: tpl.Background(),
	})
	return s.toDTO(tpl), nil
}

// Update 部分更新模板；未提供背景文件时保留原背景
func (s *certificateTemplateService) Update(ctx context.Context, id uint, req UpdateCertificateTemplateRequest) (*CertificateTemplateDTO, error) {
	tpl, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name, err := validateName(*req.Name)
		if err != nil {
			return nil, err
		}
		tpl.Name = name
	}
	if req.Description != nil {
		tpl.Description = *req.Description
	}
	if req.Layout != nil {
		tpl.SetFields(normalizeLayout(*req.Layout))
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}

	previous := tpl.Background()
	stored := ""
	if req.Background != nil {
		ref, err := s.storeBackground(ctx, req.Background)
		if err != nil {
			return nil, err
		}
		tpl.BackgroundAsset = &ref
		stored = ref
	}

	if err := s.repo.Update(ctx, tpl); err != nil {
		s.discardBackground(ctx, stored)
		return nil, fmt.Errorf("failed to update certificate template: %w", err)
	}

	event := eventbus.TemplateEvent{
		Type:       eventbus.TemplateEventUpdated,
		TemplateID: tpl.ID,
		Background: tpl.Background(),
	}
	if previous != tpl.Background() {
		event.PreviousBackground = previous
	}
	s.publish(ctx, event)
	return s.toDTO(tpl), nil
}

// Delete 删除模板
func (s *certificateTemplateService) Delete(ctx context.Context, id uint) error {
	tpl, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("failed to delete certificate template: %w", err)
	}
	klog.V(6).Infof("证书模板已删除: id=%d", id)

	s.publish(ctx, eventbus.TemplateEvent{
		Type:       eventbus.TemplateEventDeleted,
		TemplateID: id,
		Background: tpl.Background(),
	})
	return nil
}

// ToggleActive 切换启用状态
func (s *certificateTemplateService) ToggleActive(ctx context.Context, id uint) (*CertificateTemplateDTO, error) {
	tpl, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	tpl.IsActive = !tpl.IsActive
	if err := s.repo.Update(ctx, tpl); err != nil {
		return nil, fmt.Errorf("failed to toggle certificate template: %w", err)
	}

	s.publish(ctx, eventbus.TemplateEvent{
		Type:       eventbus.TemplateEventUpdated,
		TemplateID: tpl.ID,
		Background: tpl.Background(),
	})
	return s.toDTO(tpl), nil
}

// EditLayout 在草稿上依次执行编辑命令后整体保存
func (s *certificateTemplateService) EditLayout(ctx context.Context, id uint, cmds []layouteditor.Command) (*CertificateTemplateDTO, error) {
	tpl, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	draft := layouteditor.NewDraft(tpl.Fields()).Apply(cmds...)
	tpl.SetFields(draft.Commit())
	if err := s.repo.Update(ctx, tpl); err != nil {
		return nil, fmt.Errorf("failed to save certificate layout: %w", err)
	}
	klog.V(6).Infof("证书模板布局已更新: id=%d, commands=%d, fields=%d", id, len(cmds), draft.Len())

	s.publish(ctx, eventbus.TemplateEvent{
		Type:       eventbus.TemplateEventUpdated,
		TemplateID: tpl.ID,
		Background: tpl.Background(),
	})
	return s.toDTO(tpl), nil
}

// Preview 使用示例数据渲染，未启用的模板也可预览
func (s *certificateTemplateService) Preview(ctx context.Context, id uint) (*renderer.Artifact, error) {
	tpl, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	artifact, err := s.renderer.RenderTo(ctx, renderer.PreviewDir, tpl, SampleData(s.now(), s.opts.Locale))
	if err != nil {
		klog.Warningf("证书模板预览失败: id=%d, err=%v", id, err)
		return nil, err
	}
	return artifact, nil
}

// Generate 使用调用方数据生成正式证书
func (s *certificateTemplateService) Generate(ctx context.Context, id uint, data map[string]string) (*renderer.Artifact, error) {
	tpl, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tpl.IsActive {
		return nil, ErrTemplateInactive
	}

	artifact, err := s.renderer.RenderTo(ctx, renderer.IssuedDir, tpl, data)
	if err != nil {
		klog.Errorf("证书生成失败: id=%d, err=%v", id, err)
		return nil, err
	}
	klog.V(6).Infof("证书已生成: templateID=%d, ref=%s", id, artifact.Ref)
	return artifact, nil
}

func (s *certificateTemplateService) find(ctx context.Context, id uint) (*model.CertificateTemplate, error) {
	tpl, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get certificate template: %w", err)
	}
	return tpl, nil
}

// discardBackground 写库失败时删除本次刚保存的背景
func (s *certificateTemplateService) discardBackground(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.storage.Delete(ctx, ref); err != nil {
		klog.Warningf("清理未落库的背景失败: ref=%s, err=%v", ref, err)
	}
}

// publish 事件处理失败不影响主流程
func (s *certificateTemplateService) publish(ctx context.Context, event eventbus.TemplateEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event.Type, event); err != nil {
		klog.Warningf("模板事件处理失败: type=%s, templateID=%d, err=%v", event.Type, event.TemplateID, err)
	}
}

func (s *certificateTemplateService) toDTO(t *model.CertificateTemplate) *CertificateTemplateDTO {
	dto := &CertificateTemplateDTO{
		ID:              t.ID,
		Name:            t.Name,
		Description:     t.Description,
		BackgroundAsset: t.BackgroundAsset,
		Layout:          t.Fields(),
		IsActive:        t.IsActive,
		CreatedAt:       t.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:       t.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
	if t.HasBackground() && s.storage != nil {
		dto.BackgroundURL = s.storage.URL(t.Background())
	}
	return dto
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", newValidationError("name", "name is required")
	}
	if len([]rune(name)) > maxTemplateNameLength {
		return "", newValidationError("name", fmt.Sprintf("name must be at most %d characters", maxTemplateNameLength))
	}
	return name, nil
}

func normalizeLayout(layout model.Layout) model.Layout {
	out := make(model.Layout, len(layout))
	copy(out, layout)
	for i := range out {
		out[i].Normalize()
	}
	return out
}
