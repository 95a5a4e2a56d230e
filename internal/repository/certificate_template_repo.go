package repository

import (
	"context"
	"errors"

	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/model"
	"gorm.io/gorm"
)

// CertificateTemplateRepository 证书模板 Repository 接口
type CertificateTemplateRepository interface {
	// List 按创建顺序列出全部模板
	List(ctx context.Context) ([]model.CertificateTemplate, error)
	GetByID(ctx context.Context, id uint) (*model.CertificateTemplate, error)
	Create(ctx context.Context, template *model.CertificateTemplate) error
	// Update 整体保存，布局整列替换
	Update(ctx context.Context, template *model.CertificateTemplate) error
	Delete(ctx context.Context, id uint) error
}

// certificateTemplateRepository 实现
type certificateTemplateRepository struct {
	db *gorm.DB
}

// NewCertificateTemplateRepository 创建 Repository 实例
func NewCertificateTemplateRepository(db *gorm.DB) CertificateTemplateRepository {
	return &certificateTemplateRepository{db: db}
}

// List 获取所有模板
func (r *certificateTemplateRepository) List(ctx context.Context) ([]model.CertificateTemplate, error) {
	var templates []model.CertificateTemplate
	result := r.db.WithContext(ctx).Order("id ASC").Find(&templates)
	return templates, result.Error
}

// GetByID 根据ID获取模板
func (r *certificateTemplateRepository) GetByID(ctx context.Context, id uint) (*model.CertificateTemplate, error) {
	var template model.CertificateTemplate
	result := r.db.WithContext(ctx).First(&template, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &template, nil
}

// Create 创建模板
func (r *certificateTemplateRepository) Create(ctx context.Context, template *model.CertificateTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

// Update 更新模板
func (r *certificateTemplateRepository) Update(ctx context.Context, template *model.CertificateTemplate) error {
	return r.db.WithContext(ctx).Save(template).Error
}

// Delete 删除模板
func (r *certificateTemplateRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.CertificateTemplate{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
