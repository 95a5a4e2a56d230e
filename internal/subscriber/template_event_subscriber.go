package subscriber

import (
	"context"
	"fmt"

	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/eventbus"
	"k8s.io/klog/v2"
)

// assetRemover 删除存储对象
type assetRemover interface {
	Delete(ctx context.Context, ref string) error
}

// TemplateEventSubscriber 清理被替换或随模板删除的背景文件
type TemplateEventSubscriber struct {
	assets assetRemover
}

func NewTemplateEventSubscriber(assets assetRemover) *TemplateEventSubscriber {
	return &TemplateEventSubscriber{assets: assets}
}

func (s *TemplateEventSubscriber) Register(bus *eventbus.TemplateEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.TemplateEventUpdated, s.handleTemplateUpdated)
	bus.Subscribe(eventbus.TemplateEventDeleted, s.handleTemplateDeleted)
}

func (s *TemplateEventSubscriber) handleTemplateUpdated(ctx context.Context, event eventbus.TemplateEvent) error {
	if event.PreviousBackground == "" || event.PreviousBackground == event.Background {
		return nil
	}
	if err := s.assets.Delete(ctx, event.PreviousBackground); err != nil {
		return fmt.Errorf("删除旧背景失败: %w", err)
	}
	klog.V(6).Infof("模板背景已替换，旧文件已清理: templateID=%d, ref=%s", event.TemplateID, event.PreviousBackground)
	return nil
}

func (s *TemplateEventSubscriber) handleTemplateDeleted(ctx context.Context, event eventbus.TemplateEvent) error {
	if event.Background == "" {
		return nil
	}
	if err := s.assets.Delete(ctx, event.Background); err != nil {
		return fmt.Errorf("删除模板背景失败: %w", err)
	}
	klog.V(6).Infof("模板已删除，背景文件已清理: templateID=%d, ref=%s", event.TemplateID, event.Background)
	return nil
}
