package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"k8s.io/klog/v2"

	"github.com/muhammad-febriansyah/course-laravel-12-sub001/config"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/eventbus"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/handler"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/pkg/database"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/pkg/fonts"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/pkg/storage"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/repository"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/router"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/service"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/service/renderer"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/subscriber"
)

func main() {
	// 初始化 klog
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("服务启动中...")

	cfg := config.GetConfig()

	if err := os.MkdirAll(cfg.Storage.Dir, 0755); err != nil {
		log.Fatalf("Failed to create storage directory: %v", err)
	}

	if cfg.Database.Type == "" || cfg.Database.Type == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	store, err := storage.NewLocalStorage(cfg.Storage.Dir, cfg.Storage.PublicURL)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// 初始化数据库
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化 Repository
	templateRepo := repository.NewCertificateTemplateRepository(db)

	// 事件总线：背景文件清理
	bus := eventbus.NewTemplateEventBus()
	if cfg.Storage.CleanupOrphans {
		subscriber.NewTemplateEventSubscriber(store).Register(bus)
	}

	// 初始化 Service
	certRenderer := renderer.New(store, fonts.NewRegistry(cfg.Certificate.Fonts), renderer.Options{
		ImageFormat: cfg.Certificate.ImageFormat,
	})
	templateService := service.NewCertificateTemplateService(templateRepo, store, certRenderer, bus, service.CertificateTemplateOptions{
		MaxUploadBytes: cfg.Storage.MaxUploadBytes(),
		Locale:         cfg.Certificate.Locale,
	})

	// 初始化 Handler
	templateHandler := handler.NewCertificateTemplateHandler(templateService)

	// 启动时清理过期的预览文件
	purgePreviews(store, cfg.Storage.PreviewTTL)

	// 设置路由
	r := router.Setup(cfg, store.Root(), templateHandler)

	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// purgePreviews 清理启动前遗留的预览文件
func purgePreviews(store storage.Storage, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	removed, err := store.Purge(context.Background(), renderer.PreviewDir, ttl)
	if err != nil {
		klog.V(6).Infof("清理预览文件失败: %v", err)
		return
	}

	if removed > 0 {
		klog.V(6).Infof("启动时清理了 %d 个过期预览文件", removed)
	}
}
