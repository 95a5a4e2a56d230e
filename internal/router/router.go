package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/config"
	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/handler"
)

func Setup(
	cfg *config.Config,
	storageRoot string,
	templateHandler *handler.CertificateTemplateHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.MaxMultipartMemory = cfg.Storage.MaxUploadBytes()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 背景与生成的证书文件
	r.Static(cfg.Storage.RoutePath(), storageRoot)

	api := r.Group("/api")
	api.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedExtensions([]string{".png", ".jpg", ".jpeg", ".webp", ".pdf"})))
	{
		templateHandler.RegisterRoutes(api)
	}

	return r
}
