package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Storage     StorageConfig     `yaml:"storage"`
	Certificate CertificateConfig `yaml:"certificate"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql, postgres
	DSN  string `yaml:"dsn"`
}

type StorageConfig struct {
	Dir            string        `yaml:"dir"`
	Route          string        `yaml:"route"`      // 静态文件路由路径
	PublicURL      string        `yaml:"public_url"` // 对外访问前缀，可以是完整 URL
	MaxUploadMB    int64         `yaml:"max_upload_mb"`
	CleanupOrphans bool          `yaml:"cleanup_orphans"`
	PreviewTTL     time.Duration `yaml:"preview_ttl"`
}

type CertificateConfig struct {
	Locale      string            `yaml:"locale"`       // en_US, id_ID
	ImageFormat string            `yaml:"image_format"` // png, jpeg
	Fonts       map[string]string `yaml:"fonts"`        // fontFamily -> ttf/otf 路径
}

// RoutePath 静态文件路由，保证以 / 开头
func (s StorageConfig) RoutePath() string {
	route := strings.TrimRight(s.Route, "/")
	if route == "" {
		return "/files"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return route
}

// MaxUploadBytes 上传大小上限（字节）
func (s StorageConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return s.MaxUploadMB << 20
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/app.db",
		},
		Storage: StorageConfig{
			Dir:            "./data/storage",
			Route:          "/files",
			PublicURL:      "/files",
			MaxUploadMB:    10,
			CleanupOrphans: true,
			PreviewTTL:     24 * time.Hour,
		},
		Certificate: CertificateConfig{
			Locale:      "en_US",
			ImageFormat: "png",
			Fonts:       map[string]string{},
		},
	}
}

func loadConfig() *Config {
	if err := godotenv.Load(); err == nil {
		klog.V(6).Info("已加载 .env 文件")
	}

	config := defaultConfig()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			klog.Warningf("解析配置文件失败: %s, %v", configPath, err)
		}
	}

	applyEnv(config)
	return config
}

// applyEnv 环境变量优先级高于配置文件
func applyEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		config.Server.Mode = mode
	}

	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	if dir := os.Getenv("STORAGE_DIR"); dir != "" {
		config.Storage.Dir = dir
	}
	if route := os.Getenv("STORAGE_ROUTE"); route != "" {
		config.Storage.Route = route
	}
	if publicURL := os.Getenv("STORAGE_PUBLIC_URL"); publicURL != "" {
		config.Storage.PublicURL = publicURL
	}
	if v := os.Getenv("STORAGE_CLEANUP_ORPHANS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Storage.CleanupOrphans = b
		}
	}
	if v := os.Getenv("STORAGE_PREVIEW_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Storage.PreviewTTL = d
		}
	}

	if locale := os.Getenv("CERTIFICATE_LOCALE"); locale != "" {
		config.Certificate.Locale = locale
	}
	if format := os.Getenv("CERTIFICATE_IMAGE_FORMAT"); format != "" {
		config.Certificate.ImageFormat = format
	}
	if fontDir := os.Getenv("CERTIFICATE_FONT_DIR"); fontDir != "" {
		for family, path := range config.Certificate.Fonts {
			if !filepath.IsAbs(path) {
				config.Certificate.Fonts[family] = filepath.Join(fontDir, path)
			}
		}
	}
	if config.Certificate.Fonts == nil {
		config.Certificate.Fonts = map[string]string{}
	}
}
