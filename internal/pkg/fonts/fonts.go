package fonts

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"k8s.io/klog/v2"
)

// FallbackName 内置 Go Regular 字体的注册名
const FallbackName = "goregular"

// Font 已解析的字体
type Font struct {
	Name     string // 注册名，小写
	Data     []byte
	Parsed   *opentype.Font
	Fallback bool
}

// Face 以 72 DPI 创建指定字号的字体，1pt 对应 1px
func (f *Font) Face(size float64) (font.Face, error) {
	face, err := opentype.NewFace(f.Parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face %s at %.1fpt: %w", f.Name, size, err)
	}
	return face, nil
}

// Registry 按 fontFamily 查找字体文件，未配置的字体族回退到内置字体
type Registry struct {
	mu    sync.RWMutex
	paths map[string]string
	cache map[string]*Font
}

// NewRegistry 创建注册表，paths 为 fontFamily -> 文件路径
func NewRegistry(paths map[string]string) *Registry {
	normalized := make(map[string]string, len(paths))
	for family, p := range paths {
		normalized[normalize(family)] = p
	}
	return &Registry{
		paths: normalized,
		cache: make(map[string]*Font),
	}
}

// Lookup 获取字体族对应的字体；已配置但无法读取或解析时返回错误
func (r *Registry) Lookup(family string) (*Font, error) {
	key := normalize(family)
	p, configured := r.paths[key]
	if !configured {
		key = FallbackName
	}

	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	var (
		f   *Font
		err error
	)
	if configured {
		f, err = load(key, p)
	} else {
		klog.V(6).Infof("字体族 %q 未配置，使用内置字体", family)
		f, err = parse(FallbackName, goregular.TTF, true)
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if existing, ok := r.cache[key]; ok {
		f = existing
	} else {
		r.cache[key] = f
	}
	r.mu.Unlock()
	return f, nil
}

func load(name, p string) (*Font, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", p, err)
	}
	return parse(name, data, false)
}

func parse(name string, data []byte, fallback bool) (*Font, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", name, err)
	}
	return &Font{Name: name, Data: data, Parsed: parsed, Fallback: fallback}, nil
}

func normalize(family string) string {
	return strings.ToLower(strings.TrimSpace(family))
}
