package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// LocalStorage 本地磁盘存储
type LocalStorage struct {
	root      string
	publicURL string
}

// NewLocalStorage 创建本地存储，root 不存在时自动创建
func NewLocalStorage(root, publicURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStorage{root: root, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Root 存储根目录
func (s *LocalStorage) Root() string {
	return s.root
}

// Store 保存对象，先写临时文件再重命名
func (s *LocalStorage) Store(ctx context.Context, dir, ext string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	ref := path.Join(cleanDir(dir), uuid.NewString()+strings.ToLower(ext))
	full, err := s.resolve(ref)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("failed to create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("failed to commit object: %w", err)
	}

	klog.V(6).Infof("对象已保存: %s", ref)
	return ref, nil
}

// Open 打开对象
func (s *LocalStorage) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, err
	}
	return f, nil
}

// Delete 删除对象
func (s *LocalStorage) Delete(ctx context.Context, ref string) error {
	full, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	klog.V(6).Infof("对象已删除: %s", ref)
	return nil
}

// URL 对象的公开访问地址
func (s *LocalStorage) URL(ref string) string {
	return s.publicURL + "/" + strings.TrimLeft(ref, "/")
}

// Purge 清理过期对象
func (s *LocalStorage) Purge(ctx context.Context, dir string, olderThan time.Duration) (int, error) {
	base := filepath.Join(s.root, filepath.FromSlash(cleanDir(dir)))
	cutoff := time.Now().Add(-olderThan)
	removed := 0

	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(p); err == nil {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to purge %s: %w", dir, err)
	}
	return removed, nil
}

// resolve 引用转为磁盘路径，禁止越出根目录
func (s *LocalStorage) resolve(ref string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(ref))
	if clean == "/" {
		return "", ErrInvalidRef
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func cleanDir(dir string) string {
	return strings.Trim(path.Clean("/"+dir), "/")
}
