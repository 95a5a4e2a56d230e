package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound 对象不存在
	ErrNotFound = errors.New("storage object not found")
	// ErrInvalidRef 非法引用（空或越界路径）
	ErrInvalidRef = errors.New("invalid storage reference")
)

// Storage 资源存储接口，引用（ref）为以 / 分隔的相对路径
type Storage interface {
	// Store 在 dir 下以随机文件名保存内容，返回引用
	Store(ctx context.Context, dir, ext string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	// Delete 删除对象，对象不存在不视为错误
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
	// Purge 删除 dir 下修改时间早于 olderThan 的对象，返回删除数量
	Purge(ctx context.Context, dir string, olderThan time.Duration) (int, error)
}
