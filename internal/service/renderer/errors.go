package renderer

import (
	"errors"
	"fmt"
)

// ErrAssetMissing 模板没有背景或背景无法读取
var ErrAssetMissing = errors.New("certificate background asset missing")

// RenderError 绘制或编码失败
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func renderErr(op string, err error) error {
	return &RenderError{Op: op, Err: err}
}
