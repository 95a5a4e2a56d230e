package layouteditor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/muhammad-febriansyah/course-laravel-12-sub001/internal/model"
)

// Command 作用于草稿布局的一次修改
type Command interface {
	Apply(layout model.Layout) model.Layout
}

// AddCommand 追加默认字段
type AddCommand struct{}

func (AddCommand) Apply(layout model.Layout) model.Layout {
	return AddField(layout)
}

// RemoveCommand 删除字段
type RemoveCommand struct {
	Index int
}

func (c RemoveCommand) Apply(layout model.Layout) model.Layout {
	return RemoveField(layout, c.Index)
}

// SetCommand 修改字段属性
type SetCommand struct {
	Index     int
	Attribute string
	Value     string
}

func (c SetCommand) Apply(layout model.Layout) model.Layout {
	return SetField(layout, c.Index, c.Attribute, c.Value)
}

// Draft 内存中的布局草稿，提交前不落库
type Draft struct {
	layout model.Layout
}

// NewDraft 基于已有布局创建草稿
func NewDraft(layout model.Layout) *Draft {
	return &Draft{layout: clone(layout)}
}

// Apply 依次执行命令
func (d *Draft) Apply(cmds ...Command) *Draft {
	for _, cmd := range cmds {
		if cmd == nil {
			continue
		}
		d.layout = cmd.Apply(d.layout)
	}
	return d
}

// Len 当前字段数
func (d *Draft) Len() int {
	return len(d.layout)
}

// Commit 返回最终布局
func (d *Draft) Commit() model.Layout {
	return clone(d.layout)
}

type rawCommand struct {
	Op        string          `json:"op"`
	Index     int             `json:"index"`
	Attribute string          `json:"attribute"`
	Value     json.RawMessage `json:"value"`
}

// DecodeCommands 解析 [{"op":"add"},{"op":"set","index":0,"attribute":"x","value":"12"}] 形式的命令列表
func DecodeCommands(raw []byte) ([]Command, error) {
	var items []rawCommand
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("commands must be a JSON array: %w", err)
	}

	cmds := make([]Command, 0, len(items))
	for i, item := range items {
		switch strings.ToLower(item.Op) {
		case "add":
			cmds = append(cmds, AddCommand{})
		case "remove":
			cmds = append(cmds, RemoveCommand{Index: item.Index})
		case "set":
			var v any
			if len(item.Value) > 0 {
				if err := json.Unmarshal(item.Value, &v); err != nil {
					return nil, fmt.Errorf("command %d: invalid value: %w", i, err)
				}
			}
			cmds = append(cmds, SetCommand{Index: item.Index, Attribute: item.Attribute, Value: stringify(v)})
		default:
			return nil, fmt.Errorf("command %d: unknown op %q", i, item.Op)
		}
	}
	return cmds, nil
}
