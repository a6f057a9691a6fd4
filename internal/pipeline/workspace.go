package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iabetor/duotts/internal/audio"
)

// Workspace 是单个任务私有的临时目录，保存中间片段。
// 同一进程内的并发任务互不共享目录。
type Workspace struct {
	Dir string
}

// NewWorkspace 在 parent 下创建 job-<id>-* 目录，parent 为空时使用系统临时目录。
func NewWorkspace(parent, jobID string) (*Workspace, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return nil, fmt.Errorf("创建工作目录 %s 失败: %w", parent, err)
		}
	}
	dir, err := os.MkdirTemp(parent, "job-"+jobID+"-")
	if err != nil {
		return nil, fmt.Errorf("创建任务临时目录失败: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// Spill 把片段写入工作目录，返回文件路径。
func (w *Workspace) Spill(name string, c audio.Clip) (string, error) {
	path := filepath.Join(w.Dir, name+"."+c.Format.Ext())
	if err := os.WriteFile(path, c.Data, 0644); err != nil {
		return "", fmt.Errorf("写入临时片段 %s 失败: %w", path, err)
	}
	return path, nil
}

// Release 删除工作目录及其内容。
func (w *Workspace) Release() error {
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("删除任务临时目录 %s 失败: %w", w.Dir, err)
	}
	return nil
}
