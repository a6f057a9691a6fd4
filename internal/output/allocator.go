package output

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// maxAttempts 限制同名文件的编号上限。
const maxAttempts = 10000

// Allocator 在目录中原子地创建不冲突的文件。
type Allocator struct {
	Dir string
}

// NewAllocator 创建分配器，目录不存在时自动创建。
func NewAllocator(dir string) (*Allocator, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("[output] 创建输出目录 %s 失败: %w", dir, err)
	}
	return &Allocator{Dir: dir}, nil
}

// Create 依次尝试 base.ext、base_1.ext、base_2.ext……
// 用 O_CREATE|O_EXCL 创建第一个不存在的文件，并发调用也不会得到同一路径。
// 调用方负责写入并关闭返回的文件。
func (a *Allocator) Create(base, ext string) (*os.File, error) {
	for i := 0; i < maxAttempts; i++ {
		name := base + "." + ext
		if i > 0 {
			name = fmt.Sprintf("%s_%d.%s", base, i, ext)
		}
		path := filepath.Join(a.Dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("[output] 创建 %s 失败: %w", path, err)
		}
	}
	return nil, fmt.Errorf("[output] %s.%s 的可用编号已耗尽", base, ext)
}

// WriteFile 分配路径并写入 data，返回最终路径。写入失败时删除半成品。
func (a *Allocator) WriteFile(base, ext string, data []byte) (string, error) {
	f, err := a.Create(base, ext)
	if err != nil {
		return "", err
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("[output] 写入 %s 失败: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("[output] 关闭 %s 失败: %w", path, err)
	}
	return path, nil
}
