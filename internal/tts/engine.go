// Package tts 定义语音合成引擎接口、各引擎实现以及按片段调度合成的 Dispatcher。
package tts

import (
	"context"
	"errors"
	"fmt"

	"github.com/iabetor/duotts/internal/audio"
	"github.com/iabetor/duotts/internal/logger"
)

// Request 是一次合成调用的参数，与一个文本片段一一对应。
type Request struct {
	Text     string
	Language string
	Region   string
	Slow     bool
}

// Key 返回 "语言|地区"，各引擎用它查自己的音色表。
func (r Request) Key() string {
	return r.Language + "|" + r.Region
}

// Engine 定义语音合成后端接口。实现必须可被并发调用。
type Engine interface {
	// Name 返回引擎名称，用于日志和错误信息。
	Name() string
	// Synthesize 将文本合成为一个编码后的音频片段。
	Synthesize(ctx context.Context, req Request) (audio.Clip, error)
}

// EngineError 表示某个片段的合成失败，包括引擎返回错误、不可达和超时。
type EngineError struct {
	Index   int
	Engine  string
	Timeout bool
	Err     error
}

func (e *EngineError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("[tts] %s 合成片段 %d 超时: %v", e.Engine, e.Index, e.Err)
	}
	return fmt.Sprintf("[tts] %s 合成片段 %d 失败: %v", e.Engine, e.Index, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// clipFrom 包装引擎返回的编码数据。时长探测失败不算合成失败，
// 数据是否可解码留给拼接阶段判断。
func clipFrom(data []byte, format audio.Format) audio.Clip {
	c, err := audio.NewClip(data, format)
	if err != nil {
		logger.Debugf("[tts] 无法探测片段时长: %v", err)
		return audio.Clip{Data: data, Format: format}
	}
	return c
}

// languagePrefix 返回语言代码的主标签，如 "zh-CN" -> "zh"。
func languagePrefix(lang string) string {
	for i := 0; i < len(lang); i++ {
		if lang[i] == '-' || lang[i] == '_' {
			return lang[:i]
		}
	}
	return lang
}

// lookupVoice 先按 "语言|地区" 精确匹配，再按语言、语言主标签回退。
func lookupVoice[T any](table map[string]T, req Request) (T, bool) {
	for _, k := range []string{req.Key(), req.Language, languagePrefix(req.Language)} {
		if v, ok := table[k]; ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

var errEmptyText = errors.New("文本为空")
