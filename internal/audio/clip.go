// Package audio 负责合成音频片段的解码、拼接、变速、编码与播放。
package audio

import (
	"bytes"
	"fmt"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// Format 是片段的封装格式。
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

// Ext 返回不带点的文件扩展名。
func (f Format) Ext() string { return string(f) }

// Clip 是一段已编码的音频。Duration 为近似时长。
type Clip struct {
	Data     []byte
	Format   Format
	Duration time.Duration
}

// NewClip 创建片段并探测其时长。
func NewClip(data []byte, format Format) (Clip, error) {
	d, err := ProbeDuration(data, format)
	if err != nil {
		return Clip{}, err
	}
	return Clip{Data: data, Format: format, Duration: d}, nil
}

// ProbeDuration 不完整解码地估算编码数据的时长。
func ProbeDuration(data []byte, format Format) (time.Duration, error) {
	switch format {
	case FormatMP3:
		dec, err := mp3.NewDecoder(bytes.NewReader(data))
		if err != nil {
			return 0, &DecodeError{Format: format, Err: err}
		}
		// go-mp3 输出固定为 16-bit 立体声，每帧 4 字节
		length := dec.Length()
		if length < 0 {
			return 0, &DecodeError{Format: format, Err: fmt.Errorf("无法获取长度")}
		}
		return samplesDuration(int(length/4), dec.SampleRate()), nil
	case FormatWAV:
		h, err := parseWAVHeader(data)
		if err != nil {
			return 0, &DecodeError{Format: format, Err: err}
		}
		return samplesDuration(h.frames(), h.sampleRate), nil
	}
	return 0, &DecodeError{Format: format, Err: fmt.Errorf("不支持的格式")}
}

// DecodeError 表示片段无法解码。
type DecodeError struct {
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("[audio] %s 解码失败: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
