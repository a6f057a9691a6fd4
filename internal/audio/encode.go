package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/iabetor/duotts/internal/logger"
)

// Encoder 把 PCM 编码为片段。
type Encoder interface {
	Format() Format
	Encode(ctx context.Context, p PCM) (Clip, error)
}

// NewEncoder 根据格式名称创建编码器。mp3 依赖 PATH 中的 ffmpeg。
func NewEncoder(format string) (Encoder, error) {
	switch Format(format) {
	case FormatWAV:
		return WAVEncoder{}, nil
	case FormatMP3, "":
		path, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("[audio] 未找到 ffmpeg，无法输出 mp3: %w", err)
		}
		return &FFmpegEncoder{Binary: path}, nil
	}
	return nil, fmt.Errorf("[audio] 不支持的输出格式 %q", format)
}

// WAVEncoder 输出 16-bit 单声道 RIFF/WAVE。
type WAVEncoder struct{}

func (WAVEncoder) Format() Format { return FormatWAV }

func (WAVEncoder) Encode(_ context.Context, p PCM) (Clip, error) {
	if p.SampleRate <= 0 {
		return Clip{}, fmt.Errorf("[audio] 无效采样率 %d", p.SampleRate)
	}
	return Clip{Data: EncodeWAV(p), Format: FormatWAV, Duration: p.Duration()}, nil
}

// EncodeWAV 生成 44 字节头的 16-bit 单声道 WAV 数据。
func EncodeWAV(p PCM) []byte {
	body := Float32ToS16LE(p.Samples)
	var buf bytes.Buffer
	buf.Grow(44 + len(body))

	le := binary.LittleEndian
	buf.WriteString("RIFF")
	binary.Write(&buf, le, uint32(36+len(body)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, le, uint32(16))
	// PCM 编码、单声道、采样率、字节率、块对齐、位深
	binary.Write(&buf, le, uint16(1))
	binary.Write(&buf, le, uint16(1))
	binary.Write(&buf, le, uint32(p.SampleRate))
	binary.Write(&buf, le, uint32(p.SampleRate*2))
	binary.Write(&buf, le, uint16(2))
	binary.Write(&buf, le, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, le, uint32(len(body)))
	buf.Write(body)
	return buf.Bytes()
}

// FFmpegEncoder 通过 ffmpeg 子进程把 PCM 编码为 MP3。
type FFmpegEncoder struct {
	Binary  string
	Bitrate string
	Timeout time.Duration
}

func (e *FFmpegEncoder) Format() Format { return FormatMP3 }

func (e *FFmpegEncoder) Encode(ctx context.Context, p PCM) (Clip, error) {
	timeout := e.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	bitrate := e.Bitrate
	if bitrate == "" {
		bitrate = "64k"
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(p.SampleRate),
		"-ac", "1",
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", bitrate,
		"-f", "mp3",
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, e.Binary, args...)
	cmd.Stdin = bytes.NewReader(Float32ToS16LE(p.Samples))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Clip{}, fmt.Errorf("[audio] ffmpeg 编码超时: %w", ctx.Err())
		}
		return Clip{}, fmt.Errorf("[audio] ffmpeg 编码失败: %w, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return Clip{}, fmt.Errorf("[audio] ffmpeg 没有输出, stderr: %s", stderr.String())
	}

	logger.Debugf("[audio] ffmpeg: %d 个样本编码为 %d 字节 MP3", len(p.Samples), stdout.Len())
	return Clip{Data: stdout.Bytes(), Format: FormatMP3, Duration: p.Duration()}, nil
}
