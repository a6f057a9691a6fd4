package audio

import (
	"context"
	"errors"
	"fmt"

	"github.com/iabetor/duotts/internal/logger"
)

// ErrNoClips 表示没有可拼接的片段。
var ErrNoClips = errors.New("[audio] 没有可拼接的片段")

// Assemble 按给定顺序拼接片段。
// 只有一个片段时原样返回，不重新编码；多个片段时逐个解码为 PCM，
// 统一到第一个片段的采样率后首尾相接，最后只编码一次。
func Assemble(ctx context.Context, clips []Clip, enc Encoder) (Clip, error) {
	switch len(clips) {
	case 0:
		return Clip{}, ErrNoClips
	case 1:
		return clips[0], nil
	}

	var (
		rate  int
		total int
		parts = make([][]float32, 0, len(clips))
	)
	for i, c := range clips {
		p, err := Decode(c)
		if err != nil {
			return Clip{}, fmt.Errorf("[audio] 片段 %d: %w", i, err)
		}
		if i == 0 {
			rate = p.SampleRate
		} else if p.SampleRate != rate {
			logger.Debugf("[audio] 片段 %d 采样率 %d Hz，转换为 %d Hz", i, p.SampleRate, rate)
			p = ConvertRate(p, rate)
		}
		parts = append(parts, p.Samples)
		total += len(p.Samples)
	}

	merged := make([]float32, 0, total)
	for _, s := range parts {
		merged = append(merged, s...)
	}

	out, err := enc.Encode(ctx, PCM{Samples: merged, SampleRate: rate})
	if err != nil {
		return Clip{}, fmt.Errorf("[audio] 拼接后编码失败: %w", err)
	}
	logger.Debugf("[audio] 已拼接 %d 个片段，时长 %s", len(clips), out.Duration)
	return out, nil
}
