package audio

import (
	"context"
	"fmt"
	"math"
)

// ChangeSpeed 按播放速率倍数调整片段时长：输出时长 = 输入时长 / factor。
// factor 是速率而不是时长倍数，因此最慢档 0.5 得到两倍时长，1.6 缩短到 1/1.6。
// factor 为 1 时原样返回输入片段。
//
// 实现为同采样率下的线性插值重采样，不做音高校正，
// 变快时音调升高、变慢时音调降低。
func ChangeSpeed(ctx context.Context, c Clip, factor float64, enc Encoder) (Clip, error) {
	if factor == 1.0 {
		return c, nil
	}
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return Clip{}, fmt.Errorf("[audio] 无效的速率倍数 %v", factor)
	}

	p, err := Decode(c)
	if err != nil {
		return Clip{}, err
	}
	out, err := enc.Encode(ctx, Stretch(p, factor))
	if err != nil {
		return Clip{}, fmt.Errorf("[audio] 变速后编码失败: %w", err)
	}
	return out, nil
}

// Stretch 返回按 factor 变速后的 PCM。
func Stretch(p PCM, factor float64) PCM {
	n := int(math.Round(float64(len(p.Samples)) / factor))
	return PCM{Samples: Resample(p.Samples, n), SampleRate: p.SampleRate}
}
