package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// PCM 是单声道 float32 样本，取值范围 [-1.0, 1.0]。
type PCM struct {
	Samples    []float32
	SampleRate int
}

// Duration 返回样本时长。
func (p PCM) Duration() time.Duration {
	return samplesDuration(len(p.Samples), p.SampleRate)
}

func samplesDuration(n, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(rate))
}

// S16LEToFloat32 将 signed 16-bit LE 单声道 PCM 字节转换为 float32 样本。
// 末尾不足一个样本的字节会被丢弃。
func S16LEToFloat32(b []byte) []float32 {
	n := len(b) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(b[2*i:]))
		out[i] = float32(s) / 32768.0
	}
	return out
}

// StereoS16LEToMono 将立体声 signed 16-bit LE PCM 左右声道取平均转换为单声道 float32。
// 每个立体声帧 4 字节，末尾不完整的帧会被丢弃。
func StereoS16LEToMono(b []byte) []float32 {
	const bytesPerFrame = 4
	n := len(b) / bytesPerFrame
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		off := i * bytesPerFrame
		left := int16(binary.LittleEndian.Uint16(b[off:]))
		right := int16(binary.LittleEndian.Uint16(b[off+2:]))
		out[i] = (float32(left) + float32(right)) / 2.0 / 32768.0
	}
	return out
}

// Float32ToS16LE 将 float32 样本转换为 signed 16-bit LE 字节，超出范围的值会被钳位。
func Float32ToS16LE(in []float32) []byte {
	out := make([]byte, len(in)*2)
	for i, s := range in {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(s*math.MaxInt16)))
	}
	return out
}

// Resample 用线性插值把样本拉伸或压缩到 n 个，采样率不变。
// 这是朴素的重采样：改变时长的同时也改变音高。
func Resample(in []float32, n int) []float32 {
	if n <= 0 || len(in) == 0 {
		return nil
	}
	out := make([]float32, n)
	if len(in) == 1 || n == 1 {
		for i := range out {
			out[i] = in[0]
		}
		return out
	}
	step := float64(len(in)-1) / float64(n-1)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}

// ConvertRate 将 PCM 转换到目标采样率，时长保持不变。
func ConvertRate(p PCM, rate int) PCM {
	if p.SampleRate == rate || p.SampleRate <= 0 {
		return p
	}
	n := int(math.Round(float64(len(p.Samples)) * float64(rate) / float64(p.SampleRate)))
	return PCM{Samples: Resample(p.Samples, n), SampleRate: rate}
}

// Tone 生成指定频率和时长的正弦波，用于测试和占位音频。
func Tone(freq float64, d time.Duration, rate int) PCM {
	n := int(int64(d) * int64(rate) / int64(time.Second))
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(0.3 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return PCM{Samples: samples, SampleRate: rate}
}
