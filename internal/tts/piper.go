package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/iabetor/duotts/internal/audio"
	"github.com/iabetor/duotts/internal/logger"
)

// piperSampleRate 是 piper 输出的固定采样率。
const piperSampleRate = 22050

// PiperConfig Piper 离线引擎配置。
type PiperConfig struct {
	// Binary 为空时使用 PATH 中的 piper。
	Binary string
	// Models 按语言选择模型，键为 "语言|地区"、语言代码或语言主标签。
	Models map[string]string
	// SlowLengthScale 慢速时传给 --length_scale 的值，默认 1.3。
	SlowLengthScale float64
}

// PiperEngine 使用 piper CLI 子进程合成，作为离线方案。
type PiperEngine struct {
	binary    string
	models    map[string]string
	slowScale float64
}

// NewPiperEngine 创建 Piper 引擎。
func NewPiperEngine(cfg PiperConfig) (*PiperEngine, error) {
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("[tts] piper 至少需要配置一个模型")
	}
	if cfg.Binary == "" {
		cfg.Binary = "piper"
	}
	if cfg.SlowLengthScale == 0 {
		cfg.SlowLengthScale = 1.3
	}
	return &PiperEngine{binary: cfg.Binary, models: cfg.Models, slowScale: cfg.SlowLengthScale}, nil
}

func (p *PiperEngine) Name() string { return "piper" }

// Synthesize 把文本写入 piper 的 stdin，读取 signed 16-bit LE 单声道原始 PCM，封装为 WAV。
func (p *PiperEngine) Synthesize(ctx context.Context, req Request) (audio.Clip, error) {
	if req.Text == "" {
		return audio.Clip{}, errEmptyText
	}
	model, ok := lookupVoice(p.models, req)
	if !ok {
		return audio.Clip{}, fmt.Errorf("没有 %s 对应的模型", req.Key())
	}
	logger.Debugf("[tts] piper: 合成 %d 个字符，模型=%s", len([]rune(req.Text)), model)

	args := []string{"--model", model, "--output-raw"}
	if req.Slow {
		args = append(args, "--length_scale", fmt.Sprintf("%.2f", p.slowScale))
	}
	cmd := exec.CommandContext(ctx, p.binary, args...)
	cmd.Stdin = bytes.NewReader([]byte(req.Text))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return audio.Clip{}, ctx.Err()
		}
		return audio.Clip{}, fmt.Errorf("piper 执行失败: %w, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return audio.Clip{}, fmt.Errorf("piper 未输出音频数据")
	}

	pcm := audio.PCM{Samples: audio.S16LEToFloat32(stdout.Bytes()), SampleRate: piperSampleRate}
	logger.Debugf("[tts] piper: 收到 %d 个样本", len(pcm.Samples))
	return audio.WAVEncoder{}.Encode(ctx, pcm)
}
