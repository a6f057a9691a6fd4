package tts

import (
	"context"
	"fmt"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/iabetor/duotts/internal/audio"
	"github.com/iabetor/duotts/internal/logger"
)

// SherpaConfig 配置 sherpa-onnx 离线 VITS 模型。
type SherpaConfig struct {
	Model      string
	Lexicon    string
	Tokens     string
	DataDir    string
	NumThreads int
	// Speakers 把 "语言|地区" 或语言代码映射到多说话人模型的 sid。
	Speakers map[string]int
	// SlowSpeed 慢速时传给 Generate 的语速，默认 0.8。
	SlowSpeed float32
}

// SherpaEngine 使用 sherpa-onnx OfflineTts 在本地合成，一个模型覆盖中英文。
type SherpaEngine struct {
	mu        sync.Mutex
	tts       *sherpa.OfflineTts
	speakers  map[string]int
	slowSpeed float32
}

// NewSherpaEngine 加载 VITS 模型。
func NewSherpaEngine(cfg SherpaConfig) (*SherpaEngine, error) {
	if cfg.Model == "" || cfg.Tokens == "" {
		return nil, fmt.Errorf("[tts] sherpa 需要 model 和 tokens")
	}
	if cfg.NumThreads <= 0 {
		cfg.NumThreads = 2
	}
	if cfg.SlowSpeed <= 0 {
		cfg.SlowSpeed = 0.8
	}

	config := sherpa.OfflineTtsConfig{
		Model: sherpa.OfflineTtsModelConfig{
			Vits: sherpa.OfflineTtsVitsModelConfig{
				Model:       cfg.Model,
				Lexicon:     cfg.Lexicon,
				Tokens:      cfg.Tokens,
				DataDir:     cfg.DataDir,
				NoiseScale:  0.667,
				NoiseScaleW: 0.8,
				LengthScale: 1.0,
			},
			NumThreads: cfg.NumThreads,
			Provider:   "cpu",
		},
		MaxNumSentences: 1,
	}
	tts := sherpa.NewOfflineTts(&config)
	if tts == nil {
		return nil, fmt.Errorf("[tts] 加载 sherpa 模型失败: %s", cfg.Model)
	}
	logger.Infof("[tts] sherpa-onnx TTS 已加载: model=%s threads=%d", cfg.Model, cfg.NumThreads)

	return &SherpaEngine{tts: tts, speakers: cfg.Speakers, slowSpeed: cfg.SlowSpeed}, nil
}

func (e *SherpaEngine) Name() string { return "sherpa" }

// Synthesize 生成 float32 PCM 后封装为 WAV。OfflineTts 不是并发安全的，调用串行执行。
func (e *SherpaEngine) Synthesize(ctx context.Context, req Request) (audio.Clip, error) {
	if req.Text == "" {
		return audio.Clip{}, errEmptyText
	}
	sid, _ := lookupVoice(e.speakers, req)
	speed := float32(1.0)
	if req.Slow {
		speed = e.slowSpeed
	}

	e.mu.Lock()
	if err := ctx.Err(); err != nil {
		e.mu.Unlock()
		return audio.Clip{}, err
	}
	generated := e.tts.Generate(req.Text, sid, speed)
	e.mu.Unlock()

	if generated == nil || len(generated.Samples) == 0 {
		return audio.Clip{}, fmt.Errorf("sherpa 未生成音频")
	}
	logger.Debugf("[tts] sherpa: sid=%d 生成 %d 个样本 @ %dHz", sid, len(generated.Samples), generated.SampleRate)

	pcm := audio.PCM{Samples: generated.Samples, SampleRate: generated.SampleRate}
	return audio.WAVEncoder{}.Encode(ctx, pcm)
}

// Close 释放模型。
func (e *SherpaEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tts != nil {
		sherpa.DeleteOfflineTts(e.tts)
		e.tts = nil
	}
}
