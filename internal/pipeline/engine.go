package pipeline

import (
	"fmt"
	"time"

	"github.com/iabetor/duotts/internal/audio"
	"github.com/iabetor/duotts/internal/config"
	"github.com/iabetor/duotts/internal/history"
	"github.com/iabetor/duotts/internal/logger"
	"github.com/iabetor/duotts/internal/output"
	"github.com/iabetor/duotts/internal/tts"
	"github.com/iabetor/duotts/internal/voice"
)

// NewEngine 根据配置创建合成引擎。
func NewEngine(cfg config.TTSConfig) (tts.Engine, error) {
	switch cfg.Engine {
	case "gtts":
		return tts.NewGTTSEngine(tts.GTTSConfig{
			URLTemplate:       cfg.GTTS.URLTemplate,
			RequestsPerMinute: cfg.GTTS.RequestsPerMinute,
		}), nil
	case "edge":
		return tts.NewEdgeEngine(cfg.Edge.Voices), nil
	case "tencent":
		e, err := tts.NewTencentEngine(tts.TencentConfig{
			SecretID:  cfg.Tencent.SecretID,
			SecretKey: cfg.Tencent.SecretKey,
			Region:    cfg.Tencent.Region,
			Voices:    cfg.Tencent.Voices,
		})
		if err != nil {
			return nil, fmt.Errorf("初始化腾讯云 TTS 失败: %w", err)
		}
		return e, nil
	case "piper":
		e, err := tts.NewPiperEngine(tts.PiperConfig{
			Binary:          cfg.Piper.Binary,
			Models:          cfg.Piper.Models,
			SlowLengthScale: cfg.Piper.SlowLengthScale,
		})
		if err != nil {
			return nil, fmt.Errorf("初始化 piper 失败: %w", err)
		}
		return e, nil
	case "sherpa":
		e, err := tts.NewSherpaEngine(tts.SherpaConfig{
			Model:      cfg.Sherpa.Model,
			Lexicon:    cfg.Sherpa.Lexicon,
			Tokens:     cfg.Sherpa.Tokens,
			DataDir:    cfg.Sherpa.DataDir,
			NumThreads: cfg.Sherpa.NumThreads,
			Speakers:   cfg.Sherpa.Speakers,
		})
		if err != nil {
			return nil, fmt.Errorf("初始化 sherpa 失败: %w", err)
		}
		return e, nil
	case "stub":
		return &tts.StubEngine{}, nil
	}
	return nil, fmt.Errorf("未知的 TTS 引擎: %s", cfg.Engine)
}

// NewEncoder 创建输出编码器。要求 mp3 但找不到 ffmpeg 时回退到 wav。
func NewEncoder(format string) audio.Encoder {
	enc, err := audio.NewEncoder(format)
	if err != nil {
		logger.Warnf("[pipeline] %v，改为输出 wav", err)
		return audio.WAVEncoder{}
	}
	return enc
}

// New 根据配置创建完整的 Orchestrator。使用完毕后调用 Close。
func New(cfg *config.Config) (*Orchestrator, error) {
	table, err := voice.LookupTable(cfg.Speed.Table)
	if err != nil {
		return nil, err
	}
	resolver, err := voice.NewResolver(cfg.Voice.Overrides)
	if err != nil {
		return nil, err
	}
	engine, err := NewEngine(cfg.TTS)
	if err != nil {
		return nil, err
	}

	var closers []func() error
	if s, ok := engine.(*tts.SherpaEngine); ok {
		closers = append(closers, func() error { s.Close(); return nil })
	}

	var store *history.Store
	if cfg.History.Enabled {
		db, err := history.Open(cfg.History.DBPath)
		if err != nil {
			// 历史记录是可选功能，打不开时继续运行
			logger.Warnf("[pipeline] 历史记录已禁用: %v", err)
		} else {
			store = history.NewStore(db)
			closers = append(closers, db.Close)
		}
	}

	o, err := NewOrchestrator(Options{
		Engine:       engine,
		Timeout:      time.Duration(cfg.TTS.TimeoutSec) * time.Second,
		Concurrency:  cfg.TTS.Concurrency,
		SpeedTable:   table,
		Resolver:     resolver,
		DefaultVoice: voice.ParseHint(cfg.Voice.Default),
		Encoder:      NewEncoder(cfg.Output.Format),
		OutputDir:    cfg.Output.Dir,
		WorkDir:      cfg.Output.WorkDir,
		Sanitizer:    output.Sanitizer{Pinyin: cfg.Output.PinyinFilenames},
		History:      store,
	})
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, err
	}
	o.closers = closers

	logger.Infof("[pipeline] 引擎=%s 语速表=%s 输出=%s (%s)",
		engine.Name(), table.Name, cfg.Output.Dir, o.opts.Encoder.Format())
	return o, nil
}
