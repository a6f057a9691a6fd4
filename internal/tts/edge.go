package tts

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pp-group/edge-tts-go/biz/service/tts/edge"

	"github.com/iabetor/duotts/internal/audio"
	"github.com/iabetor/duotts/internal/logger"
)

// defaultEdgeVoices 把（语言，地区）映射到 Edge 神经网络音色。
// 地区变体在这里只用作音色偏好的代号。
var defaultEdgeVoices = map[string]string{
	"zh-CN|com":    "zh-CN-XiaoxiaoNeural",
	"zh-TW|com":    "zh-CN-YunxiNeural",
	"zh-CN|com.hk": "zh-CN-YunyangNeural",
	"zh":           "zh-CN-XiaoxiaoNeural",
	"en|com":       "en-US-AriaNeural",
	"en|co.uk":     "en-GB-RyanNeural",
	"en|com.au":    "en-AU-NatashaNeural",
	"en":           "en-US-AriaNeural",
}

// EdgeEngine 使用微软 Edge TTS 合成 MP3。
type EdgeEngine struct {
	voices map[string]string
}

// NewEdgeEngine 创建 Edge TTS 引擎，overrides 覆盖内置音色表。
func NewEdgeEngine(overrides map[string]string) *EdgeEngine {
	voices := make(map[string]string, len(defaultEdgeVoices)+len(overrides))
	for k, v := range defaultEdgeVoices {
		voices[k] = v
	}
	for k, v := range overrides {
		voices[k] = v
	}
	return &EdgeEngine{voices: voices}
}

func (e *EdgeEngine) Name() string { return "edge" }

// Voice 返回请求对应的 Edge 音色名称。
func (e *EdgeEngine) Voice(req Request) (string, error) {
	v, ok := lookupVoice(e.voices, req)
	if !ok {
		return "", fmt.Errorf("没有 %s 对应的音色", req.Key())
	}
	return v, nil
}

// Synthesize 通过 edge-tts-go 的 Stream() 收集 MP3 数据块。
// Edge 接口没有慢速开关，Slow 由后续的变速环节体现。
func (e *EdgeEngine) Synthesize(ctx context.Context, req Request) (audio.Clip, error) {
	if req.Text == "" {
		return audio.Clip{}, errEmptyText
	}
	voice, err := e.Voice(req)
	if err != nil {
		return audio.Clip{}, err
	}
	logger.Debugf("[tts] edge-tts: 合成 %d 个字符，音色=%s", len([]rune(req.Text)), voice)

	comm, err := edge.NewCommunicate(req.Text, edge.WithVoice(voice))
	if err != nil {
		return audio.Clip{}, fmt.Errorf("创建实例失败: %w", err)
	}
	ch, err := comm.Stream()
	if err != nil {
		return audio.Clip{}, fmt.Errorf("开始流式合成失败: %w", err)
	}

	var mp3Buf bytes.Buffer
	for msg := range ch {
		select {
		case <-ctx.Done():
			return audio.Clip{}, ctx.Err()
		default:
		}
		if msgType, ok := msg["type"].(string); ok && msgType == "audio" {
			if data, ok := msg["data"].([]byte); ok {
				mp3Buf.Write(data)
			}
		}
	}
	if mp3Buf.Len() == 0 {
		return audio.Clip{}, fmt.Errorf("未收到音频数据")
	}
	logger.Debugf("[tts] edge-tts: 收到 %d 字节 MP3", mp3Buf.Len())
	return clipFrom(mp3Buf.Bytes(), audio.FormatMP3), nil
}
