package tts

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tcpkg "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tts/v20190823"

	"github.com/iabetor/duotts/internal/audio"
	"github.com/iabetor/duotts/internal/logger"
)

// defaultTencentVoices 是（语言，地区）到腾讯云音色 ID 的映射。
var defaultTencentVoices = map[string]int64{
	"zh-CN|com":    1001, // 智瑜，女声
	"zh-TW|com":    1004, // 智云，男声
	"zh-CN|com.hk": 1002, // 智聆，播报
	"zh":           1001,
	"en|com":       1051, // WeRose，英文女声
	"en|co.uk":     1050, // WeJack，英文男声
	"en|com.au":    1051,
	"en":           1051,
}

// TencentConfig 腾讯云 TTS 配置。
type TencentConfig struct {
	SecretID  string
	SecretKey string
	Region    string
	// Voices 覆盖内置音色表，键为 "语言|地区" 或语言代码。
	Voices map[string]int64
}

// TencentEngine 使用腾讯云 TextToVoice 合成 MP3，适用于中国大陆网络环境。
type TencentEngine struct {
	client *tcpkg.Client
	voices map[string]int64
}

// NewTencentEngine 创建腾讯云 TTS 引擎。
func NewTencentEngine(cfg TencentConfig) (*TencentEngine, error) {
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("[tts] 腾讯云 TTS 需要 SecretID 和 SecretKey")
	}
	if cfg.Region == "" {
		cfg.Region = "ap-guangzhou"
	}

	credential := common.NewCredential(cfg.SecretID, cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tts.tencentcloudapi.com"

	client, err := tcpkg.NewClient(credential, cfg.Region, cpf)
	if err != nil {
		return nil, fmt.Errorf("[tts] 创建腾讯云 TTS 客户端失败: %w", err)
	}
	logger.Infof("[tts] 腾讯云 TTS 引擎已初始化 (region=%s)", cfg.Region)

	return &TencentEngine{client: client, voices: mergeTencentVoices(cfg.Voices)}, nil
}

func mergeTencentVoices(overrides map[string]int64) map[string]int64 {
	voices := make(map[string]int64, len(defaultTencentVoices)+len(overrides))
	for k, v := range defaultTencentVoices {
		voices[k] = v
	}
	for k, v := range overrides {
		voices[k] = v
	}
	return voices
}

func (e *TencentEngine) Name() string { return "tencent" }

// tencentParams 返回音色 ID、主语言和语速。
// 主语言 1 为中文、2 为英文；语速范围 [-2, 6]，-2 对应 0.6 倍速。
func tencentParams(voices map[string]int64, req Request) (voiceType, primaryLanguage int64, speed float64, err error) {
	voiceType, ok := lookupVoice(voices, req)
	if !ok {
		return 0, 0, 0, fmt.Errorf("没有 %s 对应的音色", req.Key())
	}
	primaryLanguage = 1
	if languagePrefix(req.Language) == "en" {
		primaryLanguage = 2
	}
	if req.Slow {
		speed = -2
	}
	return voiceType, primaryLanguage, speed, nil
}

// Synthesize 调用 TextToVoice，返回 Base64 解码后的 MP3。
func (e *TencentEngine) Synthesize(ctx context.Context, req Request) (audio.Clip, error) {
	if req.Text == "" {
		return audio.Clip{}, errEmptyText
	}
	voiceType, primary, speed, err := tencentParams(e.voices, req)
	if err != nil {
		return audio.Clip{}, err
	}
	logger.Debugf("[tts] 腾讯云 TTS: 合成 %d 个字符，音色=%d", len([]rune(req.Text)), voiceType)

	request := tcpkg.NewTextToVoiceRequest()
	request.Text = common.StringPtr(req.Text)
	request.SessionId = common.StringPtr(uuid.NewString())
	request.VoiceType = common.Int64Ptr(voiceType)
	request.PrimaryLanguage = common.Int64Ptr(primary)
	request.Codec = common.StringPtr("mp3")
	request.Speed = common.Float64Ptr(speed)
	request.Volume = common.Float64Ptr(5.0)

	response, err := e.client.TextToVoiceWithContext(ctx, request)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("合成失败: %w", err)
	}
	if response.Response == nil || response.Response.Audio == nil {
		return audio.Clip{}, fmt.Errorf("未返回音频数据")
	}

	mp3Data, err := base64.StdEncoding.DecodeString(*response.Response.Audio)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("Base64 解码失败: %w", err)
	}
	logger.Debugf("[tts] 腾讯云 TTS: 收到 %d 字节 MP3", len(mp3Data))
	return clipFrom(mp3Data, audio.FormatMP3), nil
}
