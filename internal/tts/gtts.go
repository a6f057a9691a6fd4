package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/time/rate"

	"github.com/iabetor/duotts/internal/audio"
	"github.com/iabetor/duotts/internal/logger"
)

const (
	// gttsMaxChunk 是 Google 翻译 TTS 单次请求的最大字符数。
	gttsMaxChunk = 100
	// gttsURLTemplate 中的 %s 为顶级域名（地区变体）。
	gttsURLTemplate = "https://translate.google.%s/translate_tts"
)

// GTTSConfig 配置 Google 翻译 TTS 引擎。
type GTTSConfig struct {
	// URLTemplate 带一个 %s 占位符，填入 Request.Region。
	URLTemplate string
	// RequestsPerMinute 限制请求频率，避免被封禁。
	RequestsPerMinute int
	Client            *http.Client
}

// GTTSEngine 通过 Google 翻译的 translate_tts 接口合成 MP3，
// 用不同的顶级域名获得不同地区口音。
type GTTSEngine struct {
	urlTemplate string
	client      *http.Client
	limiter     *rate.Limiter
}

// NewGTTSEngine 创建 Google 翻译 TTS 引擎。
func NewGTTSEngine(cfg GTTSConfig) *GTTSEngine {
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = gttsURLTemplate
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GTTSEngine{
		urlTemplate: cfg.URLTemplate,
		client:      cfg.Client,
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 3),
	}
}

func (e *GTTSEngine) Name() string { return "gtts" }

// Synthesize 把文本按标点切成不超过 100 字符的块逐块请求，MP3 帧直接首尾相接。
func (e *GTTSEngine) Synthesize(ctx context.Context, req Request) (audio.Clip, error) {
	chunks := splitChunks(req.Text, gttsMaxChunk)
	if len(chunks) == 0 {
		return audio.Clip{}, errEmptyText
	}
	region := req.Region
	if region == "" {
		region = "com"
	}
	endpoint := fmt.Sprintf(e.urlTemplate, region)

	logger.Debugf("[tts] gtts: 合成 %d 个字符，%d 块，lang=%s tld=%s slow=%v",
		len([]rune(req.Text)), len(chunks), req.Language, region, req.Slow)

	var mp3Buf bytes.Buffer
	for i, chunk := range chunks {
		if err := e.limiter.Wait(ctx); err != nil {
			return audio.Clip{}, fmt.Errorf("等待限流被取消: %w", err)
		}
		data, err := e.fetch(ctx, endpoint, req, chunk, i, len(chunks))
		if err != nil {
			return audio.Clip{}, err
		}
		mp3Buf.Write(data)
	}
	return clipFrom(mp3Buf.Bytes(), audio.FormatMP3), nil
}

func (e *GTTSEngine) fetch(ctx context.Context, endpoint string, req Request, chunk string, idx, total int) ([]byte, error) {
	speed := "1"
	if req.Slow {
		speed = "0.24"
	}
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", req.Language)
	q.Set("q", chunk)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(len([]rune(chunk))))
	q.Set("ttsspeed", speed)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0")
	httpReq.Header.Set("Referer", "http://translate.google.com/")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("块 %d 未收到音频数据", idx)
	}
	return data, nil
}

// splitChunks 把文本切成不超过 max 个字符的块，尽量在标点或空白处断开。
func splitChunks(text string, max int) []string {
	var chunks []string
	runes := []rune(strings.TrimSpace(text))
	for len(runes) > 0 {
		if len(runes) <= max {
			chunks = appendChunk(chunks, string(runes))
			break
		}
		cut := max
		for i := max; i > max/2; i-- {
			if isBreak(runes[i-1]) {
				cut = i
				break
			}
		}
		chunks = appendChunk(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return chunks
}

func appendChunk(chunks []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return chunks
	}
	return append(chunks, s)
}

func isBreak(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	return strings.ContainsRune(",.;:!?，。；：！？、", r)
}
