package tts

import (
	"context"
	"sync"
	"time"

	"github.com/iabetor/duotts/internal/audio"
)

// StubEngine 是离线可用的确定性引擎：每个字符对应 PerRune 时长的正弦音。
// 用于测试和 --engine stub 试运行，并记录收到的全部请求。
type StubEngine struct {
	// PerRune 每个字符的时长，默认 100ms。
	PerRune time.Duration
	// SampleRate 默认 16000。
	SampleRate int
	// Delay 在返回前等待，用于超时测试。
	Delay time.Duration
	// Fail 返回非 nil 时该请求失败。
	Fail func(req Request) error

	mu       sync.Mutex
	requests []Request
}

func (s *StubEngine) Name() string { return "stub" }

func (s *StubEngine) Synthesize(ctx context.Context, req Request) (audio.Clip, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return audio.Clip{}, ctx.Err()
		}
	}
	if s.Fail != nil {
		if err := s.Fail(req); err != nil {
			return audio.Clip{}, err
		}
	}
	return audio.WAVEncoder{}.Encode(ctx, s.tone(req))
}

func (s *StubEngine) tone(req Request) audio.PCM {
	per := s.PerRune
	if per <= 0 {
		per = 100 * time.Millisecond
	}
	rate := s.SampleRate
	if rate <= 0 {
		rate = 16000
	}
	freq := 440.0
	if languagePrefix(req.Language) == "zh" {
		freq = 330
	}
	return audio.Tone(freq, time.Duration(len([]rune(req.Text)))*per, rate)
}

// Requests 返回已收到请求的副本。
func (s *StubEngine) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}
