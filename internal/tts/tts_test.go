package tts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iabetor/duotts/internal/audio"
)

func TestSplitChunks(t *testing.T) {
	long := strings.Repeat("word ", 50) // 250 个字符
	tests := []struct {
		name      string
		text      string
		wantCount int
	}{
		{"empty", "   ", 0},
		{"short", "hello world", 1},
		{"exactly max", strings.Repeat("a", 100), 1},
		{"long with spaces", long, 3},
		{"long han", strings.Repeat("你好，", 50), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := splitChunks(tt.text, gttsMaxChunk)
			if len(chunks) != tt.wantCount {
				t.Fatalf("got %d chunks, want %d: %q", len(chunks), tt.wantCount, chunks)
			}
			for i, c := range chunks {
				if n := len([]rune(c)); n > gttsMaxChunk || n == 0 {
					t.Errorf("chunk %d has %d runes", i, n)
				}
			}
		})
	}
}

func TestGTTSEngine_Request(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	var queries []map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		queries = append(queries, q)
		mu.Unlock()
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-" + q["idx"]))
	}))
	defer srv.Close()

	e := NewGTTSEngine(GTTSConfig{URLTemplate: srv.URL + "/%s/translate_tts", RequestsPerMinute: 6000})
	clip, err := e.Synthesize(context.Background(), Request{
		Text: "Hello world", Language: "en", Region: "co.uk", Slow: true,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(clip.Data) != "mp3-0" {
		t.Errorf("data = %q", clip.Data)
	}
	if clip.Format != audio.FormatMP3 {
		t.Errorf("format = %q", clip.Format)
	}
	if len(paths) != 1 || paths[0] != "/co.uk/translate_tts" {
		t.Fatalf("paths = %v", paths)
	}
	want := map[string]string{
		"tl": "en", "q": "Hello world", "client": "tw-ob",
		"ttsspeed": "0.24", "total": "1", "idx": "0", "textlen": "11",
	}
	for k, v := range want {
		if queries[0][k] != v {
			t.Errorf("query %s = %q, want %q", k, queries[0][k], v)
		}
	}
}

func TestGTTSEngine_ChunksConcatenated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[" + r.URL.Query().Get("idx") + "]"))
	}))
	defer srv.Close()

	e := NewGTTSEngine(GTTSConfig{URLTemplate: srv.URL + "/%s", RequestsPerMinute: 6000})
	clip, err := e.Synthesize(context.Background(), Request{
		Text: strings.Repeat("word ", 50), Language: "en", Region: "com",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(clip.Data) != "[0][1][2]" {
		t.Errorf("data = %q, want chunks in order", clip.Data)
	}
}

func TestGTTSEngine_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewGTTSEngine(GTTSConfig{URLTemplate: srv.URL + "/%s"})
	_, err := e.Synthesize(context.Background(), Request{Text: "hi", Language: "en", Region: "com"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected HTTP 429 error, got %v", err)
	}
}

func TestGTTSEngine_EmptyText(t *testing.T) {
	e := NewGTTSEngine(GTTSConfig{})
	if _, err := e.Synthesize(context.Background(), Request{Text: "  ", Language: "en"}); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestLookupVoice_Fallback(t *testing.T) {
	e := NewEdgeEngine(map[string]string{"en|com.au": "custom-voice"})
	tests := []struct {
		req  Request
		want string
	}{
		{Request{Language: "zh-CN", Region: "com"}, "zh-CN-XiaoxiaoNeural"},
		{Request{Language: "zh-TW", Region: "com"}, "zh-CN-YunxiNeural"},
		{Request{Language: "zh-CN", Region: "com.hk"}, "zh-CN-YunyangNeural"},
		{Request{Language: "en", Region: "co.uk"}, "en-GB-RyanNeural"},
		{Request{Language: "en", Region: "com.au"}, "custom-voice"},
		{Request{Language: "zh-TW", Region: "com.tw"}, "zh-CN-XiaoxiaoNeural"},
		{Request{Language: "en", Region: "ca"}, "en-US-AriaNeural"},
	}
	for _, tt := range tests {
		got, err := e.Voice(tt.req)
		if err != nil {
			t.Errorf("Voice(%s): %v", tt.req.Key(), err)
			continue
		}
		if got != tt.want {
			t.Errorf("Voice(%s) = %q, want %q", tt.req.Key(), got, tt.want)
		}
	}
	if _, err := e.Voice(Request{Language: "fr", Region: "fr"}); err == nil {
		t.Error("expected error for unsupported language")
	}
}

func TestTencentParams(t *testing.T) {
	voices := mergeTencentVoices(map[string]int64{"en|com.au": 1053})
	tests := []struct {
		req         Request
		wantVoice   int64
		wantPrimary int64
		wantSpeed   float64
	}{
		{Request{Language: "zh-CN", Region: "com"}, 1001, 1, 0},
		{Request{Language: "zh-TW", Region: "com", Slow: true}, 1004, 1, -2},
		{Request{Language: "en", Region: "co.uk"}, 1050, 2, 0},
		{Request{Language: "en", Region: "com.au", Slow: true}, 1053, 2, -2},
	}
	for _, tt := range tests {
		v, p, s, err := tencentParams(voices, tt.req)
		if err != nil {
			t.Fatalf("tencentParams(%s): %v", tt.req.Key(), err)
		}
		if v != tt.wantVoice || p != tt.wantPrimary || s != tt.wantSpeed {
			t.Errorf("tencentParams(%s) = (%d, %d, %v), want (%d, %d, %v)",
				tt.req.Key(), v, p, s, tt.wantVoice, tt.wantPrimary, tt.wantSpeed)
		}
	}
}

func TestNewTencentEngine_RequiresCredentials(t *testing.T) {
	if _, err := NewTencentEngine(TencentConfig{}); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestTencentEngine_Live(t *testing.T) {
	id, key := os.Getenv("TENCENT_SECRET_ID"), os.Getenv("TENCENT_SECRET_KEY")
	if id == "" || key == "" {
		t.Skip("TENCENT_SECRET_ID / TENCENT_SECRET_KEY 未设置")
	}
	e, err := NewTencentEngine(TencentConfig{SecretID: id, SecretKey: key})
	if err != nil {
		t.Fatal(err)
	}
	clip, err := e.Synthesize(context.Background(), Request{Text: "你好", Language: "zh-CN", Region: "com"})
	if err != nil {
		t.Fatal(err)
	}
	if len(clip.Data) == 0 {
		t.Error("empty audio")
	}
}

func writeFakePiper(t *testing.T) (bin, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("需要 /bin/sh")
	}
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args")
	bin = filepath.Join(dir, "piper")
	// 输出 4410 字节 = 2205 个样本 = 22050Hz 下 100ms
	script := "#!/bin/sh\necho \"$@\" > " + argsFile + "\ncat > /dev/null\nhead -c 4410 /dev/zero\n"
	if err := os.WriteFile(bin, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return bin, argsFile
}

func TestPiperEngine_FakeBinary(t *testing.T) {
	bin, argsFile := writeFakePiper(t)
	e, err := NewPiperEngine(PiperConfig{
		Binary: bin,
		Models: map[string]string{"zh": "zh.onnx", "en": "en.onnx"},
	})
	if err != nil {
		t.Fatal(err)
	}

	clip, err := e.Synthesize(context.Background(), Request{Text: "hello", Language: "en", Region: "com", Slow: true})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if clip.Format != audio.FormatWAV {
		t.Errorf("format = %q, want wav", clip.Format)
	}
	if clip.Duration != 100*time.Millisecond {
		t.Errorf("duration = %v, want 100ms", clip.Duration)
	}

	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"--model en.onnx", "--output-raw", "--length_scale 1.30"} {
		if !strings.Contains(string(args), want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestPiperEngine_MissingModel(t *testing.T) {
	e, err := NewPiperEngine(PiperConfig{Binary: "/nonexistent", Models: map[string]string{"en": "en.onnx"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Synthesize(context.Background(), Request{Text: "你好", Language: "zh-CN"}); err == nil {
		t.Fatal("expected error for missing model")
	}
	if _, err := NewPiperEngine(PiperConfig{}); err == nil {
		t.Fatal("expected error without models")
	}
}

func TestStubEngine_Duration(t *testing.T) {
	s := &StubEngine{PerRune: 50 * time.Millisecond}
	clip, err := s.Synthesize(context.Background(), Request{Text: "你好", Language: "zh-CN"})
	if err != nil {
		t.Fatal(err)
	}
	if clip.Duration != 100*time.Millisecond {
		t.Errorf("duration = %v, want 100ms", clip.Duration)
	}
	if got := s.Requests(); len(got) != 1 || got[0].Text != "你好" {
		t.Errorf("requests = %+v", got)
	}
}

func TestDispatcher_PreservesOrder(t *testing.T) {
	s := &StubEngine{}
	// 第一个请求最慢，验证并发时结果仍按输入顺序排列
	delays := map[string]time.Duration{"a": 60 * time.Millisecond, "bb": 20 * time.Millisecond, "ccc": 0}
	d := NewDispatcher(delayEngine{s, delays}, time.Second, 3)

	reqs := []Request{
		{Text: "a", Language: "en"},
		{Text: "bb", Language: "en"},
		{Text: "ccc", Language: "en"},
	}
	clips, err := d.Dispatch(context.Background(), reqs)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(clips) != 3 {
		t.Fatalf("got %d clips", len(clips))
	}
	for i, want := range []time.Duration{100, 200, 300} {
		if clips[i].Duration != want*time.Millisecond {
			t.Errorf("clip %d duration = %v, want %v", i, clips[i].Duration, want*time.Millisecond)
		}
	}
}

func TestDispatcher_Sequential(t *testing.T) {
	s := &StubEngine{}
	d := NewDispatcher(s, 0, 0)
	reqs := []Request{{Text: "一", Language: "zh-CN"}, {Text: "two", Language: "en"}}
	if _, err := d.Dispatch(context.Background(), reqs); err != nil {
		t.Fatal(err)
	}
	got := s.Requests()
	if len(got) != 2 || got[0].Text != "一" || got[1].Text != "two" {
		t.Errorf("requests out of order: %+v", got)
	}
}

func TestDispatcher_EngineFailure(t *testing.T) {
	boom := errors.New("boom")
	s := &StubEngine{Fail: func(r Request) error {
		if r.Text == "bad" {
			return boom
		}
		return nil
	}}
	d := NewDispatcher(s, time.Second, 1)
	clips, err := d.Dispatch(context.Background(), []Request{{Text: "ok"}, {Text: "bad"}, {Text: "never"}})
	if clips != nil {
		t.Errorf("expected no partial results, got %d clips", len(clips))
	}
	var ee *EngineError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *EngineError, got %T %v", err, err)
	}
	if ee.Index != 1 || ee.Engine != "stub" || ee.Timeout {
		t.Errorf("EngineError = %+v", ee)
	}
	if !errors.Is(err, boom) {
		t.Error("EngineError should unwrap to the engine error")
	}
	if n := len(s.Requests()); n != 2 {
		t.Errorf("engine called %d times, want 2", n)
	}
}

func TestDispatcher_Timeout(t *testing.T) {
	s := &StubEngine{Delay: time.Second}
	d := NewDispatcher(s, 20*time.Millisecond, 1)
	_, err := d.Dispatch(context.Background(), []Request{{Text: "slow"}})
	var ee *EngineError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *EngineError, got %v", err)
	}
	if !ee.Timeout {
		t.Errorf("expected Timeout=true: %v", ee)
	}
}

func TestDispatcher_TimeoutIgnoredByEngine(t *testing.T) {
	e := &blockingEngine{delay: 400 * time.Millisecond}
	d := NewDispatcher(e, 50*time.Millisecond, 1)

	start := time.Now()
	clips, err := d.Dispatch(context.Background(), []Request{{Text: "slow", Language: "en"}})
	elapsed := time.Since(start)

	var ee *EngineError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *EngineError, got %v (clips=%d)", err, len(clips))
	}
	if !ee.Timeout || ee.Index != 0 || ee.Engine != "blocking" {
		t.Errorf("EngineError = %+v", ee)
	}
	if clips != nil {
		t.Errorf("expected no clips, got %d", len(clips))
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("Dispatch waited %v for an engine ignoring its deadline", elapsed)
	}
}

func TestDispatcher_LateSuccessRejected(t *testing.T) {
	// 引擎在截止后同时返回成功，结果仍按超时处理
	e := &blockingEngine{delay: 30 * time.Millisecond}
	d := &Dispatcher{engine: e, timeout: 10 * time.Millisecond, concurrency: 1}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	time.Sleep(10 * time.Millisecond)

	if _, err := d.synthesize(ctx, Request{Text: "late"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("synthesize after deadline = %v, want DeadlineExceeded", err)
	}
}

func TestDispatcher_Empty(t *testing.T) {
	d := NewDispatcher(&StubEngine{}, time.Second, 2)
	clips, err := d.Dispatch(context.Background(), nil)
	if err != nil || len(clips) != 0 {
		t.Fatalf("Dispatch(nil) = %v, %v", clips, err)
	}
}

// delayEngine 按文本给 StubEngine 加不同延迟。
type delayEngine struct {
	*StubEngine
	delays map[string]time.Duration
}

func (d delayEngine) Synthesize(ctx context.Context, req Request) (audio.Clip, error) {
	time.Sleep(d.delays[req.Text])
	return d.StubEngine.Synthesize(ctx, req)
}

// blockingEngine 忽略 ctx，睡眠后总是返回成功。
type blockingEngine struct {
	delay time.Duration
}

func (b *blockingEngine) Name() string { return "blocking" }

func (b *blockingEngine) Synthesize(_ context.Context, req Request) (audio.Clip, error) {
	time.Sleep(b.delay)
	return audio.Clip{Data: []byte(req.Text), Format: audio.FormatWAV}, nil
}
