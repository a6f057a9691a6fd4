package audio

import (
	"math"
	"testing"
	"time"
)

func TestS16LEToFloat32(t *testing.T) {
	// 0x4000 = 16384 -> 0.5, 0x8000 = -32768 -> -1.0
	out := S16LEToFloat32([]byte{0x00, 0x40, 0x00, 0x80, 0x01})
	if len(out) != 2 {
		t.Fatalf("expected 2 samples (trailing byte dropped), got %d", len(out))
	}
	if out[0] != 0.5 {
		t.Errorf("expected 0.5, got %f", out[0])
	}
	if out[1] != -1.0 {
		t.Errorf("expected -1.0, got %f", out[1])
	}
}

func TestStereoS16LEToMono_Averages(t *testing.T) {
	// 左 16384，右 0 -> 0.25
	out := StereoS16LEToMono([]byte{0x00, 0x40, 0x00, 0x00, 0xff})
	if len(out) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(out))
	}
	if out[0] != 0.25 {
		t.Errorf("expected 0.25, got %f", out[0])
	}
}

func TestFloat32ToS16LE_Clamps(t *testing.T) {
	out := S16LEToFloat32(Float32ToS16LE([]float32{1.5, -1.5, 0}))
	if math.Abs(float64(out[0])-1.0) > 1e-4 {
		t.Errorf("expected ~1.0 after clamp, got %f", out[0])
	}
	if math.Abs(float64(out[1])+1.0) > 1e-4 {
		t.Errorf("expected ~-1.0 after clamp, got %f", out[1])
	}
	if out[2] != 0 {
		t.Errorf("expected 0, got %f", out[2])
	}
}

func TestResample_Length(t *testing.T) {
	in := []float32{0, 1, 2, 3, 4}
	tests := []struct {
		n int
	}{{1}, {3}, {5}, {9}, {20}}
	for _, tt := range tests {
		out := Resample(in, tt.n)
		if len(out) != tt.n {
			t.Errorf("Resample(_, %d) returned %d samples", tt.n, len(out))
		}
	}
	if Resample(in, 0) != nil || Resample(nil, 4) != nil {
		t.Error("expected nil for empty input or zero length")
	}
}

func TestResample_LinearInterpolation(t *testing.T) {
	out := Resample([]float32{0, 1, 2}, 5)
	want := []float32{0, 0.5, 1, 1.5, 2}
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Errorf("index %d: got %f, want %f", i, out[i], want[i])
		}
	}
}

func TestConvertRate_PreservesDuration(t *testing.T) {
	p := Tone(440, time.Second, 24000)
	q := ConvertRate(p, 16000)
	if q.SampleRate != 16000 || len(q.Samples) != 16000 {
		t.Fatalf("got %d samples at %d Hz", len(q.Samples), q.SampleRate)
	}
	if q.Duration() != time.Second {
		t.Errorf("duration = %s, want 1s", q.Duration())
	}
	if same := ConvertRate(p, 24000); len(same.Samples) != len(p.Samples) {
		t.Error("same-rate conversion should be a no-op")
	}
}

func TestTone(t *testing.T) {
	p := Tone(220, 500*time.Millisecond, 16000)
	if len(p.Samples) != 8000 {
		t.Fatalf("expected 8000 samples, got %d", len(p.Samples))
	}
	if p.Duration() != 500*time.Millisecond {
		t.Errorf("duration = %s", p.Duration())
	}
}
