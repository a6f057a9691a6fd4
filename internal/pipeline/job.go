package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/iabetor/duotts/internal/audio"
	"github.com/iabetor/duotts/internal/script"
	"github.com/iabetor/duotts/internal/tts"
	"github.com/iabetor/duotts/internal/voice"
)

// SpeechJob 是一次合成请求在各阶段之间传递的全部状态，由单个 Run 调用独占。
type SpeechJob struct {
	ID    string
	Text  string
	Speed voice.Level
	Voice voice.Hint

	Class    script.Class
	Runs     []script.TextRun
	Requests []tts.Request
	Clips    []audio.Clip
	Final    audio.Clip

	state   *StateMachine
	started time.Time
}

func newJob(text string, speed voice.Level, hint voice.Hint) *SpeechJob {
	id := uuid.NewString()
	return &SpeechJob{
		ID:      id,
		Text:    text,
		Speed:   speed,
		Voice:   hint,
		state:   NewStateMachine(id),
		started: time.Now(),
	}
}

// State 返回任务当前阶段。
func (j *SpeechJob) State() State {
	return j.state.Current()
}

// preview 截取前 n 个字符用于日志。
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
