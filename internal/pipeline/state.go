package pipeline

import (
	"sync"

	"github.com/iabetor/duotts/internal/logger"
)

// State 表示合成任务所处的阶段。
type State int

const (
	// StateReceived：已收到请求，尚未分类。
	StateReceived State = iota
	// StateClassified：已确定文字体系。
	StateClassified
	// StateSegmented：混合文本已切分为片段。
	StateSegmented
	// StateSynthesizing：正在调用合成引擎。
	StateSynthesizing
	// StateAssembling：正在拼接多个片段。
	StateAssembling
	// StateSpeedAdjusting：正在变速。
	StateSpeedAdjusting
	// StateComplete：成品已写出。
	StateComplete
	// StateFailed：任务失败。
	StateFailed
)

var stateNames = [...]string{
	"Received",
	"Classified",
	"Segmented",
	"Synthesizing",
	"Assembling",
	"SpeedAdjusting",
	"Complete",
	"Failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Terminal 报告是否为终止状态。
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// StateMachine 管理单个任务的状态转换，可被并发读取。
type StateMachine struct {
	mu       sync.RWMutex
	jobID    string
	current  State
	onChange func(from, to State)
}

// NewStateMachine 创建一个初始状态为 Received 的状态机。
func NewStateMachine(jobID string) *StateMachine {
	return &StateMachine{
		jobID:   jobID,
		current: StateReceived,
	}
}

// SetOnChange 注册状态变化时的回调函数。
func (sm *StateMachine) SetOnChange(fn func(from, to State)) {
	sm.mu.Lock()
	sm.onChange = fn
	sm.mu.Unlock()
}

// Current 返回当前状态。
func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// Transition 尝试切换状态。只有合法的转换才会生效：
//
//	Received       → Classified
//	Classified     → Segmented | Synthesizing
//	Segmented      → Synthesizing
//	Synthesizing   → Assembling | SpeedAdjusting | Complete
//	Assembling     → SpeedAdjusting | Complete
//	SpeedAdjusting → Complete
//
// 任何非终止状态都可以转换到 Failed；终止状态不再变化。
func (sm *StateMachine) Transition(to State) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !validTransition(sm.current, to) {
		logger.Warnf("[state] 任务 %s 非法转换 %s → %s", sm.jobID, sm.current, to)
		return false
	}

	from := sm.current
	sm.current = to
	logger.Debugf("[state] 任务 %s: %s → %s", sm.jobID, from, to)

	if sm.onChange != nil {
		sm.onChange(from, to)
	}
	return true
}

// validTransition 检查状态转换是否合法。
func validTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	switch from {
	case StateReceived:
		return to == StateClassified
	case StateClassified:
		return to == StateSegmented || to == StateSynthesizing
	case StateSegmented:
		return to == StateSynthesizing
	case StateSynthesizing:
		return to == StateAssembling || to == StateSpeedAdjusting || to == StateComplete
	case StateAssembling:
		return to == StateSpeedAdjusting || to == StateComplete
	case StateSpeedAdjusting:
		return to == StateComplete
	}
	return false
}
