package pipeline

import "testing"

func TestNewStateMachine_InitialStateIsReceived(t *testing.T) {
	sm := NewStateMachine("job")
	if sm.Current() != StateReceived {
		t.Fatalf("expected initial state Received, got %s", sm.Current())
	}
}

// fullPath 是经过所有可选阶段的最长合法路径。
var fullPath = []State{
	StateReceived, StateClassified, StateSegmented, StateSynthesizing,
	StateAssembling, StateSpeedAdjusting, StateComplete,
}

func TestStateMachine_ValidTransitions(t *testing.T) {
	tests := []struct {
		from, to State
	}{
		{StateReceived, StateClassified},
		{StateClassified, StateSegmented},
		{StateClassified, StateSynthesizing},
		{StateSegmented, StateSynthesizing},
		{StateSynthesizing, StateAssembling},
		{StateSynthesizing, StateSpeedAdjusting},
		{StateSynthesizing, StateComplete},
		{StateAssembling, StateSpeedAdjusting},
		{StateAssembling, StateComplete},
		{StateSpeedAdjusting, StateComplete},
	}

	for _, tt := range tests {
		sm := NewStateMachine("job")
		advanceTo(t, sm, tt.from)

		if !sm.Transition(tt.to) {
			t.Errorf("transition %s → %s should be valid", tt.from, tt.to)
		}
		if sm.Current() != tt.to {
			t.Errorf("expected state %s, got %s", tt.to, sm.Current())
		}
	}
}

func TestStateMachine_InvalidTransitions(t *testing.T) {
	tests := []struct {
		from, to State
	}{
		{StateReceived, StateSynthesizing},
		{StateReceived, StateComplete},
		{StateClassified, StateAssembling},
		{StateSegmented, StateSegmented},
		{StateSynthesizing, StateClassified},
		{StateAssembling, StateSynthesizing},
		{StateSpeedAdjusting, StateAssembling},
		{StateComplete, StateFailed},
		{StateComplete, StateReceived},
	}

	for _, tt := range tests {
		sm := NewStateMachine("job")
		advanceTo(t, sm, tt.from)

		if sm.Transition(tt.to) {
			t.Errorf("transition %s → %s should be invalid", tt.from, tt.to)
		}
		if sm.Current() != tt.from {
			t.Errorf("state should remain %s after invalid transition, got %s", tt.from, sm.Current())
		}
	}
}

func TestStateMachine_AnyNonTerminalToFailed(t *testing.T) {
	for _, s := range fullPath[:len(fullPath)-1] {
		sm := NewStateMachine("job")
		advanceTo(t, sm, s)

		if !sm.Transition(StateFailed) {
			t.Errorf("transition %s → Failed should be valid", s)
		}
		if sm.Transition(StateComplete) {
			t.Errorf("Failed should be terminal (from %s)", s)
		}
	}
}

func TestStateMachine_OnChangeCallback(t *testing.T) {
	sm := NewStateMachine("job")

	var calledFrom, calledTo State
	callCount := 0
	sm.SetOnChange(func(from, to State) {
		calledFrom = from
		calledTo = to
		callCount++
	})

	sm.Transition(StateClassified)
	sm.Transition(StateComplete) // 非法
	if callCount != 1 {
		t.Fatalf("expected onChange called once, got %d", callCount)
	}
	if calledFrom != StateReceived || calledTo != StateClassified {
		t.Errorf("expected callback with Received→Classified, got %s→%s", calledFrom, calledTo)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateReceived, "Received"},
		{StateSegmented, "Segmented"},
		{StateSpeedAdjusting, "SpeedAdjusting"},
		{StateFailed, "Failed"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

// advanceTo 沿 fullPath 把状态机推进到 target。
func advanceTo(t *testing.T, sm *StateMachine, target State) {
	t.Helper()
	for _, s := range fullPath[1:] {
		if sm.Current() == target {
			return
		}
		if !sm.Transition(s) {
			t.Fatalf("failed to advance to %s", s)
		}
	}
	if sm.Current() != target {
		t.Fatalf("could not reach %s", target)
	}
}
