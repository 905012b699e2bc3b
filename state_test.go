package inferpipe

import "testing"

func TestLifecycleStateString(t *testing.T) {
	tests := []struct {
		state LifecycleState
		want  string
	}{
		{StateNull, "null"},
		{StateReady, "ready"},
		{StatePaused, "paused"},
		{StatePlaying, "playing"},
		{StateStopping, "stopping"},
		{StateError, "error"},
		{LifecycleState(99), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("%d.String() = %q, want %q", int(tc.state), got, tc.want)
		}
	}
}

func TestExpectedTransition(t *testing.T) {
	allowed := []struct{ old, new LifecycleState }{
		{StateNull, StateReady},
		{StateReady, StatePaused},
		{StateReady, StateNull},
		{StatePaused, StatePlaying},
		{StatePaused, StateReady},
		{StatePlaying, StatePaused},
	}
	for _, tc := range allowed {
		if !expectedTransition(tc.old, tc.new) {
			t.Errorf("%s -> %s should be expected", tc.old, tc.new)
		}
	}

	rejected := []struct{ old, new LifecycleState }{
		{StateNull, StatePlaying},
		{StateReady, StatePlaying},
		{StatePlaying, StateNull},
		{StateStopping, StatePlaying},
		{StateError, StateReady},
		{StateError, StateNull},
	}
	for _, tc := range rejected {
		if expectedTransition(tc.old, tc.new) {
			t.Errorf("%s -> %s should not be expected", tc.old, tc.new)
		}
	}
}
