package inferpipe

// LifecycleState is the controller-owned pipeline lifecycle state.
//
// Forward progression is Null → Ready → Paused → Playing. Stopping is a
// transient drain state reached from Paused or Playing; it always resolves
// to Null (clean teardown) or Error. Error is terminal for the run.
type LifecycleState int

const (
	// StateNull is the initial and final state; no engine resources are live
	StateNull LifecycleState = iota
	// StateReady means the engine pipeline is constructed and resources allocated
	StateReady
	// StatePaused means the pipeline is prerolled but not processing
	StatePaused
	// StatePlaying means buffers are flowing
	StatePlaying
	// StateStopping is the transient drain state during teardown
	StateStopping
	// StateError is terminal; the run must be rebuilt to start again
	StateError
)

// String returns a human-readable state name.
func (s LifecycleState) String() string {
	switch s {
	case StateNull:
		return "null"
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	case StateStopping:
		return "stopping"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// expectedTransition reports whether old → new is a transition the
// controller may legitimately observe on the bus. Anything else is logged
// as unexpected without failing the run.
func expectedTransition(old, new LifecycleState) bool {
	switch old {
	case StateNull:
		return new == StateReady
	case StateReady:
		return new == StatePaused || new == StateNull
	case StatePaused:
		return new == StatePlaying || new == StateReady
	case StatePlaying:
		return new == StatePaused
	default:
		return false
	}
}
