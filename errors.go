package inferpipe

import (
	"fmt"
	"time"
)

// ConfigurationError reports invalid segment parameters. It is raised at
// segment construction time, before any engine resource is touched.
type ConfigurationError struct {
	// Stage is the stage category being configured ("source", "inference", ...)
	Stage string
	// Field is the offending configuration field
	Field string
	// Reason describes the violation
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("inferpipe: invalid %s configuration: %s: %s", e.Stage, e.Field, e.Reason)
}

// AssemblyError reports a structurally invalid pipeline composition, caught
// before launch. Stage names the offending segment or adjacency.
type AssemblyError struct {
	Stage  string
	Reason string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("inferpipe: cannot assemble pipeline: %s: %s", e.Stage, e.Reason)
}

// EngineError reports that the engine rejected a requested lifecycle
// transition or operation.
type EngineError struct {
	// Op is the rejected operation ("start", "drain", "attach", ...)
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("inferpipe: engine rejected %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// FatalStreamError reports an uncontrolled failure inside the engine or a
// stage, delivered as a bus error event while the pipeline was running.
// Detail carries the engine's error message unchanged.
type FatalStreamError struct {
	Detail string
	// Debug is the engine's additional debug string, may be empty
	Debug string
	// Category is the telemetry classification of the failure
	Category ErrorCategory
}

func (e *FatalStreamError) Error() string {
	return fmt.Sprintf("inferpipe: fatal stream error [%s]: %s", e.Category, e.Detail)
}

// TimeoutError reports that a bounded wait expired. Stop returns it when the
// drain exceeded its bound and teardown was forced.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("inferpipe: %s exceeded %s bound, teardown forced", e.Op, e.Timeout)
}
