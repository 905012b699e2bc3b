package inferpipe

import "time"

// BusEvent is a message consumed from the engine's asynchronous bus. It is a
// closed tagged union: the variants below are the only implementations, so
// dispatch over them is exhaustive and a new engine event kind is a
// compile-time-visible change.
type BusEvent interface {
	busEvent()
}

// ErrorEvent is a fatal error reported by the engine or a stage. Detail is
// the engine's message; Debug carries additional diagnostic text.
type ErrorEvent struct {
	Detail string
	Debug  string
}

// EOSEvent signals end of stream.
type EOSEvent struct{}

// StateChangedEvent reports a lifecycle state transition observed on the bus.
// Source names the emitting element; only pipeline-level transitions drive
// the controller's state tracking.
type StateChangedEvent struct {
	Old    LifecycleState
	New    LifecycleState
	Source string
}

// WarningEvent is a non-fatal condition reported by the engine. Logged only.
type WarningEvent struct {
	Detail string
}

// CustomEvent is any other bus message, identified by its engine tag.
type CustomEvent struct {
	Tag    string
	Detail string
}

func (ErrorEvent) busEvent()        {}
func (EOSEvent) busEvent()          {}
func (StateChangedEvent) busEvent() {}
func (WarningEvent) busEvent()      {}
func (CustomEvent) busEvent()       {}

// Buffer is the handle passed to the user callback for every buffer observed
// at the attach point. Data is a copy of the raw frame bytes; the engine's
// own buffer is returned to its pool immediately after delivery.
type Buffer struct {
	Data      []byte
	Width     int
	Height    int
	Timestamp time.Time
	// TraceID uniquely identifies the buffer for log correlation
	TraceID string
}

// BufferFunc is the attach-point delivery function the controller installs
// on the engine pipeline.
type BufferFunc func(Buffer)

// Engine is the narrow interface over the streaming-media engine: submit a
// description, get back a pipeline handle. The engine's internal worker
// threads and hardware queues are opaque to this layer.
type Engine interface {
	// Build constructs an engine pipeline from the description, in the
	// Null state. It fails if any stage reference cannot be resolved.
	Build(desc PipelineDescription) (EnginePipeline, error)
}

// EnginePipeline is one constructed engine pipeline, exclusively owned by a
// single controller for its lifetime.
type EnginePipeline interface {
	// SetState requests a lifecycle transition. Only Null, Ready, Paused
	// and Playing are requestable; Stopping and Error are controller-side
	// states.
	SetState(target LifecycleState) error

	// NextEvent blocks up to timeout for the next bus event. The second
	// return is false when the wait timed out with no event pending.
	NextEvent(timeout time.Duration) (BusEvent, bool)

	// InstallBufferHook arranges for deliver to be called once per buffer
	// arriving at the attach point, on the engine's delivery context.
	// Fails if the description contains no attach point.
	InstallBufferHook(deliver BufferFunc) error

	// Close releases the pipeline's engine resources. Safe to call more
	// than once.
	Close() error
}

// BufferCallback is the per-buffer hook supplied by the application. It is
// invoked once per buffer observed at the attach point, in arrival order,
// synchronously on the engine's delivery context; a callback that blocks
// stalls the pipeline.
type BufferCallback interface {
	HandleBuffer(buf Buffer, cctx *CallbackContext)
}

// BufferCallbackFunc adapts a plain function to the BufferCallback interface.
type BufferCallbackFunc func(Buffer, *CallbackContext)

// HandleBuffer calls f(buf, cctx).
func (f BufferCallbackFunc) HandleBuffer(buf Buffer, cctx *CallbackContext) {
	f(buf, cctx)
}
