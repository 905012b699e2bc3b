// Package inferpipe builds and runs hardware-accelerated inference video
// pipelines on top of GStreamer and the Hailo plugin elements.
//
// The package has three layers: pure segment constructors that emit
// validated pipeline-description fragments, an assembler that links them
// into one complete description, and a lifecycle controller that owns the
// run: state transitions, bus consumption, per-buffer callback delivery
// and teardown.
//
// # Quick Start
//
// Compose a detection pipeline and receive one callback per frame:
//
//	source, _ := inferpipe.SourceSegment(inferpipe.SourceConfig{
//	    Kind:       inferpipe.SourceCamera,
//	    Location:   "/dev/video0",
//	    Resolution: inferpipe.Resolution{Width: 1280, Height: 720},
//	    Framerate:  30,
//	})
//	infer, _ := inferpipe.InferenceSegment(inferpipe.InferenceConfig{
//	    Arch:      inferpipe.ArchHailo8,
//	    ModelPath: "/usr/share/models/yolov8s.hef",
//	    BatchSize: 2,
//	})
//	display, _ := inferpipe.DisplaySegment(inferpipe.DisplayConfig{Sink: inferpipe.SinkAuto})
//
//	desc, err := inferpipe.Assemble([]inferpipe.StageSegment{
//	    source, infer, inferpipe.HookSegment(), inferpipe.OverlaySegment(), display,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctrl, err := inferpipe.NewController(inferpipe.ControllerConfig{
//	    Engine:      gstengine.New(logger),
//	    Description: desc,
//	    Callback: inferpipe.BufferCallbackFunc(func(buf inferpipe.Buffer, cctx *inferpipe.CallbackContext) {
//	        // cctx.Count() is this buffer's zero-indexed frame number.
//	    }),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := ctrl.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	err = ctrl.RunEventLoop(ctx) // blocks until EOS, stop or fatal error
//
// # Frame Counting
//
// The CallbackContext threads a monotonically increasing frame index through
// every callback invocation. The controller advances it exactly once per
// invocation, after the invocation returns: during invocation N the callback
// observes Count() == N, with no gaps and no duplicates. Callbacks must not
// attempt their own counting; the increment capability is not exported.
//
// # Lifecycle
//
// A controller drives exactly one run: Null → Ready → Paused → Playing via
// Start, then RunEventLoop consumes the engine bus until end of stream
// (clean return), a requested Stop, or a fatal stream error (the error event
// detail is surfaced unchanged). After the run ends in Null or Error the
// controller is spent; assemble a description and build a new controller to
// start again. Stop is idempotent, safe from signal handlers, and bounded:
// if the drain exceeds its timeout, teardown is forced and a *TimeoutError
// is returned rather than hanging.
//
// # Error Taxonomy
//
//   - *ConfigurationError: bad segment parameters, raised before any engine
//     resource is touched
//   - *AssemblyError: structurally invalid composition, raised before launch
//   - *EngineError: the engine rejected a lifecycle transition
//   - *FatalStreamError: uncontrolled failure on the bus while running
//   - *TimeoutError: the stop drain exceeded its bound and was forced
//
// # Profiles
//
// Linear pipelines can be declared in YAML and loaded with LoadProfile;
// decoding is strict and unrecognized keys are rejected. Cascaded
// cropper/aggregator and tiled topologies are composed programmatically.
//
// # Requirements
//
// Running real pipelines needs the GStreamer 1.0 runtime and, for inference
// stages, the Hailo GStreamer plugins and a device. Everything up to and
// including Assemble is pure string construction and runs anywhere; the
// controller is exercised against any Engine implementation, which is how
// the package tests run without hardware.
package inferpipe
