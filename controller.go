package inferpipe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/e7canasta/inference-pipeline/internal/metrics"
)

const (
	// DefaultEventPollTimeout is the bus poll interval of the event loop.
	// Short enough for responsive shutdown, long enough to stay cheap.
	DefaultEventPollTimeout = 50 * time.Millisecond

	// DefaultDrainTimeout bounds how long Stop waits for a clean drain
	// before forcing teardown.
	DefaultDrainTimeout = 3 * time.Second

	// fpsWindow is how many recent buffer timestamps are retained for
	// delivery-rate statistics.
	fpsWindow = 240
)

// ControllerConfig configures one pipeline run.
type ControllerConfig struct {
	// Engine builds the underlying pipeline (required)
	Engine Engine
	// Description is the assembled pipeline description (required)
	Description PipelineDescription
	// Callback is invoked once per buffer at the attach point. Optional;
	// when nil no hook is installed.
	Callback BufferCallback
	// UserData seeds the CallbackContext extension slot
	UserData any
	// Logger is the injected log handle. Defaults to slog.Default().
	Logger *slog.Logger
	// EventPollTimeout overrides DefaultEventPollTimeout
	EventPollTimeout time.Duration
	// DrainTimeout overrides DefaultDrainTimeout
	DrainTimeout time.Duration
	// Metrics receives run instruments. Optional.
	Metrics *metrics.Metrics
}

// Controller owns one engine pipeline run: it drives the lifecycle forward,
// consumes the bus, delivers buffers to the user callback and tears the run
// down. One Controller manages exactly one run; to start again after the run
// ends, assemble a description and build a new Controller.
//
// The event loop goroutine is the single writer of the lifecycle state while
// the run is active. Stop is safe to call concurrently with the loop,
// including from a signal handler.
type Controller struct {
	log  *slog.Logger
	pipe EnginePipeline
	cb   BufferCallback
	cctx *CallbackContext
	met  *metrics.Metrics

	pollTimeout  time.Duration
	drainTimeout time.Duration
	runID        string

	mu      sync.Mutex
	state   LifecycleState
	started time.Time

	// deliverMu serializes attach-point deliveries through a single path,
	// so callback order matches buffer arrival order and the frame counter
	// never skips or duplicates.
	deliverMu  sync.Mutex
	frameTimes []time.Time

	stopRequested atomic.Bool
	loopStarted   atomic.Bool
	loopDone      chan struct{}

	busErrors   atomic.Uint64
	busWarnings atomic.Uint64
}

// NewController validates the configuration, constructs the engine pipeline
// in the Null state and installs the attach-point hook.
//
// Returns an *AssemblyError if the engine rejects the description (for
// example an unresolvable stage name), or an *EngineError if the hook cannot
// be installed. No engine resource is leaked on any failure path.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("inferpipe: engine is required")
	}
	if cfg.Description.Empty() {
		return nil, fmt.Errorf("inferpipe: pipeline description is required")
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	pollTimeout := cfg.EventPollTimeout
	if pollTimeout <= 0 {
		pollTimeout = DefaultEventPollTimeout
	}
	drainTimeout := cfg.DrainTimeout
	if drainTimeout <= 0 {
		drainTimeout = DefaultDrainTimeout
	}

	pipe, err := cfg.Engine.Build(cfg.Description)
	if err != nil {
		return nil, &AssemblyError{Stage: "pipeline", Reason: err.Error()}
	}

	c := &Controller{
		log:          log,
		pipe:         pipe,
		cb:           cfg.Callback,
		cctx:         newCallbackContext(cfg.UserData),
		met:          cfg.Metrics,
		pollTimeout:  pollTimeout,
		drainTimeout: drainTimeout,
		runID:        uuid.New().String(),
		state:        StateNull,
		loopDone:     make(chan struct{}),
	}

	if c.cb != nil {
		if err := pipe.InstallBufferHook(c.deliver); err != nil {
			_ = pipe.Close()
			return nil, &EngineError{Op: "attach", Err: err}
		}
	}

	log.Info("inferpipe: pipeline built",
		"run_id", c.runID,
		"callback", c.cb != nil,
	)
	return c, nil
}

// Context returns the run's callback context.
func (c *Controller) Context() *CallbackContext { return c.cctx }

// State returns the current lifecycle state.
func (c *Controller) State() LifecycleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s LifecycleState) {
	c.mu.Lock()
	old := c.state
	c.state = s
	c.mu.Unlock()

	if c.met != nil {
		c.met.StateTransitions.WithLabelValues(s.String()).Inc()
	}
	c.log.Debug("inferpipe: lifecycle transition",
		"run_id", c.runID,
		"from", old,
		"to", s,
	)
}

// Start drives the pipeline Null -> Ready -> Paused -> Playing, blocking
// only long enough to hand each transition to the engine. It does not wait
// for the run to finish; call RunEventLoop for that.
//
// A rejected transition returns an *EngineError, releases the engine
// pipeline and leaves the controller in the Error state.
func (c *Controller) Start() error {
	if s := c.State(); s != StateNull {
		return fmt.Errorf("inferpipe: cannot start from %s, build a new pipeline", s)
	}

	for _, target := range []LifecycleState{StateReady, StatePaused, StatePlaying} {
		if err := c.pipe.SetState(target); err != nil {
			c.setState(StateError)
			_ = c.pipe.Close()
			return &EngineError{Op: "start", Err: err}
		}
		c.setState(target)
	}

	c.mu.Lock()
	c.started = time.Now()
	c.mu.Unlock()

	c.log.Info("inferpipe: pipeline playing", "run_id", c.runID)
	return nil
}

// RunEventLoop consumes the engine bus until the run ends. It is the single
// authority for lifecycle state mutation while running.
//
// Returns nil after a clean end of stream or a requested stop, ctx.Err()
// after context cancellation (the pipeline is still drained to Null first),
// a *FatalStreamError when the engine reports a fatal error, or an
// *EngineError if teardown itself fails.
func (c *Controller) RunEventLoop(ctx context.Context) error {
	if !c.loopStarted.CompareAndSwap(false, true) {
		return fmt.Errorf("inferpipe: event loop already started for this run")
	}
	defer close(c.loopDone)

	c.log.Debug("inferpipe: event loop running", "run_id", c.runID)

	for {
		select {
		case <-ctx.Done():
			c.log.Info("inferpipe: context cancelled, draining pipeline", "run_id", c.runID)
			if err := c.drainToNull(); err != nil {
				return err
			}
			return ctx.Err()
		default:
		}

		if c.stopRequested.Load() {
			c.log.Info("inferpipe: stop requested, draining pipeline", "run_id", c.runID)
			return c.drainToNull()
		}

		ev, ok := c.pipe.NextEvent(c.pollTimeout)
		if !ok {
			continue
		}

		switch ev := ev.(type) {
		case ErrorEvent:
			c.busErrors.Add(1)
			if c.met != nil {
				c.met.BusErrors.Inc()
			}
			category := ClassifyEngineError(ev.Detail, ev.Debug)
			c.log.Error("inferpipe: fatal pipeline error",
				"run_id", c.runID,
				"error", ev.Detail,
				"debug", ev.Debug,
				"category", category.String(),
				"frames_processed", c.cctx.Count(),
			)
			c.setState(StateError)
			_ = c.pipe.Close()
			return &FatalStreamError{Detail: ev.Detail, Debug: ev.Debug, Category: category}

		case EOSEvent:
			c.log.Info("inferpipe: end of stream",
				"run_id", c.runID,
				"frames_processed", c.cctx.Count(),
			)
			return c.drainToNull()

		case StateChangedEvent:
			c.observeStateChange(ev)

		case WarningEvent:
			c.busWarnings.Add(1)
			if c.met != nil {
				c.met.BusWarnings.Inc()
			}
			c.log.Warn("inferpipe: pipeline warning", "run_id", c.runID, "detail", ev.Detail)

		case CustomEvent:
			if ev.Tag == "element" {
				// Periodic statistics from measurement elements
				// (fpsdisplaysink and friends) arrive as element
				// messages.
				c.log.Debug("inferpipe: statistics event", "run_id", c.runID, "detail", ev.Detail)
			} else {
				c.log.Debug("inferpipe: unhandled bus event", "run_id", c.runID, "tag", ev.Tag)
			}
		}
	}
}

// observeStateChange reconciles a bus-reported transition with the tracked
// state. Expected transitions update the state; anything else is logged as a
// warning without failing the run.
func (c *Controller) observeStateChange(ev StateChangedEvent) {
	cur := c.State()
	switch {
	case ev.New == cur:
		c.log.Debug("inferpipe: state change confirmed",
			"run_id", c.runID,
			"from", ev.Old,
			"to", ev.New,
			"source", ev.Source,
		)
	case expectedTransition(cur, ev.New):
		c.setState(ev.New)
	default:
		c.log.Warn("inferpipe: unexpected state transition",
			"run_id", c.runID,
			"from", ev.Old,
			"to", ev.New,
			"source", ev.Source,
			"tracked", cur,
		)
	}
}

// drainToNull performs the Stopping -> Null teardown and releases the engine
// pipeline.
func (c *Controller) drainToNull() error {
	c.setState(StateStopping)
	if err := c.pipe.SetState(StateNull); err != nil {
		c.setState(StateError)
		_ = c.pipe.Close()
		return &EngineError{Op: "drain", Err: err}
	}
	_ = c.pipe.Close()
	c.setState(StateNull)
	c.log.Info("inferpipe: pipeline stopped",
		"run_id", c.runID,
		"frames_processed", c.cctx.Count(),
	)
	return nil
}

// Stop requests teardown and waits for the event loop to drain, up to the
// configured drain timeout; past that it forces the pipeline to Null and
// returns a *TimeoutError. Safe to call from any goroutine, including a
// signal handler, and idempotent: calling Stop when the run already ended
// in Null or Error is a no-op.
func (c *Controller) Stop() error {
	switch c.State() {
	case StateNull, StateError:
		return nil
	}

	c.stopRequested.Store(true)

	if c.loopStarted.Load() {
		select {
		case <-c.loopDone:
			if s := c.State(); s == StateNull || s == StateError {
				return nil
			}
		case <-time.After(c.drainTimeout):
		}

		// Forced path: the loop did not complete the drain in time.
		c.log.Warn("inferpipe: drain bound exceeded, forcing teardown",
			"run_id", c.runID,
			"timeout", c.drainTimeout,
		)
		_ = c.pipe.SetState(StateNull)
		_ = c.pipe.Close()
		c.setState(StateNull)
		return &TimeoutError{Op: "stop", Timeout: c.drainTimeout}
	}

	// No event loop is running to observe the request; tear down inline.
	return c.drainToNull()
}

// deliver is the single attach-point delivery path. It runs synchronously on
// the engine's delivery context: the callback sees the current frame index,
// then the counter advances. A callback that blocks stalls the pipeline;
// that is deliberate and documented rather than worked around.
func (c *Controller) deliver(buf Buffer) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.cb.HandleBuffer(buf, c.cctx)
	c.cctx.advance()

	if c.met != nil {
		c.met.FramesProcessed.Inc()
	}
	c.frameTimes = append(c.frameTimes, buf.Timestamp)
	if len(c.frameTimes) > fpsWindow {
		c.frameTimes = c.frameTimes[len(c.frameTimes)-fpsWindow:]
	}
}

// Stats returns a snapshot of the run. Thread-safe.
func (c *Controller) Stats() RunStats {
	c.mu.Lock()
	state := c.state
	started := c.started
	c.mu.Unlock()

	var uptime time.Duration
	if !started.IsZero() {
		uptime = time.Since(started)
	}

	c.deliverMu.Lock()
	times := make([]time.Time, len(c.frameTimes))
	copy(times, c.frameTimes)
	c.deliverMu.Unlock()

	var fps FPSStats
	if len(times) >= 2 {
		fps = CalculateFPSStats(times, times[len(times)-1].Sub(times[0]))
	}

	return RunStats{
		State:           state,
		FramesProcessed: c.cctx.Count(),
		Uptime:          uptime,
		BusErrors:       c.busErrors.Load(),
		BusWarnings:     c.busWarnings.Load(),
		FPS:             fps,
	}
}
