// Package gstengine adapts GStreamer, through the go-gst bindings, to the
// narrow engine interface the lifecycle controller consumes. The engine's
// internal worker threads and hardware queues stay opaque behind it.
package gstengine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"

	inferpipe "github.com/e7canasta/inference-pipeline"
)

// Engine builds GStreamer pipelines from assembled descriptions.
type Engine struct {
	log *slog.Logger
}

// New initializes GStreamer (safe to call multiple times) and returns an
// engine handle. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	gst.Init(nil)
	return &Engine{log: logger}
}

// Available verifies the GStreamer runtime is installed and usable by
// constructing a throwaway element. Fail-fast check for constructors.
func Available() error {
	gst.Init(nil)
	elem, err := gst.NewElement("fakesrc")
	if err != nil {
		return fmt.Errorf("gstreamer not available or not properly installed: %w", err)
	}
	_ = elem.SetState(gst.StateNull)
	return nil
}

// Build parses the description into a pipeline, left in the Null state.
// Unresolvable stage names surface here, before any resource is started.
func (e *Engine) Build(desc inferpipe.PipelineDescription) (inferpipe.EnginePipeline, error) {
	p, err := gst.NewPipelineFromString(desc.String())
	if err != nil {
		return nil, fmt.Errorf("parse pipeline description: %w", err)
	}
	e.log.Debug("gstengine: pipeline parsed", "pipeline", p.GetName())
	return &pipeline{log: e.log, p: p, bus: p.GetPipelineBus()}, nil
}

type pipeline struct {
	log *slog.Logger
	p   *gst.Pipeline
	bus *gst.Bus

	hookWidth  int
	hookHeight int
}

var stateToGst = map[inferpipe.LifecycleState]gst.State{
	inferpipe.StateNull:    gst.StateNull,
	inferpipe.StateReady:   gst.StateReady,
	inferpipe.StatePaused:  gst.StatePaused,
	inferpipe.StatePlaying: gst.StatePlaying,
}

func fromGstState(s gst.State) inferpipe.LifecycleState {
	switch s {
	case gst.StateReady:
		return inferpipe.StateReady
	case gst.StatePaused:
		return inferpipe.StatePaused
	case gst.StatePlaying:
		return inferpipe.StatePlaying
	default:
		return inferpipe.StateNull
	}
}

func (pl *pipeline) SetState(target inferpipe.LifecycleState) error {
	gs, ok := stateToGst[target]
	if !ok {
		return fmt.Errorf("%s is not a requestable engine state", target)
	}
	if err := pl.p.SetState(gs); err != nil {
		return fmt.Errorf("set state %s: %w", target, err)
	}
	return nil
}

// NextEvent pops the next bus message within timeout and translates it into
// the event union. Element-level state changes are filtered out; only the
// pipeline's own transitions matter to the controller.
func (pl *pipeline) NextEvent(timeout time.Duration) (inferpipe.BusEvent, bool) {
	msg := pl.bus.TimedPop(timeout)
	if msg == nil {
		return nil, false
	}

	switch msg.Type() {
	case gst.MessageError:
		gerr := msg.ParseError()
		return inferpipe.ErrorEvent{Detail: gerr.Error(), Debug: gerr.DebugString()}, true

	case gst.MessageEOS:
		return inferpipe.EOSEvent{}, true

	case gst.MessageStateChanged:
		if msg.Source() != pl.p.GetName() {
			return nil, false
		}
		old, next := msg.ParseStateChanged()
		return inferpipe.StateChangedEvent{
			Old:    fromGstState(old),
			New:    fromGstState(next),
			Source: msg.Source(),
		}, true

	case gst.MessageWarning:
		return inferpipe.WarningEvent{Detail: msg.String()}, true

	default:
		return inferpipe.CustomEvent{Tag: messageTag(msg.Type()), Detail: msg.String()}, true
	}
}

func messageTag(t gst.MessageType) string {
	switch t {
	case gst.MessageElement:
		return "element"
	case gst.MessageTag:
		return "tag"
	case gst.MessageBuffering:
		return "buffering"
	case gst.MessageStreamStart:
		return "stream-start"
	case gst.MessageAsyncDone:
		return "async-done"
	default:
		return fmt.Sprintf("message-%d", int(t))
	}
}

// InstallBufferHook locates the attach-point identity element and installs a
// buffer probe on its source pad. Each buffer is mapped, copied and handed
// to deliver; the engine's buffer is unmapped before delivery returns
// upstream, so the engine may recycle it freely.
func (pl *pipeline) InstallBufferHook(deliver inferpipe.BufferFunc) error {
	elem, err := pl.p.GetElementByName(inferpipe.HookElementName)
	if err != nil || elem == nil {
		return fmt.Errorf("attach point %q not found in pipeline", inferpipe.HookElementName)
	}

	srcPad := elem.GetStaticPad("src")
	if srcPad == nil {
		return fmt.Errorf("attach point %q has no src pad", inferpipe.HookElementName)
	}

	srcPad.AddProbe(gst.PadProbeTypeBuffer, func(pad *gst.Pad, info *gst.PadProbeInfo) gst.PadProbeReturn {
		buffer := info.GetBuffer()
		if buffer == nil {
			return gst.PadProbeOK
		}

		mapInfo := buffer.Map(gst.MapRead)
		data := mapInfo.Bytes()
		if len(data) == 0 {
			buffer.Unmap()
			pl.log.Warn("gstengine: empty buffer at attach point, skipping")
			return gst.PadProbeOK
		}
		frameData := make([]byte, len(data))
		copy(frameData, data)
		buffer.Unmap()

		if pl.hookWidth == 0 {
			pl.hookWidth, pl.hookHeight = padDimensions(pad)
		}

		deliver(inferpipe.Buffer{
			Data:      frameData,
			Width:     pl.hookWidth,
			Height:    pl.hookHeight,
			Timestamp: time.Now(),
			TraceID:   uuid.New().String(),
		})
		return gst.PadProbeOK
	})

	pl.log.Debug("gstengine: buffer hook installed", "element", inferpipe.HookElementName)
	return nil
}

// padDimensions reads width/height from the pad's negotiated caps. Returns
// zeros until caps are negotiated.
func padDimensions(pad *gst.Pad) (int, int) {
	caps := pad.GetCurrentCaps()
	if caps == nil {
		return 0, 0
	}
	structure := caps.GetStructureAt(0)
	if structure == nil {
		return 0, 0
	}
	w, err := structure.GetValue("width")
	if err != nil {
		return 0, 0
	}
	h, err := structure.GetValue("height")
	if err != nil {
		return 0, 0
	}
	width, _ := w.(int)
	height, _ := h.(int)
	return width, height
}

// Close drives the pipeline to Null, releasing all engine resources. Safe to
// call more than once.
func (pl *pipeline) Close() error {
	if pl.p == nil {
		return nil
	}
	if err := pl.p.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("release pipeline: %w", err)
	}
	return nil
}
