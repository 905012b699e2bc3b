package inferpipe

import (
	"fmt"
	"strings"
)

// StageKind is the category of a pipeline stage segment.
type StageKind int

const (
	// StageSource is a capture entry stage
	StageSource StageKind = iota
	// StageInference is a hardware inference stage
	StageInference
	// StageTracker is an object tracking stage
	StageTracker
	// StageOverlay draws inference results onto frames
	StageOverlay
	// StageCropper opens a cascaded or tiled branch
	StageCropper
	// StageAggregator closes a cropper branch
	StageAggregator
	// StageHook is the attach point for the per-buffer user callback
	StageHook
	// StageSink is a terminal display/output stage
	StageSink
)

// String returns the stage category name.
func (k StageKind) String() string {
	switch k {
	case StageSource:
		return "source"
	case StageInference:
		return "inference"
	case StageTracker:
		return "tracker"
	case StageOverlay:
		return "overlay"
	case StageCropper:
		return "cropper"
	case StageAggregator:
		return "aggregator"
	case StageHook:
		return "hook"
	case StageSink:
		return "sink"
	default:
		return "unknown"
	}
}

// HookElementName is the engine element name of the callback attach point.
// The controller locates this element to install the per-buffer hook.
const HookElementName = "identity_callback"

// StageSegment is a named, validated pipeline-description fragment produced
// by one of the segment constructors. Segments are value types; once built
// they are never mutated.
type StageSegment struct {
	// Kind is the stage category
	Kind StageKind
	// Name is the unique stage name, embedded in the emitted fragment
	Name string

	fragment string
	// closes names the cropper this aggregator closes; empty otherwise
	closes string
}

// Fragment returns the raw pipeline-description fragment for the segment.
func (s StageSegment) Fragment() string { return s.fragment }

// SourceSegment builds a capture source segment. Frames are decoded, scaled
// to the configured resolution and converted to raw RGB before leaving the
// segment, so downstream stages see one uniform format.
func SourceSegment(cfg SourceConfig) (StageSegment, error) {
	if !cfg.Kind.Valid() {
		return StageSegment{}, &ConfigurationError{Stage: "source", Field: "kind", Reason: fmt.Sprintf("unrecognized source kind %q", cfg.Kind)}
	}
	if cfg.Kind != SourceTest && cfg.Location == "" {
		return StageSegment{}, &ConfigurationError{Stage: "source", Field: "location", Reason: fmt.Sprintf("required for %s sources", cfg.Kind)}
	}
	if !cfg.Resolution.Valid() {
		return StageSegment{}, &ConfigurationError{Stage: "source", Field: "resolution", Reason: fmt.Sprintf("invalid resolution %s", cfg.Resolution)}
	}
	if cfg.Framerate < 0 {
		return StageSegment{}, &ConfigurationError{Stage: "source", Field: "framerate", Reason: fmt.Sprintf("must not be negative, got %d", cfg.Framerate)}
	}

	caps := fmt.Sprintf("video/x-raw,format=RGB,width=%d,height=%d", cfg.Resolution.Width, cfg.Resolution.Height)
	if cfg.Framerate > 0 {
		caps += fmt.Sprintf(",framerate=%d/1", cfg.Framerate)
	}

	var head string
	switch cfg.Kind {
	case SourceFile:
		head = fmt.Sprintf("filesrc location=%s name=source ! decodebin", cfg.Location)
	case SourceCamera:
		head = fmt.Sprintf("v4l2src device=%s name=source", cfg.Location)
	case SourceRTSP:
		// TCP-only with a modest jitter buffer, same settings the capture
		// layer uses for IP cameras.
		head = fmt.Sprintf("rtspsrc location=%s name=source protocols=tcp latency=200 ! rtph264depay ! avdec_h264 max-threads=0", cfg.Location)
	case SourceTest:
		head = "videotestsrc name=source is-live=true"
	}

	tail := "videoconvert n-threads=0 qos=false ! videoscale"
	if cfg.Framerate > 0 {
		tail += " ! videorate drop-only=true"
	}

	return StageSegment{
		Kind:     StageSource,
		Name:     "source",
		fragment: fmt.Sprintf("%s ! %s ! %s", head, tail, caps),
	}, nil
}

// InferenceSegment builds a hardware inference segment around the hailonet
// element, with leaky-free queues on both sides so the accelerator is fed at
// its own pace. When PostProcessPath is set a hailofilter stage is appended
// to run the network's post-processing.
func InferenceSegment(cfg InferenceConfig) (StageSegment, error) {
	if !cfg.Arch.Valid() {
		return StageSegment{}, &ConfigurationError{Stage: "inference", Field: "arch", Reason: fmt.Sprintf("unrecognized device target %q", cfg.Arch)}
	}
	if cfg.ModelPath == "" {
		return StageSegment{}, &ConfigurationError{Stage: "inference", Field: "model_path", Reason: "model path is required"}
	}
	if cfg.BatchSize <= 0 {
		return StageSegment{}, &ConfigurationError{Stage: "inference", Field: "batch_size", Reason: fmt.Sprintf("must be positive, got %d", cfg.BatchSize)}
	}
	name := cfg.Name
	if name == "" {
		name = "inference"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "queue name=%s_q_in leaky=no max-size-buffers=3 ! videoscale qos=false", name)
	fmt.Fprintf(&b, " ! hailonet name=%s hef-path=%s batch-size=%d device-architecture=%s", name, cfg.ModelPath, cfg.BatchSize, cfg.Arch)
	fmt.Fprintf(&b, " ! queue name=%s_q_out leaky=no max-size-buffers=3", name)
	if cfg.PostProcessPath != "" {
		fmt.Fprintf(&b, " ! hailofilter name=%s_filter so-path=%s qos=false", name, cfg.PostProcessPath)
	}

	return StageSegment{Kind: StageInference, Name: name, fragment: b.String()}, nil
}

// TrackerSegment builds an object tracking segment that assigns stable IDs
// to detections across frames.
func TrackerSegment(cfg TrackerConfig) (StageSegment, error) {
	if cfg.KeepTrackedFrames <= 0 {
		return StageSegment{}, &ConfigurationError{Stage: "tracker", Field: "keep_tracked_frames", Reason: fmt.Sprintf("must be positive, got %d", cfg.KeepTrackedFrames)}
	}
	if cfg.KeepLostFrames < 0 {
		return StageSegment{}, &ConfigurationError{Stage: "tracker", Field: "keep_lost_frames", Reason: fmt.Sprintf("must not be negative, got %d", cfg.KeepLostFrames)}
	}
	return StageSegment{
		Kind: StageTracker,
		Name: "tracker",
		fragment: fmt.Sprintf("hailotracker name=tracker keep-tracked-frames=%d keep-lost-frames=%d",
			cfg.KeepTrackedFrames, cfg.KeepLostFrames),
	}, nil
}

// OverlaySegment builds the result-drawing segment.
func OverlaySegment() StageSegment {
	return StageSegment{Kind: StageOverlay, Name: "overlay", fragment: "hailooverlay name=overlay"}
}

// CropperSegment builds a cropping segment that opens a cascaded branch.
// The returned segment must be followed, later in the sequence, by an
// AggregatorSegment with the same name; Assemble rejects unmatched croppers.
func CropperSegment(cfg CropperConfig) (StageSegment, error) {
	if cfg.Name == "" {
		return StageSegment{}, &ConfigurationError{Stage: "cropper", Field: "name", Reason: "name is required to pair the cropper with its aggregator"}
	}
	if cfg.FunctionSoPath == "" {
		return StageSegment{}, &ConfigurationError{Stage: "cropper", Field: "function_so_path", Reason: "cropping function shared object is required"}
	}
	return StageSegment{
		Kind:     StageCropper,
		Name:     cfg.Name,
		fragment: fmt.Sprintf("hailocropper name=%s so-path=%s internal-offset=true", cfg.Name, cfg.FunctionSoPath),
	}, nil
}

// TilerSegment builds a tiling segment that splits high-resolution frames
// into a grid of tiles for inference. It opens a branch exactly like a
// cropper and is closed by an AggregatorSegment with the same name.
func TilerSegment(cfg TilerConfig) (StageSegment, error) {
	if cfg.Name == "" {
		return StageSegment{}, &ConfigurationError{Stage: "cropper", Field: "name", Reason: "name is required to pair the tiler with its aggregator"}
	}
	if cfg.TilesX <= 0 || cfg.TilesY <= 0 {
		return StageSegment{}, &ConfigurationError{Stage: "cropper", Field: "tiles", Reason: fmt.Sprintf("tile grid must be positive, got %dx%d", cfg.TilesX, cfg.TilesY)}
	}
	return StageSegment{
		Kind:     StageCropper,
		Name:     cfg.Name,
		fragment: fmt.Sprintf("hailotilecropper name=%s tiles-along-x-axis=%d tiles-along-y-axis=%d", cfg.Name, cfg.TilesX, cfg.TilesY),
	}, nil
}

// AggregatorSegment builds the aggregator that closes the branch opened by
// the cropper or tiler named forCropper.
func AggregatorSegment(forCropper string) (StageSegment, error) {
	if forCropper == "" {
		return StageSegment{}, &ConfigurationError{Stage: "aggregator", Field: "for_cropper", Reason: "the name of the cropper to close is required"}
	}
	name := forCropper + "_agg"
	return StageSegment{
		Kind:     StageAggregator,
		Name:     name,
		fragment: fmt.Sprintf("hailoaggregator name=%s", name),
		closes:   forCropper,
	}, nil
}

// HookSegment builds the callback attach point, a pass-through identity
// element the controller installs its buffer probe on.
func HookSegment() StageSegment {
	return StageSegment{
		Kind:     StageHook,
		Name:     HookElementName,
		fragment: fmt.Sprintf("identity name=%s", HookElementName),
	}
}

// DisplaySegment builds the terminal display/output segment.
func DisplaySegment(cfg DisplayConfig) (StageSegment, error) {
	sink := cfg.Sink
	if sink == "" {
		sink = SinkAuto
	}
	if !sink.Valid() {
		return StageSegment{}, &ConfigurationError{Stage: "display", Field: "sink", Reason: fmt.Sprintf("unrecognized sink kind %q", cfg.Sink)}
	}

	var elem string
	switch sink {
	case SinkAuto:
		elem = "autovideosink"
	case SinkX11:
		elem = "ximagesink"
	case SinkFake:
		elem = "fakesink"
	}

	var frag string
	if cfg.ShowFPS {
		frag = fmt.Sprintf("videoconvert n-threads=0 qos=false ! fpsdisplaysink name=display video-sink=%s sync=%t text-overlay=false", elem, cfg.Sync)
	} else {
		frag = fmt.Sprintf("videoconvert n-threads=0 qos=false ! %s name=display sync=%t", elem, cfg.Sync)
	}

	return StageSegment{Kind: StageSink, Name: "display", fragment: frag}, nil
}
