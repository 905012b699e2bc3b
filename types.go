package inferpipe

import "fmt"

// DeviceArch identifies the accelerator architecture a model is compiled for.
// The value is passed straight to the inference stage, so only known targets
// are accepted.
type DeviceArch string

const (
	// ArchHailo8 is the Hailo-8 accelerator
	ArchHailo8 DeviceArch = "hailo8"
	// ArchHailo8L is the Hailo-8L entry-level accelerator
	ArchHailo8L DeviceArch = "hailo8l"
	// ArchHailo10H is the Hailo-10H gen-AI accelerator
	ArchHailo10H DeviceArch = "hailo10h"
	// ArchHailo15H is the Hailo-15H vision processor
	ArchHailo15H DeviceArch = "hailo15h"
)

// Valid reports whether the architecture is a known device target.
func (a DeviceArch) Valid() bool {
	switch a {
	case ArchHailo8, ArchHailo8L, ArchHailo10H, ArchHailo15H:
		return true
	default:
		return false
	}
}

// Resolution is a frame resolution in pixels.
type Resolution struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Valid reports whether both dimensions are positive.
func (r Resolution) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// String returns a human-readable "WxH" representation.
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// SourceKind selects the capture element family for a source segment.
type SourceKind string

const (
	// SourceFile reads from a local media file (filesrc + decodebin)
	SourceFile SourceKind = "file"
	// SourceCamera captures from a V4L2 device (v4l2src)
	SourceCamera SourceKind = "camera"
	// SourceRTSP captures from an RTSP stream over TCP (rtspsrc)
	SourceRTSP SourceKind = "rtsp"
	// SourceTest generates synthetic frames (videotestsrc), useful for
	// bring-up on machines without a camera
	SourceTest SourceKind = "test"
)

// Valid reports whether the source kind is recognized.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceFile, SourceCamera, SourceRTSP, SourceTest:
		return true
	default:
		return false
	}
}

// SinkKind selects the terminal display/output element for a display segment.
type SinkKind string

const (
	// SinkAuto lets the engine pick a platform-appropriate video sink
	SinkAuto SinkKind = "auto"
	// SinkX11 renders to an X11 window (ximagesink)
	SinkX11 SinkKind = "x11"
	// SinkFake discards output, used for headless runs and benchmarks
	SinkFake SinkKind = "fake"
)

// Valid reports whether the sink kind is recognized.
func (k SinkKind) Valid() bool {
	switch k {
	case SinkAuto, SinkX11, SinkFake:
		return true
	default:
		return false
	}
}

// SourceConfig configures a capture source segment.
type SourceConfig struct {
	// Kind selects the capture element family (required)
	Kind SourceKind `yaml:"kind"`
	// Location is the file path, device node or RTSP URL. Required for
	// every kind except SourceTest.
	Location string `yaml:"location"`
	// Resolution is the output resolution frames are scaled to (required)
	Resolution Resolution `yaml:"resolution"`
	// Framerate constrains the output framerate in frames per second.
	// Zero leaves the native rate untouched.
	Framerate int `yaml:"framerate"`
}

// InferenceConfig configures a hardware inference segment.
type InferenceConfig struct {
	// Arch is the device architecture target the model was compiled for (required)
	Arch DeviceArch `yaml:"arch"`
	// ModelPath is the path to the compiled model file (required)
	ModelPath string `yaml:"model_path"`
	// BatchSize is the inference batch size (required, positive)
	BatchSize int `yaml:"batch_size"`
	// PostProcessPath is an optional shared object with the network's
	// post-processing function, loaded by the filter stage.
	PostProcessPath string `yaml:"post_process_path"`
	// Name overrides the stage name. Defaults to "inference". Must be set
	// when a pipeline contains more than one inference stage.
	Name string `yaml:"name"`
}

// TrackerConfig configures an object tracking segment.
type TrackerConfig struct {
	// KeepTrackedFrames is how many frames a confirmed track survives
	// without a fresh detection
	KeepTrackedFrames int `yaml:"keep_tracked_frames"`
	// KeepLostFrames is how many frames a lost track is retained before
	// being dropped
	KeepLostFrames int `yaml:"keep_lost_frames"`
}

// CropperConfig configures a cropping segment for cascaded inference.
// A cropper splits the stream into a bypass branch and a per-detection
// branch; the branch must be closed by an aggregator segment carrying the
// same name.
type CropperConfig struct {
	// Name identifies the cropper and pairs it with its aggregator (required)
	Name string `yaml:"name"`
	// FunctionSoPath is the shared object with the cropping function (required)
	FunctionSoPath string `yaml:"function_so_path"`
}

// TilerConfig configures a tiling segment for tiled inference over
// high-resolution frames. Like a cropper, it opens a branch that must be
// closed by a matching tile aggregator.
type TilerConfig struct {
	// Name identifies the tiler and pairs it with its aggregator (required)
	Name string `yaml:"name"`
	// TilesX and TilesY are the tile grid dimensions (required, positive)
	TilesX int `yaml:"tiles_x"`
	TilesY int `yaml:"tiles_y"`
}

// DisplayConfig configures the terminal display/output segment.
type DisplayConfig struct {
	// Sink selects the video sink kind. Defaults to SinkAuto when empty.
	Sink SinkKind `yaml:"sink"`
	// ShowFPS wraps the sink in an FPS measurement overlay
	ShowFPS bool `yaml:"show_fps"`
	// Sync synchronizes rendering against the pipeline clock. Leave false
	// for live sources.
	Sync bool `yaml:"sync"`
}
