package inferpipe

import (
	"errors"
	"strings"
	"testing"
)

func TestSourceSegment(t *testing.T) {
	res := Resolution{Width: 1280, Height: 720}

	tests := []struct {
		name      string
		cfg       SourceConfig
		wantField string // empty means success
		contains  []string
	}{
		{
			name:     "file_source",
			cfg:      SourceConfig{Kind: SourceFile, Location: "/data/clip.mp4", Resolution: res},
			contains: []string{"filesrc location=/data/clip.mp4", "decodebin", "width=1280", "height=720"},
		},
		{
			name:     "camera_source_with_framerate",
			cfg:      SourceConfig{Kind: SourceCamera, Location: "/dev/video0", Resolution: res, Framerate: 30},
			contains: []string{"v4l2src device=/dev/video0", "videorate", "framerate=30/1"},
		},
		{
			name:     "rtsp_source",
			cfg:      SourceConfig{Kind: SourceRTSP, Location: "rtsp://cam/stream", Resolution: res},
			contains: []string{"rtspsrc location=rtsp://cam/stream", "protocols=tcp", "rtph264depay"},
		},
		{
			name:     "test_source_needs_no_location",
			cfg:      SourceConfig{Kind: SourceTest, Resolution: res},
			contains: []string{"videotestsrc", "is-live=true"},
		},
		{
			name:      "unknown_kind",
			cfg:       SourceConfig{Kind: "pigeon", Location: "x", Resolution: res},
			wantField: "kind",
		},
		{
			name:      "missing_location",
			cfg:       SourceConfig{Kind: SourceFile, Resolution: res},
			wantField: "location",
		},
		{
			name:      "zero_resolution",
			cfg:       SourceConfig{Kind: SourceFile, Location: "/data/clip.mp4"},
			wantField: "resolution",
		},
		{
			name:      "negative_framerate",
			cfg:       SourceConfig{Kind: SourceTest, Resolution: res, Framerate: -1},
			wantField: "framerate",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seg, err := SourceSegment(tc.cfg)
			if tc.wantField != "" {
				assertConfigError(t, err, tc.wantField)
				return
			}
			if err != nil {
				t.Fatalf("SourceSegment failed: %v", err)
			}
			if seg.Kind != StageSource || seg.Name != "source" {
				t.Errorf("unexpected segment identity: kind=%v name=%q", seg.Kind, seg.Name)
			}
			for _, want := range tc.contains {
				if !strings.Contains(seg.Fragment(), want) {
					t.Errorf("fragment missing %q:\n%s", want, seg.Fragment())
				}
			}
		})
	}
}

func TestInferenceSegment(t *testing.T) {
	valid := InferenceConfig{Arch: ArchHailo8, ModelPath: "/models/yolov8s.hef", BatchSize: 2}

	t.Run("valid", func(t *testing.T) {
		seg, err := InferenceSegment(valid)
		if err != nil {
			t.Fatalf("InferenceSegment failed: %v", err)
		}
		for _, want := range []string{
			"hailonet name=inference",
			"hef-path=/models/yolov8s.hef",
			"batch-size=2",
			"device-architecture=hailo8",
		} {
			if !strings.Contains(seg.Fragment(), want) {
				t.Errorf("fragment missing %q:\n%s", want, seg.Fragment())
			}
		}
		if strings.Contains(seg.Fragment(), "hailofilter") {
			t.Error("hailofilter emitted without a post-process path")
		}
	})

	t.Run("post_process_appends_filter", func(t *testing.T) {
		cfg := valid
		cfg.PostProcessPath = "/usr/lib/libyolo_post.so"
		seg, err := InferenceSegment(cfg)
		if err != nil {
			t.Fatalf("InferenceSegment failed: %v", err)
		}
		if !strings.Contains(seg.Fragment(), "hailofilter name=inference_filter so-path=/usr/lib/libyolo_post.so") {
			t.Errorf("post-process filter missing:\n%s", seg.Fragment())
		}
	})

	t.Run("custom_name", func(t *testing.T) {
		cfg := valid
		cfg.Name = "detector"
		seg, err := InferenceSegment(cfg)
		if err != nil {
			t.Fatalf("InferenceSegment failed: %v", err)
		}
		if seg.Name != "detector" || !strings.Contains(seg.Fragment(), "hailonet name=detector") {
			t.Errorf("custom name not applied: %s", seg.Fragment())
		}
	})

	invalid := []struct {
		name  string
		mut   func(*InferenceConfig)
		field string
	}{
		{"bad_arch", func(c *InferenceConfig) { c.Arch = "hailo99" }, "arch"},
		{"empty_model", func(c *InferenceConfig) { c.ModelPath = "" }, "model_path"},
		{"zero_batch", func(c *InferenceConfig) { c.BatchSize = 0 }, "batch_size"},
		{"negative_batch", func(c *InferenceConfig) { c.BatchSize = -4 }, "batch_size"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mut(&cfg)
			_, err := InferenceSegment(cfg)
			assertConfigError(t, err, tc.field)
		})
	}
}

func TestTrackerSegment(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		seg, err := TrackerSegment(TrackerConfig{KeepTrackedFrames: 5, KeepLostFrames: 2})
		if err != nil {
			t.Fatalf("TrackerSegment failed: %v", err)
		}
		if !strings.Contains(seg.Fragment(), "keep-tracked-frames=5") ||
			!strings.Contains(seg.Fragment(), "keep-lost-frames=2") {
			t.Errorf("tracker parameters missing: %s", seg.Fragment())
		}
	})
	t.Run("zero_keep_tracked", func(t *testing.T) {
		_, err := TrackerSegment(TrackerConfig{})
		assertConfigError(t, err, "keep_tracked_frames")
	})
}

func TestCropperSegment(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		seg, err := CropperSegment(CropperConfig{Name: "faces", FunctionSoPath: "/usr/lib/libcrop.so"})
		if err != nil {
			t.Fatalf("CropperSegment failed: %v", err)
		}
		if seg.Kind != StageCropper || seg.Name != "faces" {
			t.Errorf("unexpected identity: kind=%v name=%q", seg.Kind, seg.Name)
		}
	})
	t.Run("missing_name", func(t *testing.T) {
		_, err := CropperSegment(CropperConfig{FunctionSoPath: "/usr/lib/libcrop.so"})
		assertConfigError(t, err, "name")
	})
	t.Run("missing_function", func(t *testing.T) {
		_, err := CropperSegment(CropperConfig{Name: "faces"})
		assertConfigError(t, err, "function_so_path")
	})
}

func TestTilerSegment(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		seg, err := TilerSegment(TilerConfig{Name: "tiles", TilesX: 3, TilesY: 2})
		if err != nil {
			t.Fatalf("TilerSegment failed: %v", err)
		}
		if !strings.Contains(seg.Fragment(), "tiles-along-x-axis=3") ||
			!strings.Contains(seg.Fragment(), "tiles-along-y-axis=2") {
			t.Errorf("tile grid missing: %s", seg.Fragment())
		}
		if seg.Kind != StageCropper {
			t.Errorf("tiler must open a cropper branch, got kind %v", seg.Kind)
		}
	})
	t.Run("zero_grid", func(t *testing.T) {
		_, err := TilerSegment(TilerConfig{Name: "tiles"})
		assertConfigError(t, err, "tiles")
	})
}

func TestDisplaySegment(t *testing.T) {
	tests := []struct {
		name      string
		cfg       DisplayConfig
		wantField string
		contains  string
	}{
		{name: "default_is_auto", cfg: DisplayConfig{}, contains: "autovideosink name=display"},
		{name: "fake_sink", cfg: DisplayConfig{Sink: SinkFake}, contains: "fakesink name=display"},
		{name: "x11_sink", cfg: DisplayConfig{Sink: SinkX11}, contains: "ximagesink name=display"},
		{name: "fps_wrapper", cfg: DisplayConfig{Sink: SinkAuto, ShowFPS: true}, contains: "fpsdisplaysink name=display video-sink=autovideosink"},
		{name: "unknown_sink", cfg: DisplayConfig{Sink: "hologram"}, wantField: "sink"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seg, err := DisplaySegment(tc.cfg)
			if tc.wantField != "" {
				assertConfigError(t, err, tc.wantField)
				return
			}
			if err != nil {
				t.Fatalf("DisplaySegment failed: %v", err)
			}
			if !strings.Contains(seg.Fragment(), tc.contains) {
				t.Errorf("fragment missing %q:\n%s", tc.contains, seg.Fragment())
			}
		})
	}
}

func TestHookSegment(t *testing.T) {
	seg := HookSegment()
	if seg.Name != HookElementName {
		t.Errorf("hook name = %q, want %q", seg.Name, HookElementName)
	}
	if !strings.Contains(seg.Fragment(), "identity name="+HookElementName) {
		t.Errorf("hook fragment wrong: %s", seg.Fragment())
	}
}

func assertConfigError(t *testing.T, err error, field string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected a configuration error, got nil")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigurationError, got %T: %v", err, err)
	}
	if cfgErr.Field != field {
		t.Errorf("error field = %q, want %q (%v)", cfgErr.Field, field, err)
	}
}
