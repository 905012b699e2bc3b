package inferpipe

import (
	"strings"
	"testing"
)

const fullProfileYAML = `
source:
  kind: file
  location: /data/clip.mp4
  resolution:
    width: 1280
    height: 720
  framerate: 30
inference:
  arch: hailo8
  model_path: /models/yolov8s.hef
  batch_size: 2
  post_process_path: /usr/lib/libyolo_post.so
tracker:
  keep_tracked_frames: 4
  keep_lost_frames: 2
overlay: true
display:
  sink: fake
  show_fps: true
`

func TestParseProfile(t *testing.T) {
	t.Run("full_profile", func(t *testing.T) {
		p, err := ParseProfile([]byte(fullProfileYAML))
		if err != nil {
			t.Fatalf("ParseProfile failed: %v", err)
		}
		if p.Source.Kind != SourceFile || p.Source.Resolution.Width != 1280 {
			t.Errorf("source decoded wrong: %+v", p.Source)
		}
		if p.Inference == nil || p.Inference.Arch != ArchHailo8 || p.Inference.BatchSize != 2 {
			t.Errorf("inference decoded wrong: %+v", p.Inference)
		}
		if p.Tracker == nil || p.Tracker.KeepTrackedFrames != 4 {
			t.Errorf("tracker decoded wrong: %+v", p.Tracker)
		}
		if !p.Overlay || p.Display.Sink != SinkFake || !p.Display.ShowFPS {
			t.Errorf("overlay/display decoded wrong: overlay=%v display=%+v", p.Overlay, p.Display)
		}
	})

	t.Run("unknown_key_rejected", func(t *testing.T) {
		_, err := ParseProfile([]byte("source:\n  kind: test\n  resolutin:\n    width: 640\n    height: 480\n"))
		if err == nil {
			t.Fatal("misspelled key must be rejected, not ignored")
		}
	})

	t.Run("empty_document", func(t *testing.T) {
		if _, err := ParseProfile(nil); err == nil {
			t.Fatal("empty profile must be rejected")
		}
	})

	t.Run("malformed_yaml", func(t *testing.T) {
		if _, err := ParseProfile([]byte("source: [unclosed")); err == nil {
			t.Fatal("malformed document must be rejected")
		}
	})
}

func TestProfileSegments(t *testing.T) {
	t.Run("canonical_order", func(t *testing.T) {
		p, err := ParseProfile([]byte(fullProfileYAML))
		if err != nil {
			t.Fatalf("ParseProfile failed: %v", err)
		}
		segments, err := p.Segments()
		if err != nil {
			t.Fatalf("Segments failed: %v", err)
		}

		wantKinds := []StageKind{StageSource, StageInference, StageTracker, StageHook, StageOverlay, StageSink}
		if len(segments) != len(wantKinds) {
			t.Fatalf("got %d segments, want %d", len(segments), len(wantKinds))
		}
		for i, k := range wantKinds {
			if segments[i].Kind != k {
				t.Errorf("segment %d kind = %s, want %s", i, segments[i].Kind, k)
			}
		}
	})

	t.Run("hook_enabled_by_default", func(t *testing.T) {
		p := &Profile{Source: SourceConfig{Kind: SourceTest, Resolution: Resolution{Width: 640, Height: 480}}}
		segments, err := p.Segments()
		if err != nil {
			t.Fatalf("Segments failed: %v", err)
		}
		found := false
		for _, s := range segments {
			if s.Kind == StageHook {
				found = true
			}
		}
		if !found {
			t.Error("hook missing from default profile")
		}
	})

	t.Run("hook_disabled", func(t *testing.T) {
		off := false
		p := &Profile{
			Source: SourceConfig{Kind: SourceTest, Resolution: Resolution{Width: 640, Height: 480}},
			Hook:   &off,
		}
		segments, err := p.Segments()
		if err != nil {
			t.Fatalf("Segments failed: %v", err)
		}
		for _, s := range segments {
			if s.Kind == StageHook {
				t.Error("hook present despite being disabled")
			}
		}
	})

	t.Run("invalid_source_surfaces_configuration_error", func(t *testing.T) {
		p := &Profile{Source: SourceConfig{Kind: SourceFile}}
		_, err := p.Segments()
		assertConfigError(t, err, "location")
	})
}

func TestProfileAssemble(t *testing.T) {
	p, err := ParseProfile([]byte(fullProfileYAML))
	if err != nil {
		t.Fatalf("ParseProfile failed: %v", err)
	}
	desc, err := p.Assemble()
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	for _, want := range []string{"filesrc", "hailonet", "hailotracker", "identity name=" + HookElementName, "hailooverlay", "fpsdisplaysink"} {
		if !strings.Contains(desc.String(), want) {
			t.Errorf("description missing %q:\n%s", want, desc.String())
		}
	}
}
