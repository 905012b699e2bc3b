package inferpipe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a declarative pipeline description loaded from YAML. It covers
// the common linear topologies (capture, inference, tracking, overlay,
// callback hook, display); cascaded cropper/aggregator pipelines are
// composed programmatically with the segment constructors instead.
//
// Decoding is strict: unrecognized keys are rejected, not ignored.
type Profile struct {
	Source    SourceConfig     `yaml:"source"`
	Inference *InferenceConfig `yaml:"inference"`
	Tracker   *TrackerConfig   `yaml:"tracker"`
	// Overlay enables drawing inference results onto frames
	Overlay bool `yaml:"overlay"`
	// Hook inserts the callback attach point. Defaults to true; a profile
	// can disable it for pure display pipelines.
	Hook    *bool         `yaml:"hook"`
	Display DisplayConfig `yaml:"display"`
}

// LoadProfile reads and strictly decodes a YAML pipeline profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inferpipe: read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile strictly decodes a YAML pipeline profile.
func ParseProfile(data []byte) (*Profile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("inferpipe: profile is empty")
		}
		return nil, fmt.Errorf("inferpipe: parse profile: %w", err)
	}
	return &p, nil
}

// Segments builds the profile's stage sequence in canonical order, ready
// for Assemble. Configuration errors surface here, before any engine
// resource is touched.
func (p *Profile) Segments() ([]StageSegment, error) {
	var segments []StageSegment

	src, err := SourceSegment(p.Source)
	if err != nil {
		return nil, err
	}
	segments = append(segments, src)

	if p.Inference != nil {
		inf, err := InferenceSegment(*p.Inference)
		if err != nil {
			return nil, err
		}
		segments = append(segments, inf)
	}

	if p.Tracker != nil {
		trk, err := TrackerSegment(*p.Tracker)
		if err != nil {
			return nil, err
		}
		segments = append(segments, trk)
	}

	if p.Hook == nil || *p.Hook {
		segments = append(segments, HookSegment())
	}

	if p.Overlay {
		segments = append(segments, OverlaySegment())
	}

	display, err := DisplaySegment(p.Display)
	if err != nil {
		return nil, err
	}
	segments = append(segments, display)

	return segments, nil
}

// Assemble is shorthand for building the profile's segments and assembling
// them into a pipeline description.
func (p *Profile) Assemble() (PipelineDescription, error) {
	segments, err := p.Segments()
	if err != nil {
		return PipelineDescription{}, err
	}
	return Assemble(segments)
}
