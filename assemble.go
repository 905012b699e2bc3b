package inferpipe

import (
	"fmt"
	"strings"
)

// PipelineDescription is an immutable, fully linked pipeline description.
// It is produced by Assemble and consumed once by the controller at build
// time; a configuration change requires assembling a new description.
type PipelineDescription struct {
	s string
}

// String returns the raw description handed to the engine.
func (d PipelineDescription) String() string { return d.s }

// Empty reports whether the description holds no stages.
func (d PipelineDescription) Empty() bool { return d.s == "" }

// allowedAdjacency is the allow-list of known-good stage pairs. It is a
// structural compatibility check on declared stage categories, not a full
// caps negotiation; the engine still performs its own negotiation at launch.
var allowedAdjacency = map[StageKind][]StageKind{
	StageSource:     {StageInference, StageCropper, StageHook, StageSink},
	StageInference:  {StageInference, StageTracker, StageOverlay, StageAggregator, StageHook, StageSink},
	StageTracker:    {StageInference, StageOverlay, StageHook, StageSink},
	StageOverlay:    {StageHook, StageSink},
	StageCropper:    {StageInference},
	StageAggregator: {StageTracker, StageOverlay, StageHook, StageSink},
	StageHook:       {StageOverlay, StageSink},
	StageSink:       {},
}

func adjacencyAllowed(from, to StageKind) bool {
	for _, k := range allowedAdjacency[from] {
		if k == to {
			return true
		}
	}
	return false
}

// Assemble concatenates an ordered sequence of stage segments into one
// complete pipeline description, inserting the engine's linking tokens and
// the branch structure for cropper/aggregator pairs.
//
// Invariants enforced before returning:
//   - the sequence starts with exactly one source and ends with a sink
//   - stage names are unique
//   - every cropper branch is closed by its matching aggregator
//   - adjacent stages are declared-compatible (allow-list)
//
// Violations return an *AssemblyError naming the offending segment or
// adjacency; no partial description is ever returned.
func Assemble(segments []StageSegment) (PipelineDescription, error) {
	if len(segments) == 0 {
		return PipelineDescription{}, &AssemblyError{Stage: "pipeline", Reason: "no segments"}
	}

	// Exactly one entry stage, and it leads the chain.
	sources := 0
	for _, seg := range segments {
		if seg.Kind == StageSource {
			sources++
		}
	}
	if sources == 0 {
		return PipelineDescription{}, &AssemblyError{Stage: "pipeline", Reason: "no source stage"}
	}
	if sources > 1 {
		return PipelineDescription{}, &AssemblyError{Stage: "pipeline", Reason: fmt.Sprintf("%d source stages, want exactly one", sources)}
	}
	if segments[0].Kind != StageSource {
		return PipelineDescription{}, &AssemblyError{Stage: segments[0].Name, Reason: "pipeline must begin with the source stage"}
	}

	// At least one terminal stage; sinks are only valid at the tail.
	for i, seg := range segments[:len(segments)-1] {
		if seg.Kind == StageSink {
			return PipelineDescription{}, &AssemblyError{Stage: seg.Name, Reason: fmt.Sprintf("sink stage at position %d, sinks must terminate the pipeline", i)}
		}
	}
	if segments[len(segments)-1].Kind != StageSink {
		return PipelineDescription{}, &AssemblyError{Stage: "pipeline", Reason: "no sink stage"}
	}

	seen := make(map[string]bool, len(segments))
	for _, seg := range segments {
		if seg.Name == "" {
			return PipelineDescription{}, &AssemblyError{Stage: seg.Kind.String(), Reason: "segment has no name"}
		}
		if seen[seg.Name] {
			return PipelineDescription{}, &AssemblyError{Stage: seg.Name, Reason: "duplicate stage name"}
		}
		seen[seg.Name] = true
	}

	for i := 0; i < len(segments)-1; i++ {
		from, to := segments[i], segments[i+1]
		if !adjacencyAllowed(from.Kind, to.Kind) {
			return PipelineDescription{}, &AssemblyError{
				Stage:  from.Name,
				Reason: fmt.Sprintf("%s output is not compatible with %s input (%s -> %s)", from.Kind, to.Kind, from.Name, to.Name),
			}
		}
	}

	parts, err := emitChain(segments)
	if err != nil {
		return PipelineDescription{}, err
	}
	return PipelineDescription{s: strings.Join(parts, " ! ")}, nil
}

// emitChain renders segments into link-joinable parts, expanding each
// cropper/aggregator pair into its two-branch structure: the cropper feeds a
// bypass queue into the aggregator's first pad and the inner chain into its
// second, and the aggregator's output continues the main chain.
func emitChain(segments []StageSegment) ([]string, error) {
	var parts []string
	for i := 0; i < len(segments); i++ {
		seg := segments[i]
		switch seg.Kind {
		case StageCropper:
			j := -1
			for k := i + 1; k < len(segments); k++ {
				if segments[k].Kind == StageAggregator && segments[k].closes == seg.Name {
					j = k
					break
				}
				if segments[k].Kind == StageCropper {
					return nil, &AssemblyError{Stage: segments[k].Name, Reason: fmt.Sprintf("nested cropper inside branch of %s is not supported", seg.Name)}
				}
			}
			if j < 0 {
				return nil, &AssemblyError{Stage: seg.Name, Reason: fmt.Sprintf("cropper %s has no matching aggregator", seg.Name)}
			}
			inner := segments[i+1 : j]
			if len(inner) == 0 {
				return nil, &AssemblyError{Stage: seg.Name, Reason: fmt.Sprintf("cropper %s branch is empty", seg.Name)}
			}
			agg := segments[j]

			innerFrags := make([]string, 0, len(inner))
			for _, s := range inner {
				innerFrags = append(innerFrags, s.fragment)
			}

			// Both elements are declared up front, then linked through
			// named pads: bypass branch to sink_0, inference branch to
			// sink_1.
			var b strings.Builder
			fmt.Fprintf(&b, "%s %s ", seg.fragment, agg.fragment)
			fmt.Fprintf(&b, "%s. ! queue name=%s_bypass leaky=no max-size-buffers=20 ! %s.sink_0 ", seg.Name, seg.Name, agg.Name)
			fmt.Fprintf(&b, "%s. ! %s ! %s.sink_1 ", seg.Name, strings.Join(innerFrags, " ! "), agg.Name)
			fmt.Fprintf(&b, "%s.", agg.Name)
			parts = append(parts, b.String())
			i = j

		case StageAggregator:
			return nil, &AssemblyError{Stage: seg.Name, Reason: "aggregator closes no open cropper"}

		default:
			parts = append(parts, seg.fragment)
		}
	}
	return parts, nil
}
