package inferpipe

import "strings"

// ErrorCategory is the telemetry classification of a fatal stream error.
type ErrorCategory int

const (
	// CategoryNetwork indicates network-related failures (connection, timeout, DNS)
	CategoryNetwork ErrorCategory = iota
	// CategoryCodec indicates codec/format failures (decode errors, caps negotiation)
	CategoryCodec
	// CategoryAccelerator indicates inference accelerator failures (device, model load)
	CategoryAccelerator
	// CategoryUnknown indicates unclassified errors
	CategoryUnknown
)

// String returns a human-readable category name.
func (c ErrorCategory) String() string {
	switch c {
	case CategoryNetwork:
		return "network"
	case CategoryCodec:
		return "codec"
	case CategoryAccelerator:
		return "accelerator"
	default:
		return "unknown"
	}
}

// ClassifyEngineError categorizes an engine error message for telemetry.
// This distinguishes failures where a rebuild may help (network) from those
// that need operator attention (missing model, broken accelerator, stream
// format problems).
//
// The engine does not expose a structured error domain, so classification
// relies on message keyword heuristics, checked most-specific first.
func ClassifyEngineError(detail, debug string) ErrorCategory {
	combined := strings.ToLower(detail) + " " + strings.ToLower(debug)

	if containsAny(combined, acceleratorKeywords) {
		return CategoryAccelerator
	}
	if containsAny(combined, codecKeywords) {
		return CategoryCodec
	}
	if containsAny(combined, networkKeywords) {
		return CategoryNetwork
	}
	return CategoryUnknown
}

var acceleratorKeywords = []string{
	"hailo",
	"hef",
	"vdevice",
	"nnet",
	"accelerator",
	"device-architecture",
	"inference",
}

var codecKeywords = []string{
	"codec",
	"decode",
	"encode",
	"format",
	"negotiation",
	"caps",
	"h264",
	"h265",
	"jpeg",
	"not negotiated",
	"no decoder",
	"missing plugin",
}

var networkKeywords = []string{
	"connection",
	"timeout",
	"unreachable",
	"network",
	"dns",
	"resolve",
	"socket",
	"tcp",
	"udp",
	"rtsp",
	"could not connect",
	"failed to connect",
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
