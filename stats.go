package inferpipe

import (
	"math"
	"time"
)

// fpsStabilityThreshold is the maximum allowed FPS standard deviation as a
// fraction of mean FPS. A run is considered stable if stddev < 15% of mean.
const fpsStabilityThreshold = 0.15

// RunStats is a point-in-time snapshot of one pipeline run.
type RunStats struct {
	// State is the lifecycle state at snapshot time
	State LifecycleState
	// FramesProcessed is the number of completed callback invocations
	FramesProcessed uint64
	// Uptime is the time since Start
	Uptime time.Duration
	// BusErrors and BusWarnings count error/warning bus events observed
	BusErrors   uint64
	BusWarnings uint64
	// FPS summarizes the delivery rate at the attach point. Zero-valued
	// until at least two buffers have been delivered.
	FPS FPSStats
}

// FPSStats summarizes the frame delivery rate over a window of recent
// buffer timestamps.
type FPSStats struct {
	// Frames is the number of timestamps in the window
	Frames int
	// Mean is the overall rate across the window
	Mean float64
	// StdDev is the standard deviation of the instantaneous rate
	StdDev float64
	// Min and Max are the extreme instantaneous rates
	Min float64
	Max float64
	// Stable is true when StdDev is below 15% of Mean
	Stable bool
}

// CalculateFPSStats computes delivery-rate statistics from buffer
// timestamps spanning totalDuration.
func CalculateFPSStats(times []time.Time, totalDuration time.Duration) FPSStats {
	n := len(times)
	if n == 0 || totalDuration <= 0 {
		return FPSStats{}
	}

	mean := float64(n) / totalDuration.Seconds()

	instantaneous := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		interval := times[i].Sub(times[i-1]).Seconds()
		if interval > 0 {
			instantaneous = append(instantaneous, 1.0/interval)
		}
	}
	if len(instantaneous) == 0 {
		return FPSStats{Frames: n, Mean: mean}
	}

	min, max := instantaneous[0], instantaneous[0]
	for _, fps := range instantaneous {
		if fps < min {
			min = fps
		}
		if fps > max {
			max = fps
		}
	}

	var sumSquares float64
	for _, fps := range instantaneous {
		diff := fps - mean
		sumSquares += diff * diff
	}
	stdDev := math.Sqrt(sumSquares / float64(len(instantaneous)))

	return FPSStats{
		Frames: n,
		Mean:   mean,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
		Stable: stdDev < mean*fpsStabilityThreshold,
	}
}
