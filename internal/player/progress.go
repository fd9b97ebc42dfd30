package player

import "math"

// Progress is the playback position derived from a resource's time update.
type Progress struct {
	CurrentTime float64
	// Duration is 1 while the real duration is unknown.
	Duration      float64
	Percent       float64
	DurationKnown bool
}

// ComputeProgress derives a Progress from the raw values a resource reports.
func ComputeProgress(currentTime, duration float64) Progress {
	if math.IsNaN(currentTime) || math.IsInf(currentTime, 0) || currentTime < 0 {
		currentTime = 0
	}

	known := !math.IsNaN(duration) && !math.IsInf(duration, 0) && duration > 0
	if !known {
		duration = 1
	}

	return Progress{
		CurrentTime:   currentTime,
		Duration:      duration,
		Percent:       currentTime / duration * 100,
		DurationKnown: known,
	}
}
