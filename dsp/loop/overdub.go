package loop

import "github.com/cwbudde/sixteen/dsp/core"

const (
	retainMin = 0.97
	retainMax = 0.9995
)

// Retain maps erode in [0, 1] to the per-pass retention of old loop content,
// linearly from 0.9995 (no erosion) down to 0.97 (full erosion).
func Retain(erode float32) float32 {
	erode = core.Clamp(erode, 0, 1)
	return retainMin + (retainMax-retainMin)*(1-erode)
}

// OverdubSample returns the value written back into the loop:
// existing·retain + input·level + read·feedback.
func OverdubSample(existing, input, read, level, feedback, erode float32) float32 {
	return existing*Retain(erode) + (input*level + read*feedback)
}
