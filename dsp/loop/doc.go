// Package loop holds the looper's transport logic: the record/play/overdub
// state machine, the fractional-rate playback stepper, the recorded loop
// region, and the overdub blend.
//
// Everything here is allocation-free and safe to call from a real-time audio
// callback. Nothing is safe for concurrent use.
package loop
