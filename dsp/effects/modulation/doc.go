// Package modulation provides modulation sources for delay-line effects.
//
// Included processors:
//   - LFO: Sine oscillator whose phase is kept across frequency changes.
package modulation
