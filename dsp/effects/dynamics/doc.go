// Package dynamics provides reusable non-I/O dynamics processors.
//
// Included processors:
//   - PeakLimiter: Sample-peak limiter with independent attack and release
//     envelope smoothing and a hard ceiling.
package dynamics
