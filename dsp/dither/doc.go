// Package dither provides deterministic noise sources for low-level signal
// injection.
package dither
