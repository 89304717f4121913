// Package interp provides fractional-position helpers for reading sampled
// signals between integer indices.
package interp
