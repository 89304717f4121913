//go:build fastmath

package effects

import "github.com/meko-christian/algo-approx"

// mathExp computes e^x using fast approximation. It only feeds coefficient
// derivation, which runs once per block.
func mathExp(x float64) float64 {
	return approx.FastExp(x)
}
