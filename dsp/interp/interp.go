package interp

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Linear interpolates between x0 (frac=0) and x1 (frac=1).
func Linear[T constraints.Float](frac, x0, x1 T) T {
	return x0 + frac*(x1-x0)
}

// Split separates a fractional position into its floor and the remainder in [0, 1).
func Split(pos float64) (int, float64) {
	base := math.Floor(pos)
	return int(base), pos - base
}
