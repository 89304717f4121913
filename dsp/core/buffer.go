package core

import "golang.org/x/exp/constraints"

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen[T any](buf []T, n int) []T {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]T, n)
}

// Zero sets all values in buf to 0.
func Zero[T constraints.Float](buf []T) {
	for i := range buf {
		buf[i] = 0
	}
}

// Convert copies src into dst with a numeric conversion per element and
// returns the number of converted elements.
func Convert[D, S constraints.Float](dst []D, src []S) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = D(src[i])
	}
	return n
}
