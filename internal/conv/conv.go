// Package conv provides checked integer conversions.
//
// Group numbers and set capacities are ints in the parser but uint32 in the
// sparse sets used by the analysis. A value that does not fit is a
// programming error, so the helpers panic instead of truncating.
package conv

import "math"

// IntToUint32 converts n to uint32.
// Panics if n < 0 or n > math.MaxUint32.
func IntToUint32(n int) uint32 {
	// Compare as uint so 32-bit platforms do not overflow on MaxUint32.
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("integer overflow: int value out of uint32 range")
	}
	return uint32(n)
}
