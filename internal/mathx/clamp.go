package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to the closed range spanned by a and b, in either order.
func Clamp[T constraints.Ordered](v, a, b T) T {
	lo, hi := min(a, b), max(a, b)
	return max(lo, min(v, hi))
}

// InRange reports whether v lies in the closed range spanned by a and b.
func InRange[T constraints.Ordered](v, a, b T) bool {
	return Clamp(v, a, b) == v
}

// Level maps a percentage onto a DMX slot value, rounding to nearest.
// Out-of-range input saturates.
func Level[T constraints.Integer | constraints.Float](pct T) byte {
	p := float64(Clamp(pct, 0, 100))
	return byte(p*255/100 + 0.5)
}

// SlotByte clamps an integer into a slot value.
func SlotByte[T constraints.Integer](v T) byte {
	return byte(Clamp(v, 0, 255))
}
