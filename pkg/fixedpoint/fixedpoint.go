// Package fixedpoint provides the kernel's only arithmetic: signed 64-bit
// integers representing a rational N/Scale. No floating-point type appears
// anywhere below this package, by construction.
package fixedpoint

import "errors"

// Scale is the fixed-point denominator. A value of N represents N/Scale.
const Scale int64 = 10000

// SaturationCap bounds a ConstraintVector component (spec: 2^31 for safety).
const SaturationCap int64 = 1 << 31

// ErrOverflow is returned by operations that would exceed safe int64 range.
var ErrOverflow = errors.New("fixedpoint: overflow")

// Add returns a+b, erroring rather than wrapping on overflow.
func Add(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b, erroring rather than wrapping on overflow.
func Sub(a, b int64) (int64, error) {
	diff := a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		return 0, ErrOverflow
	}
	return diff, nil
}

// Mul returns a*b, erroring rather than wrapping on overflow.
func Mul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if p/a != b {
		return 0, ErrOverflow
	}
	return p, nil
}

// MulDiv computes a*b/scale, the standard fixed-point multiply, rounding
// toward zero. Used for every "percentage of" computation in the kernel
// (density weighting, confidence ratios).
func MulDiv(a, b, scale int64) (int64, error) {
	if scale == 0 {
		return 0, errors.New("fixedpoint: division by zero scale")
	}
	p, err := Mul(a, b)
	if err != nil {
		return 0, err
	}
	return p / scale, nil
}

// SaturateNonNegative clamps v to [0, cap]. Returns the clamped value and
// whether clamping actually occurred (callers use this to attribute
// secondary_debt on saturation, per spec §4.3 apply_constraint_change).
func SaturateNonNegative(v, cap int64) (int64, bool) {
	if v < 0 {
		return 0, true
	}
	if v > cap {
		return cap, true
	}
	return v, false
}

// Ratio computes numerator*Scale/denominator as a fixed-point value in
// [0, Scale], returning 0 if denominator is 0 (the graph-density convention
// for n<2, spec §4.5).
func Ratio(numerator, denominator int64) int64 {
	if denominator <= 0 {
		return 0
	}
	v, err := MulDiv(numerator, Scale, denominator)
	if err != nil {
		return Scale
	}
	if v < 0 {
		return 0
	}
	if v > Scale {
		return Scale
	}
	return v
}
