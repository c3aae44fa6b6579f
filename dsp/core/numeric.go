package core

import (
	"math"

	"golang.org/x/exp/constraints"
)

const (
	defaultEpsilon = 1e-12

	// SoftClipThreshold is the amplitude above which SoftClip starts to
	// saturate. Below it the signal passes unchanged.
	SoftClipThreshold = 0.95
)

// Number is any integer or floating point type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Clamp limits value to the inclusive range [lo, hi].
func Clamp[T Number](value, lo, hi T) T {
	if lo > hi {
		lo, hi = hi, lo
	}

	if value < lo {
		return lo
	}

	if value > hi {
		return hi
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// FlushDenormals converts tiny denormal-like values to exact zero.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// WrapPhase maps x into (-pi, pi].
func WrapPhase(x float64) float64 {
	if x > -math.Pi && x <= math.Pi {
		return x
	}

	x = math.Mod(x+math.Pi, 2*math.Pi)
	if x <= 0 {
		x += 2 * math.Pi
	}

	return x - math.Pi
}

// SoftClip passes |x| <= SoftClipThreshold unchanged and saturates the
// excess with tanh so the output never exceeds 1 in magnitude.
func SoftClip(x float64) float64 {
	ax := math.Abs(x)
	if ax <= SoftClipThreshold {
		return x
	}

	const headroom = 1 - SoftClipThreshold

	y := SoftClipThreshold + headroom*mathTanh((ax-SoftClipThreshold)/headroom)
	if x < 0 {
		return -y
	}

	return y
}

// Smoothstep is the cubic Hermite step 3t^2 - 2t^3 with t clamped to [0,1].
func Smoothstep(t float64) float64 {
	t = Clamp(t, 0, 1)
	return t * t * (3 - 2*t)
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * mathLog10(linear)
}

// NormalizedDB maps a linear magnitude relative to ref onto [0,1] over the
// dB range [floorDB, 0]. Values at or above ref map to 1.
func NormalizedDB(linear, ref, floorDB float64) float64 {
	if ref <= 0 || floorDB >= 0 || linear <= 0 {
		return 0
	}

	db := LinearToDB(linear / ref)
	if db <= floorDB {
		return 0
	}

	if db >= 0 {
		return 1
	}

	return (db - floorDB) / -floorDB
}
