// ABOUTME: Rational timestamp conversion between stream time bases
// ABOUTME: Implements overflow-safe rescaling with millisecond helpers
package timebase

import (
	"math"
	"math/bits"

	"github.com/nonibytes/ffgo"
)

// Millis is the 1/1000 time base that all player-facing times use.
var Millis = ffgo.NewRational(1, 1000)

// Micros is the AV_TIME_BASE (1/1000000) time base used for
// container-level durations and seeks.
var Micros = ffgo.NewRational(1, 1000000)

// ToMillis converts a timestamp in the given time base to milliseconds.
func ToMillis(ts int64, tb ffgo.Rational) int64 {
	return Rescale(ts, tb, Millis)
}

// FromMillis converts a millisecond value to a timestamp in the given
// time base.
func FromMillis(ms int64, tb ffgo.Rational) int64 {
	return Rescale(ms, Millis, tb)
}

// Rescale converts v from one time base to another, rounding to the
// nearest destination tick. A zero numerator or denominator on either
// side yields 0 rather than dividing by zero.
func Rescale(v int64, from, to ffgo.Rational) int64 {
	if from.Num == 0 || from.Den == 0 || to.Num == 0 || to.Den == 0 {
		return 0
	}
	b := int64(from.Num) * int64(to.Den)
	c := int64(from.Den) * int64(to.Num)
	return rescaleRnd(v, b, c)
}

// rescaleRnd computes v*b/c with rounding half away from zero using a
// 128-bit intermediate, so multi-hour timestamps in microsecond-or-finer
// time bases never overflow. The result saturates at the int64 range.
func rescaleRnd(v, b, c int64) int64 {
	if v == math.MinInt64 {
		// AV_NOPTS_VALUE and friends have no meaningful rescale.
		return 0
	}

	neg := false
	if v < 0 {
		v = -v
		neg = !neg
	}
	if b < 0 {
		b = -b
		neg = !neg
	}
	if c < 0 {
		c = -c
		neg = !neg
	}
	if c == 0 {
		return 0
	}

	hi, lo := bits.Mul64(uint64(v), uint64(b))
	half := uint64(c) / 2
	lo, carry := bits.Add64(lo, half, 0)
	hi += carry

	if hi >= uint64(c) {
		if neg {
			return math.MinInt64
		}
		return math.MaxInt64
	}

	q, _ := bits.Div64(hi, lo, uint64(c))
	if q > math.MaxInt64 {
		if neg {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	if neg {
		return -int64(q)
	}
	return int64(q)
}
