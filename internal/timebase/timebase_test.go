// ABOUTME: Tests for rational timestamp conversion
// ABOUTME: Covers round-trips, overflow safety, and zero time-base guards
package timebase

import (
	"math"
	"testing"

	"github.com/nonibytes/ffgo"
)

func TestToMillis(t *testing.T) {
	tests := []struct {
		name string
		ts   int64
		tb   ffgo.Rational
		want int64
	}{
		{"90khz one second", 90000, ffgo.NewRational(1, 90000), 1000},
		{"microseconds", 1500000, ffgo.NewRational(1, 1000000), 1500},
		{"mkv millisecond base", 4321, ffgo.NewRational(1, 1000), 4321},
		{"coarse base", 3, ffgo.NewRational(1, 2), 1500},
		{"negative timestamp", -90000, ffgo.NewRational(1, 90000), -1000},
		{"zero", 0, ffgo.NewRational(1, 90000), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToMillis(tt.ts, tt.tb); got != tt.want {
				t.Errorf("ToMillis(%d, %d/%d) = %d, want %d",
					tt.ts, tt.tb.Num, tt.tb.Den, got, tt.want)
			}
		})
	}
}

func TestZeroTimeBase(t *testing.T) {
	if got := ToMillis(12345, ffgo.NewRational(1, 0)); got != 0 {
		t.Errorf("zero denominator: got %d, want 0", got)
	}
	if got := ToMillis(12345, ffgo.NewRational(0, 1)); got != 0 {
		t.Errorf("zero numerator: got %d, want 0", got)
	}
	if got := FromMillis(12345, ffgo.NewRational(0, 0)); got != 0 {
		t.Errorf("zero time base inverse: got %d, want 0", got)
	}
}

// Converting ms to a stream time base and back must land within one
// millisecond-equivalent of a time-base tick.
func TestRoundTrip(t *testing.T) {
	bases := []ffgo.Rational{
		ffgo.NewRational(1, 90000),
		ffgo.NewRational(1, 1000000),
		ffgo.NewRational(1, 48000),
		ffgo.NewRational(1001, 30000),
	}

	for _, tb := range bases {
		// One tick, in ms, rounded up.
		tickMs := (int64(tb.Num)*1000 + int64(tb.Den) - 1) / int64(tb.Den)
		if tickMs < 1 {
			tickMs = 1
		}
		for _, ms := range []int64{0, 1, 33, 1000, 3600000, 7200000} {
			back := ToMillis(FromMillis(ms, tb), tb)
			diff := back - ms
			if diff < 0 {
				diff = -diff
			}
			if diff > tickMs {
				t.Errorf("round trip %dms via %d/%d: got %dms (off by %d, tick %dms)",
					ms, tb.Num, tb.Den, back, diff, tickMs)
			}
		}
	}
}

// A ten-hour file in a nanosecond-scale time base must not overflow the
// naive a*b intermediate.
func TestNoIntermediateOverflow(t *testing.T) {
	tb := ffgo.NewRational(1, 1000000000)
	tenHoursNs := int64(10) * 3600 * 1000000000
	if got := ToMillis(tenHoursNs, tb); got != 36000000 {
		t.Errorf("ten hours at 1ns base = %dms, want 36000000", got)
	}
}

func TestSaturation(t *testing.T) {
	tb := ffgo.NewRational(1000000, 1) // absurdly coarse base
	if got := ToMillis(math.MaxInt64/2, tb); got != math.MaxInt64 {
		t.Errorf("expected saturation at MaxInt64, got %d", got)
	}
}

func TestNoPTSValueGuard(t *testing.T) {
	if got := ToMillis(math.MinInt64, ffgo.NewRational(1, 90000)); got != 0 {
		t.Errorf("AV_NOPTS_VALUE rescale: got %d, want 0", got)
	}
}
