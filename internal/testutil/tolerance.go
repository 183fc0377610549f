package testutil

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-webaudio/dsp/core"
	timestats "github.com/cwbudde/algo-webaudio/stats/time"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t testing.TB, data []float64) {
	t.Helper()
	for i, v := range data {
		if !core.IsFinite(v) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireContinuous fails t if neighbouring samples differ by more than
// threshold anywhere in data.
func RequireContinuous(t testing.TB, data []float64, threshold float64) {
	t.Helper()
	if jump, pos := timestats.MaxJump(data); jump > threshold {
		t.Fatalf("jump of %v at index %d exceeds %v (%v -> %v)", jump, pos, threshold, data[pos-1], data[pos])
	}
}
