package interp

import "testing"

func TestHermite4IdentityOnLinearRamp(t *testing.T) {
	xm1, x0, x1, x2 := -1.0, 0.0, 1.0, 2.0
	for _, tc := range []struct {
		t float64
		w float64
	}{
		{t: 0.0, w: 0.0},
		{t: 0.25, w: 0.25},
		{t: 0.5, w: 0.5},
		{t: 1.0, w: 1.0},
	} {
		got := Hermite4(tc.t, xm1, x0, x1, x2)
		if diff := got - tc.w; diff < -1e-12 || diff > 1e-12 {
			t.Fatalf("t=%v: got %v want %v", tc.t, got, tc.w)
		}
	}
}

func TestHermite4ReproducesQuadratic(t *testing.T) {
	// x^2 sampled at 1, 2, 3, 4; midpoint between 2 and 3 is 6.25.
	got := Hermite4(0.5, 1, 4, 9, 16)
	if d := got - 6.25; d < -1e-12 || d > 1e-12 {
		t.Fatalf("Hermite4 = %v, want 6.25", got)
	}
	if got := Linear2(0.5, 4, 9); got != 6.5 {
		t.Fatalf("Linear2 = %v, want 6.5", got)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Linear, Cubic} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("sinc"); err == nil {
		t.Fatal("ParseMode(sinc) error = nil")
	}
}
