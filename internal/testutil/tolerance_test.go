package testutil

import "testing"

func TestRequireContinuousAcceptsSmoothSignal(t *testing.T) {
	RequireContinuous(t, DeterministicSine(100, 44100, 1, 1000), 0.02)
}

func TestRequireHelpersAcceptMatchingData(t *testing.T) {
	data := Ramp(0, 0.25, 8)
	RequireSliceNearlyEqual(t, data, Ramp(0, 0.25, 8), 0)
	RequireFinite(t, data)
}
