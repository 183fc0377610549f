package testutil

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Ramp returns start, start+step, start+2*step, ... Consecutive ramps with
// matching ends make gaps and overlaps visible in rendered output.
func Ramp(start, step float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// MustBuffer builds an AudioBuffer from channel data or fails t.
func MustBuffer(t testing.TB, sampleRate float64, channels ...[]float64) *buffer.AudioBuffer {
	t.Helper()

	b, err := buffer.FromChannels(sampleRate, channels...)
	if err != nil {
		t.Fatalf("FromChannels() error = %v", err)
	}
	return b
}
