package frequency

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-webaudio/internal/testutil"
)

func TestAnalyzeFindsTone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		freq, rate float64
	}{
		{freq: 440, rate: 44100},
		{freq: 1000, rate: 48000},
		{freq: 97.3, rate: 44100},
	}

	for _, tc := range tests {
		s, err := Analyze(testutil.DeterministicSine(tc.freq, tc.rate, 0.5, 16384), tc.rate)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		binWidth := tc.rate / 16384
		if math.Abs(s.PeakFrequency-tc.freq) > binWidth/4 {
			t.Fatalf("%v Hz: PeakFrequency = %v, want within %v", tc.freq, s.PeakFrequency, binWidth/4)
		}
		if s.Max < 0.35 || s.Max > 0.51 {
			t.Fatalf("%v Hz: Max = %v, want about 0.5", tc.freq, s.Max)
		}
	}
}

func TestMagnitudeBinCenteredSine(t *testing.T) {
	t.Parallel()

	const n = 1024
	signal := make([]float64, n)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * 64 * float64(i) / n)
	}
	mag, err := Magnitude(signal)
	if err != nil {
		t.Fatalf("Magnitude() error = %v", err)
	}
	if len(mag) != n/2+1 {
		t.Fatalf("len = %d, want %d", len(mag), n/2+1)
	}
	if math.Abs(mag[64]-1) > 1e-9 {
		t.Fatalf("mag[64] = %v, want 1", mag[64])
	}
}

func TestCalculateShape(t *testing.T) {
	t.Parallel()

	single := make([]float64, 9)
	single[4] = 1
	s := Calculate(single, 16)
	if s.MaxBin != 4 || s.Centroid != 4 || s.Flatness != 0 {
		t.Fatalf("single bin: MaxBin, Centroid, Flatness = %d, %v, %v, want 4, 4, 0", s.MaxBin, s.Centroid, s.Flatness)
	}

	flat := []float64{1, 1, 1, 1, 1}
	s = Calculate(flat, 8)
	if math.Abs(s.Flatness-1) > 1e-12 || math.Abs(s.Centroid-2) > 1e-12 {
		t.Fatalf("flat: Flatness, Centroid = %v, %v, want 1, 2", s.Flatness, s.Centroid)
	}

	silent := Calculate(make([]float64, 5), 8)
	if !math.IsInf(silent.Peak_dB, -1) || silent.PeakFrequency != 0 {
		t.Fatalf("silent: Peak_dB, PeakFrequency = %v, %v", silent.Peak_dB, silent.PeakFrequency)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	t.Parallel()

	if _, err := Analyze(nil, 44100); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Analyze(nil) error = %v, want ErrEmpty", err)
	}
}
