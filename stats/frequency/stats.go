// Package frequency measures rendered audio in the frequency domain: the
// dominant frequency of a tone and the shape of its spectrum.
package frequency

import (
	"errors"
	"math"
	"math/bits"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-webaudio/dsp/core"
)

// ErrEmpty is returned when there is nothing to analyze.
var ErrEmpty = errors.New("frequency: empty signal")

// Stats describes a one-sided magnitude spectrum.
//
//nolint:revive
type Stats struct {
	BinCount      int
	Max           float64 // largest bin magnitude
	MaxBin        int
	Peak_dB       float64
	PeakFrequency float64 // Hz, refined between bins
	Centroid      float64 // Hz
	Rolloff       float64 // Hz below which 85% of the energy lies
	Flatness      float64 // 0 for a pure tone, 1 for white noise
}

// binFreq returns the frequency of bin i of a spectrum with binCount bins.
func binFreq(i float64, sampleRate float64, binCount int) float64 {
	return i * sampleRate / float64(2*(binCount-1))
}

// Magnitude returns the Hann-windowed one-sided magnitude spectrum of
// signal, zero-padded to a power of two. A full-scale sine centred on a bin
// measures 1.
func Magnitude(signal []float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmpty
	}
	n := 1 << bits.Len(uint(len(signal)-1))
	n = max(n, 2)

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, err
	}

	buf := make([]complex128, n)
	sumW := 0.0
	for i, v := range signal {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(len(signal)))
		sumW += w
		buf[i] = complex(v*w, 0)
	}
	if err := plan.Forward(buf, buf); err != nil {
		return nil, err
	}
	if sumW == 0 {
		sumW = 1
	}

	mag := make([]float64, n/2+1)
	for i := range mag {
		re, im := real(buf[i]), imag(buf[i])
		mag[i] = 2 * math.Hypot(re, im) / sumW
	}
	return mag, nil
}

// Analyze computes the spectrum of signal and its statistics.
func Analyze(signal []float64, sampleRate float64) (Stats, error) {
	mag, err := Magnitude(signal)
	if err != nil {
		return Stats{}, err
	}
	return Calculate(mag, sampleRate), nil
}

// Calculate computes statistics of a one-sided magnitude spectrum
// (linear, bin 0 is DC, the last bin is Nyquist).
func Calculate(magnitude []float64, sampleRate float64) Stats {
	n := len(magnitude)
	s := Stats{BinCount: n, Peak_dB: math.Inf(-1)}
	if n < 2 {
		return s
	}

	var sum, weighted, energy float64
	for i, v := range magnitude {
		sum += v
		weighted += v * binFreq(float64(i), sampleRate, n)
		energy += v * v
		if v > s.Max {
			s.Max = v
			s.MaxBin = i
		}
	}
	if sum == 0 {
		return s
	}

	s.Peak_dB = core.LinearToDB(s.Max)
	s.PeakFrequency = binFreq(float64(s.MaxBin)+refine(magnitude, s.MaxBin), sampleRate, n)
	s.Centroid = weighted / sum
	s.Rolloff = rolloff(magnitude, sampleRate, 0.85, energy)
	s.Flatness = flatness(magnitude)
	return s
}

// refine fits a parabola through the log magnitudes around bin k and
// returns the offset of its vertex in bins.
func refine(magnitude []float64, k int) float64 {
	if k == 0 || k == len(magnitude)-1 {
		return 0
	}
	a, b, c := magnitude[k-1], magnitude[k], magnitude[k+1]
	if a <= 0 || b <= 0 || c <= 0 {
		return 0
	}
	la, lb, lc := math.Log(a), math.Log(b), math.Log(c)
	den := la - 2*lb + lc
	if den == 0 {
		return 0
	}
	return 0.5 * (la - lc) / den
}

func rolloff(magnitude []float64, sampleRate, percent, energy float64) float64 {
	threshold := percent * energy
	acc := 0.0
	for i, v := range magnitude {
		acc += v * v
		if acc >= threshold {
			return binFreq(float64(i), sampleRate, len(magnitude))
		}
	}
	return binFreq(float64(len(magnitude)-1), sampleRate, len(magnitude))
}

// flatness is the ratio of geometric to arithmetic mean. Zero bins make it
// zero.
func flatness(magnitude []float64) float64 {
	logSum, sum := 0.0, 0.0
	for _, v := range magnitude {
		if v <= 0 {
			return 0
		}
		logSum += math.Log(v)
		sum += v
	}
	n := float64(len(magnitude))
	return math.Exp(logSum/n) / (sum / n)
}
