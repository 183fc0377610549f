// Package time measures rendered audio in the time domain: levels for
// checking gains and attenuation, and sample-to-sample jumps for finding
// clicks at block boundaries.
package time

import (
	"math"

	"github.com/cwbudde/algo-webaudio/dsp/core"
)

// Stats holds time-domain level statistics of one channel.
//
//nolint:revive
type Stats struct {
	Length         int
	DC             float64 // mean
	RMS            float64
	RMS_dB         float64
	Peak           float64 // max |x|
	PeakPos        int
	Peak_dB        float64
	CrestFactor    float64 // peak / RMS (linear)
	CrestFactor_dB float64
	MaxJump        float64 // max |x[i] - x[i-1]|
	MaxJumpPos     int     // i of the largest jump
	ZeroCrossings  int
}

// Calculate computes every statistic in a single pass.
func Calculate(signal []float64) Stats {
	var s StreamingStats
	s.Update(signal)
	return s.Result()
}

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sum float64
	for _, x := range signal {
		sum += x * x
	}

	return math.Sqrt(sum / float64(len(signal)))
}

// Peak returns the peak absolute amplitude of the signal.
func Peak(signal []float64) float64 {
	var peak float64
	for _, x := range signal {
		peak = math.Max(peak, math.Abs(x))
	}

	return peak
}

// CrestFactor returns the crest factor (peak / RMS) of the signal.
// Returns 0 if RMS is zero.
func CrestFactor(signal []float64) float64 {
	rms := RMS(signal)
	if rms == 0 {
		return 0
	}

	return Peak(signal) / rms
}

// MaxJump returns the largest absolute difference between neighbouring
// samples and the index of the later sample. A signal shorter than two
// samples has no jump.
func MaxJump(signal []float64) (jump float64, pos int) {
	for i := 1; i < len(signal); i++ {
		if d := math.Abs(signal[i] - signal[i-1]); d > jump {
			jump, pos = d, i
		}
	}

	return jump, pos
}

// Discontinuities returns the indices where a sample differs from its
// predecessor by more than threshold.
func Discontinuities(signal []float64, threshold float64) []int {
	var idx []int
	for i := 1; i < len(signal); i++ {
		if math.Abs(signal[i]-signal[i-1]) > threshold {
			idx = append(idx, i)
		}
	}

	return idx
}

// StreamingStats accumulates statistics across blocks. Jumps and zero
// crossings are tracked across block boundaries, so feeding a signal in
// render quanta gives the same result as Calculate on the whole signal.
type StreamingStats struct {
	n             int
	sum           float64
	sumSq         float64
	peak          float64
	peakPos       int
	jump          float64
	jumpPos       int
	zeroCrossings int
	last          float64
}

// NewStreamingStats creates a new StreamingStats accumulator.
func NewStreamingStats() *StreamingStats {
	return &StreamingStats{}
}

// Update adds a block of samples to the running statistics.
func (s *StreamingStats) Update(samples []float64) {
	for _, x := range samples {
		if a := math.Abs(x); a > s.peak {
			s.peak, s.peakPos = a, s.n
		}

		if s.n > 0 {
			if d := math.Abs(x - s.last); d > s.jump {
				s.jump, s.jumpPos = d, s.n
			}
			if s.last*x < 0 {
				s.zeroCrossings++
			}
		}

		s.sum += x
		s.sumSq += x * x
		s.last = x
		s.n++
	}
}

// Result computes the final statistics from accumulated data.
func (s *StreamingStats) Result() Stats {
	if s.n == 0 {
		return Stats{
			RMS_dB:         math.Inf(-1),
			Peak_dB:        math.Inf(-1),
			CrestFactor_dB: math.Inf(-1),
		}
	}

	nf := float64(s.n)
	rms := math.Sqrt(s.sumSq / nf)

	var crest float64
	crestdB := math.Inf(-1)
	if rms > 0 {
		crest = s.peak / rms
		crestdB = core.LinearToDB(crest)
	}

	return Stats{
		Length:         s.n,
		DC:             s.sum / nf,
		RMS:            rms,
		RMS_dB:         core.LinearToDB(rms),
		Peak:           s.peak,
		PeakPos:        s.peakPos,
		Peak_dB:        core.LinearToDB(s.peak),
		CrestFactor:    crest,
		CrestFactor_dB: crestdB,
		MaxJump:        s.jump,
		MaxJumpPos:     s.jumpPos,
		ZeroCrossings:  s.zeroCrossings,
	}
}

// Reset clears all accumulated data, allowing the StreamingStats to be reused.
func (s *StreamingStats) Reset() {
	*s = StreamingStats{}
}
