package spatial

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-webaudio/dsp/core"
)

// SmoothingTimeConstant is the time constant, in seconds, of the equal-power
// gain smoothing.
const SmoothingTimeConstant = 0.05

// EqualPower applies the equal-power pan law with per-sample gain smoothing.
// The first block after construction or Reset uses the target gains directly.
type EqualPower struct {
	smoothing float64

	gainL, gainR float64
	primed       bool

	envL, envR []float64
	scratch    []float64
}

// NewEqualPower returns a panner for the given sample rate.
func NewEqualPower(sampleRate float64) *EqualPower {
	return &EqualPower{
		smoothing: 1 - math.Exp(-1/(sampleRate*SmoothingTimeConstant)),
	}
}

// Reset discards the smoothing state.
func (p *EqualPower) Reset() {
	p.primed = false
	p.gainL, p.gainR = 0, 0
}

// Gains returns the target left and right gains for azimuth. For a mono
// input both gains scale the single channel; for a stereo input the gain of
// the side the source moves away from cross-feeds into the other side.
func Gains(azimuth float64, stereoInput bool) (left, right float64) {
	azimuth = foldAzimuth(azimuth)

	var pan float64
	switch {
	case !stereoInput:
		pan = (azimuth + 90) / 180
	case azimuth <= 0:
		pan = (azimuth + 90) / 90
	default:
		pan = azimuth / 90
	}

	return math.Cos(math.Pi / 2 * pan), math.Sin(math.Pi / 2 * pan)
}

// Process pans in into outL and outR. in holds one (mono) or two (stereo)
// channels; all slices must have the same length.
func (p *EqualPower) Process(outL, outR []float64, in [][]float64, azimuth float64) {
	n := len(outL)
	stereo := len(in) >= 2

	targetL, targetR := Gains(azimuth, stereo)
	if !p.primed {
		p.gainL, p.gainR = targetL, targetR
		p.primed = true
	}

	p.envL = core.EnsureLen(p.envL, n)
	p.envR = core.EnsureLen(p.envR, n)
	p.scratch = core.EnsureLen(p.scratch, n)

	gl, gr := p.gainL, p.gainR
	for i := range n {
		gl += (targetL - gl) * p.smoothing
		gr += (targetR - gr) * p.smoothing
		p.envL[i] = gl
		p.envR[i] = gr
	}
	p.gainL, p.gainR = core.FlushDenormals(gl), core.FlushDenormals(gr)

	if !stereo {
		vecmath.MulBlock(outL, in[0][:n], p.envL)
		vecmath.MulBlock(outR, in[0][:n], p.envR)
		return
	}

	inL, inR := in[0][:n], in[1][:n]
	if azimuth := foldAzimuth(azimuth); azimuth <= 0 {
		// outL = L + R*gL, outR = R*gR
		vecmath.MulBlock(p.scratch, inR, p.envL)
		for i := range n {
			outL[i] = inL[i] + p.scratch[i]
		}
		vecmath.MulBlock(outR, inR, p.envR)
		return
	}

	// outL = L*gL, outR = R + L*gR
	vecmath.MulBlock(p.scratch, inL, p.envR)
	for i := range n {
		outR[i] = inR[i] + p.scratch[i]
	}
	vecmath.MulBlock(outL, inL, p.envL)
}

// foldAzimuth clamps to [-180, 180] and folds sources behind onto the front
// half.
func foldAzimuth(azimuth float64) float64 {
	azimuth = core.Clamp(azimuth, -180, 180)
	switch {
	case azimuth < -90:
		return -180 - azimuth
	case azimuth > 90:
		return 180 - azimuth
	}
	return azimuth
}
