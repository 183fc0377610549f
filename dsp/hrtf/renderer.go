package hrtf

import (
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-webaudio/dsp/conv"
)

// directionEpsilon is the smallest direction change, in degrees, that
// triggers a kernel update.
const directionEpsilon = 1e-3

// Renderer convolves a mono stream with the responses of a moving direction.
// It keeps two convolver pairs; when the direction changes the idle pair is
// loaded with the new responses, both pairs run for one block and the output
// crossfades from the old pair to the new one.
//
// Renderer is not safe for concurrent use.
type Renderer struct {
	db        *Database
	blockSize int

	pairs  [2][2]*conv.StreamingOverlapSave
	active int

	primed             bool
	azimuth, elevation float64

	kernelL, kernelR []float64
	mono             []float64
	bufA, bufB       [2][]float64
	fadeIn, fadeOut  []float64
}

// NewRenderer returns a renderer for blocks of blockSize frames.
func NewRenderer(db *Database, blockSize int) (*Renderer, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil database", ErrOption)
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: block size %d", ErrOption, blockSize)
	}

	r := &Renderer{
		db:        db,
		blockSize: blockSize,
		kernelL:   make([]float64, db.kernelLen),
		kernelR:   make([]float64, db.kernelLen),
		mono:      make([]float64, blockSize),
		fadeIn:    make([]float64, blockSize),
		fadeOut:   make([]float64, blockSize),
	}
	for i := range 2 {
		r.bufA[i] = make([]float64, blockSize)
		r.bufB[i] = make([]float64, blockSize)
	}

	for p := range 2 {
		for ear := range 2 {
			c, err := conv.NewStreamingOverlapSave(r.kernelL, blockSize)
			if err != nil {
				return nil, err
			}
			r.pairs[p][ear] = c
		}
	}

	for i := range blockSize {
		x := float64(i+1) / float64(blockSize)
		r.fadeIn[i] = x
		r.fadeOut[i] = 1 - x
	}

	return r, nil
}

// BlockSize returns the block length.
func (r *Renderer) BlockSize() int { return r.blockSize }

// Reset discards the convolution tails and the current direction.
func (r *Renderer) Reset() {
	for p := range 2 {
		for ear := range 2 {
			r.pairs[p][ear].Reset()
		}
	}
	r.primed = false
}

// Process renders one block. in holds one or more channels of BlockSize()
// frames, downmixed to mono by averaging; outL and outR receive the binaural
// result.
func (r *Renderer) Process(outL, outR []float64, in [][]float64, azimuth, elevation float64) error {
	if len(outL) != r.blockSize || len(outR) != r.blockSize {
		return fmt.Errorf("%w: output length %d/%d, want %d", conv.ErrLengthMismatch, len(outL), len(outR), r.blockSize)
	}

	r.downmix(in)

	if !r.primed {
		r.db.Kernels(azimuth, elevation, r.kernelL, r.kernelR)
		if err := r.loadPair(r.active); err != nil {
			return err
		}
		r.azimuth, r.elevation = azimuth, elevation
		r.primed = true
		return r.runPair(r.active, outL, outR)
	}

	if math.Abs(azimuth-r.azimuth) < directionEpsilon && math.Abs(elevation-r.elevation) < directionEpsilon {
		return r.runPair(r.active, outL, outR)
	}

	next := 1 - r.active
	r.db.Kernels(azimuth, elevation, r.kernelL, r.kernelR)
	for ear := range 2 {
		if err := r.pairs[next][ear].CopyHistoryFrom(r.pairs[r.active][ear]); err != nil {
			return err
		}
	}
	if err := r.loadPair(next); err != nil {
		return err
	}

	if err := r.runPair(r.active, r.bufA[0], r.bufA[1]); err != nil {
		return err
	}
	if err := r.runPair(next, r.bufB[0], r.bufB[1]); err != nil {
		return err
	}

	for ear, out := range [2][]float64{outL, outR} {
		vecmath.MulBlockInPlace(r.bufA[ear], r.fadeOut)
		vecmath.MulBlockInPlace(r.bufB[ear], r.fadeIn)
		for i := range out {
			out[i] = r.bufA[ear][i] + r.bufB[ear][i]
		}
	}

	r.active = next
	r.azimuth, r.elevation = azimuth, elevation
	return nil
}

func (r *Renderer) downmix(in [][]float64) {
	clear(r.mono)
	if len(in) == 0 {
		return
	}
	scale := 1 / float64(len(in))
	for _, ch := range in {
		for i := range r.mono {
			r.mono[i] += ch[i] * scale
		}
	}
}

func (r *Renderer) loadPair(p int) error {
	if err := r.pairs[p][0].SetKernel(r.kernelL); err != nil {
		return err
	}
	return r.pairs[p][1].SetKernel(r.kernelR)
}

func (r *Renderer) runPair(p int, outL, outR []float64) error {
	if err := r.pairs[p][0].ProcessBlockTo(outL, r.mono); err != nil {
		return err
	}
	return r.pairs[p][1].ProcessBlockTo(outR, r.mono)
}
