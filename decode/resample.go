package decode

import (
	"errors"
	"fmt"
	"math"

	"github.com/dh1tw/gosamplerate"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
)

// ErrResample is returned when sample-rate conversion fails.
var ErrResample = errors.New("decode: resample failed")

// Quality selects the libsamplerate converter.
type Quality int

// Converter qualities, from best to fastest.
const (
	QualityBest   = Quality(gosamplerate.SRC_SINC_BEST_QUALITY)
	QualityMedium = Quality(gosamplerate.SRC_SINC_MEDIUM_QUALITY)
	QualityFast   = Quality(gosamplerate.SRC_SINC_FASTEST)
	QualityLinear = Quality(gosamplerate.SRC_LINEAR)
)

// Resample converts b to rate. The result has
// round(length * rate / b.SampleRate()) frames. A buffer already at rate is
// returned as a clone.
func Resample(b *buffer.AudioBuffer, rate float64, q Quality) (*buffer.AudioBuffer, error) {
	if !(rate > 0) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("%w: target rate %v", ErrResample, rate)
	}
	if b.SampleRate() == rate {
		return b.Clone(), nil
	}

	ratio := rate / b.SampleRate()
	channels := b.NumberOfChannels()
	want := int(math.Round(float64(b.Length()) * ratio))

	var out []float32
	if b.Length() > 0 {
		var err error
		out, err = gosamplerate.Simple(b.Interleaved(), ratio, channels, int(q))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResample, err)
		}
	}

	// libsamplerate may deliver a frame more or less than the exact ratio.
	fixed := make([]float32, want*channels)
	copy(fixed, out)

	return buffer.FromInterleaved(rate, channels, fixed)
}
