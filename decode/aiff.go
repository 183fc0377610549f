package decode

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
)

// AIFF decodes AIFF integer PCM.
type AIFF struct{}

// Decode implements Decoder.
func (AIFF) Decode(r io.ReadSeeker) (*buffer.AudioBuffer, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not an aiff file", ErrMalformed)
	}
	dec.ReadInfo()

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing aiff common chunk", ErrMalformed)
	}

	samples, err := readPCM(dec.PCMBuffer, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(samples) < format.NumChannels {
		return nil, ErrEmpty
	}

	return buffer.FromInterleaved(float64(format.SampleRate), format.NumChannels,
		interleavedInts(samples, int(dec.BitDepth)))
}
