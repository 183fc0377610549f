package decode

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
)

// Vorbis decodes Ogg Vorbis.
type Vorbis struct{}

// Decode implements Decoder.
func (Vorbis) Decode(r io.ReadSeeker) (*buffer.AudioBuffer, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if format == nil || format.Channels <= 0 || len(samples) < format.Channels {
		return nil, ErrEmpty
	}

	return buffer.FromInterleaved(float64(format.SampleRate), format.Channels, samples)
}
