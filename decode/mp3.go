package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
)

// MP3 decodes MPEG-1/2 Layer III. go-mp3 always produces 16-bit stereo.
type MP3 struct{}

// Decode implements Decoder.
func (MP3) Decode(r io.ReadSeeker) (*buffer.AudioBuffer, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768
	}
	if len(samples) < 2 {
		return nil, ErrEmpty
	}

	return buffer.FromInterleaved(float64(dec.SampleRate()), 2, samples)
}
