package decode

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/chewxy/math32"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
)

// ErrEncode is returned when writing an encoded file fails.
var ErrEncode = errors.New("decode: encode failed")

// EncodeWAV writes b as integer PCM WAV with the given bit depth (16, 24 or
// 32). Samples outside [-1, 1] are clipped.
func EncodeWAV(w io.WriteSeeker, b *buffer.AudioBuffer, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("%w: bit depth %d", ErrEncode, bitDepth)
	}

	channels := b.NumberOfChannels()
	enc := wav.NewEncoder(w, int(b.SampleRate()), bitDepth, channels, 1)

	scale := fullScale(bitDepth)
	interleaved := b.Interleaved()
	data := make([]int, len(interleaved))
	for i, v := range interleaved {
		v = math32.Max(-1, math32.Min(1, v))
		s := math32.Floor(v*scale + 0.5)
		if s > scale-1 {
			s = scale - 1
		}
		data[i] = int(s)
	}

	ib := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: int(b.SampleRate())},
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return nil
}
