package decode

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
)

const readChunk = 4096

// WAV decodes RIFF/WAVE integer PCM.
type WAV struct{}

// Decode implements Decoder.
func (WAV) Decode(r io.ReadSeeker) (*buffer.AudioBuffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a wav file", ErrMalformed)
	}

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing wav format chunk", ErrMalformed)
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: wav audio format %d", ErrUnsupported, dec.WavAudioFormat)
	}

	samples, err := readPCM(dec.PCMBuffer, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(samples) < format.NumChannels {
		return nil, ErrEmpty
	}

	if dec.BitDepth == 8 {
		// 8-bit WAV is unsigned.
		for i := range samples {
			samples[i] -= 128
		}
	}

	return buffer.FromInterleaved(float64(format.SampleRate), format.NumChannels,
		interleavedInts(samples, int(dec.BitDepth)))
}

// readPCM drains a go-audio PCM reader.
func readPCM(read func(*goaudio.IntBuffer) (int, error), format *goaudio.Format) ([]int, error) {
	buf := &goaudio.IntBuffer{
		Data:   make([]int, readChunk*format.NumChannels),
		Format: format,
	}

	var out []int
	for {
		n, err := read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if n == 0 {
			break
		}
		out = append(out, buf.Data[:n]...)
	}
	return out, nil
}
