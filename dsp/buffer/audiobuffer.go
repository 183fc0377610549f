package buffer

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// Errors returned by AudioBuffer operations.
var (
	ErrInvalidChannels   = errors.New("buffer: number of channels must be > 0")
	ErrInvalidLength     = errors.New("buffer: length must be >= 0")
	ErrInvalidSampleRate = errors.New("buffer: sample rate must be > 0 and finite")
	ErrChannelIndex      = errors.New("buffer: channel index out of range")
	ErrFrameIndex        = errors.New("buffer: start frame out of range")
	ErrRaggedChannels    = errors.New("buffer: channels differ in length")
	ErrFrozen            = errors.New("buffer: buffer is frozen")
)

// AudioBuffer holds multichannel PCM samples. Every channel has exactly
// Length() samples.
type AudioBuffer struct {
	sampleRate float64
	length     int
	channels   [][]float64
	frozen     atomic.Bool
}

// New allocates a silent buffer.
func New(numberOfChannels, length int, sampleRate float64) (*AudioBuffer, error) {
	if err := validateShape(numberOfChannels, length, sampleRate); err != nil {
		return nil, err
	}

	channels := make([][]float64, numberOfChannels)
	for i := range channels {
		channels[i] = make([]float64, length)
	}

	return &AudioBuffer{
		sampleRate: sampleRate,
		length:     length,
		channels:   channels,
	}, nil
}

// FromChannels builds a buffer from planar data. The data is copied.
func FromChannels(sampleRate float64, data ...[]float64) (*AudioBuffer, error) {
	if len(data) == 0 {
		return nil, ErrInvalidChannels
	}

	length := len(data[0])
	for _, ch := range data[1:] {
		if len(ch) != length {
			return nil, ErrRaggedChannels
		}
	}

	b, err := New(len(data), length, sampleRate)
	if err != nil {
		return nil, err
	}

	for i, ch := range data {
		copy(b.channels[i], ch)
	}

	return b, nil
}

// FromInterleaved builds a buffer from interleaved float32 samples, the
// layout decoders and capture devices produce. A trailing partial frame is
// dropped.
func FromInterleaved(sampleRate float64, numberOfChannels int, interleaved []float32) (*AudioBuffer, error) {
	if numberOfChannels <= 0 {
		return nil, ErrInvalidChannels
	}

	frames := len(interleaved) / numberOfChannels

	b, err := New(numberOfChannels, frames, sampleRate)
	if err != nil {
		return nil, err
	}

	for f := range frames {
		base := f * numberOfChannels
		for ch := range numberOfChannels {
			b.channels[ch][f] = float64(interleaved[base+ch])
		}
	}

	return b, nil
}

func validateShape(numberOfChannels, length int, sampleRate float64) error {
	if numberOfChannels <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidChannels, numberOfChannels)
	}
	if length < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidLength, length)
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidSampleRate, sampleRate)
	}
	return nil
}

// SampleRate returns the sample rate in Hz.
func (b *AudioBuffer) SampleRate() float64 { return b.sampleRate }

// NumberOfChannels returns the channel count.
func (b *AudioBuffer) NumberOfChannels() int { return len(b.channels) }

// Length returns the number of frames per channel.
func (b *AudioBuffer) Length() int { return b.length }

// Duration returns the length in seconds.
func (b *AudioBuffer) Duration() float64 {
	return float64(b.length) / b.sampleRate
}

// Frozen reports whether the buffer has been made read-only.
func (b *AudioBuffer) Frozen() bool { return b.frozen.Load() }

// Freeze makes the buffer read-only. Playback nodes freeze the buffers they
// are given so the render thread never reads samples that are being written.
func (b *AudioBuffer) Freeze() { b.frozen.Store(true) }

// CopyFromChannel copies samples of one channel, starting at startFrame, into
// dst. It returns the number of frames copied.
func (b *AudioBuffer) CopyFromChannel(dst []float64, channel, startFrame int) (int, error) {
	if channel < 0 || channel >= len(b.channels) {
		return 0, fmt.Errorf("%w: %d of %d", ErrChannelIndex, channel, len(b.channels))
	}
	if startFrame < 0 || startFrame > b.length {
		return 0, fmt.Errorf("%w: %d of %d", ErrFrameIndex, startFrame, b.length)
	}

	return copy(dst, b.channels[channel][startFrame:]), nil
}

// CopyToChannel copies src into one channel starting at startFrame. Samples
// that would run past Length() are ignored. It returns the number of frames
// written.
func (b *AudioBuffer) CopyToChannel(src []float64, channel, startFrame int) (int, error) {
	if b.frozen.Load() {
		return 0, ErrFrozen
	}
	if channel < 0 || channel >= len(b.channels) {
		return 0, fmt.Errorf("%w: %d of %d", ErrChannelIndex, channel, len(b.channels))
	}
	if startFrame < 0 || startFrame > b.length {
		return 0, fmt.Errorf("%w: %d of %d", ErrFrameIndex, startFrame, b.length)
	}

	return copy(b.channels[channel][startFrame:], src), nil
}

// ChannelData returns a copy of one channel.
func (b *AudioBuffer) ChannelData(channel int) ([]float64, error) {
	out := make([]float64, b.length)
	if _, err := b.CopyFromChannel(out, channel, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// Clone returns an unfrozen deep copy.
func (b *AudioBuffer) Clone() *AudioBuffer {
	out := &AudioBuffer{
		sampleRate: b.sampleRate,
		length:     b.length,
		channels:   make([][]float64, len(b.channels)),
	}
	for i, ch := range b.channels {
		out.channels[i] = append([]float64(nil), ch...)
	}
	return out
}

// Interleaved returns the samples as interleaved float32, the layout playback
// devices and encoders consume.
func (b *AudioBuffer) Interleaved() []float32 {
	n := len(b.channels)
	out := make([]float32, b.length*n)
	for f := range b.length {
		for ch := range n {
			out[f*n+ch] = float32(b.channels[ch][f])
		}
	}
	return out
}

// sample reads one sample without bounds reporting; callers validate.
func (b *AudioBuffer) sample(channel, frame int) float64 {
	return b.channels[channel][frame]
}

// Sample returns one sample, or 0 when the position is out of range.
func (b *AudioBuffer) Sample(channel, frame int) float64 {
	if channel < 0 || channel >= len(b.channels) || frame < 0 || frame >= b.length {
		return 0
	}
	return b.sample(channel, frame)
}

// reset reshapes a pooled buffer, reusing channel storage where possible.
func (b *AudioBuffer) reset(numberOfChannels, length int, sampleRate float64) {
	b.frozen.Store(false)
	b.sampleRate = sampleRate
	b.length = length

	if cap(b.channels) < numberOfChannels {
		b.channels = make([][]float64, numberOfChannels)
	}
	b.channels = b.channels[:numberOfChannels]

	for i := range b.channels {
		ch := b.channels[i]
		if cap(ch) < length {
			ch = make([]float64, length)
		}
		ch = ch[:length]
		for j := range ch {
			ch[j] = 0
		}
		b.channels[i] = ch
	}
}
