// Package decode turns encoded audio files into AudioBuffers.
//
// Decoders are looked up by format tag ("wav", "aiff", "mp3", "ogg") in a
// Registry. Decoded samples are normalized to [-1, 1] and keep the file's
// sample rate; Resample converts a buffer to another rate.
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
)

// Errors returned by decoders.
var (
	ErrUnknownFormat = errors.New("decode: unknown format")
	ErrMalformed     = errors.New("decode: malformed data")
	ErrUnsupported   = errors.New("decode: unsupported encoding")
	ErrEmpty         = errors.New("decode: no audio frames")
)

// Decoder decodes one encoded stream.
type Decoder interface {
	Decode(r io.ReadSeeker) (*buffer.AudioBuffer, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(r io.ReadSeeker) (*buffer.AudioBuffer, error)

// Decode calls f.
func (f DecoderFunc) Decode(r io.ReadSeeker) (*buffer.AudioBuffer, error) { return f(r) }

// Registry maps format tags to decoders. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Decoder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

// NewDefaultRegistry returns a registry with every built-in format.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("wav", WAV{})
	r.Register("wave", WAV{})
	r.Register("aiff", AIFF{})
	r.Register("aif", AIFF{})
	r.Register("mp3", MP3{})
	r.Register("ogg", Vorbis{})
	r.Register("vorbis", Vorbis{})
	return r
}

var defaultRegistry = NewDefaultRegistry()

// Register adds or replaces the decoder for format. Tags are case-insensitive.
func (r *Registry) Register(format string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.codecs[strings.ToLower(format)] = d
}

// Lookup returns the decoder for format.
func (r *Registry) Lookup(format string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.codecs[strings.ToLower(format)]
	return d, ok
}

// Formats returns the registered tags in sorted order.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.codecs))
	for k := range r.codecs {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Decode decodes data with the decoder registered for format.
func (r *Registry) Decode(format string, data []byte) (*buffer.AudioBuffer, error) {
	d, ok := r.Lookup(format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	b, err := d.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", strings.ToLower(format), err)
	}
	return b, nil
}

// Decode decodes data with the default registry.
func Decode(format string, data []byte) (*buffer.AudioBuffer, error) {
	return defaultRegistry.Decode(format, data)
}

// Formats lists the tags of the default registry.
func Formats() []string {
	return defaultRegistry.Formats()
}

// fullScale returns the magnitude of full scale for a PCM bit depth.
func fullScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128
	case 24:
		return 8388608
	case 32:
		return 2147483648
	default:
		return 32768
	}
}

// interleavedInts converts go-audio integer PCM to normalized float32.
func interleavedInts(data []int, bitDepth int) []float32 {
	scale := fullScale(bitDepth)
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v) / scale
	}
	return out
}
