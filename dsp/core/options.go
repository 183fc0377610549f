package core

import (
	"errors"
	"fmt"
	"math"
)

// Defaults for a render configuration.
const (
	DefaultSampleRate  = 44100
	DefaultQuantumSize = 128
	MaxQuantumSize     = 16384
)

// ErrInvalidConfig is returned by RenderConfig.Validate.
var ErrInvalidConfig = errors.New("core: invalid render config")

// RenderConfig defines the rate and block size a render loop runs at.
// QuantumSize is the number of frames processed per engine tick.
type RenderConfig struct {
	SampleRate  float64
	QuantumSize int
}

// RenderOption mutates a RenderConfig.
type RenderOption func(*RenderConfig)

// DefaultRenderConfig returns 44.1 kHz with 128-frame quanta.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		SampleRate:  DefaultSampleRate,
		QuantumSize: DefaultQuantumSize,
	}
}

// WithSampleRate sets the render sample rate.
func WithSampleRate(sampleRate float64) RenderOption {
	return func(cfg *RenderConfig) {
		cfg.SampleRate = sampleRate
	}
}

// WithQuantumSize sets the number of frames per render quantum.
func WithQuantumSize(frames int) RenderOption {
	return func(cfg *RenderConfig) {
		cfg.QuantumSize = frames
	}
}

// ApplyRenderOptions applies zero or more options to the default config.
// The result is not validated; call Validate before using it.
func ApplyRenderOptions(opts ...RenderOption) RenderConfig {
	cfg := DefaultRenderConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Validate reports whether the configuration can drive a render loop.
func (c RenderConfig) Validate() error {
	if c.SampleRate <= 0 || !IsFinite(c.SampleRate) {
		return fmt.Errorf("%w: sample rate must be > 0 and finite, got %v", ErrInvalidConfig, c.SampleRate)
	}
	if c.QuantumSize <= 0 || c.QuantumSize > MaxQuantumSize {
		return fmt.Errorf("%w: quantum size must be in [1, %d], got %d", ErrInvalidConfig, MaxQuantumSize, c.QuantumSize)
	}
	return nil
}

// QuantaFor returns how many quanta cover frames, ceil(frames/QuantumSize).
func (c RenderConfig) QuantaFor(frames int) int {
	if frames <= 0 || c.QuantumSize <= 0 {
		return 0
	}
	return (frames + c.QuantumSize - 1) / c.QuantumSize
}

// FramesFor converts a duration in seconds to a whole frame count.
func (c RenderConfig) FramesFor(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(seconds * c.SampleRate))
}
