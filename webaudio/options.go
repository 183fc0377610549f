package webaudio

import (
	"log/slog"

	"github.com/cwbudde/algo-webaudio/decode"
	"github.com/cwbudde/algo-webaudio/dsp/core"
	"github.com/cwbudde/algo-webaudio/dsp/hrtf"
)

// DefaultChannels is the destination channel count.
const DefaultChannels = 2

// MaxChannels bounds every channel count a node accepts.
const MaxChannels = 32

type contextConfig struct {
	render     core.RenderConfig
	channels   int
	logger     *slog.Logger
	onError    ProcessingErrorHandler
	errorQueue int

	hrtfDB      *hrtf.Database
	hrtfPath    string
	hrtfOptions []hrtf.Option

	decoders *decode.Registry
}

// ContextOption configures NewContext.
type ContextOption func(*contextConfig) error

// WithSampleRate sets the context sample rate in Hz.
func WithSampleRate(rate float64) ContextOption {
	return func(c *contextConfig) error {
		core.WithSampleRate(rate)(&c.render)
		return nil
	}
}

// WithQuantumSize sets the render quantum in frames.
func WithQuantumSize(frames int) ContextOption {
	return func(c *contextConfig) error {
		core.WithQuantumSize(frames)(&c.render)
		return nil
	}
}

// WithChannels sets the destination channel count.
func WithChannels(n int) ContextOption {
	return func(c *contextConfig) error {
		if n < 1 || n > MaxChannels {
			return configError("destination channels must be in [1, %d], got %d", MaxChannels, n)
		}
		c.channels = n
		return nil
	}
}

// WithLogger sets the structured logger. The default is slog.Default().
func WithLogger(l *slog.Logger) ContextOption {
	return func(c *contextConfig) error {
		if l == nil {
			return configError("nil logger")
		}
		c.logger = l
		return nil
	}
}

// WithProcessingErrorHandler installs a callback for processing errors. It
// runs on the reporter goroutine.
func WithProcessingErrorHandler(h ProcessingErrorHandler) ContextOption {
	return func(c *contextConfig) error {
		c.onError = h
		return nil
	}
}

// WithErrorQueueSize sets how many processing errors may wait for the
// reporter before new ones are dropped.
func WithErrorQueueSize(n int) ContextOption {
	return func(c *contextConfig) error {
		if n < 1 {
			return configError("error queue size must be > 0, got %d", n)
		}
		c.errorQueue = n
		return nil
	}
}

// WithHRTFDatabase uses an already loaded HRTF database. Its sample rate
// must match the context.
func WithHRTFDatabase(db *hrtf.Database) ContextOption {
	return func(c *contextConfig) error {
		if db == nil {
			return configError("nil HRTF database")
		}
		c.hrtfDB = db
		return nil
	}
}

// WithHRTFPath loads the HRTF dataset directory during NewContext. A missing
// or malformed dataset makes NewContext fail.
func WithHRTFPath(dir string, opts ...hrtf.Option) ContextOption {
	return func(c *contextConfig) error {
		if dir == "" {
			return configError("empty HRTF path")
		}
		c.hrtfPath = dir
		c.hrtfOptions = opts
		return nil
	}
}

// WithDecoders replaces the decoder registry used by DecodeAudioData.
func WithDecoders(r *decode.Registry) ContextOption {
	return func(c *contextConfig) error {
		if r == nil {
			return configError("nil decoder registry")
		}
		c.decoders = r
		return nil
	}
}
