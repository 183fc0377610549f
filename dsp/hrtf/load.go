package hrtf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-webaudio/decode"
)

// DefaultSubject is the IRCAM composite subject.
const DefaultSubject = "Composite"

type loadConfig struct {
	subject   string
	kernelLen int
	quality   decode.Quality
}

// Option configures Load.
type Option func(*loadConfig) error

// WithSubject selects the dataset subject, the <subject> part of
// IRC_<subject>_C_R0195_T<az>_P<el>.wav.
func WithSubject(subject string) Option {
	return func(c *loadConfig) error {
		if subject == "" {
			return fmt.Errorf("%w: empty subject", ErrOption)
		}
		c.subject = subject
		return nil
	}
}

// WithKernelLength overrides the response length. The default scales
// DefaultKernelLength to the target sample rate.
func WithKernelLength(n int) Option {
	return func(c *loadConfig) error {
		if n <= 0 {
			return fmt.Errorf("%w: kernel length must be > 0, got %d", ErrOption, n)
		}
		c.kernelLen = n
		return nil
	}
}

// WithResampleQuality selects the converter used when the dataset rate
// differs from the target rate.
func WithResampleQuality(q decode.Quality) Option {
	return func(c *loadConfig) error {
		c.quality = q
		return nil
	}
}

// FileName returns the dataset file name of a grid point. Negative
// elevations are stored as 360 + elevation.
func FileName(subject string, azimuth, elevation int) string {
	if elevation < 0 {
		elevation += 360
	}
	return fmt.Sprintf("IRC_%s_C_R0195_T%03d_P%03d.wav", subject, azimuth, elevation)
}

// Load reads a dataset directory of stereo WAV impulse responses and
// resamples them to sampleRate. Every grid file must be present.
func Load(dir string, sampleRate float64, opts ...Option) (*Database, error) {
	cfg := loadConfig{
		subject:   DefaultSubject,
		kernelLen: KernelLengthFor(sampleRate),
		quality:   decode.QualityMedium,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataset, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDataset, dir)
	}

	// Clamped elevations repeat files; read each once.
	cache := make(map[string]Response)

	return NewDatabase(sampleRate, cfg.kernelLen, func(azimuth, elevation int) (Response, error) {
		name := FileName(cfg.subject, azimuth, elevation)
		if r, ok := cache[name]; ok {
			return r, nil
		}
		r, err := loadResponse(filepath.Join(dir, name), sampleRate, cfg.quality)
		if err != nil {
			return Response{}, err
		}
		cache[name] = r
		return r, nil
	})
}

func loadResponse(path string, sampleRate float64, q decode.Quality) (Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrDataset, err)
	}

	b, err := decode.Decode("wav", data)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %s: %w", ErrDataset, filepath.Base(path), err)
	}
	if b.NumberOfChannels() != 2 {
		return Response{}, fmt.Errorf("%w: %s has %d channels, want 2", ErrDataset, filepath.Base(path), b.NumberOfChannels())
	}

	if b.SampleRate() != sampleRate {
		b, err = decode.Resample(b, sampleRate, q)
		if err != nil {
			return Response{}, fmt.Errorf("%w: %s: %w", ErrDataset, filepath.Base(path), err)
		}
	}

	left, _ := b.ChannelData(0)
	right, _ := b.ChannelData(1)
	return Response{Left: left, Right: right}, nil
}
