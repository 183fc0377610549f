package webaudio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-webaudio/decode"
	"github.com/cwbudde/algo-webaudio/dsp/core"
	"github.com/cwbudde/algo-webaudio/internal/testutil"
)

func TestNewContextDefaults(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	if c.SampleRate() != core.DefaultSampleRate || c.QuantumSize() != core.DefaultQuantumSize {
		t.Fatalf("rate, quantum = %v, %d, want %v, %d", c.SampleRate(), c.QuantumSize(), core.DefaultSampleRate, core.DefaultQuantumSize)
	}
	if got := c.Destination().MaxChannelCount(); got != DefaultChannels {
		t.Fatalf("destination channels = %d, want %d", got, DefaultChannels)
	}
	if c.NodeCount() != 1 {
		t.Fatalf("NodeCount() = %d, want 1 (destination)", c.NodeCount())
	}
	if c.HRTF() != nil {
		t.Fatal("HRTF() != nil without a configured dataset")
	}
}

func TestNewContextRejectsBadOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opt  ContextOption
	}{
		{name: "zero quantum", opt: WithQuantumSize(0)},
		{name: "huge quantum", opt: WithQuantumSize(core.MaxQuantumSize + 1)},
		{name: "negative rate", opt: WithSampleRate(-1)},
		{name: "no channels", opt: WithChannels(0)},
		{name: "too many channels", opt: WithChannels(MaxChannels + 1)},
		{name: "error queue", opt: WithErrorQueueSize(0)},
		{name: "nil logger", opt: WithLogger(nil)},
		{name: "missing HRTF dataset", opt: WithHRTFPath(filepath.Join(t.TempDir(), "missing"))},
		{name: "empty HRTF path", opt: WithHRTFPath("")},
		{name: "nil HRTF database", opt: WithHRTFDatabase(nil)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := NewContext(WithLogger(quietLogger()), tc.opt); !errors.Is(err, ErrConfiguration) {
				t.Fatalf("NewContext() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestNewContextRejectsHRTFRateMismatch(t *testing.T) {
	t.Parallel()

	db := testutil.SphericalHead(t, 48000, 16)
	if _, err := NewContext(WithHRTFDatabase(db)); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("NewContext() error = %v, want ErrConfiguration", err)
	}
}

func TestRenderQuantaAndExactFrames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		quantum   int
		frames    int
		wantQuant int
	}{
		{quantum: 128, frames: 44100, wantQuant: 345},
		{quantum: 128, frames: 128, wantQuant: 1},
		{quantum: 128, frames: 129, wantQuant: 2},
		{quantum: 1, frames: 17, wantQuant: 17},
		{quantum: 441, frames: 44100, wantQuant: 100},
		{quantum: 512, frames: 1, wantQuant: 1},
	}

	for _, tc := range tests {
		c := newTestContext(t, WithQuantumSize(tc.quantum))

		calls := 0
		script, err := c.NewScriptProcessor(ScriptProcessorOptions{}, func(*AudioProcessingEvent) error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("NewScriptProcessor() error = %v", err)
		}
		mustConnect(t, c, script, c.Destination())

		out := mustRender(t, c, tc.frames)
		if out.Length() != tc.frames {
			t.Fatalf("Q=%d: Length() = %d, want %d", tc.quantum, out.Length(), tc.frames)
		}
		if calls != tc.wantQuant {
			t.Fatalf("Q=%d frames=%d: quanta = %d, want %d", tc.quantum, tc.frames, calls, tc.wantQuant)
		}
		if got, want := c.CurrentFrame(), int64(tc.wantQuant*tc.quantum); got != want {
			t.Fatalf("Q=%d: CurrentFrame() = %d, want %d", tc.quantum, got, want)
		}
	}
}

func TestRenderWithoutSourcesIsSilent(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	out := mustRender(t, c, 300)
	for ch := range out.NumberOfChannels() {
		for i, v := range channel(t, out, ch) {
			if v != 0 {
				t.Fatalf("out[%d][%d] = %v, want 0", ch, i, v)
			}
		}
	}
}

func TestRenderRejectsBadCalls(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	if _, err := c.Render(0); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("Render(0) error = %v, want ErrConfiguration", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if _, err := c.Render(128); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Render after Close error = %v, want ErrInvalidState", err)
	}
	if _, err := c.NewGain(GainOptions{}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("NewGain after Close error = %v, want ErrInvalidState", err)
	}
}

func TestDecodeAudioData(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)

	src := testutil.MustBuffer(t, 22050, testutil.DeterministicSine(441, 22050, 0.5, 2205))
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := decode.EncodeWAV(f, src, 16); err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	b, err := c.DecodeAudioData("wav", data)
	if err != nil {
		t.Fatalf("DecodeAudioData() error = %v", err)
	}
	if b.SampleRate() != c.SampleRate() || b.Length() != 4410 {
		t.Fatalf("decoded %d frames @ %v, want 4410 @ %v", b.Length(), b.SampleRate(), c.SampleRate())
	}

	if _, err := c.DecodeAudioData("wav", bytes.Repeat([]byte{0x42}, 64)); !errors.Is(err, ErrDecode) {
		t.Fatalf("malformed data error = %v, want ErrDecode", err)
	}
	if _, err := c.DecodeAudioData("flac", data); !errors.Is(err, ErrDecode) || !errors.Is(err, decode.ErrUnknownFormat) {
		t.Fatalf("unknown format error = %v, want ErrDecode and ErrUnknownFormat", err)
	}
}

func TestCreateBuffer(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	b, err := c.CreateBuffer(2, 64)
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	if b.SampleRate() != c.SampleRate() {
		t.Fatalf("SampleRate() = %v, want %v", b.SampleRate(), c.SampleRate())
	}
	if _, err := c.CreateBuffer(0, 64); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("CreateBuffer(0, 64) error = %v, want ErrConfiguration", err)
	}
}
