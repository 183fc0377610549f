package webaudio

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-webaudio/internal/testutil"
)

func renderSum(t *testing.T, first, second []float64, swap bool) []float64 {
	t.Helper()

	c := newTestContext(t)
	gain, _ := c.NewGain(GainOptions{})
	a := playing(t, c, first)
	b := playing(t, c, second)
	if swap {
		a, b = b, a
	}
	mustConnect(t, c, a, gain)
	mustConnect(t, c, b, gain)
	mustConnect(t, c, gain, c.Destination())

	return channel(t, mustRender(t, c, len(first)), 0)
}

func TestFanInIsCommutativeAndAdditive(t *testing.T) {
	t.Parallel()

	a := testutil.DeterministicNoise(1, 0.5, 1000)
	b := testutil.DeterministicSine(997, testRate, 0.4, 1000)

	ab := renderSum(t, a, b, false)
	ba := renderSum(t, a, b, true)

	want := make([]float64, len(a))
	for i := range want {
		want[i] = a[i] + b[i]
	}
	testutil.RequireSliceNearlyEqual(t, ab, ba, 0)
	testutil.RequireSliceNearlyEqual(t, ab, want, 1e-15)
}

func TestUpMixDuplicatesMono(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	mono := playing(t, c, testutil.Ramp(1, 1, 200))
	stereo := playing(t, c, testutil.Ramp(0, 0.5, 200), testutil.Ramp(0, -0.5, 200))
	mustConnect(t, c, mono, c.Destination())
	mustConnect(t, c, stereo, c.Destination())

	out := mustRender(t, c, 200)
	left, right := channel(t, out, 0), channel(t, out, 1)
	for i := range 200 {
		m := float64(1 + i)
		if left[i] != m+0.5*float64(i) || right[i] != m-0.5*float64(i) {
			t.Fatalf("frame %d = (%v, %v), want (%v, %v)", i, left[i], right[i], m+0.5*float64(i), m-0.5*float64(i))
		}
	}
}

func TestGainRampsBetweenQuanta(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	const q = 128
	src := playing(t, c, testutil.Ramp(1, 0, 4*q))
	gain, _ := c.NewGain(GainOptions{})
	mustConnect(t, c, src, gain, c.Destination())

	first := channel(t, mustRender(t, c, q), 0)
	for i, v := range first {
		if v != 1 {
			t.Fatalf("quantum 0 frame %d = %v, want 1", i, v)
		}
	}

	if err := gain.Gain().SetValue(0.5); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	out := channel(t, mustRender(t, c, 2*q), 0)
	for i := range q {
		want := 1 - 0.5*float64(i+1)/q
		if math.Abs(out[i]-want) > 1e-12 {
			t.Fatalf("ramp frame %d = %v, want %v", i, out[i], want)
		}
	}
	for i := q; i < 2*q; i++ {
		if out[i] != 0.5 {
			t.Fatalf("settled frame %d = %v, want 0.5", i, out[i])
		}
	}
}

func TestParamSnapshotAtQuantumStart(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	const q = 128
	gain, _ := c.NewGain(GainOptions{})
	script, _ := c.NewScriptProcessor(ScriptProcessorOptions{}, func(e *AudioProcessingEvent) error {
		for _, ch := range e.OutputBuffer.Channels() {
			for i := range ch {
				ch[i] = 1
			}
		}
		// Runs before the gain node within the same quantum.
		return gain.Gain().SetValue(0)
	})
	mustConnect(t, c, script, gain, c.Destination())

	out := channel(t, mustRender(t, c, q), 0)
	for i, v := range out {
		if v != 1 {
			t.Fatalf("frame %d = %v, want 1: the set must wait for the next quantum", i, v)
		}
	}
}

func TestAudioParamRangeAndValidation(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	osc, _ := c.NewOscillator()
	f := osc.Frequency()

	if f.DefaultValue() != 440 || f.Value() != 440 {
		t.Fatalf("frequency default = %v, value = %v, want 440", f.DefaultValue(), f.Value())
	}
	if err := f.SetValue(1e9); err != nil {
		t.Fatalf("SetValue(1e9) error = %v", err)
	}
	if f.Value() != c.SampleRate()/2 {
		t.Fatalf("clamped value = %v, want Nyquist %v", f.Value(), c.SampleRate()/2)
	}
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := f.SetValue(v); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("SetValue(%v) error = %v, want ErrConfiguration", v, err)
		}
	}
	if f.Value() != c.SampleRate()/2 {
		t.Fatalf("value after rejected sets = %v, want unchanged", f.Value())
	}
}

func BenchmarkRenderQuantum(b *testing.B) {
	c, err := NewContext(WithLogger(quietLogger()))
	if err != nil {
		b.Fatalf("NewContext() error = %v", err)
	}
	defer c.Close()

	osc, _ := c.NewOscillator()
	panner, _ := c.NewPanner()
	gain, _ := c.NewGain(GainOptions{})
	_ = c.Connect(osc, panner)
	_ = c.Connect(panner, gain)
	_ = c.Connect(gain, c.Destination())
	_ = panner.SetPosition(3, 0, -4)
	_ = osc.Start(0)

	b.ReportAllocs()
	for b.Loop() {
		c.renderQuantum(true)
	}
}
