package webaudio

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
)

// OscillatorType selects the oscillator waveform.
type OscillatorType int32

const (
	Sine OscillatorType = iota
	Square
	Sawtooth
	Triangle
)

func (t OscillatorType) String() string {
	switch t {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Sawtooth:
		return "sawtooth"
	case Triangle:
		return "triangle"
	default:
		return fmt.Sprintf("OscillatorType(%d)", int32(t))
	}
}

// ParseOscillatorType parses a waveform name.
func ParseOscillatorType(s string) (OscillatorType, error) {
	for t := Sine; t <= Triangle; t++ {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, configError("unknown oscillator type %q", s)
}

const (
	oscUnstarted int32 = iota
	oscRunning
	oscStopped
)

// OscillatorNode is a periodic waveform source. It renders silence until
// started and after it stops; it can be started only once.
type OscillatorNode struct {
	*baseNode

	frequency *AudioParam
	detune    *AudioParam
	waveform  atomic.Int32

	state   atomic.Int32
	startAt atomic.Int64
	stopAt  atomic.Int64
	onEnded endedHook

	// render thread only
	phase float64
	ended bool
}

func newOscillator(ctx *Context) *OscillatorNode {
	o := &OscillatorNode{
		baseNode: newBaseNode(ctx, TypeOscillator, nil, []int{1}),
	}
	nyquist := ctx.sampleRate / 2
	o.frequency = newParam(&ctx.clock, "frequency", 440, -nyquist, nyquist)
	o.detune = newParam(&ctx.clock, "detune", 0, -153600, 153600)
	o.params = []*AudioParam{o.frequency, o.detune}
	o.startAt.Store(never)
	o.stopAt.Store(never)
	o.proc = o
	return o
}

// Frequency is the oscillator frequency in Hz, default 440.
func (o *OscillatorNode) Frequency() *AudioParam { return o.frequency }

// Detune offsets the frequency in cents, default 0.
func (o *OscillatorNode) Detune() *AudioParam { return o.detune }

// Waveform returns the current waveform.
func (o *OscillatorNode) Waveform() OscillatorType { return OscillatorType(o.waveform.Load()) }

// SetWaveform changes the waveform from the next quantum on.
func (o *OscillatorNode) SetWaveform(t OscillatorType) error {
	if t < Sine || t > Triangle {
		return configError("unknown oscillator type %d", int32(t))
	}
	o.waveform.Store(int32(t))
	return nil
}

// SetOnEnded installs a callback run on the render thread once the
// oscillator has stopped.
func (o *OscillatorNode) SetOnEnded(fn func()) { o.onEnded.set(fn) }

// Start schedules the oscillator to begin at context time when, in seconds.
// A time in the past starts at the next quantum.
func (o *OscillatorNode) Start(when float64) error {
	frame, err := o.ctx.frameAt(when)
	if err != nil {
		return err
	}
	if !o.state.CompareAndSwap(oscUnstarted, oscRunning) {
		return stateError("oscillator %s already started", o.id())
	}
	o.startAt.Store(frame)
	return nil
}

// Stop schedules the oscillator to end at the first quantum boundary at or
// after when. Stopping an unstarted oscillator fails; stopping a stopped one
// does nothing.
func (o *OscillatorNode) Stop(when float64) error {
	frame, err := o.ctx.frameAt(when)
	if err != nil {
		return err
	}
	switch o.state.Load() {
	case oscUnstarted:
		return stateError("oscillator %s stopped before start", o.id())
	case oscStopped:
		return nil
	}
	o.stopAt.Store(frame)
	o.state.Store(oscStopped)
	return nil
}

func (o *OscillatorNode) process(q *quantum, _, out []*buffer.Bus) error {
	dst := out[0].Channel(0)

	if o.state.Load() == oscUnstarted || o.ended {
		clear(dst)
		return nil
	}

	if q.frame >= o.stopAt.Load() {
		clear(dst)
		o.ended = true
		o.onEnded.fire(o.baseNode, q)
		return nil
	}

	startAt := o.startAt.Load()
	if startAt >= q.frame+int64(q.frames) {
		clear(dst)
		return nil
	}
	offset := int(max(startAt-q.frame, 0))
	clear(dst[:offset])

	freq := o.frequency.current * math.Exp2(o.detune.current/1200)
	step := freq / q.rate
	o.phase = renderWaveform(OscillatorType(o.waveform.Load()), dst[offset:], o.phase, step)
	return nil
}

// renderWaveform fills dst with the waveform starting at phase, in cycles, and
// returns the phase after the last sample.
func renderWaveform(t OscillatorType, dst []float64, phase, step float64) float64 {
	for i := range dst {
		switch t {
		case Square:
			if phase < 0.5 {
				dst[i] = 1
			} else {
				dst[i] = -1
			}
		case Sawtooth:
			dst[i] = 2*phase - 1
		case Triangle:
			dst[i] = 1 - 4*math.Abs(phase-0.5)
		default:
			dst[i] = math.Sin(2 * math.Pi * phase)
		}
		phase += step
		phase -= math.Floor(phase)
	}
	return phase
}
