package webaudio

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-webaudio/dsp/core"
	"github.com/cwbudde/algo-webaudio/dsp/spatial"
)

type paramState struct {
	value float64
	stamp uint64
}

// AudioParam is a scalar control value. Sets take effect at the next render
// quantum; within a quantum every read observes the value the quantum
// started with.
type AudioParam struct {
	name         string
	defaultValue float64
	minValue     float64
	maxValue     float64

	clock *atomic.Uint64
	state atomic.Pointer[paramState]

	// render thread only
	current float64
	stamp   uint64
}

func newParam(clock *atomic.Uint64, name string, def, lo, hi float64) *AudioParam {
	p := &AudioParam{
		name:         name,
		defaultValue: def,
		minValue:     lo,
		maxValue:     hi,
		clock:        clock,
		current:      def,
	}
	p.state.Store(&paramState{value: def})
	return p
}

// Name returns the parameter name.
func (p *AudioParam) Name() string { return p.name }

// DefaultValue returns the initial value.
func (p *AudioParam) DefaultValue() float64 { return p.defaultValue }

// MinValue returns the lower bound.
func (p *AudioParam) MinValue() float64 { return p.minValue }

// MaxValue returns the upper bound.
func (p *AudioParam) MaxValue() float64 { return p.maxValue }

// Value returns the most recently set value.
func (p *AudioParam) Value() float64 { return p.state.Load().value }

// SetValue sets the value, clamped to [MinValue, MaxValue]. Non-finite
// values are rejected with ErrConfiguration.
func (p *AudioParam) SetValue(v float64) error {
	if !core.IsFinite(v) {
		return configError("%s: value must be finite, got %v", p.name, v)
	}
	v = core.Clamp(v, p.minValue, p.maxValue)
	p.state.Store(&paramState{value: v, stamp: p.clock.Add(1)})
	return nil
}

// snapshot latches the value for the coming quantum.
func (p *AudioParam) snapshot() {
	s := p.state.Load()
	p.current = s.value
	p.stamp = s.stamp
}

type stampedVec struct {
	v     spatial.Vec3
	stamp uint64
}

// vecParam is a 3D quantity exposed both as three AudioParams and as a
// method that sets all components at once. Per component, the newer write
// wins.
type vecParam struct {
	x, y, z *AudioParam
	clock   *atomic.Uint64
	triple  atomic.Pointer[stampedVec]

	current spatial.Vec3
}

func newVecParam(clock *atomic.Uint64, prefix string, def spatial.Vec3) *vecParam {
	const huge = math.MaxFloat32
	v := &vecParam{
		x:       newParam(clock, prefix+"X", def.X, -huge, huge),
		y:       newParam(clock, prefix+"Y", def.Y, -huge, huge),
		z:       newParam(clock, prefix+"Z", def.Z, -huge, huge),
		clock:   clock,
		current: def,
	}
	v.triple.Store(&stampedVec{v: def})
	return v
}

func (v *vecParam) set(value spatial.Vec3) {
	v.triple.Store(&stampedVec{v: value, stamp: v.clock.Add(1)})
}

// value resolves the current vector outside the render thread.
func (v *vecParam) value() spatial.Vec3 {
	t := v.triple.Load()
	return spatial.Vec3{
		X: newer(v.x.state.Load(), t.v.X, t.stamp),
		Y: newer(v.y.state.Load(), t.v.Y, t.stamp),
		Z: newer(v.z.state.Load(), t.v.Z, t.stamp),
	}
}

func (v *vecParam) snapshot() {
	v.current = v.value()
}

func (v *vecParam) params() []*AudioParam {
	return []*AudioParam{v.x, v.y, v.z}
}

func newer(p *paramState, methodValue float64, methodStamp uint64) float64 {
	if p.stamp > methodStamp {
		return p.value
	}
	return methodValue
}
