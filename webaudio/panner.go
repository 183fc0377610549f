package webaudio

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
	"github.com/cwbudde/algo-webaudio/dsp/hrtf"
	"github.com/cwbudde/algo-webaudio/dsp/spatial"
)

// PanningModel selects how a panner maps direction to the stereo image.
type PanningModel int32

const (
	EqualPower PanningModel = iota
	HRTF
)

func (m PanningModel) String() string {
	switch m {
	case EqualPower:
		return "equalpower"
	case HRTF:
		return "hrtf"
	default:
		return fmt.Sprintf("PanningModel(%d)", int32(m))
	}
}

// ParsePanningModel parses "equalpower" or "hrtf".
func ParsePanningModel(s string) (PanningModel, error) {
	switch strings.ToLower(s) {
	case "equalpower", "equal-power":
		return EqualPower, nil
	case "hrtf":
		return HRTF, nil
	}
	return 0, configError("unknown panning model %q", s)
}

// PannerConfig is the non-param state of a panner.
type PannerConfig struct {
	PanningModel PanningModel
	Distance     spatial.DistanceEffect
	Cone         spatial.ConeEffect
}

// DefaultPannerConfig is equal-power, inverse distance, omnidirectional.
func DefaultPannerConfig() PannerConfig {
	return PannerConfig{
		PanningModel: EqualPower,
		Distance:     spatial.DefaultDistanceEffect(),
		Cone:         spatial.DefaultConeEffect(),
	}
}

// Validate checks the distance and cone ranges.
func (c PannerConfig) Validate() error {
	if c.PanningModel != EqualPower && c.PanningModel != HRTF {
		return configError("unknown panning model %d", int32(c.PanningModel))
	}
	if err := c.Distance.Validate(); err != nil {
		return errors.Join(ErrConfiguration, err)
	}
	if err := c.Cone.Validate(); err != nil {
		return errors.Join(ErrConfiguration, err)
	}
	return nil
}

// PannerNode positions its input in space relative to the context listener.
// It always renders two channels.
type PannerNode struct {
	*baseNode

	position    *vecParam
	orientation *vecParam
	config      atomic.Pointer[PannerConfig]

	// render thread only
	model    PanningModel
	equal    *spatial.EqualPower
	binaural *hrtf.Renderer
	gain     float64
	primed   bool
	env      []float64
}

func newPanner(ctx *Context) (*PannerNode, error) {
	p := &PannerNode{
		baseNode: newBaseNode(ctx,
			TypePanner,
			[]inputPort{{channels: 2, mode: ChannelsMax}},
			[]int{2},
		),
		equal: spatial.NewEqualPower(ctx.sampleRate),
		env:   make([]float64, ctx.quantum),
	}
	p.position = newVecParam(&ctx.clock, "position", spatial.Vec3{})
	p.orientation = newVecParam(&ctx.clock, "orientation", spatial.Vec3{X: 1})
	p.vecs = []*vecParam{p.position, p.orientation}

	if ctx.hrtf != nil {
		r, err := hrtf.NewRenderer(ctx.hrtf, ctx.quantum)
		if err != nil {
			return nil, errors.Join(ErrConfiguration, err)
		}
		p.binaural = r
	}

	cfg := DefaultPannerConfig()
	p.config.Store(&cfg)
	p.proc = p
	return p, nil
}

// PositionX is the x component of the source position.
func (p *PannerNode) PositionX() *AudioParam { return p.position.x }

// PositionY is the y component of the source position.
func (p *PannerNode) PositionY() *AudioParam { return p.position.y }

// PositionZ is the z component of the source position.
func (p *PannerNode) PositionZ() *AudioParam { return p.position.z }

// OrientationX is the x component of the source orientation.
func (p *PannerNode) OrientationX() *AudioParam { return p.orientation.x }

// OrientationY is the y component of the source orientation.
func (p *PannerNode) OrientationY() *AudioParam { return p.orientation.y }

// OrientationZ is the z component of the source orientation.
func (p *PannerNode) OrientationZ() *AudioParam { return p.orientation.z }

// SetPosition moves the source.
func (p *PannerNode) SetPosition(x, y, z float64) error {
	v := spatial.Vec3{X: x, Y: y, Z: z}
	if !v.IsFinite() {
		return configError("panner position must be finite, got %v", v)
	}
	p.position.set(v)
	return nil
}

// SetOrientation sets the direction the source faces, used by the cone.
func (p *PannerNode) SetOrientation(x, y, z float64) error {
	v := spatial.Vec3{X: x, Y: y, Z: z}
	if !v.IsFinite() {
		return configError("panner orientation must be finite, got %v", v)
	}
	p.orientation.set(v)
	return nil
}

// Position returns the source position as the next quantum will see it.
func (p *PannerNode) Position() spatial.Vec3 { return p.position.value() }

// Config returns the current configuration.
func (p *PannerNode) Config() PannerConfig { return *p.config.Load() }

// SetConfig replaces the configuration. Selecting HRTF requires a context
// created with an HRTF database.
func (p *PannerNode) SetConfig(cfg PannerConfig) error {
	if err := p.check(cfg); err != nil {
		return err
	}
	p.config.Store(&cfg)
	return nil
}

func (p *PannerNode) check(cfg PannerConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.PanningModel == HRTF && p.binaural == nil {
		return configError("HRTF panning needs a context with an HRTF database")
	}
	return nil
}

// update applies fn to a copy of the configuration and publishes it if it
// validates.
func (p *PannerNode) update(fn func(*PannerConfig)) error {
	for {
		old := p.config.Load()
		next := *old
		fn(&next)
		if err := p.check(next); err != nil {
			return err
		}
		if p.config.CompareAndSwap(old, &next) {
			return nil
		}
	}
}

// SetPanningModel switches the panning model. Retained filter state of the
// previous model is discarded.
func (p *PannerNode) SetPanningModel(m PanningModel) error {
	return p.update(func(c *PannerConfig) { c.PanningModel = m })
}

// SetDistanceModel selects the distance attenuation curve.
func (p *PannerNode) SetDistanceModel(m spatial.DistanceModel) error {
	return p.update(func(c *PannerConfig) { c.Distance.Model = m })
}

// SetRefDistance sets the distance below which no attenuation applies. It must be > 0.
func (p *PannerNode) SetRefDistance(v float64) error {
	return p.update(func(c *PannerConfig) { c.Distance.RefDistance = v })
}

// SetMaxDistance sets the distance beyond which attenuation stops growing. It must be >= RefDistance.
func (p *PannerNode) SetMaxDistance(v float64) error {
	return p.update(func(c *PannerConfig) { c.Distance.MaxDistance = v })
}

// SetRolloffFactor scales how fast gain drops with distance.
func (p *PannerNode) SetRolloffFactor(v float64) error {
	return p.update(func(c *PannerConfig) { c.Distance.RolloffFactor = v })
}

// SetConeInnerAngle sets the full angle, in degrees, of the unattenuated cone.
func (p *PannerNode) SetConeInnerAngle(deg float64) error {
	return p.update(func(c *PannerConfig) { c.Cone.InnerAngle = deg })
}

// SetConeOuterAngle sets the full angle, in degrees, outside which ConeOuterGain applies.
func (p *PannerNode) SetConeOuterAngle(deg float64) error {
	return p.update(func(c *PannerConfig) { c.Cone.OuterAngle = deg })
}

// SetConeOuterGain sets the gain outside the outer cone, in [0, 1].
func (p *PannerNode) SetConeOuterGain(g float64) error {
	return p.update(func(c *PannerConfig) { c.Cone.OuterGain = g })
}

func (p *PannerNode) process(q *quantum, in, out []*buffer.Bus) error {
	cfg := p.config.Load()
	if cfg.PanningModel != p.model {
		p.equal.Reset()
		if p.binaural != nil {
			p.binaural.Reset()
		}
		p.model = cfg.PanningModel
	}

	listener := p.ctx.listener.pose
	source := p.position.current

	azimuth, elevation := spatial.AzimuthElevation(source, listener)
	gain := cfg.Distance.Gain(source.Distance(listener.Position)) *
		cfg.Cone.Gain(source, p.orientation.current, listener.Position)

	src := in[0].Channels()
	outL := out[0].Channel(0)[:q.frames]
	outR := out[0].Channel(1)[:q.frames]

	if p.model == HRTF {
		if err := p.binaural.Process(outL, outR, src, azimuth, elevation); err != nil {
			return err
		}
	} else {
		p.equal.Process(outL, outR, src, azimuth)
	}

	if !p.primed {
		p.gain = gain
		p.primed = true
	}
	env := p.env[:q.frames]
	step := (gain - p.gain) / float64(q.frames)
	for i := range env {
		env[i] = p.gain + step*float64(i+1)
	}
	p.gain = gain

	vecmath.MulBlockInPlace(outL, env)
	vecmath.MulBlockInPlace(outR, env)
	return nil
}
