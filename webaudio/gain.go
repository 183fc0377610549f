package webaudio

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
	"github.com/cwbudde/algo-webaudio/dsp/core"
)

// GainNode scales its input. A gain change ramps linearly across one
// quantum; the first quantum uses the gain directly.
type GainNode struct {
	*baseNode

	gain *AudioParam

	// render thread only
	last   float64
	primed bool
	env    []float64
}

func newGain(ctx *Context, channels int) *GainNode {
	g := &GainNode{
		baseNode: newBaseNode(ctx,
			TypeGain,
			[]inputPort{{channels: channels, mode: ChannelsMax}},
			[]int{channels},
		),
		env: make([]float64, ctx.quantum),
	}
	g.gain = newParam(&ctx.clock, "gain", 1, -math.MaxFloat32, math.MaxFloat32)
	g.params = []*AudioParam{g.gain}
	g.proc = g
	return g
}

// Gain is the linear gain, default 1.
func (g *GainNode) Gain() *AudioParam { return g.gain }

func (g *GainNode) process(q *quantum, in, out []*buffer.Bus) error {
	src, dst := in[0], out[0]
	dst.SetChannelCount(src.NumberOfChannels())

	target := g.gain.current
	if !g.primed {
		g.last = target
		g.primed = true
	}

	env := g.env[:q.frames]
	if g.last == target {
		for i := range env {
			env[i] = target
		}
	} else {
		step := (target - g.last) / float64(q.frames)
		for i := range env {
			env[i] = g.last + step*float64(i+1)
		}
	}
	g.last = core.FlushDenormals(target)

	for ch := range src.NumberOfChannels() {
		vecmath.MulBlock(dst.Channel(ch)[:q.frames], src.Channel(ch)[:q.frames], env)
	}
	return nil
}
