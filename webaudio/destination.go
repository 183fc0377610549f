package webaudio

import (
	"github.com/cwbudde/algo-webaudio/dsp/buffer"
)

// DestinationNode is the sink every rendered graph is pulled from. Its input
// mixes to the context channel count.
type DestinationNode struct {
	*baseNode
}

func newDestination(ctx *Context, channels int) *DestinationNode {
	d := &DestinationNode{
		baseNode: newBaseNode(ctx,
			TypeDestination,
			[]inputPort{{channels: channels, mode: ChannelsExplicit}},
			nil,
		),
	}
	d.proc = d
	return d
}

// MaxChannelCount returns the channel count of the rendered output.
func (d *DestinationNode) MaxChannelCount() int { return d.inputs[0].channels }

func (d *DestinationNode) process(*quantum, []*buffer.Bus, []*buffer.Bus) error {
	return nil
}
