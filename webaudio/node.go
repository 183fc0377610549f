package webaudio

import (
	"github.com/cwbudde/algo-webaudio/dsp/buffer"
	"github.com/cwbudde/algo-webaudio/dsp/graph"
)

// NodeType identifies a node variant.
type NodeType int

const (
	TypeOscillator NodeType = iota + 1
	TypeGain
	TypePanner
	TypeScriptProcessor
	TypeBufferSource
	TypeMediaStreamSource
	TypeMediaElementSource
	TypeDestination
)

func (t NodeType) String() string {
	switch t {
	case TypeOscillator:
		return "oscillator"
	case TypeGain:
		return "gain"
	case TypePanner:
		return "panner"
	case TypeScriptProcessor:
		return "script-processor"
	case TypeBufferSource:
		return "buffer-source"
	case TypeMediaStreamSource:
		return "media-stream-source"
	case TypeMediaElementSource:
		return "media-element-source"
	case TypeDestination:
		return "destination"
	default:
		return "unknown"
	}
}

// ChannelCountMode decides the channel count of an input port each quantum.
type ChannelCountMode int

const (
	// ChannelsMax uses the largest channel count among the connected
	// sources, bounded by the port's channel count.
	ChannelsMax ChannelCountMode = iota
	// ChannelsExplicit always uses the port's channel count.
	ChannelsExplicit
)

// Node is implemented by every node variant.
type Node interface {
	// Handle addresses the node in its context's graph.
	Handle() graph.Handle
	Type() NodeType
	NumberOfInputs() int
	NumberOfOutputs() int
	// ChannelCount is the number of channels the node declares on its
	// first output, or on its input for the destination.
	ChannelCount() int

	base() *baseNode
}

// quantum describes the block being rendered.
type quantum struct {
	frame  int64
	time   float64
	frames int
	rate   float64
}

// processor renders one quantum. in and out hold one bus per port. The
// render engine has already summed connected sources into in.
type processor interface {
	process(q *quantum, in, out []*buffer.Bus) error
}

type inputPort struct {
	channels int
	mode     ChannelCountMode
}

type baseNode struct {
	ctx    *Context
	handle graph.Handle
	typ    NodeType

	inputs  []inputPort
	outputs []int

	params []*AudioParam
	vecs   []*vecParam
	proc   processor

	// render thread only
	inBus  []*buffer.Bus
	outBus []*buffer.Bus
}

func newBaseNode(ctx *Context, typ NodeType, inputs []inputPort, outputs []int) *baseNode {
	n := &baseNode{
		ctx:     ctx,
		typ:     typ,
		inputs:  inputs,
		outputs: outputs,
	}
	for _, in := range inputs {
		n.inBus = append(n.inBus, buffer.NewBus(in.channels, ctx.quantum))
	}
	for _, ch := range outputs {
		n.outBus = append(n.outBus, buffer.NewBus(ch, ctx.quantum))
	}
	return n
}

// Handle returns the node's graph handle.
func (n *baseNode) Handle() graph.Handle { return n.handle }

// Type returns the node variant.
func (n *baseNode) Type() NodeType { return n.typ }

// NumberOfInputs returns the input port count.
func (n *baseNode) NumberOfInputs() int { return len(n.inputs) }

// NumberOfOutputs returns the output port count.
func (n *baseNode) NumberOfOutputs() int { return len(n.outputs) }

// ChannelCount returns the declared channel count.
func (n *baseNode) ChannelCount() int {
	if len(n.outputs) > 0 {
		return n.outputs[0]
	}
	if len(n.inputs) > 0 {
		return n.inputs[0].channels
	}
	return 0
}

func (n *baseNode) base() *baseNode { return n }

func (n *baseNode) id() string { return n.handle.String() }

func (n *baseNode) snapshot() {
	for _, p := range n.params {
		p.snapshot()
	}
	for _, v := range n.vecs {
		v.snapshot()
	}
}

func (n *baseNode) silence() {
	for _, b := range n.outBus {
		b.Zero()
	}
}
