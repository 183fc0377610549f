package webaudio

import (
	"sync/atomic"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
)

// Capture supplies live input already reframed to the context rate.
type Capture interface {
	// ReadQuantum fills up to len(dst[0]) frames of every channel and
	// returns the number of frames written. It must not block.
	ReadQuantum(dst [][]float64) int
	// ChannelCount returns the number of captured channels.
	ChannelCount() int
}

// MediaStreamSourceNode feeds captured audio into the graph. Frames the
// capture cannot supply in time are rendered as silence.
type MediaStreamSourceNode struct {
	*baseNode

	capture   Capture
	underruns atomic.Uint64
}

func newMediaStreamSource(ctx *Context, c Capture) (*MediaStreamSourceNode, error) {
	if c == nil {
		return nil, configError("nil capture")
	}
	ch := c.ChannelCount()
	if ch < 1 || ch > MaxChannels {
		return nil, configError("capture channels must be in [1, %d], got %d", MaxChannels, ch)
	}

	m := &MediaStreamSourceNode{
		baseNode: newBaseNode(ctx, TypeMediaStreamSource, nil, []int{ch}),
		capture:  c,
	}
	m.proc = m
	return m, nil
}

// Underruns counts the quanta the capture could not fill completely.
func (m *MediaStreamSourceNode) Underruns() uint64 { return m.underruns.Load() }

func (m *MediaStreamSourceNode) process(q *quantum, _, out []*buffer.Bus) error {
	out[0].Zero()
	if n := m.capture.ReadQuantum(out[0].Channels()); n < q.frames {
		m.underruns.Add(1)
	}
	return nil
}
