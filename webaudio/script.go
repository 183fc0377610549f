package webaudio

import (
	"sync/atomic"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
)

// AudioProcessingEvent is passed to a ScriptCallback. The buses are only
// valid during the call.
type AudioProcessingEvent struct {
	InputBuffer  *buffer.Bus
	OutputBuffer *buffer.Bus
	// PlaybackTime is the context time at which OutputBuffer will be heard.
	PlaybackTime float64
}

// ScriptCallback processes one block on the render thread. OutputBuffer is
// silent on entry. A returned error or a panic silences the node for the
// block and is reported as a ProcessingError.
type ScriptCallback func(e *AudioProcessingEvent) error

// ScriptProcessorOptions shapes a ScriptProcessorNode. Zero values select
// the defaults.
type ScriptProcessorOptions struct {
	// BufferSize is the callback block in frames, a multiple of the
	// quantum. Larger blocks add one block of latency. Default: the quantum.
	BufferSize int
	// InputChannels defaults to 2.
	InputChannels int
	// OutputChannels defaults to 2.
	OutputChannels int
}

// ScriptProcessorNode runs application code on every block.
type ScriptProcessorNode struct {
	*baseNode

	bufferSize int
	callback   atomic.Pointer[ScriptCallback]

	// render thread only
	event    AudioProcessingEvent
	inBlock  *buffer.Bus
	outBlock *buffer.Bus
	pos      int
}

func newScriptProcessor(ctx *Context, opts ScriptProcessorOptions, cb ScriptCallback) (*ScriptProcessorNode, error) {
	if opts.BufferSize == 0 {
		opts.BufferSize = ctx.quantum
	}
	if opts.InputChannels == 0 {
		opts.InputChannels = DefaultChannels
	}
	if opts.OutputChannels == 0 {
		opts.OutputChannels = DefaultChannels
	}

	if opts.BufferSize < 0 || opts.BufferSize%ctx.quantum != 0 {
		return nil, configError("script buffer size %d is not a positive multiple of the quantum %d", opts.BufferSize, ctx.quantum)
	}
	if opts.InputChannels < 1 || opts.InputChannels > MaxChannels {
		return nil, configError("script input channels must be in [1, %d], got %d", MaxChannels, opts.InputChannels)
	}
	if opts.OutputChannels < 1 || opts.OutputChannels > MaxChannels {
		return nil, configError("script output channels must be in [1, %d], got %d", MaxChannels, opts.OutputChannels)
	}

	s := &ScriptProcessorNode{
		baseNode: newBaseNode(ctx,
			TypeScriptProcessor,
			[]inputPort{{channels: opts.InputChannels, mode: ChannelsExplicit}},
			[]int{opts.OutputChannels},
		),
		bufferSize: opts.BufferSize,
	}
	if opts.BufferSize > ctx.quantum {
		s.inBlock = buffer.NewBus(opts.InputChannels, opts.BufferSize)
		s.outBlock = buffer.NewBus(opts.OutputChannels, opts.BufferSize)
	}
	s.SetCallback(cb)
	s.proc = s
	return s, nil
}

// BufferSize returns the callback block size in frames.
func (s *ScriptProcessorNode) BufferSize() int { return s.bufferSize }

// SetCallback replaces the callback. A nil callback renders silence.
func (s *ScriptProcessorNode) SetCallback(cb ScriptCallback) {
	if cb == nil {
		s.callback.Store(nil)
		return
	}
	s.callback.Store(&cb)
}

func (s *ScriptProcessorNode) process(q *quantum, in, out []*buffer.Bus) error {
	if s.inBlock == nil {
		out[0].Zero()
		return s.dispatch(in[0], out[0], q.time)
	}

	n := q.frames
	for ch := range s.inBlock.NumberOfChannels() {
		copy(s.inBlock.Channel(ch)[s.pos:s.pos+n], in[0].Channel(ch))
	}
	for ch := range s.outBlock.NumberOfChannels() {
		copy(out[0].Channel(ch), s.outBlock.Channel(ch)[s.pos:s.pos+n])
	}

	s.pos += n
	if s.pos < s.bufferSize {
		return nil
	}
	s.pos = 0

	s.outBlock.Zero()
	playback := q.time + float64(n)/q.rate
	if err := s.dispatch(s.inBlock, s.outBlock, playback); err != nil {
		s.outBlock.Zero()
		return err
	}
	return nil
}

func (s *ScriptProcessorNode) dispatch(in, out *buffer.Bus, playback float64) (err error) {
	cb := s.callback.Load()
	if cb == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = panicError{value: r}
		}
	}()
	s.event = AudioProcessingEvent{InputBuffer: in, OutputBuffer: out, PlaybackTime: playback}
	return (*cb)(&s.event)
}
