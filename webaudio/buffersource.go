package webaudio

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
	"github.com/cwbudde/algo-webaudio/dsp/interp"
)

// Playback phases. The state word packs a playback generation above the
// phase so the render thread only ends the playback it is rendering.
const (
	srcIdle uint64 = iota
	srcPlaying
	srcStopped
	srcEnded

	phaseBits = 2
	phaseMask = 1<<phaseBits - 1
)

func packState(gen, phase uint64) uint64 { return gen<<phaseBits | phase }

type startRequest struct {
	gen    uint64
	buf    *buffer.AudioBuffer
	at     int64
	stopAt atomic.Int64
}

type loopRegion struct {
	enabled    bool
	start, end float64
}

var noLoop = &loopRegion{}

// voice is the playback the render thread is working on.
type voice struct {
	gen   uint64
	buf   *buffer.AudioBuffer
	at    int64
	pos   float64
	relay bool
	req   *startRequest
}

// BufferSourceOptions shapes a BufferSourceNode.
type BufferSourceOptions struct {
	// Channels is the declared output channel count and the maximum
	// channel count of an assigned buffer. Default 2.
	Channels int

	// Interpolation picks how fractional read positions are resolved.
	// Default interp.Linear.
	Interpolation interp.Mode
}

// BufferSourceNode plays an AudioBuffer. The buffer can be replaced only
// while the node is not playing; a new Start is accepted once the previous
// playback stopped or ended. A node bound to a Relay is driven by the relay
// alone.
type BufferSourceNode struct {
	*baseNode

	channels     int
	mode         interp.Mode
	playbackRate *AudioParam

	buffer  atomic.Pointer[buffer.AudioBuffer]
	loop    atomic.Pointer[loopRegion]
	state   atomic.Uint64
	request atomic.Pointer[startRequest]
	relay   atomic.Pointer[Relay]
	onEnded endedHook

	// render thread only
	seen *startRequest
	cur  *voice
	v    voice
}

func newBufferSource(ctx *Context, opts BufferSourceOptions) (*BufferSourceNode, error) {
	if opts.Channels == 0 {
		opts.Channels = DefaultChannels
	}
	if opts.Channels < 1 || opts.Channels > MaxChannels {
		return nil, configError("buffer source channels must be in [1, %d], got %d", MaxChannels, opts.Channels)
	}
	if opts.Interpolation != interp.Linear && opts.Interpolation != interp.Cubic {
		return nil, configError("unknown interpolation %v", opts.Interpolation)
	}

	s := &BufferSourceNode{
		baseNode: newBaseNode(ctx, TypeBufferSource, nil, []int{opts.Channels}),
		channels: opts.Channels,
		mode:     opts.Interpolation,
	}
	s.playbackRate = newParam(&ctx.clock, "playbackRate", 1, 0, 1024)
	s.params = []*AudioParam{s.playbackRate}
	s.loop.Store(&loopRegion{})
	s.proc = s
	return s, nil
}

// PlaybackRate scales the read speed, default 1.
func (s *BufferSourceNode) PlaybackRate() *AudioParam { return s.playbackRate }

// Buffer returns the assigned buffer, or nil.
func (s *BufferSourceNode) Buffer() *buffer.AudioBuffer { return s.buffer.Load() }

// Playing reports whether a started playback has not yet stopped or ended.
func (s *BufferSourceNode) Playing() bool {
	return s.state.Load()&phaseMask == srcPlaying
}

// SetBuffer assigns b, which is frozen from then on. It fails with
// ErrInvalidState while playing.
func (s *BufferSourceNode) SetBuffer(b *buffer.AudioBuffer) error {
	if s.relay.Load() != nil {
		return stateError("buffer source %s is driven by a relay", s.id())
	}
	if s.Playing() {
		return stateError("buffer source %s: buffer reassigned while playing", s.id())
	}
	if b != nil {
		if b.NumberOfChannels() > s.channels {
			return configError("buffer has %d channels, source %s accepts %d", b.NumberOfChannels(), s.id(), s.channels)
		}
		b.Freeze()
	}
	s.buffer.Store(b)
	return nil
}

// SetLoop enables looping over [start, end) seconds. An end of 0, or a
// region outside the buffer, loops the whole buffer.
func (s *BufferSourceNode) SetLoop(enabled bool, start, end float64) error {
	if math.IsNaN(start) || math.IsNaN(end) || start < 0 || end < 0 {
		return configError("loop region [%v, %v) invalid", start, end)
	}
	s.loop.Store(&loopRegion{enabled: enabled, start: start, end: end})
	return nil
}

// SetOnEnded installs a callback run on the render thread when a playback
// ends, once per playback.
func (s *BufferSourceNode) SetOnEnded(fn func()) { s.onEnded.set(fn) }

// Start begins playback from frame 0 at context time when.
func (s *BufferSourceNode) Start(when float64) error {
	if s.relay.Load() != nil {
		return stateError("buffer source %s is driven by a relay", s.id())
	}
	b := s.buffer.Load()
	if b == nil {
		return stateError("buffer source %s has no buffer", s.id())
	}
	frame, err := s.ctx.frameAt(when)
	if err != nil {
		return err
	}

	for {
		cur := s.state.Load()
		if cur&phaseMask == srcPlaying {
			return stateError("buffer source %s already started", s.id())
		}
		gen := cur>>phaseBits + 1
		if !s.state.CompareAndSwap(cur, packState(gen, srcPlaying)) {
			continue
		}
		req := &startRequest{gen: gen, buf: b, at: frame}
		req.stopAt.Store(never)
		s.request.Store(req)
		return nil
	}
}

// Stop ends the playback at the first quantum boundary at or after when.
// Stopping a node that never started fails; stopping an ended one does
// nothing.
func (s *BufferSourceNode) Stop(when float64) error {
	if s.relay.Load() != nil {
		return stateError("buffer source %s is driven by a relay", s.id())
	}
	frame, err := s.ctx.frameAt(when)
	if err != nil {
		return err
	}

	cur := s.state.Load()
	switch cur & phaseMask {
	case srcIdle:
		return stateError("buffer source %s stopped before start", s.id())
	case srcStopped, srcEnded:
		return nil
	}
	if req := s.request.Load(); req != nil {
		req.stopAt.Store(frame)
	}
	s.state.CompareAndSwap(cur, packState(cur>>phaseBits, srcStopped))
	return nil
}

func (s *BufferSourceNode) process(q *quantum, _, out []*buffer.Bus) error {
	dst := out[0]
	dst.Zero()

	if req := s.request.Load(); req != s.seen {
		s.seen = req
		if s.cur != nil {
			s.finish(q)
		}
		s.v = voice{gen: req.gen, buf: req.buf, at: req.at, req: req}
		s.cur = &s.v
	}

	if s.cur != nil && s.cur.req != nil && q.frame >= s.cur.req.stopAt.Load() {
		s.finish(q)
	}

	relay := s.relay.Load()
	rate := s.playbackRate.current
	loop := s.loop.Load()
	end := q.frame + int64(q.frames)

	i := 0
	for i < q.frames {
		if s.cur == nil {
			if relay == nil || !relay.next(s, q.frame+int64(i)) {
				break
			}
		}
		if s.cur.at >= end {
			break
		}
		i = max(i, int(s.cur.at-q.frame))

		region := loop
		if s.cur.relay {
			region = noLoop
		}
		from := i
		var done bool
		i, done = s.fill(dst, i, q.frames, rate, region)
		if s.cur.relay {
			relay.frames.Add(uint64(i - from))
		}
		if done {
			s.finish(q)
		}
	}
	return nil
}

// fill renders the current voice into dst from frame `from` up to `to`. It
// returns the first frame not written and whether the buffer is exhausted.
func (s *BufferSourceNode) fill(dst *buffer.Bus, from, to int, rate float64, loop *loopRegion) (int, bool) {
	v := s.cur
	buf := v.buf
	length := float64(buf.Length())
	step := rate * buf.SampleRate() / s.ctx.sampleRate

	start, stop := 0.0, length
	if loop.enabled {
		ls, le := loop.start*buf.SampleRate(), loop.end*buf.SampleRate()
		if le <= 0 || le > length {
			le = length
		}
		if ls >= le {
			ls = 0
		}
		start, stop = ls, le
	}

	lo, hi := int(start), int(math.Ceil(stop))
	chans := buf.NumberOfChannels()
	outs := dst.NumberOfChannels()

	for i := from; i < to; i++ {
		if v.pos >= stop {
			if !loop.enabled || stop <= start {
				return i, true
			}
			v.pos = start + math.Mod(v.pos-start, stop-start)
		}

		i0 := int(v.pos)
		frac := v.pos - float64(i0)

		for ch := range outs {
			src := ch
			if chans == 1 {
				src = 0
			} else if ch >= chans {
				break
			}
			dst.Channel(ch)[i] = s.read(buf, src, i0, frac, lo, hi, loop.enabled)
		}

		v.pos += step
	}

	if !loop.enabled && v.pos >= length {
		return to, true
	}
	return to, false
}

// read interpolates channel ch at frame i0+frac. Reads past the loop end
// wrap to the loop start.
func (s *BufferSourceNode) read(buf *buffer.AudioBuffer, ch, i0 int, frac float64, lo, hi int, looped bool) float64 {
	x0 := buf.Sample(ch, i0)
	if frac == 0 {
		return x0
	}
	at := func(j int) int {
		if looped && hi > lo && j >= hi {
			return lo + (j-hi)%(hi-lo)
		}
		return j
	}
	x1 := buf.Sample(ch, at(i0+1))
	if s.mode == interp.Linear {
		return interp.Linear2(frac, x0, x1)
	}
	return interp.Hermite4(frac, buf.Sample(ch, i0-1), x0, x1, buf.Sample(ch, at(i0+2)))
}

// finish ends the current voice and fires onended.
func (s *BufferSourceNode) finish(q *quantum) {
	v := s.cur
	s.cur = nil

	if v.relay {
		if r := s.relay.Load(); r != nil {
			r.release(v.buf)
		}
	} else if !s.state.CompareAndSwap(packState(v.gen, srcPlaying), packState(v.gen, srcEnded)) {
		s.state.CompareAndSwap(packState(v.gen, srcStopped), packState(v.gen, srcEnded))
	}

	s.onEnded.fire(s.baseNode, q)
}
