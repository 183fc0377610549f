package webaudio

import (
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
)

// DefaultRelayCapacity is the number of queued buffers a Relay holds
// without growing.
const DefaultRelayCapacity = 16

// Relay is a FIFO of filled buffers played back to back on one
// BufferSourceNode with no gap and no overlap.
//
// Producers call Push from any goroutine and Trigger to request playback.
// The playing flag is read and written only by the render thread, which
// dequeues the next buffer as soon as the previous one ends, within the
// same quantum. A Trigger while a buffer is playing therefore cannot start a
// second one, and a buffer pushed while playing is picked up on completion.
type Relay struct {
	source *BufferSourceNode
	pool   *buffer.Pool

	mu    sync.Mutex
	queue []*buffer.AudioBuffer
	head  int

	wake    atomic.Bool
	playing atomic.Bool
	played  atomic.Uint64
	frames  atomic.Uint64

	// render thread only
	chain bool
}

// RelayOption configures NewRelay.
type RelayOption func(*Relay)

// WithRelayPool returns every finished buffer to p.
func WithRelayPool(p *buffer.Pool) RelayOption {
	return func(r *Relay) { r.pool = p }
}

// WithRelayCapacity preallocates room for n queued buffers.
func WithRelayCapacity(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.queue = make([]*buffer.AudioBuffer, 0, n)
		}
	}
}

// NewRelay binds a relay to src. src must belong to c, must not have been
// started and must not already be bound.
func (c *Context) NewRelay(src *BufferSourceNode, opts ...RelayOption) (*Relay, error) {
	if src == nil || src.ctx != c {
		return nil, graphError("relay source does not belong to this context")
	}
	if src.state.Load()&phaseMask != srcIdle {
		return nil, stateError("buffer source %s already started", src.id())
	}

	r := &Relay{
		source: src,
		queue:  make([]*buffer.AudioBuffer, 0, DefaultRelayCapacity),
	}
	for _, opt := range opts {
		opt(r)
	}

	if !src.relay.CompareAndSwap(nil, r) {
		return nil, stateError("buffer source %s already has a relay", src.id())
	}
	return r, nil
}

// Source returns the bound node.
func (r *Relay) Source() *BufferSourceNode { return r.source }

// Push appends b to the queue and freezes it. b must be at the context
// sample rate and fit the source's channel count.
func (r *Relay) Push(b *buffer.AudioBuffer) error {
	if b == nil || b.Length() == 0 {
		return configError("relay: empty buffer")
	}
	if b.SampleRate() != r.source.ctx.sampleRate {
		return configError("relay: buffer rate %v, context rate %v", b.SampleRate(), r.source.ctx.sampleRate)
	}
	if b.NumberOfChannels() > r.source.channels {
		return configError("relay: buffer has %d channels, source accepts %d", b.NumberOfChannels(), r.source.channels)
	}
	b.Freeze()

	r.mu.Lock()
	r.queue = append(r.queue, b)
	r.mu.Unlock()
	return nil
}

// Trigger requests playback. If nothing is playing, the render thread
// starts the head of the queue at its next quantum; otherwise the request
// is absorbed because the queue drains on its own. A Trigger on an empty
// queue stays pending until the next Push.
func (r *Relay) Trigger() {
	r.wake.Store(true)
}

// Playing reports whether a relay buffer is in flight.
func (r *Relay) Playing() bool { return r.playing.Load() }

// Len returns the number of buffers waiting.
func (r *Relay) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue) - r.head
}

// BuffersPlayed returns the number of buffers played to completion.
func (r *Relay) BuffersPlayed() uint64 { return r.played.Load() }

// FramesPlayed returns the number of frames rendered from relay buffers.
func (r *Relay) FramesPlayed() uint64 { return r.frames.Load() }

// Clear drops every waiting buffer. The buffer in flight keeps playing.
func (r *Relay) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.queue) - r.head
	clear(r.queue)
	r.queue = r.queue[:0]
	r.head = 0
	return n
}

func (r *Relay) dequeue() *buffer.AudioBuffer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.head == len(r.queue) {
		return nil
	}
	b := r.queue[r.head]
	r.queue[r.head] = nil
	r.head++

	if r.head == len(r.queue) {
		r.queue = r.queue[:0]
		r.head = 0
	} else if r.head > cap(r.queue)/2 {
		n := copy(r.queue, r.queue[r.head:])
		clear(r.queue[n:])
		r.queue = r.queue[:n]
		r.head = 0
	}
	return b
}

// next loads the head of the queue into src when a trigger or a completed
// buffer asks for it. Render thread only.
func (r *Relay) next(src *BufferSourceNode, frame int64) bool {
	if r.playing.Load() {
		return false
	}
	if !r.chain && !r.wake.Load() {
		return false
	}
	r.chain = false

	b := r.dequeue()
	if b == nil {
		return false
	}

	r.wake.Store(false)
	r.playing.Store(true)
	src.v = voice{buf: b, at: frame, relay: true}
	src.cur = &src.v
	return true
}

// release is called by the render thread when the buffer in flight ends.
func (r *Relay) release(b *buffer.AudioBuffer) {
	r.wake.Store(false)
	r.playing.Store(false)
	r.chain = true
	r.played.Add(1)
	if r.pool != nil {
		r.pool.Put(b)
	}
}
