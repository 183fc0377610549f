package webaudio

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
)

// MediaElement is a playable clip with transport controls. It produces
// sound once attached to a context with NewMediaElementSource.
type MediaElement struct {
	buf *buffer.AudioBuffer

	playing  atomic.Bool
	ended    atomic.Bool
	loop     atomic.Bool
	position atomic.Int64
	seek     atomic.Int64
	bound    atomic.Bool
}

// NewMediaElement wraps b, which is frozen.
func NewMediaElement(b *buffer.AudioBuffer) (*MediaElement, error) {
	if b == nil || b.Length() == 0 {
		return nil, configError("media element needs a non-empty buffer")
	}
	b.Freeze()
	e := &MediaElement{buf: b}
	e.seek.Store(-1)
	return e, nil
}

// Buffer returns the clip.
func (e *MediaElement) Buffer() *buffer.AudioBuffer { return e.buf }

// Play starts or resumes playback. After the clip ended it restarts from
// the beginning.
func (e *MediaElement) Play() {
	if e.ended.Swap(false) {
		e.seek.Store(0)
	}
	e.playing.Store(true)
}

// Pause halts playback and keeps the position.
func (e *MediaElement) Pause() { e.playing.Store(false) }

// Paused reports whether the element is not playing.
func (e *MediaElement) Paused() bool { return !e.playing.Load() }

// Ended reports whether playback reached the end without looping.
func (e *MediaElement) Ended() bool { return e.ended.Load() }

// SetLoop makes playback wrap at the end.
func (e *MediaElement) SetLoop(loop bool) { e.loop.Store(loop) }

// CurrentTime returns the playback position in seconds.
func (e *MediaElement) CurrentTime() float64 {
	return float64(e.position.Load()) / e.buf.SampleRate()
}

// Duration returns the clip length in seconds.
func (e *MediaElement) Duration() float64 { return e.buf.Duration() }

// Seek moves the playback position, effective at the next quantum.
func (e *MediaElement) Seek(seconds float64) error {
	if math.IsNaN(seconds) || seconds < 0 || seconds > e.buf.Duration() {
		return configError("seek to %v outside [0, %v]", seconds, e.buf.Duration())
	}
	frame := int64(math.Round(seconds * e.buf.SampleRate()))
	e.ended.Store(false)
	e.position.Store(frame)
	e.seek.Store(frame)
	return nil
}

// MediaElementSourceNode renders a MediaElement.
type MediaElementSourceNode struct {
	*baseNode

	element *MediaElement
	pos     int64
}

func newMediaElementSource(ctx *Context, e *MediaElement) (*MediaElementSourceNode, error) {
	if e == nil {
		return nil, configError("nil media element")
	}
	if e.buf.SampleRate() != ctx.sampleRate {
		return nil, configError("media element rate %v, context rate %v", e.buf.SampleRate(), ctx.sampleRate)
	}
	ch := e.buf.NumberOfChannels()
	if ch > MaxChannels {
		return nil, configError("media element has %d channels, max %d", ch, MaxChannels)
	}
	if !e.bound.CompareAndSwap(false, true) {
		return nil, stateError("media element already attached to a node")
	}

	m := &MediaElementSourceNode{
		baseNode: newBaseNode(ctx, TypeMediaElementSource, nil, []int{ch}),
		element:  e,
	}
	m.proc = m
	return m, nil
}

// Element returns the rendered element.
func (m *MediaElementSourceNode) Element() *MediaElement { return m.element }

func (m *MediaElementSourceNode) process(q *quantum, _, out []*buffer.Bus) error {
	dst := out[0]
	dst.Zero()

	e := m.element
	if s := e.seek.Swap(-1); s >= 0 {
		m.pos = s
	}
	if !e.playing.Load() {
		return nil
	}

	length := int64(e.buf.Length())
	for i := 0; i < q.frames; {
		if m.pos >= length {
			if !e.loop.Load() {
				e.playing.Store(false)
				e.ended.Store(true)
				break
			}
			m.pos = 0
		}
		n := int(min(int64(q.frames-i), length-m.pos))
		for ch := range dst.NumberOfChannels() {
			_, _ = e.buf.CopyFromChannel(dst.Channel(ch)[i:i+n], ch, int(m.pos))
		}
		m.pos += int64(n)
		i += n
	}
	e.position.Store(m.pos)
	return nil
}
