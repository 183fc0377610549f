// Package webaudio is a real-time audio graph engine with a Web Audio
// shaped surface.
//
// A Context owns a node graph pulled from its DestinationNode. Nodes are
// created through Context factories and joined with Connect. Rendering runs
// in fixed quanta on a single render goroutine, either offline with Render
// or against a playback Sink with Run. Application calls (connect,
// parameter sets, start and stop) may come from any goroutine; they take
// effect at the next quantum boundary and never block the render thread.
package webaudio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-webaudio/decode"
	"github.com/cwbudde/algo-webaudio/dsp/buffer"
	"github.com/cwbudde/algo-webaudio/dsp/core"
	"github.com/cwbudde/algo-webaudio/dsp/graph"
	"github.com/cwbudde/algo-webaudio/dsp/hrtf"
)

// Context is an audio graph with its render clock.
type Context struct {
	id         uuid.UUID
	logger     *slog.Logger
	render     core.RenderConfig
	sampleRate float64
	quantum    int
	channels   int

	// clock stamps param and pose writes.
	clock atomic.Uint64

	mu    sync.Mutex
	graph *graph.Graph[*baseNode]

	dest     *DestinationNode
	listener *Listener
	hrtf     *hrtf.Database
	decoders *decode.Registry
	reporter *reporter

	closed   atomic.Bool
	renderMu sync.Mutex
	frame    atomic.Int64

	// render thread only
	plan *renderPlan
	q    quantum
}

// NewContext creates a context. Invalid options and an unusable HRTF
// dataset fail with ErrConfiguration.
func NewContext(opts ...ContextOption) (*Context, error) {
	cfg := contextConfig{
		render:     core.DefaultRenderConfig(),
		channels:   DefaultChannels,
		logger:     slog.Default(),
		errorQueue: DefaultErrorQueueSize,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.render.Validate(); err != nil {
		return nil, errors.Join(ErrConfiguration, err)
	}

	c := &Context{
		id:         uuid.New(),
		render:     cfg.render,
		sampleRate: cfg.render.SampleRate,
		quantum:    cfg.render.QuantumSize,
		channels:   cfg.channels,
		graph:      graph.New[*baseNode](),
		decoders:   cfg.decoders,
	}
	c.logger = cfg.logger.With(slog.String("context", c.id.String()))
	if c.decoders == nil {
		c.decoders = decode.NewDefaultRegistry()
	}

	switch {
	case cfg.hrtfDB != nil:
		if cfg.hrtfDB.SampleRate() != c.sampleRate {
			return nil, configError("HRTF database rate %v, context rate %v", cfg.hrtfDB.SampleRate(), c.sampleRate)
		}
		c.hrtf = cfg.hrtfDB
	case cfg.hrtfPath != "":
		db, err := hrtf.Load(cfg.hrtfPath, c.sampleRate, cfg.hrtfOptions...)
		if err != nil {
			return nil, errors.Join(ErrConfiguration, err)
		}
		c.hrtf = db
		c.logger.Info("HRTF dataset loaded", slog.String("path", cfg.hrtfPath), slog.Int("kernel", db.KernelLength()))
	}

	c.listener = newListener(c)
	c.dest = newDestination(c, c.channels)
	c.add(c.dest.baseNode)
	c.reporter = newReporter(cfg.errorQueue, c.logger, cfg.onError)

	c.logger.Debug("context created",
		slog.Float64("sampleRate", c.sampleRate),
		slog.Int("quantum", c.quantum),
		slog.Int("channels", c.channels),
		slog.Bool("hrtf", c.hrtf != nil),
	)

	return c, nil
}

// ID identifies the context in logs.
func (c *Context) ID() uuid.UUID { return c.id }

// SampleRate returns the rate in Hz.
func (c *Context) SampleRate() float64 { return c.sampleRate }

// QuantumSize returns the render quantum in frames.
func (c *Context) QuantumSize() int { return c.quantum }

// CurrentFrame returns the number of frames rendered so far.
func (c *Context) CurrentFrame() int64 { return c.frame.Load() }

// CurrentTime returns the render clock in seconds.
func (c *Context) CurrentTime() float64 {
	return float64(c.frame.Load()) / c.sampleRate
}

// Destination returns the sink node.
func (c *Context) Destination() *DestinationNode { return c.dest }

// Listener returns the context listener.
func (c *Context) Listener() *Listener { return c.listener }

// HRTF returns the loaded database, or nil.
func (c *Context) HRTF() *hrtf.Database { return c.hrtf }

// DroppedErrors returns how many processing errors were discarded because
// the reporter queue was full.
func (c *Context) DroppedErrors() uint64 { return c.reporter.dropped.Load() }

// Close stops the error reporter after delivering pending errors. Rendering
// and graph changes fail afterwards.
func (c *Context) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.reporter.close()
	c.logger.Debug("context closed", slog.Int64("frames", c.frame.Load()))
	return nil
}

func (c *Context) add(n *baseNode) {
	c.mu.Lock()
	n.handle = c.graph.Add(n, len(n.inputs), len(n.outputs))
	c.mu.Unlock()
}

func (c *Context) checkOpen() error {
	if c.closed.Load() {
		return stateError("context closed")
	}
	return nil
}

// NewOscillator creates a 440 Hz sine oscillator.
func (c *Context) NewOscillator() (*OscillatorNode, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	o := newOscillator(c)
	c.add(o.baseNode)
	return o, nil
}

// GainOptions shapes a GainNode.
type GainOptions struct {
	// Channels is the largest channel count passed through. Default 2.
	Channels int
}

// NewGain creates a unity gain node.
func (c *Context) NewGain(opts GainOptions) (*GainNode, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if opts.Channels == 0 {
		opts.Channels = DefaultChannels
	}
	if opts.Channels < 1 || opts.Channels > MaxChannels {
		return nil, configError("gain channels must be in [1, %d], got %d", MaxChannels, opts.Channels)
	}
	g := newGain(c, opts.Channels)
	c.add(g.baseNode)
	return g, nil
}

// NewPanner creates an equal-power panner at the origin.
func (c *Context) NewPanner() (*PannerNode, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	p, err := newPanner(c)
	if err != nil {
		return nil, err
	}
	c.add(p.baseNode)
	return p, nil
}

// NewScriptProcessor creates a node running cb on the render thread.
func (c *Context) NewScriptProcessor(opts ScriptProcessorOptions, cb ScriptCallback) (*ScriptProcessorNode, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	s, err := newScriptProcessor(c, opts, cb)
	if err != nil {
		return nil, err
	}
	c.add(s.baseNode)
	return s, nil
}

// NewBufferSource creates a buffer player.
func (c *Context) NewBufferSource(opts BufferSourceOptions) (*BufferSourceNode, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	s, err := newBufferSource(c, opts)
	if err != nil {
		return nil, err
	}
	c.add(s.baseNode)
	return s, nil
}

// NewMediaStreamSource creates a node reading live input from capture.
func (c *Context) NewMediaStreamSource(capture Capture) (*MediaStreamSourceNode, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	m, err := newMediaStreamSource(c, capture)
	if err != nil {
		return nil, err
	}
	c.add(m.baseNode)
	return m, nil
}

// NewMediaElementSource creates a node rendering e. The element must be at
// the context sample rate and may be attached only once.
func (c *Context) NewMediaElementSource(e *MediaElement) (*MediaElementSourceNode, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	m, err := newMediaElementSource(c, e)
	if err != nil {
		return nil, err
	}
	c.add(m.baseNode)
	return m, nil
}

// CreateBuffer returns a silent buffer at the context rate.
func (c *Context) CreateBuffer(channels, length int) (*buffer.AudioBuffer, error) {
	if channels > MaxChannels {
		return nil, configError("buffer channels must be <= %d, got %d", MaxChannels, channels)
	}
	b, err := buffer.New(channels, length, c.sampleRate)
	if err != nil {
		return nil, errors.Join(ErrConfiguration, err)
	}
	return b, nil
}

// DecodeAudioData decodes data in the given format and resamples it to the
// context rate. Failures wrap ErrDecode.
func (c *Context) DecodeAudioData(format string, data []byte) (*buffer.AudioBuffer, error) {
	b, err := c.decoders.Decode(format, data)
	if err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	if b.SampleRate() == c.sampleRate {
		return b, nil
	}
	out, err := decode.Resample(b, c.sampleRate, decode.QualityMedium)
	if err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	return out, nil
}

// Connect joins the first output of src to the first input of dst.
func (c *Context) Connect(src, dst Node) error {
	return c.ConnectPorts(src, 0, dst, 0)
}

// ConnectPorts joins an output of src to an input of dst. A cycle, a
// removed node or a source with more channels than the input accepts fails
// with ErrGraph and leaves the graph unchanged.
func (c *Context) ConnectPorts(src Node, output int, dst Node, input int) error {
	s, d, err := c.pair(src, dst)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return err
	}
	if !c.graph.Contains(s.handle) || !c.graph.Contains(d.handle) {
		return graphError("%s -> %s: node was removed", s.handle, d.handle)
	}
	if output < 0 || output >= len(s.outputs) {
		return fmt.Errorf("%w: %w: output %d of %s %s", ErrGraph, graph.ErrPortRange, output, s.typ, s.handle)
	}
	if input < 0 || input >= len(d.inputs) {
		return fmt.Errorf("%w: %w: input %d of %s %s", ErrGraph, graph.ErrPortRange, input, d.typ, d.handle)
	}
	if got, limit := s.outputs[output], d.inputs[input].channels; got > limit {
		return graphError("%s %s has %d channels, input of %s %s accepts %d", s.typ, s.handle, got, d.typ, d.handle, limit)
	}

	e := graph.Edge{From: s.handle, Output: output, To: d.handle, Input: input}
	if err := c.graph.Connect(e); err != nil {
		return errors.Join(ErrGraph, err)
	}
	return nil
}

// Disconnect removes every connection from src to dst. It is a no-op when
// the two are not connected.
func (c *Context) Disconnect(src, dst Node) error {
	s, d, err := c.pair(src, dst)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.graph.Contains(s.handle) || !c.graph.Contains(d.handle) {
		return graphError("%s -> %s: node was removed", s.handle, d.handle)
	}

	for _, e := range c.graph.Edges() {
		if e.From == s.handle && e.To == d.handle {
			c.graph.Disconnect(e)
		}
	}
	return nil
}

// DisconnectAll removes every connection leaving n.
func (c *Context) DisconnectAll(n Node) error {
	b, err := c.own(n)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.graph.DisconnectAll(b.handle); err != nil {
		return errors.Join(ErrGraph, err)
	}
	return nil
}

// Remove destroys n and its connections. Its handle is stale afterwards.
func (c *Context) Remove(n Node) error {
	b, err := c.own(n)
	if err != nil {
		return err
	}
	if b == c.dest.baseNode {
		return stateError("the destination cannot be removed")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.graph.Remove(b.handle); err != nil {
		return errors.Join(ErrGraph, err)
	}
	return nil
}

// Connections returns the current edges.
func (c *Context) Connections() []graph.Edge {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.graph.Edges()
}

// NodeCount returns the number of live nodes, the destination included.
func (c *Context) NodeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.graph.Len()
}

func (c *Context) own(n Node) (*baseNode, error) {
	if n == nil {
		return nil, graphError("nil node")
	}
	b := n.base()
	if b.ctx != c {
		return nil, graphError("%s %s belongs to another context", b.typ, b.handle)
	}
	return b, nil
}

func (c *Context) pair(src, dst Node) (*baseNode, *baseNode, error) {
	s, err := c.own(src)
	if err != nil {
		return nil, nil, err
	}
	d, err := c.own(dst)
	if err != nil {
		return nil, nil, err
	}
	return s, d, nil
}
