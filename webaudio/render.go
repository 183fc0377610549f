package webaudio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
)

// Sink consumes rendered quanta, one planar block per call. Write paces
// real-time rendering: a device sink blocks until the device has room.
type Sink interface {
	Write(block [][]float64) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(block [][]float64) error

// Write calls f.
func (f SinkFunc) Write(block [][]float64) error { return f(block) }

type renderStep struct {
	node   *baseNode
	inputs [][]*buffer.Bus
}

// renderPlan resolves a graph.Plan to node and bus pointers so that a
// quantum renders without touching the graph.
type renderPlan struct {
	version uint64
	steps   []renderStep
}

// Render renders frames offline and returns exactly that many frames of
// destination output. The context clock advances by whole quanta.
func (c *Context) Render(frames int) (*buffer.AudioBuffer, error) {
	if frames <= 0 {
		return nil, configError("frames must be > 0, got %d", frames)
	}
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if !c.renderMu.TryLock() {
		return nil, stateError("context is already rendering")
	}
	defer c.renderMu.Unlock()

	out, err := buffer.New(c.channels, frames, c.sampleRate)
	if err != nil {
		return nil, errors.Join(ErrConfiguration, err)
	}

	written := 0
	for range c.render.QuantaFor(frames) {
		c.renderQuantum(true)

		n := min(c.quantum, frames-written)
		bus := c.dest.inBus[0]
		for ch := range c.channels {
			if _, err := out.CopyToChannel(bus.Channel(ch)[:n], ch, written); err != nil {
				return nil, fmt.Errorf("webaudio: render: %w", err)
			}
		}
		written += n
	}

	return out, nil
}

// Run renders quantum after quantum into sink until ctx is done, the
// context is closed or the sink fails. Graph changes made while Run holds
// the render thread are picked up at the next quantum boundary at which
// the graph lock is free; Run never waits for it.
func (c *Context) Run(ctx context.Context, sink Sink) error {
	if sink == nil {
		return configError("nil sink")
	}
	if err := c.checkOpen(); err != nil {
		return err
	}
	if !c.renderMu.TryLock() {
		return stateError("context is already rendering")
	}
	defer c.renderMu.Unlock()

	c.logger.Info("render loop started")
	defer c.logger.Info("render loop stopped", slog.Int64("frames", c.frame.Load()))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.closed.Load() {
			return nil
		}

		c.renderQuantum(false)
		if err := sink.Write(c.dest.inBus[0].Channels()); err != nil {
			return fmt.Errorf("webaudio: sink: %w", err)
		}
	}
}

// renderQuantum evaluates the plan once. With wait set it blocks for the
// graph lock; otherwise it keeps the previous plan when the lock is busy.
func (c *Context) renderQuantum(wait bool) {
	c.refreshPlan(wait)

	q := &c.q
	q.frame = c.frame.Load()
	q.time = float64(q.frame) / c.sampleRate
	q.frames = c.quantum
	q.rate = c.sampleRate

	if c.plan == nil {
		c.dest.inBus[0].Zero()
		c.frame.Add(int64(c.quantum))
		return
	}

	// Every read in this quantum sees the values as of its start, including
	// reads after a script callback changed a param.
	c.listener.snapshot()
	for i := range c.plan.steps {
		c.plan.steps[i].node.snapshot()
	}

	for i := range c.plan.steps {
		st := &c.plan.steps[i]
		n := st.node

		mixInputs(n, st.inputs)

		if err := runNode(n, q); err != nil {
			n.silence()
			c.reportFault(n, q, err)
		}
	}

	c.frame.Add(int64(c.quantum))
}

func (c *Context) refreshPlan(wait bool) {
	if wait {
		c.mu.Lock()
	} else if !c.mu.TryLock() {
		return
	}
	defer c.mu.Unlock()

	if c.plan != nil && c.plan.version == c.graph.Version() {
		return
	}

	p, err := c.graph.Plan(c.dest.handle)
	if err != nil {
		// Keep rendering the previous plan.
		c.logger.Error("plan compilation failed", slog.Any("error", err))
		return
	}

	steps := make([]renderStep, 0, len(p.Steps))
	for _, st := range p.Steps {
		n, err := c.graph.Get(st.Node)
		if err != nil {
			c.logger.Error("plan references a removed node", slog.Any("error", err))
			return
		}
		inputs := make([][]*buffer.Bus, len(st.Inputs))
		for port, sources := range st.Inputs {
			for _, src := range sources {
				from, err := c.graph.Get(src.From)
				if err != nil {
					c.logger.Error("plan references a removed node", slog.Any("error", err))
					return
				}
				inputs[port] = append(inputs[port], from.outBus[src.Output])
			}
		}
		steps = append(steps, renderStep{node: n, inputs: inputs})
	}

	c.plan = &renderPlan{version: p.Version, steps: steps}
}

// mixInputs sums the sources of every input port into the node's input
// bus, up-mixing sources with fewer channels.
func mixInputs(n *baseNode, inputs [][]*buffer.Bus) {
	for port, bus := range n.inBus {
		spec := n.inputs[port]

		channels := spec.channels
		if spec.mode == ChannelsMax {
			channels = 1
			for _, src := range inputs[port] {
				channels = max(channels, src.NumberOfChannels())
			}
			channels = min(channels, spec.channels)
		}

		bus.SetChannelCount(channels)
		bus.Zero()
		for _, src := range inputs[port] {
			bus.SumFrom(src)
		}
	}
}

func runNode(n *baseNode, q *quantum) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{value: r}
		}
	}()
	return n.proc.process(q, n.inBus, n.outBus)
}

func (c *Context) reportFault(n *baseNode, q *quantum, err error) {
	c.reporter.report(&ProcessingError{
		Node:  n.id(),
		Type:  n.typ,
		Frame: q.frame,
		Time:  q.time,
		Cause: err,
	})
}
