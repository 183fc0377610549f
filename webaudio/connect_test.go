package webaudio

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-webaudio/dsp/graph"
)

func TestConnectRejectsCyclesAtomically(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	g1, _ := c.NewGain(GainOptions{})
	g2, _ := c.NewGain(GainOptions{})
	g3, _ := c.NewGain(GainOptions{})
	mustConnect(t, c, g1, g2, g3, c.Destination())

	before := c.Connections()

	tests := []struct {
		name     string
		src, dst Node
	}{
		{name: "self loop", src: g2, dst: g2},
		{name: "two-node cycle", src: g2, dst: g1},
		{name: "three-node cycle", src: g3, dst: g1},
	}

	for _, tc := range tests {
		err := c.Connect(tc.src, tc.dst)
		if !errors.Is(err, ErrGraph) || !errors.Is(err, graph.ErrCycle) {
			t.Fatalf("%s: Connect() error = %v, want ErrGraph and ErrCycle", tc.name, err)
		}
		if got := c.Connections(); len(got) != len(before) {
			t.Fatalf("%s: %d connections after rejected connect, want %d", tc.name, len(got), len(before))
		}
	}

	// The graph still renders the original chain.
	osc, _ := c.NewOscillator()
	mustConnect(t, c, osc, g1)
	if err := osc.Start(0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	out := mustRender(t, c, 256)
	if channel(t, out, 0)[1] == 0 {
		t.Fatal("chain silent after rejected connects")
	}
}

func TestConnectRejectsChannelMismatch(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	wide, err := c.NewScriptProcessor(ScriptProcessorOptions{OutputChannels: 4}, nil)
	if err != nil {
		t.Fatalf("NewScriptProcessor() error = %v", err)
	}
	gain, _ := c.NewGain(GainOptions{})

	for _, dst := range []Node{c.Destination(), gain} {
		if err := c.Connect(wide, dst); !errors.Is(err, ErrGraph) {
			t.Fatalf("Connect(4ch -> %s) error = %v, want ErrGraph", dst.Type(), err)
		}
	}
	if len(c.Connections()) != 0 {
		t.Fatalf("connections = %v, want none", c.Connections())
	}

	wideGain, _ := c.NewGain(GainOptions{Channels: 4})
	mustConnect(t, c, wide, wideGain)
}

func TestConnectPortRange(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	osc, _ := c.NewOscillator()

	if err := c.ConnectPorts(osc, 1, c.Destination(), 0); !errors.Is(err, graph.ErrPortRange) || !errors.Is(err, ErrGraph) {
		t.Fatalf("output 1 error = %v, want ErrGraph and ErrPortRange", err)
	}
	if err := c.ConnectPorts(osc, 0, c.Destination(), 3); !errors.Is(err, graph.ErrPortRange) {
		t.Fatalf("input 3 error = %v, want ErrPortRange", err)
	}
	if err := c.Connect(c.Destination(), osc); !errors.Is(err, ErrGraph) {
		t.Fatalf("Connect(destination -> osc) error = %v, want ErrGraph", err)
	}
}

func TestRemoveMakesHandleStale(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	osc, _ := c.NewOscillator()
	gain, _ := c.NewGain(GainOptions{})
	mustConnect(t, c, osc, gain, c.Destination())

	if err := c.Remove(gain); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(c.Connections()) != 0 {
		t.Fatalf("connections after Remove = %v, want none", c.Connections())
	}

	// The freed slot is reused; the old handle must not reach the new node.
	other, _ := c.NewGain(GainOptions{})
	if other.Handle().Index() != gain.Handle().Index() {
		t.Fatalf("slot not reused: %s vs %s", other.Handle(), gain.Handle())
	}

	for name, err := range map[string]error{
		"connect from":   c.Connect(gain, c.Destination()),
		"connect to":     c.Connect(osc, gain),
		"disconnect all": c.DisconnectAll(gain),
		"remove twice":   c.Remove(gain),
	} {
		if !errors.Is(err, ErrGraph) {
			t.Fatalf("%s: error = %v, want ErrGraph", name, err)
		}
	}

	if err := c.Remove(c.Destination()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Remove(destination) error = %v, want ErrInvalidState", err)
	}
}

func TestConnectAcrossContexts(t *testing.T) {
	t.Parallel()

	a := newTestContext(t)
	b := newTestContext(t)
	osc, _ := a.NewOscillator()

	if err := b.Connect(osc, b.Destination()); !errors.Is(err, ErrGraph) {
		t.Fatalf("cross-context Connect() error = %v, want ErrGraph", err)
	}
}

func TestDisconnect(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	osc, _ := c.NewOscillator()
	mustConnect(t, c, osc, c.Destination())
	if err := osc.Start(0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	mustRender(t, c, 128)

	if err := c.Disconnect(osc, c.Destination()); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if err := c.Disconnect(osc, c.Destination()); err != nil {
		t.Fatalf("second Disconnect() error = %v, want nil", err)
	}
	if n := len(c.Connections()); n != 0 {
		t.Fatalf("Connections() = %d after Disconnect, want 0", n)
	}

	out := mustRender(t, c, 128)
	for i, v := range channel(t, out, 0) {
		if v != 0 {
			t.Fatalf("out[%d] = %v after Disconnect, want 0", i, v)
		}
	}
}

func TestOnlyNodesReachingDestinationRender(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	calls := 0
	script, _ := c.NewScriptProcessor(ScriptProcessorOptions{}, func(*AudioProcessingEvent) error {
		calls++
		return nil
	})
	gain, _ := c.NewGain(GainOptions{})
	mustConnect(t, c, script, gain)

	mustRender(t, c, 512)
	if calls != 0 {
		t.Fatalf("detached script ran %d times, want 0", calls)
	}

	mustConnect(t, c, gain, c.Destination())
	mustRender(t, c, 512)
	if calls != 4 {
		t.Fatalf("attached script ran %d times, want 4", calls)
	}
}

func TestDisconnectUnconnectedIsNoop(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	osc, _ := c.NewOscillator()
	gain, _ := c.NewGain(GainOptions{})
	mustConnect(t, c, gain, c.Destination())

	if err := c.Disconnect(osc, c.Destination()); err != nil {
		t.Fatalf("Disconnect() of unconnected pair error = %v, want nil", err)
	}
	if n := len(c.Connections()); n != 1 {
		t.Fatalf("Connections() = %d, want 1", n)
	}

	if err := c.Remove(osc); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := c.Disconnect(osc, c.Destination()); !errors.Is(err, ErrGraph) {
		t.Fatalf("Disconnect() of removed node error = %v, want ErrGraph", err)
	}
}
