package webaudio

import (
	"io"
	"log/slog"
	"testing"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
	"github.com/cwbudde/algo-webaudio/internal/testutil"
)

const testRate = 44100

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestContext(t *testing.T, opts ...ContextOption) *Context {
	t.Helper()

	opts = append([]ContextOption{WithLogger(quietLogger())}, opts...)
	c, err := NewContext(opts...)
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func mustRender(t *testing.T, c *Context, frames int) *buffer.AudioBuffer {
	t.Helper()

	out, err := c.Render(frames)
	if err != nil {
		t.Fatalf("Render(%d) error = %v", frames, err)
	}
	return out
}

func channel(t *testing.T, b *buffer.AudioBuffer, ch int) []float64 {
	t.Helper()

	data, err := b.ChannelData(ch)
	if err != nil {
		t.Fatalf("ChannelData(%d) error = %v", ch, err)
	}
	return data
}

func mustConnect(t *testing.T, c *Context, nodes ...Node) {
	t.Helper()

	for i := 1; i < len(nodes); i++ {
		if err := c.Connect(nodes[i-1], nodes[i]); err != nil {
			t.Fatalf("Connect(%s -> %s) error = %v", nodes[i-1].Type(), nodes[i].Type(), err)
		}
	}
}

// playing returns a started buffer source playing data. The source
// declares as many channels as data has.
func playing(t *testing.T, c *Context, channels ...[]float64) *BufferSourceNode {
	t.Helper()

	src, err := c.NewBufferSource(BufferSourceOptions{Channels: len(channels)})
	if err != nil {
		t.Fatalf("NewBufferSource() error = %v", err)
	}
	if err := src.SetBuffer(testutil.MustBuffer(t, c.SampleRate(), channels...)); err != nil {
		t.Fatalf("SetBuffer() error = %v", err)
	}
	if err := src.Start(0); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return src
}
