package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/algo-webaudio/dsp/buffer"
	timestats "github.com/cwbudde/algo-webaudio/stats/time"
	"github.com/cwbudde/algo-webaudio/webaudio"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Stream generated buffers through a relay queue",
	Long: `Relay runs a producer goroutine that fills fixed-size buffers with a
continuous sine and pushes them into a relay bound to a buffer source,
while the context renders quantum by quantum. The output is written as a
WAV file; a continuous sine with no jumps shows the buffers were played
back to back.`,
	PreRun: func(cmd *cobra.Command, _ []string) {
		fs := cmd.Flags()
		_ = viper.BindPFlag("relay.buffer-size", fs.Lookup("buffer-size"))
		_ = viper.BindPFlag("relay.depth", fs.Lookup("depth"))
		_ = viper.BindPFlag("relay.frequency", fs.Lookup("frequency"))
		_ = viper.BindPFlag("render.duration", fs.Lookup("duration"))
		_ = viper.BindPFlag("render.output", fs.Lookup("output"))
	},
	RunE: runRelay,
}

func init() {
	rootCmd.AddCommand(relayCmd)
	fs := relayCmd.Flags()
	fs.Int("buffer-size", 4800, "frames per pushed buffer")
	fs.Int("depth", 2, "buffers the producer keeps queued")
	fs.Float64("frequency", 440, "sine frequency in Hz")
	fs.Duration("duration", 2*time.Second, "length to render")
	fs.StringP("output", "o", "relay.wav", "WAV file to write")
}

func runRelay(_ *cobra.Command, _ []string) error {
	log := logger()
	c, err := newContext(log)
	if err != nil {
		return err
	}
	defer c.Close()

	size := viper.GetInt("relay.buffer-size")
	if size < 1 {
		return fmt.Errorf("relay buffer size must be > 0, got %d", size)
	}

	src, err := c.NewBufferSource(webaudio.BufferSourceOptions{Channels: 1})
	if err != nil {
		return err
	}
	pool := buffer.NewPool()
	relay, err := c.NewRelay(src, webaudio.WithRelayPool(pool))
	if err != nil {
		return err
	}
	if err := c.Connect(src, c.Destination()); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		produce(ctx, relay, pool, c.SampleRate(), size, viper.GetInt("relay.depth"), viper.GetFloat64("relay.frequency"), log)
	}()

	total := int(math.Round(viper.GetDuration("render.duration").Seconds() * c.SampleRate()))
	out, err := c.CreateBuffer(c.Destination().MaxChannelCount(), total)
	if err != nil {
		return err
	}
	for pos := 0; pos < total; pos += c.QuantumSize() {
		block, err := c.Render(min(c.QuantumSize(), total-pos))
		if err != nil {
			cancel()
			wg.Wait()
			return err
		}
		for ch := range block.NumberOfChannels() {
			data, _ := block.ChannelData(ch)
			_, _ = out.CopyToChannel(data, ch, pos)
		}
		// Give the producer a chance to refill, as a device clock would.
		if relay.Len() == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	cancel()
	wg.Wait()

	path := viper.GetString("render.output")
	if err := writeWAV(path, out, 16); err != nil {
		return err
	}

	left, _ := out.ChannelData(0)
	jump, at := timestats.MaxJump(left)
	log.Info("relay finished",
		slog.String("output", path),
		slog.Uint64("buffers", relay.BuffersPlayed()),
		slog.Uint64("frames", relay.FramesPlayed()),
		slog.Float64("max_jump", jump),
		slog.Int("max_jump_at", at))
	return nil
}

// produce keeps depth buffers of a continuous sine queued until ctx ends.
func produce(ctx context.Context, r *webaudio.Relay, pool *buffer.Pool, rate float64, size, depth int, freq float64, log *slog.Logger) {
	phase := 0.0
	step := freq / rate
	for ctx.Err() == nil {
		if r.Len() >= depth {
			time.Sleep(time.Millisecond)
			continue
		}

		b, err := pool.Get(1, size, rate)
		if err != nil {
			log.Error("relay producer", slog.Any("error", err))
			return
		}
		data := make([]float64, size)
		for i := range data {
			data[i] = 0.5 * math.Sin(2*math.Pi*phase)
			phase += step
			phase -= math.Floor(phase)
		}
		if _, err := b.CopyToChannel(data, 0, 0); err != nil {
			log.Error("relay producer", slog.Any("error", err))
			return
		}
		if err := r.Push(b); err != nil {
			log.Error("relay producer", slog.Any("error", err))
			return
		}
		r.Trigger()
	}
}
