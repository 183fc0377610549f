package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/algo-webaudio/device"
	"github.com/cwbudde/algo-webaudio/webaudio"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a graph in real time on a sound card",
	Long: `Play builds the same chain as render and drives it in real time to a
sound card, through oto or PortAudio. With --capture the default input
device is mixed into the destination through a media stream source.`,
	PreRun: func(cmd *cobra.Command, _ []string) {
		fs := cmd.Flags()
		bindGraphFlags(fs)
		_ = viper.BindPFlag("play.backend", fs.Lookup("backend"))
		_ = viper.BindPFlag("play.duration", fs.Lookup("duration"))
		_ = viper.BindPFlag("play.capture", fs.Lookup("capture"))
		_ = viper.BindPFlag("input-device.host-api", fs.Lookup("input-host-api"))
		_ = viper.BindPFlag("input-device.name", fs.Lookup("input-device"))
		_ = viper.BindPFlag("input-device.sample-rate", fs.Lookup("input-sample-rate"))
		_ = viper.BindPFlag("input-device.channels", fs.Lookup("input-channels"))
		_ = viper.BindPFlag("input-device.latency", fs.Lookup("input-latency"))
		_ = viper.BindPFlag("output-device.host-api", fs.Lookup("output-host-api"))
		_ = viper.BindPFlag("output-device.name", fs.Lookup("output-device"))
		_ = viper.BindPFlag("output-device.latency", fs.Lookup("output-latency"))
		_ = viper.BindPFlag("output-device.frames-per-buffer", fs.Lookup("frames-per-buffer"))
	},
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
	fs := playCmd.Flags()
	addGraphFlags(fs)
	fs.String("backend", "oto", "playback backend: oto or portaudio")
	fs.Duration("duration", 0, "stop after this long; 0 plays until interrupted")
	fs.Bool("capture", false, "mix the input device into the output")
	fs.String("input-host-api", "default", "PortAudio host API of the input device")
	fs.StringP("input-device", "i", "default", "input device name")
	fs.Float64("input-sample-rate", 48000, "input device sample rate")
	fs.Int("input-channels", 1, "input device channels")
	fs.Duration("input-latency", 10*time.Millisecond, "input latency")
	fs.String("output-host-api", "default", "PortAudio host API of the output device")
	fs.String("output-device", "default", "output device name (portaudio backend)")
	fs.Duration("output-latency", 10*time.Millisecond, "output latency (portaudio backend)")
	fs.Int("frames-per-buffer", 512, "device buffer size in frames (portaudio backend)")
}

// playbackSink is a sink that owns a device.
type playbackSink interface {
	webaudio.Sink
	Close() error
}

func runPlay(_ *cobra.Command, _ []string) error {
	log := logger()
	c, err := newContext(log)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := buildGraph(c, log); err != nil {
		return err
	}

	if viper.GetBool("play.capture") {
		in, err := device.OpenInput(c.SampleRate(),
			device.HostAPI(viper.GetString("input-device.host-api")),
			device.DeviceName(viper.GetString("input-device.name")),
			device.SampleRate(viper.GetFloat64("input-device.sample-rate")),
			device.Channels(viper.GetInt("input-device.channels")),
			device.Latency(viper.GetDuration("input-device.latency")),
			device.Logger(log))
		if err != nil {
			return err
		}
		defer in.Close()

		mic, err := c.NewMediaStreamSource(in.Queue())
		if err != nil {
			return err
		}
		if err := c.Connect(mic, c.Destination()); err != nil {
			return err
		}
		if err := in.Start(); err != nil {
			return err
		}
		defer func() {
			log.Info("capture stopped",
				slog.Uint64("underruns", mic.Underruns()),
				slog.Uint64("overruns", in.Queue().Overruns()))
		}()
	}

	sink, err := openSink(c, log)
	if err != nil {
		return err
	}
	defer sink.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if d := viper.GetDuration("play.duration"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	err = c.Run(ctx, sink)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func openSink(c *webaudio.Context, log *slog.Logger) (playbackSink, error) {
	switch backend := viper.GetString("play.backend"); backend {
	case "oto":
		return device.NewOtoSink(int(c.SampleRate()), c.Destination().ChannelCount(), log)
	case "portaudio":
		out, err := device.OpenOutput(c.SampleRate(),
			device.HostAPI(viper.GetString("output-device.host-api")),
			device.DeviceName(viper.GetString("output-device.name")),
			device.Channels(c.Destination().ChannelCount()),
			device.Latency(viper.GetDuration("output-device.latency")),
			device.FramesPerBuffer(viper.GetInt("output-device.frames-per-buffer")),
			device.Logger(log))
		if err != nil {
			return nil, err
		}
		if err := out.Start(); err != nil {
			_ = out.Close()
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
