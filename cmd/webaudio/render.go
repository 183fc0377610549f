package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/algo-webaudio/decode"
	"github.com/cwbudde/algo-webaudio/dsp/buffer"
	frequencystats "github.com/cwbudde/algo-webaudio/stats/frequency"
	timestats "github.com/cwbudde/algo-webaudio/stats/time"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a graph offline to a WAV file",
	Long: `Render builds oscillator or file source -> optional panner -> gain ->
destination, renders it as fast as possible and writes the result as a
WAV file. Level statistics of every channel are printed.`,
	PreRun: func(cmd *cobra.Command, _ []string) {
		bindGraphFlags(cmd.Flags())
		_ = viper.BindPFlag("render.duration", cmd.Flags().Lookup("duration"))
		_ = viper.BindPFlag("render.output", cmd.Flags().Lookup("output"))
		_ = viper.BindPFlag("render.bit-depth", cmd.Flags().Lookup("bit-depth"))
	},
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	addGraphFlags(renderCmd.Flags())
	renderCmd.Flags().Duration("duration", time.Second, "length to render")
	renderCmd.Flags().StringP("output", "o", "out.wav", "WAV file to write")
	renderCmd.Flags().Int("bit-depth", 16, "WAV bit depth: 16, 24 or 32")
}

func runRender(_ *cobra.Command, _ []string) error {
	log := logger()
	c, err := newContext(log)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := buildGraph(c, log); err != nil {
		return err
	}

	frames := int(math.Round(viper.GetDuration("render.duration").Seconds() * c.SampleRate()))
	start := time.Now()
	out, err := c.Render(frames)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	path := viper.GetString("render.output")
	if err := writeWAV(path, out, viper.GetInt("render.bit-depth")); err != nil {
		return err
	}

	log.Info("rendered",
		slog.String("output", path),
		slog.Int("frames", frames),
		slog.Duration("elapsed", elapsed),
		slog.Float64("realtime_factor", float64(frames)/c.SampleRate()/elapsed.Seconds()))
	printLevels(out)
	if n := c.DroppedErrors(); n > 0 {
		log.Warn("processing errors dropped", slog.Uint64("count", n))
	}
	return nil
}

func writeWAV(path string, b *buffer.AudioBuffer, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := decode.EncodeWAV(f, b, bitDepth); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printLevels(b *buffer.AudioBuffer) {
	for ch := range b.NumberOfChannels() {
		data, _ := b.ChannelData(ch)
		s := timestats.Calculate(data)
		fmt.Printf("channel %d: rms %7.2f dBFS  peak %7.2f dBFS  crest %5.2f dB  max jump %.4f",
			ch, s.RMS_dB, s.Peak_dB, s.CrestFactor_dB, s.MaxJump)
		if f, err := frequencystats.Analyze(data, b.SampleRate()); err == nil && f.Max > 0 {
			fmt.Printf("  dominant %.1f Hz  centroid %.1f Hz", f.PeakFrequency, f.Centroid)
		}
		fmt.Println()
	}
}
