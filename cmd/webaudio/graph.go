package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cwbudde/algo-webaudio/dsp/interp"
	"github.com/cwbudde/algo-webaudio/dsp/spatial"
	"github.com/cwbudde/algo-webaudio/webaudio"
)

// addGraphFlags registers the flags describing the source -> panner ->
// gain -> destination chain shared by render and play.
func addGraphFlags(fs *pflag.FlagSet) {
	fs.String("input", "", "audio file to play instead of the oscillator (wav, aiff, mp3, ogg)")
	fs.Bool("loop", false, "loop the input file")
	fs.String("interpolation", "linear", "input resampling: linear or cubic")
	fs.String("waveform", "sine", "oscillator waveform: sine, square, sawtooth, triangle")
	fs.Float64("frequency", 440, "oscillator frequency in Hz")
	fs.Float64("detune", 0, "oscillator detune in cents")
	fs.Float64("gain", 0.5, "output gain")
	fs.String("position", "", "place the source with a panner at x,y,z")
	fs.String("panning", "equalpower", "panning model: equalpower or hrtf")
	fs.String("distance-model", "inverse", "distance model: inverse, linear or exponential")
}

func bindGraphFlags(fs *pflag.FlagSet) {
	for _, name := range []string{"input", "loop", "interpolation", "waveform", "frequency", "detune", "gain", "position", "panning", "distance-model"} {
		_ = viper.BindPFlag("graph."+name, fs.Lookup(name))
	}
}

// buildGraph wires the configured chain into c and starts its source.
func buildGraph(c *webaudio.Context, log *slog.Logger) error {
	src, err := newSource(c)
	if err != nil {
		return err
	}

	gain, err := c.NewGain(webaudio.GainOptions{})
	if err != nil {
		return err
	}
	if err := gain.Gain().SetValue(viper.GetFloat64("graph.gain")); err != nil {
		return err
	}

	chain := []webaudio.Node{src}
	if pos := viper.GetString("graph.position"); pos != "" {
		p, err := newPanner(c, pos)
		if err != nil {
			return err
		}
		chain = append(chain, p)
	}
	chain = append(chain, gain, c.Destination())

	for i := 1; i < len(chain); i++ {
		if err := c.Connect(chain[i-1], chain[i]); err != nil {
			return err
		}
	}
	log.Debug("graph built", slog.Int("nodes", c.NodeCount()), slog.Int("edges", len(c.Connections())))
	return nil
}

func newSource(c *webaudio.Context) (webaudio.Node, error) {
	if path := viper.GetString("graph.input"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		b, err := c.DecodeAudioData(format, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		mode, err := interp.ParseMode(viper.GetString("graph.interpolation"))
		if err != nil {
			return nil, err
		}
		src, err := c.NewBufferSource(webaudio.BufferSourceOptions{
			Channels:      max(b.NumberOfChannels(), 1),
			Interpolation: mode,
		})
		if err != nil {
			return nil, err
		}
		if err := src.SetBuffer(b); err != nil {
			return nil, err
		}
		if err := src.SetLoop(viper.GetBool("graph.loop"), 0, 0); err != nil {
			return nil, err
		}
		return src, src.Start(0)
	}

	osc, err := c.NewOscillator()
	if err != nil {
		return nil, err
	}
	typ, err := webaudio.ParseOscillatorType(viper.GetString("graph.waveform"))
	if err != nil {
		return nil, err
	}
	if err := osc.SetWaveform(typ); err != nil {
		return nil, err
	}
	if err := osc.Frequency().SetValue(viper.GetFloat64("graph.frequency")); err != nil {
		return nil, err
	}
	if err := osc.Detune().SetValue(viper.GetFloat64("graph.detune")); err != nil {
		return nil, err
	}
	return osc, osc.Start(0)
}

func newPanner(c *webaudio.Context, pos string) (*webaudio.PannerNode, error) {
	v, err := parseVec3(pos)
	if err != nil {
		return nil, err
	}
	p, err := c.NewPanner()
	if err != nil {
		return nil, err
	}
	if err := p.SetPosition(v.X, v.Y, v.Z); err != nil {
		return nil, err
	}

	model, err := webaudio.ParsePanningModel(viper.GetString("graph.panning"))
	if err != nil {
		return nil, err
	}
	if err := p.SetPanningModel(model); err != nil {
		return nil, err
	}
	dm, err := spatial.ParseDistanceModel(viper.GetString("graph.distance-model"))
	if err != nil {
		return nil, err
	}
	return p, p.SetDistanceModel(dm)
}

func parseVec3(s string) (spatial.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return spatial.Vec3{}, fmt.Errorf("position %q: want x,y,z", s)
	}
	var xyz [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return spatial.Vec3{}, fmt.Errorf("position %q: %w", s, err)
		}
		xyz[i] = v
	}
	return spatial.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
