package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cwbudde/algo-webaudio/dsp/core"
	"github.com/cwbudde/algo-webaudio/dsp/hrtf"
	"github.com/cwbudde/algo-webaudio/webaudio"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "webaudio",
	Short:         "Render and play real-time audio graphs",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	pf.Float64("sample-rate", core.DefaultSampleRate, "context sample rate in Hz")
	pf.Int("quantum", core.DefaultQuantumSize, "render quantum in frames")
	pf.Int("channels", webaudio.DefaultChannels, "destination channels")
	pf.String("hrtf-path", "", "HRTF dataset directory; enables --panning hrtf")
	pf.String("hrtf-subject", hrtf.DefaultSubject, "HRTF subject name inside the dataset")
	pf.BoolP("verbose", "v", false, "log debug messages")

	_ = viper.BindPFlag("audio.sample-rate", pf.Lookup("sample-rate"))
	_ = viper.BindPFlag("audio.quantum", pf.Lookup("quantum"))
	_ = viper.BindPFlag("audio.channels", pf.Lookup("channels"))
	_ = viper.BindPFlag("hrtf.path", pf.Lookup("hrtf-path"))
	_ = viper.BindPFlag("hrtf.subject", pf.Lookup("hrtf-subject"))
	_ = viper.BindPFlag("log.verbose", pf.Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".webaudio")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("WEBAUDIO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger().Info("using config file", slog.String("path", viper.ConfigFileUsed()))
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "webaudio: read config %s: %v\n", cfgFile, err)
		os.Exit(1)
	}
}

func logger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("log.verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newContext builds a context from the audio.* and hrtf.* settings.
func newContext(log *slog.Logger) (*webaudio.Context, error) {
	opts := []webaudio.ContextOption{
		webaudio.WithLogger(log),
		webaudio.WithSampleRate(viper.GetFloat64("audio.sample-rate")),
		webaudio.WithQuantumSize(viper.GetInt("audio.quantum")),
		webaudio.WithChannels(viper.GetInt("audio.channels")),
		webaudio.WithProcessingErrorHandler(func(e *webaudio.ProcessingError) {
			log.Error("node fault", slog.String("node", e.Node), slog.Any("error", e.Cause))
		}),
	}
	if dir := viper.GetString("hrtf.path"); dir != "" {
		opts = append(opts, webaudio.WithHRTFPath(dir, hrtf.WithSubject(viper.GetString("hrtf.subject"))))
	}
	return webaudio.NewContext(opts...)
}
