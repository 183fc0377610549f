// Command webaudio renders and plays audio graphs built on the webaudio
// engine.
//
// Usage:
//
//	webaudio render --duration 2s --output tone.wav --position 1,0,-1
//	webaudio play --backend oto --waveform sawtooth
//	webaudio relay --buffer-size 4800 --output relay.wav
//	webaudio enumerate
//
// Settings come from flags, an optional config file (--config) and
// WEBAUDIO_* environment variables, in that order of precedence.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
