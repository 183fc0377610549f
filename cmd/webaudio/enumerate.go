package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-webaudio/device"
)

var enumerateCmd = &cobra.Command{
	Use:   "enumerate",
	Short: "List audio devices and supported host APIs",
	RunE: func(*cobra.Command, []string) error {
		return device.Enumerate(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(enumerateCmd)
}
