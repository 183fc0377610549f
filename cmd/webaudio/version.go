package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	commitHash string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of webaudio",
	Run: func(*cobra.Command, []string) {
		if commitHash == "" {
			if info, ok := debug.ReadBuildInfo(); ok {
				for _, s := range info.Settings {
					if s.Key == "vcs.revision" {
						commitHash = s.Value
					}
				}
			}
		}
		fmt.Printf("webaudio %s, %s/%s, %s, commit %s\n",
			version, runtime.GOOS, runtime.GOARCH, runtime.Version(), commitHash)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
