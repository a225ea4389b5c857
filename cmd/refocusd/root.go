package main

import (
	"github.com/spf13/cobra"

	"refocusd/internal/config"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "refocusd",
		Short:         "Adaptive focus daemon: detects distraction, intervenes, learns what works",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "config file path")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newReplayCmd())
	root.AddCommand(newReportCmd(&configPath))
	return root
}

func loadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}
