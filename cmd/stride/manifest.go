package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stride/internal/config"
)

// resolveConfig loads the manifest named by --config, or discovers one
// by walking up from the working directory. Without a manifest the
// built-in defaults apply.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return config.Discover(wd)
}
