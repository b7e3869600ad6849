// Package cli implements the termsprite command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/termsprite/internal/config"
)

// Version information, set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "termsprite",
	Short: "Flicker-free sprite scenes in the terminal",
	Long: `termsprite draws sprite scenes in a terminal, sending only the cells
that changed since the last frame. A Lua script drives the scene; sprites
and styles come from an asset manifest and can be reloaded while running.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("termsprite version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"configuration file (default "+config.DefaultPath+")")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads --config, then the environment.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
