package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "capstan",
	Short: "Project state anchors and replayable command journeys",
	Long: `capstan augments your build workflow with two capabilities:

  Anchors   - named snapshots of the project's file tree that can be
              diffed against and restored, optionally kept current by a
              background watcher (auto-tracking)
  Journeys  - recorded shell command sequences that replay later in the
              exact order they were captured

Anchors, journeys and content blobs live under the store directory
(default .capstan in the project root).`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/capstan/config.toml)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "capstan")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("store.dir", ".capstan")
	viper.SetDefault("watch.debounce_ms", 300)
	viper.SetDefault("watch.buffer", 256)
	viper.SetDefault("scan.ignore", []string{".git", ".git/**", "target/**", "node_modules/**"})
	viper.SetDefault("replay.shell", "/bin/sh")
	viper.SetDefault("replay.strict", false)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
