package main

import (
	"fmt"
	"os"

	"github.com/feedtick/feedtick/internal/common/config"
	"github.com/feedtick/feedtick/internal/common/logger"
	"github.com/feedtick/feedtick/internal/common/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long: `Print the config file in use and the effective settings. A missing
config file is created with defaults on first run.`,
	Run: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) {
	path, err := config.FindConfigPath()
	if err != nil {
		logger.Error("resolving config path: %v", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("loading config: %v", err)
		os.Exit(1)
	}

	fmt.Println()
	output.Header.Println("Configuration")
	fmt.Println()
	fmt.Printf("  config file:   %s\n", path)

	if _, err := cfg.GetGitHubToken(); err != nil {
		output.Warning.Println("  github token:  not set")
	} else {
		fmt.Println("  github token:  set")
	}
	if cfg.GitHub.User != "" {
		fmt.Printf("  github user:   %s\n", cfg.GitHub.User)
	}

	ttl, err := cfg.GetCacheTTL()
	if err != nil {
		output.Warning.Printf("  cache ttl:     %v\n", err)
	} else {
		fmt.Printf("  cache ttl:     %s\n", ttl)
	}

	fmt.Printf("  rerender:      %v\n", cfg.Render.Enabled)
	if cfg.Render.Enabled {
		fmt.Printf("  work dir:      %s\n", cfg.GetRenderWorkDir())
	}
	fmt.Println()
}
