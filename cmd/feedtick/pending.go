package main

import (
	"fmt"
	"os"

	"github.com/feedtick/feedtick/internal/common/config"
	"github.com/feedtick/feedtick/internal/common/logger"
	"github.com/feedtick/feedtick/internal/common/output"
	"github.com/feedtick/feedtick/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	pendingStatus string
	pendingClear  bool
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List updates detected by earlier runs",
	Long: `Show the pending list: every update a previous check or tick run
detected, with its current pipeline status.

Examples:
  feedtick pending                     List all recorded updates
  feedtick pending --status blocked    Only blocked updates
  feedtick pending --clear             Forget all recorded updates`,
	Run: runPending,
}

func init() {
	pendingCmd.Flags().StringVar(&pendingStatus, "status", "", "Filter by status (pending, blocked, submitted, failed)")
	pendingCmd.Flags().BoolVar(&pendingClear, "clear", false, "Remove all recorded updates")

	rootCmd.AddCommand(pendingCmd)
}

func runPending(cmd *cobra.Command, args []string) {
	dataDir, err := config.DataDir()
	if err != nil {
		logger.Error("resolving data directory: %v", err)
		os.Exit(1)
	}

	pending, err := pipeline.NewPendingList(dataDir)
	if err != nil {
		logger.Error("loading pending list: %v", err)
		os.Exit(1)
	}

	if pendingClear {
		if err := pending.Clear(); err != nil {
			logger.Error("clearing pending list: %v", err)
			os.Exit(1)
		}
		output.PrintSuccess("Pending list cleared")
		return
	}

	var ticks []pipeline.PendingTick
	if pendingStatus != "" {
		status := pipeline.TickStatus(pendingStatus)
		if !pipeline.IsValidStatus(status) {
			logger.Error("unknown status %q", pendingStatus)
			os.Exit(1)
		}
		ticks = pending.ListByStatus(status)
	} else {
		ticks = pending.List()
	}

	if len(ticks) == 0 {
		output.PrintInfo("No pending updates recorded")
		return
	}

	fmt.Println()
	output.Header.Println("Pending Updates")
	fmt.Println()

	for _, tick := range ticks {
		line := fmt.Sprintf("  %s %s -> %s %s",
			output.FormatPackage(tick.Name), tick.PinnedVersion, tick.LatestVersion,
			output.FormatStatus(string(tick.Status)))
		if tick.PullRequestURL != "" {
			line += "  " + tick.PullRequestURL
		}
		if tick.Error != "" {
			line += "  " + output.Sprint(output.Dim, tick.Error)
		}
		fmt.Println(line)
	}
	fmt.Println()
}
