package main

import (
	"context"
	"fmt"
	"os"

	"github.com/feedtick/feedtick/internal/common/logger"
	"github.com/feedtick/feedtick/internal/common/output"
	"github.com/feedtick/feedtick/internal/pipeline"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check maintained feedstocks for safe updates",
	Long: `Build the inventory of feedstocks you maintain, look up their latest
PyPI versions, and report which ones can be updated safely.

A feedstock is safe when it is stale and none of its direct dependencies
that you also maintain are stale. Finding no safe update is a normal
outcome, not an error.

Examples:
  feedtick check            Check all maintained feedstocks
  feedtick check --force    Ignore cached version lookups
  feedtick check --verbose  Also show per-feedstock skip reasons`,
	Run: runCheck,
}

var checkForce bool

func init() {
	checkCmd.Flags().BoolVar(&checkForce, "force", false, "Bypass the version-lookup cache")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	p, _, err := buildPipeline(checkForce)
	if err != nil {
		logger.Error("setup failed: %v", err)
		os.Exit(1)
	}

	report, err := p.Check(context.Background())
	if err != nil {
		logger.Error("check failed: %v", err)
		os.Exit(1)
	}

	displayCheckReport(report)
}

func displayCheckReport(report *pipeline.CheckReport) {
	fmt.Println()
	output.Header.Println("Feedstock Check Results")
	fmt.Println()

	for _, name := range report.Snapshot.Names() {
		fs, _ := report.Snapshot.Get(name)

		switch {
		case report.Safe.Has(name):
			output.Stale.Printf("  %s %s -> %s %s\n",
				output.FormatPackage(name), fs.PinnedVersion, report.Latest[name],
				output.FormatStatus("pending"))
		case report.Stale.Has(name):
			output.Blocked.Printf("  %s %s -> %s %s\n",
				output.FormatPackage(name), fs.PinnedVersion, report.Latest[name],
				output.FormatStatus("blocked"))
		default:
			output.Dim.Printf("  %s %s %s\n",
				name, fs.PinnedVersion, output.FormatStatus("current"))
		}
	}

	fmt.Println()
	fmt.Printf("%d feedstocks, %d stale, %d safe to tick",
		report.Snapshot.Len(), len(report.Stale), len(report.Safe))
	if len(report.Skipped) > 0 {
		fmt.Printf(", %d skipped", len(report.Skipped))
	}
	fmt.Println()

	if len(report.Safe) == 0 {
		output.PrintInfo("Nothing to tick right now")
	}
}
