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

var (
	tickDryRun bool
	tickForce  bool
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Submit version-tick pull requests for safe updates",
	Long: `Run a check and then, for every safe feedstock, patch the recipe,
push it to an even fork, and open a pull request against conda-forge.

One failing feedstock never stops the others; its failure is reported
and recorded in the pending list.

Examples:
  feedtick tick            Tick every safe feedstock
  feedtick tick --dry-run  Patch recipes locally, submit nothing`,
	Run: runTick,
}

func init() {
	tickCmd.Flags().BoolVar(&tickDryRun, "dry-run", false, "Patch recipes but do not commit or open pull requests")
	tickCmd.Flags().BoolVar(&tickForce, "force", false, "Bypass the version-lookup cache")

	rootCmd.AddCommand(tickCmd)
}

func runTick(cmd *cobra.Command, args []string) {
	p, _, err := buildPipeline(tickForce)
	if err != nil {
		logger.Error("setup failed: %v", err)
		os.Exit(1)
	}

	report, results, err := p.Tick(context.Background(), tickDryRun)
	if err != nil {
		logger.Error("tick failed: %v", err)
		os.Exit(1)
	}

	if len(results) == 0 {
		displayCheckReport(report)
		return
	}

	fmt.Println()
	output.Header.Println("Tick Results")
	fmt.Println()

	var submitted, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			output.Error.Printf("  %s: %v\n", r.Name, r.Err)
		case r.Status == pipeline.StatusSubmitted:
			submitted++
			output.Success.Printf("  %s %s -> %s  %s\n", r.Name, r.From, r.To, r.PullRequestURL)
		default:
			output.Stale.Printf("  %s %s -> %s (dry run)\n", r.Name, r.From, r.To)
		}
	}

	fmt.Println()
	if tickDryRun {
		output.PrintInfo("Dry run: %d feedstocks would be ticked", len(results))
		return
	}
	if submitted > 0 {
		output.PrintSuccess("Opened %d pull requests", submitted)
	}
	if failed > 0 {
		output.PrintWarning("%d feedstocks failed", failed)
	}
}
