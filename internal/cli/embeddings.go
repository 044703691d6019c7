package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/moltbot/moltmem/internal/memory"
)

var (
	embedLimit  int
	embedBatch  int
	embedDryRun bool
)

var embeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Fill missing embeddings on entities, facts and messages",
	Long: `Walks every embedding-carrying table and generates vectors for rows
that are missing one, pacing requests to stay under provider rate limits.

Examples:
  moltmem-backfill embeddings              # Fill everything
  moltmem-backfill embeddings --limit 200  # Cap rows per table
  moltmem-backfill embeddings --dry-run    # Report counts, change nothing`,
	RunE: runEmbeddings,
}

func init() {
	embeddingsCmd.Flags().IntVar(&embedLimit, "limit", 0, "max rows per table (0 = no cap)")
	embeddingsCmd.Flags().IntVar(&embedBatch, "batch", 25, "rows between progress logs")
	embeddingsCmd.Flags().BoolVar(&embedDryRun, "dry-run", false, "report what would change without writing")
	rootCmd.AddCommand(embeddingsCmd)
}

func runEmbeddings(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	report, err := svc.BackfillEmbeddings(ctx, memory.BackfillOptions{
		Limit:  embedLimit,
		Batch:  embedBatch,
		DryRun: embedDryRun,
		Delay:  cfg.BackfillDelay,
	})
	if err != nil {
		return fmt.Errorf("backfill embeddings: %w", err)
	}

	if report.DryRun {
		fmt.Println("Dry run - no rows were changed")
	}
	fmt.Printf("%-10s %-10s %-12s %-10s\n", "CLASS", "MISSING", "CANDIDATES", "UPDATED")
	fmt.Println("--------------------------------------------")
	for _, c := range report.Classes {
		fmt.Printf("%-10s %-10d %-12d %-10d\n", c.Class, c.MissingBefore, c.Candidates, c.Updated)
	}
	fmt.Printf("\nUpdated %d rows (%d errors) in %s\n",
		report.TotalUpdated(), report.TotalErrors(), time.Since(start).Round(time.Second))

	// Per-row failures are reported above but do not fail the run.
	return nil
}
