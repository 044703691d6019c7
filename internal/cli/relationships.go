package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/moltbot/moltmem/internal/memory"
)

var (
	relLimit  int
	relDryRun bool
)

var relationshipsCmd = &cobra.Command{
	Use:   "relationships",
	Short: "Re-derive graph relationships from stored facts",
	Long: `Scans current facts for relationship phrases ("trabalha na X",
"mora em Y") and asserts the corresponding graph edges. Safe to re-run:
existing edges have their strength refreshed instead of being duplicated.

Examples:
  moltmem-backfill relationships             # Process all open facts
  moltmem-backfill relationships --dry-run   # Show candidates only`,
	RunE: runRelationships,
}

func init() {
	relationshipsCmd.Flags().IntVar(&relLimit, "limit", 0, "max facts to process (0 = no cap)")
	relationshipsCmd.Flags().BoolVar(&relDryRun, "dry-run", false, "list candidates without writing")
	rootCmd.AddCommand(relationshipsCmd)
}

func runRelationships(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	report, err := svc.BackfillRelationships(ctx, memory.BackfillOptions{
		Limit:  relLimit,
		DryRun: relDryRun,
	})
	if err != nil {
		return fmt.Errorf("backfill relationships: %w", err)
	}

	if report.DryRun {
		fmt.Println("Dry run - no edges were written")
	}
	fmt.Printf("Facts scanned:   %d\n", report.Facts)
	fmt.Printf("Edges asserted:  %d\n", report.Created)
	fmt.Printf("Facts skipped:   %d\n", report.Skipped)
	if report.Errors > 0 {
		fmt.Printf("Errors:          %d\n", report.Errors)
	}
	fmt.Printf("Took %s\n", time.Since(start).Round(time.Second))

	return nil
}
