package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moltbot/moltmem/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show embedding coverage per table",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fmt.Printf("%-10s %-10s %-10s\n", "CLASS", "TOTAL", "MISSING")
	fmt.Println("------------------------------")
	for _, class := range models.AllEmbedClasses() {
		counts, err := dbClient.CountEmbeddings(ctx, class)
		if err != nil {
			return fmt.Errorf("count %s: %w", class, err)
		}
		fmt.Printf("%-10s %-10d %-10d\n", class, counts.Total, counts.Missing)
	}
	return nil
}
