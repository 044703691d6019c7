// Package cli provides the command-line interface for moltmem maintenance
// jobs.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/moltbot/moltmem/internal/config"
	"github.com/moltbot/moltmem/internal/db"
	"github.com/moltbot/moltmem/internal/embedding"
	"github.com/moltbot/moltmem/internal/memory"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, database client and memory service
	cfg      config.Config
	dbClient *db.Client
	svc      *memory.Service
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "moltmem-backfill",
	Short: "Maintenance jobs for the moltmem memory store",
	Long: `moltmem-backfill runs offline repair jobs against the memory store:
filling missing embeddings after provider outages and re-deriving
knowledge-graph relationships from stored facts.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
		logger, _ := config.SetupLogger(cfg.LogFile, cfg.LogLevel)

		ctx := context.Background()
		var err error
		dbClient, err = db.NewClient(ctx, cfg.DBConfig(), logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		embedder, err := embedding.New(cfg.EmbeddingConfig())
		if err != nil {
			// Relationship backfill works without an embedder; the
			// embeddings job checks for itself.
			logger.Warn("embedding provider unavailable", "error", err)
			embedder = nil
		}
		if err := embedding.ValidateDimension(embedder, db.EmbeddingDimension); err != nil {
			logger.Warn("embedding provider disabled", "error", err)
			embedder = nil
		}

		svc = memory.New(dbClient, embedder, logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if svc != nil {
			svc.Wait()
		}
		if dbClient != nil {
			dbClient.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
