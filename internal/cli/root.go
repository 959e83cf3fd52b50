// Package cli implements liquidityctl, the operator command line for
// evaluating payments and loading curated snapshots into a database.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/liquidity-gate/internal/bootstrap"
	"github.com/example/liquidity-gate/internal/config"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "liquidityctl",
		Short: "Intraday liquidity impact tooling",
		Long: `liquidityctl evaluates whether releasing a payment would breach the
entity's intraday liquidity buffer, and loads curated snapshot files into
SQLite or PostgreSQL.

The data source is chosen by exactly one of --data-dir, --gcs-bucket,
--sqlite or --database-url.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("data-dir", "", "Directory holding the curated files")
	pf.String("gcs-bucket", "", "Cloud Storage bucket holding the curated files")
	pf.String("sqlite", "", "SQLite database file")
	pf.String("database-url", "", "PostgreSQL connection string")
	pf.String("log-level", "warn", "Log level for diagnostics written to stderr")

	root.AddCommand(newEvaluateCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newAuditCmd())
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// configFromFlags maps the data source flags onto a configuration.
func configFromFlags(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Defaults()
	cfg.Environment = "cli"
	cfg.MetricsEnabled = false
	cfg.LogLevel, _ = cmd.Flags().GetString("log-level")

	dataDir, _ := cmd.Flags().GetString("data-dir")
	bucket, _ := cmd.Flags().GetString("gcs-bucket")
	sqlitePath, _ := cmd.Flags().GetString("sqlite")
	dbURL, _ := cmd.Flags().GetString("database-url")

	var sources []string
	if dataDir != "" {
		cfg.DataSource, cfg.DataDir = config.SourceDir, dataDir
		sources = append(sources, "--data-dir")
	}
	if bucket != "" {
		cfg.DataSource, cfg.GCSBucket = config.SourceGCS, bucket
		sources = append(sources, "--gcs-bucket")
	}
	if sqlitePath != "" {
		cfg.DataSource, cfg.SQLitePath = config.SourceSQLite, sqlitePath
		sources = append(sources, "--sqlite")
	}
	if dbURL != "" {
		cfg.DataSource, cfg.DatabaseURL = config.SourcePostgres, dbURL
		sources = append(sources, "--database-url")
	}
	switch len(sources) {
	case 0:
		return nil, errors.New("a data source is required: --data-dir, --gcs-bucket, --sqlite or --database-url")
	case 1:
	default:
		return nil, fmt.Errorf("only one data source may be given, got %v", sources)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openRuntime(ctx context.Context, cmd *cobra.Command) (*bootstrap.Runtime, error) {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	logger := bootstrap.NewLogger(cmd.ErrOrStderr(), cfg)
	return bootstrap.Open(ctx, cfg, logger)
}
