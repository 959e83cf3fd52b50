package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/liquidity-gate/internal/bootstrap"
	"github.com/example/liquidity-gate/internal/liquidity"
	"github.com/example/liquidity-gate/internal/snapshot"
)

// snapshotStore is a database backend that can be migrated and reloaded.
type snapshotStore interface {
	Migrate(ctx context.Context) error
	Replace(ctx context.Context, snap liquidity.Snapshot) error
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load curated snapshot files into SQLite or PostgreSQL",
		Long: `Read the curated ledger, starting balances and buffer files from a
directory (--from) or a Cloud Storage bucket (--from-gcs) and replace the
contents of the database given by --sqlite or --database-url.`,
		Example: `  liquidityctl import --from ./data --sqlite snapshot.db
  liquidityctl import --from-gcs treasury-curated --database-url postgres://localhost/treasury`,
		Args: cobra.NoArgs,
		RunE: runImport,
	}

	f := cmd.Flags()
	f.String("from", "", "Directory holding the curated files")
	f.String("from-gcs", "", "Cloud Storage bucket holding the curated files")
	f.String("ledger-object", snapshot.DefaultLedgerObject, "Ledger object name")
	f.String("balances-object", snapshot.DefaultBalancesObject, "Starting balances object name")
	f.String("buffers-object", snapshot.DefaultBuffersObject, "Buffers object name")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	src, closeSrc, err := importSource(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeSrc()

	snap, err := snapshot.Load(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to read curated files: %w", err)
	}

	dst, closeDst, err := importTarget(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeDst()

	if err := dst.Migrate(ctx); err != nil {
		return err
	}
	if err := dst.Replace(ctx, snap); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d ledger rows, %d balances, %d buffers\n",
		len(snap.Ledger), len(snap.Balances), len(snap.Buffers))
	return nil
}

func importSource(ctx context.Context, cmd *cobra.Command) (snapshot.LedgerRepository, func(), error) {
	dir, _ := cmd.Flags().GetString("from")
	bucket, _ := cmd.Flags().GetString("from-gcs")
	ledger, _ := cmd.Flags().GetString("ledger-object")
	balances, _ := cmd.Flags().GetString("balances-object")
	buffers, _ := cmd.Flags().GetString("buffers-object")
	objects := snapshot.Objects{Ledger: ledger, Balances: balances, Buffers: buffers}

	switch {
	case dir != "" && bucket != "":
		return nil, nil, errors.New("--from and --from-gcs are mutually exclusive")
	case dir != "":
		return snapshot.NewObjectRepository(snapshot.DirStore{Root: dir}, objects), func() {}, nil
	case bucket != "":
		store, err := snapshot.NewGCSStore(ctx, bucket)
		if err != nil {
			return nil, nil, err
		}
		return snapshot.NewObjectRepository(store, objects), func() { _ = store.Close() }, nil
	}
	return nil, nil, errors.New("a source is required: --from or --from-gcs")
}

func importTarget(ctx context.Context, cmd *cobra.Command) (snapshotStore, func(), error) {
	sqlitePath, _ := cmd.Flags().GetString("sqlite")
	dbURL, _ := cmd.Flags().GetString("database-url")

	switch {
	case sqlitePath != "" && dbURL != "":
		return nil, nil, errors.New("--sqlite and --database-url are mutually exclusive")
	case sqlitePath != "":
		db, err := bootstrap.OpenSQLite(sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return snapshot.NewSQLRepository(db), func() { _ = db.Close() }, nil
	case dbURL != "":
		pool, err := bootstrap.OpenPostgres(ctx, dbURL)
		if err != nil {
			return nil, nil, err
		}
		return snapshot.NewPostgresRepository(pool), pool.Close, nil
	}
	return nil, nil, errors.New("a target is required: --sqlite or --database-url")
}
