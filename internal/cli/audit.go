package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/liquidity-gate/pkg/audit"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the evaluation audit log",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "verify AUDIT_LOG",
		Short: "Verify the hash chains of an audit log written via AUDIT_LOG",
		Args:  cobra.ExactArgs(1),
		RunE:  runAuditVerify,
	})
	return cmd
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	chains, entries, err := audit.VerifyLog(f)
	if err != nil {
		return fmt.Errorf("audit log %s is not intact: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok: %d entries in %d chains\n", entries, chains)
	return nil
}
