package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/ledger-core/internal/ledger"
)

type reconciler interface {
	Reconcile(ctx context.Context) (*ledger.ReconcileReport, error)
}

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Check every account balance against its ledger entries",
		Long: `Checks that each account's balance equals its credits minus debits and
the balance_after of its newest entry. Exits non-zero if any account disagrees.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			return runReconcile(cmd.Context(), newEngine(db), cmd.OutOrStdout())
		},
	}
}

func runReconcile(ctx context.Context, r reconciler, out io.Writer) error {
	report, err := r.Reconcile(ctx)
	if err != nil {
		return err
	}

	if report.OK() {
		fmt.Fprintf(out, "%d accounts checked, all balanced\n", report.Checked)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tBALANCE\tCREDITS\tDEBITS\tENTRIES\tLAST BALANCE_AFTER")
	for _, m := range report.Mismatches {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n", m.AccountNumber, m.Balance, m.Credits, m.Debits, m.Entries, m.LastBalanceAfter)
	}
	tw.Flush()

	return fmt.Errorf("%d of %d accounts out of balance", len(report.Mismatches), report.Checked)
}
