package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/josh-kwaku/ledger-core/internal/domain"
	"github.com/josh-kwaku/ledger-core/internal/ledger"
	"github.com/josh-kwaku/ledger-core/internal/money"
)

type accountOpener interface {
	OpenAccount(ctx context.Context, req ledger.OpenAccountRequest) (*domain.Account, error)
	Deposit(ctx context.Context, req ledger.DepositRequest) (*ledger.EntryResult, error)
}

type openAccountFlags struct {
	owner          string
	accountType    string
	currency       string
	initialDeposit string
}

func newAccountCmd(opts *rootOptions) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage ledger accounts",
	}

	flags := &openAccountFlags{}
	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open an account for an owner",
		Long: `Opens an active account with a zero balance. An --initial-deposit is
booked as a normal deposit so the opening balance has a ledger entry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			return runOpenAccount(cmd.Context(), newEngine(db), *flags, cmd.OutOrStdout())
		},
	}
	openCmd.Flags().StringVar(&flags.owner, "owner", "", "owner user id (uuid)")
	openCmd.Flags().StringVar(&flags.accountType, "type", string(domain.AccountTypeSavings), "SAV or CUR")
	openCmd.Flags().StringVar(&flags.currency, "currency", opts.defaultCurrency, "ISO 4217 code (defaults to $DEFAULT_CURRENCY)")
	openCmd.Flags().StringVar(&flags.initialDeposit, "initial-deposit", "", "opening amount in major units, e.g. 250.00")
	_ = openCmd.MarkFlagRequired("owner")

	accountCmd.AddCommand(openCmd)
	return accountCmd
}

func runOpenAccount(ctx context.Context, o accountOpener, f openAccountFlags, out io.Writer) error {
	ownerID, err := uuid.Parse(f.owner)
	if err != nil {
		return fmt.Errorf("--owner: %w", err)
	}
	currency := domain.Currency(strings.ToUpper(f.currency))

	var opening int64
	if f.initialDeposit != "" {
		opening, err = money.ParseMinor(f.initialDeposit, currency)
		if err != nil {
			return fmt.Errorf("--initial-deposit: %w", err)
		}
		if opening <= 0 {
			return fmt.Errorf("--initial-deposit: %w", domain.ErrInvalidAmount)
		}
	}

	acct, err := o.OpenAccount(ctx, ledger.OpenAccountRequest{
		OwnerID:  ownerID,
		Type:     domain.AccountType(strings.ToUpper(f.accountType)),
		Currency: currency,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "opened %s (%s, %s) for %s\n", acct.AccountNumber, acct.Type, acct.Currency, acct.OwnerID)

	if opening == 0 {
		return nil
	}
	res, err := o.Deposit(ctx, ledger.DepositRequest{
		AccountNumber: acct.AccountNumber,
		Amount:        opening,
		Description:   "Opening balance",
		ReferenceID:   "opening-" + acct.AccountNumber,
	})
	if err != nil {
		return fmt.Errorf("account %s opened but initial deposit failed: %w", acct.AccountNumber, err)
	}
	fmt.Fprintf(out, "balance %s %s\n", money.ToMajor(res.Balance, acct.Currency).StringFixed(money.Scale(acct.Currency)), acct.Currency)
	return nil
}
