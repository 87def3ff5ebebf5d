package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/walletledger/internal/client"
)

func transferCmd(opts *globalOptions) *cobra.Command {
	var (
		to       string
		amount   string
		key      string
		noKey    bool
		retryFor time.Duration
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Send money to another account by contact address",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}

			if key == "" && !noKey {
				key = uuid.NewString()
			}
			if key != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "idempotency key: %s\n", key)
			}

			resp, err := opts.client(retryFor).Transfer(cmd.Context(), to, value, key)
			if err != nil {
				return describe(err)
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient contact address")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in major units, e.g. 12.50")
	cmd.Flags().StringVar(&key, "key", "", "Idempotency key (generated when empty)")
	cmd.Flags().BoolVar(&noKey, "no-key", false, "Send without an idempotency key")
	cmd.Flags().DurationVar(&retryFor, "retry-for", 10*time.Second, "How long to retry retryable failures, 0 disables retries")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func balanceCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the caller's balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client(0).Balance(cmd.Context())
			if err != nil {
				return describe(err)
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func historyCmd(opts *globalOptions) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the caller's movements, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client(0).Transactions(cmd.Context(), limit, offset)
			if err != nil {
				return describe(err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Balance: %s\n\n", resp.WalletBalance)
			fmt.Fprintln(w, "TIME\tTYPE\tAMOUNT\tCOUNTERPARTY\tREFERENCE\tBALANCE")
			for _, m := range resp.Transactions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					m.CreatedAt.Format(time.RFC3339),
					m.Type,
					m.Amount,
					m.Counterparty,
					truncate(m.ReferenceID, 20),
					m.BalanceAfter,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Page size (max 100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	return cmd
}

func ledgerCmd(opts *globalOptions) *cobra.Command {
	ledger := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	ledger.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client(0).Consistency(cmd.Context())
			if resp != nil {
				if perr := printJSON(cmd.OutOrStdout(), resp); perr != nil {
					return perr
				}
			}
			if err != nil {
				return fmt.Errorf("consistency check FAILED: %w", describe(err))
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "consistency check PASSED")
			return nil
		},
	})

	return ledger
}

// describe adds a retry hint to retryable API errors.
func describe(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Retryable {
		return fmt.Errorf("%w (retryable, run again with the same --key)", err)
	}
	return err
}
