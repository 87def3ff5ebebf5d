package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/walletledger/internal/client"
)

type globalOptions struct {
	baseURL string
	timeout time.Duration
	token   string
	owner   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Wallet ledger CLI tool",
		Long:          `A command line interface for the wallet ledger API and database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("LEDGER_URL", "http://localhost:8080"), "Base URL of the wallet ledger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("LEDGER_TOKEN"), "Bearer token")
	rootCmd.PersistentFlags().StringVar(&opts.owner, "owner", os.Getenv("LEDGER_OWNER"), "Caller identity sent as X-Owner-Id when no token is set")

	rootCmd.AddCommand(
		transferCmd(opts),
		balanceCmd(opts),
		historyCmd(opts),
		ledgerCmd(opts),
		accountsCmd(opts),
		migrateCmd(),
		tokenCmd(opts),
	)

	return rootCmd
}

func (o *globalOptions) client(retryFor time.Duration) *client.Client {
	return client.New(client.Config{
		BaseURL:        o.baseURL,
		Token:          o.token,
		OwnerID:        o.owner,
		HTTPClient:     &http.Client{Timeout: o.timeout},
		MaxElapsedTime: retryFor,
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
