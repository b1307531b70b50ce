// Package commands implements gastosctl, the admin CLI over the stored
// ledger.
package commands

import (
	"context"

	"gastos/internal/buildinfo"
	"gastos/internal/core"
	"gastos/internal/services"

	"github.com/spf13/cobra"
)

// Ledger is what the admin commands operate on. *services.LedgerService
// satisfies it.
type Ledger interface {
	Snapshot(ctx context.Context) (*core.Ledger, error)
	Summary(ctx context.Context) (core.MonthOverview, error)
	Delete(ctx context.Context, id string) (core.Record, error)
	Rollover(ctx context.Context) (services.RolloverResult, error)
	CloseMonth(ctx context.Context) (services.RolloverResult, error)
	Close() error
}

// Opener opens the ledger when a command actually needs it, so --help and
// --version work without configuration.
type Opener func(ctx context.Context) (Ledger, error)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(open Opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "gastosctl",
		Short:   "Inspect and maintain the household expense ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newListCommand(open),
		newExportCommand(open),
		newRolloverCommand(open),
		newCloseMonthCommand(open),
		newDeleteCommand(open),
	)

	return rootCmd
}

// withLedger opens the ledger, runs fn and closes it.
func withLedger(cmd *cobra.Command, open Opener, fn func(ctx context.Context, l Ledger) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	l, err := open(ctx)
	if err != nil {
		return err
	}
	defer l.Close()
	return fn(ctx, l)
}
