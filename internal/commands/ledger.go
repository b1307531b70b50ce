package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"gastos/internal/core"
	"gastos/internal/report"

	"github.com/spf13/cobra"
)

func newListCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the records of the current month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, open, func(ctx context.Context, l Ledger) error {
				ov, err := l.Summary(ctx)
				if err != nil {
					return err
				}
				return printOverview(cmd.OutOrStdout(), ov)
			})
		},
	}
}

func printOverview(out io.Writer, ov core.MonthOverview) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tOWNER\tCATEGORY\tLABEL\tAMOUNT\tREMAINING")
	for _, line := range ov.Lines {
		r := line.Record
		remaining := "-"
		if r.IsInstallment() {
			remaining = fmt.Sprintf("%d/%d", r.InstallmentsRemaining, r.InstallmentCount)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			line.Position, r.ID, r.Owner.DisplayName(), r.Category, r.Label,
			core.FormatMoney(line.Amount), remaining)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\nPeriod %s: %d records, total %s\n", ov.Period, len(ov.Lines), core.FormatMoney(ov.Total))
	return err
}

func newExportCommand(open Opener) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ledger to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, open, func(ctx context.Context, l Ledger) error {
				snap, err := l.Snapshot(ctx)
				if err != nil {
					return err
				}
				if err := writeWorkbook(output, snap); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", snap.Len(), output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", report.ExportFileName, "destination file")

	return cmd
}

func writeWorkbook(path string, l *core.Ledger) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := report.WriteXLSX(f, l); err != nil {
		f.Close()
		return fmt.Errorf("writing workbook: %w", err)
	}
	return f.Close()
}

func newRolloverCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Apply the monthly installment rollover now",
		Long: "Decrements remaining installments once for the current month and removes\n" +
			"installment purchases that are fully paid. Safe to run repeatedly.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, open, func(ctx context.Context, l Ledger) error {
				res, err := l.Rollover(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rollover %s: %d decremented, %d pruned, %d repaired\n",
					res.Period, res.Decremented, res.Pruned, res.Repaired)
				return nil
			})
		},
	}
}

func newCloseMonthCommand(open Opener) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "close-month",
		Short: "Show the month closing and, with --yes, confirm it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, open, func(ctx context.Context, l Ledger) error {
				out := cmd.OutOrStdout()
				ov, err := l.Summary(ctx)
				if err != nil {
					return err
				}
				if err := printOverview(out, ov); err != nil {
					return err
				}
				if len(ov.Lines) == 0 {
					fmt.Fprintln(out, "Nothing to close.")
					return nil
				}
				if !yes {
					fmt.Fprintln(out, "Re-run with --yes to close the month.")
					return nil
				}
				res, err := l.CloseMonth(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Month %s closed: %d decremented, %d pruned\n", res.Period, res.Decremented, res.Pruned)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the closing")

	return cmd
}

func newDeleteCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <record-id>",
		Short: "Delete one record by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, open, func(ctx context.Context, l Ledger) error {
				r, err := l.Delete(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s, %s)\n", r.ID, r.Category, core.FormatMoney(r.Amount))
				return nil
			})
		},
	}
}
