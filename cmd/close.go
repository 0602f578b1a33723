package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/simonvc/ledgerbook/internal/book"
	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/spf13/cobra"
)

var closeApply bool

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Preview or apply carry-forward vouchers",
	Long: "Each subcommand prints the generated voucher and how it differs from the one already " +
		"in the book. Pass --apply to write it.",
}

type (
	previewFunc func(b *book.Book, ctx context.Context, period time.Time) (*book.Preview, error)
	applyFunc   func(b *book.Book, ctx context.Context, period time.Time) (*ledger.Voucher, error)
)

// runClosing previews and, with --apply, writes a carry-forward voucher. The
// written voucher is generated again at write time.
func runClosing(cmd *cobra.Command, period time.Time, preview previewFunc, apply applyFunc) error {
	return withBook(cmd.Context(), func(b *book.Book) error {
		pv, err := preview(b, cmd.Context(), period)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		printPreview(w, pv)
		if pv.UpToDate {
			printSuccess(w, "%s is up to date", pv.Proposal.Number)
			return nil
		}
		if !closeApply {
			fmt.Fprintln(w, dimStyle.Render("Re-run with --apply to write this voucher."))
			return nil
		}
		v, err := apply(b, cmd.Context(), period)
		if err != nil {
			return err
		}
		if v == nil {
			printSuccess(w, "Voucher removed: %s", pv.Proposal.Number)
			return nil
		}
		printSuccess(w, "Voucher written: %s", v.Number)
		return nil
	})
}

func printPreview(w io.Writer, pv *book.Preview) {
	p := pv.Proposal
	printTitle(w, p.Number, fmt.Sprintf("%s  %s", ledger.FormatDate(p.Date), p.Category.Label()))
	if p.Empty() {
		fmt.Fprintln(w, dimStyle.Render("Nothing to carry forward."))
	} else {
		printEntries(w, p.Debits, p.Credits)
	}
	if pv.Existing == nil || pv.UpToDate {
		return
	}
	for _, c := range pv.Added {
		fmt.Fprintln(w, successStyle.Render("+ "+describeChange(c)))
	}
	for _, c := range pv.Removed {
		fmt.Fprintln(w, creditStyle.Render("- "+describeChange(c)))
	}
}

func describeChange(c book.EntryChange) string {
	return fmt.Sprintf("%-6s %-12s %s %s @ %s", c.Side, c.AccountCode, c.Currency, c.Amount, c.ExchangeRate)
}

var closeMonthCmd = &cobra.Command{
	Use:   "month-end [YYYY-MM]",
	Short: "Carry income and expense accounts into current-year profit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		month, err := ledger.ParseMonth(args[0])
		if err != nil {
			return err
		}
		return runClosing(cmd, month, (*book.Book).PreviewMonthEnd, (*book.Book).ApplyMonthEnd)
	},
}

var closeYearCmd = &cobra.Command{
	Use:   "year-end [YYYY]",
	Short: "Carry current-year profit into retained earnings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, err := time.Parse("2006", args[0])
		if err != nil {
			return fmt.Errorf("invalid year %q", args[0])
		}
		return runClosing(cmd, year, (*book.Book).PreviewYearEnd, (*book.Book).ApplyYearEnd)
	},
}

var closeEGLCmd = &cobra.Command{
	Use:   "egl [YYYY-MM]",
	Short: "Revalue foreign-currency accounts at the month-end rate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		month, err := ledger.ParseMonth(args[0])
		if err != nil {
			return err
		}
		return runClosing(cmd, month, (*book.Book).PreviewExchangeGainsLosses, (*book.Book).ApplyExchangeGainsLosses)
	},
}

func init() {
	for _, c := range []*cobra.Command{closeMonthCmd, closeYearCmd, closeEGLCmd} {
		c.Flags().BoolVar(&closeApply, "apply", false, "Write the voucher")
		closeCmd.AddCommand(c)
	}
	rootCmd.AddCommand(closeCmd)
}
