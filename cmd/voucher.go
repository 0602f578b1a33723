package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/simonvc/ledgerbook/internal/book"
	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var voucherCmd = &cobra.Command{
	Use:     "voucher",
	Aliases: []string{"v"},
	Short:   "Create, edit and list vouchers",
}

var (
	vCreateDate     string
	vCreateNumber   string
	vCreateCategory string
	vCreateNote     string
	vDebits         []string
	vCredits        []string
	vBrief          string
)

var voucherCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a voucher, optionally with entries",
	Example: `  ledgerbook voucher create --date 2024-01-15 --note "Office supplies" \
    --debit 6602:120.00 --credit 1002:120.00`,
	RunE: func(cmd *cobra.Command, args []string) error {
		date := ledger.Day(time.Now())
		if vCreateDate != "" {
			d, err := ledger.ParseDate(vCreateDate)
			if err != nil {
				return err
			}
			date = d
		}
		category, err := ledger.ParseVoucherCategory(vCreateCategory)
		if err != nil {
			return err
		}

		return withBook(cmd.Context(), func(b *book.Book) error {
			ctx := cmd.Context()
			number := vCreateNumber
			if number == "" {
				if number, err = b.NextVoucherNumber(ctx, date); err != nil {
					return err
				}
			}
			if _, err := b.CreateVoucher(ctx, number, date, category, vCreateNote); err != nil {
				return err
			}
			if len(vDebits) > 0 || len(vCredits) > 0 {
				if err := postEntries(ctx, b, number); err != nil {
					// Leave no half-made voucher behind.
					b.DeleteVoucher(ctx, number)
					return err
				}
			}
			printSuccess(cmd.OutOrStdout(), "Voucher created: %s", number)
			return nil
		})
	},
}

var voucherEntriesCmd = &cobra.Command{
	Use:   "entries [number]",
	Short: "Replace every entry of a voucher",
	Long: "Entries are given as CODE:AMOUNT, which posts in the account's currency at the rate " +
		"effective on the voucher date, or CODE:AMOUNT:CURRENCY:RATE.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			if err := postEntries(cmd.Context(), b, args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Entries updated: %s", args[0])
			return nil
		})
	},
}

// postEntries replaces the voucher's entries with the --debit and --credit flags.
func postEntries(ctx context.Context, b *book.Book, number string) error {
	debits, err := parseEntries(ctx, b, number, vDebits)
	if err != nil {
		return err
	}
	credits, err := parseEntries(ctx, b, number, vCredits)
	if err != nil {
		return err
	}
	if err := b.UpdateDebitCreditEntries(ctx, number, debits, credits); err != nil {
		return err
	}
	for _, e := range append(debits, credits...) {
		if err := b.TouchAccount(ctx, e.AccountCode); err != nil {
			zlog.Warn("touch account failed", zap.String("account", e.AccountCode), zap.Error(err))
		}
	}
	return nil
}

func parseEntries(ctx context.Context, b *book.Book, number string, specs []string) ([]ledger.Entry, error) {
	out := make([]ledger.Entry, 0, len(specs))
	for _, raw := range specs {
		parts := strings.Split(raw, ":")
		if len(parts) != 2 && len(parts) != 4 {
			return nil, fmt.Errorf("entry %q: want CODE:AMOUNT or CODE:AMOUNT:CURRENCY:RATE", raw)
		}
		amount, err := ledger.ParseAmount(parts[1])
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", raw, err)
		}
		if len(parts) == 2 {
			e, err := b.EntryAtVoucherDate(ctx, number, parts[0], amount, vBrief)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
			continue
		}
		rate, err := ledger.ParseRate(parts[3])
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", raw, err)
		}
		out = append(out, ledger.Entry{
			AccountCode:  parts[0],
			Currency:     parts[2],
			Amount:       amount,
			ExchangeRate: rate,
			Brief:        vBrief,
		})
	}
	return out, nil
}

var (
	vListMonth    string
	vListCategory string
	vListLimit    int
)

var voucherListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vouchers",
	RunE: func(cmd *cobra.Command, args []string) error {
		var f book.VoucherFilter
		if vListMonth != "" {
			m, err := ledger.ParseMonth(vListMonth)
			if err != nil {
				return err
			}
			f.From, f.Until = m, ledger.LastDayOfMonth(m)
		}
		if vListCategory != "" {
			for _, s := range strings.Split(vListCategory, ",") {
				c, err := ledger.ParseVoucherCategory(strings.TrimSpace(s))
				if err != nil {
					return err
				}
				f.Categories = append(f.Categories, c)
			}
		}
		f.Limit = vListLimit

		return withBook(cmd.Context(), func(b *book.Book) error {
			vouchers, err := b.Vouchers(cmd.Context(), f)
			if err != nil {
				return err
			}
			if len(vouchers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No vouchers found.")
				return nil
			}
			t := newTable([]string{"Number", "Date", "Category", "Note", "Amount"}, 4)
			for _, v := range vouchers {
				t.Row(v.Number, ledger.FormatDate(v.Date), v.Category.Label(), v.Note,
					ledger.SumLocal(v.Debits).String())
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
			return nil
		})
	},
}

var voucherShowCmd = &cobra.Command{
	Use:   "show [number]",
	Short: "Show a voucher with its entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			v, err := b.Voucher(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printVoucher(cmd.OutOrStdout(), v)
			return nil
		})
	},
}

func printVoucher(w io.Writer, v *ledger.Voucher) {
	printTitle(w, v.Number, fmt.Sprintf("%s  %s  %s", ledger.FormatDate(v.Date), v.Category.Label(), v.Note))
	printEntries(w, v.Debits, v.Credits)
}

func printEntries(w io.Writer, debits, credits []ledger.Entry) {
	t := newTable([]string{"", "Account", "Currency", "Amount", "Rate", "Local", "Brief"}, 3, 4, 5)
	for _, e := range debits {
		t.Row(debitStyle.Render("Dr"), e.AccountCode, e.Currency, e.Amount.String(),
			e.ExchangeRate.String(), debitStyle.Render(e.LocalAmount().String()), e.Brief)
	}
	for _, e := range credits {
		t.Row(creditStyle.Render("Cr"), e.AccountCode, e.Currency, e.Amount.String(),
			e.ExchangeRate.String(), creditStyle.Render(e.LocalAmount().String()), e.Brief)
	}
	fmt.Fprintln(w, t)
}

var voucherDateCmd = &cobra.Command{
	Use:   "date [number] [YYYY-MM-DD]",
	Short: "Move a voucher to another day of its month",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := ledger.ParseDate(args[1])
		if err != nil {
			return err
		}
		return withBook(cmd.Context(), func(b *book.Book) error {
			return b.SetVoucherDate(cmd.Context(), args[0], date)
		})
	},
}

var voucherNoteCmd = &cobra.Command{
	Use:   "note [number] [note]",
	Short: "Set a voucher's note",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			return b.SetVoucherNote(cmd.Context(), args[0], args[1])
		})
	},
}

var voucherRenameCmd = &cobra.Command{
	Use:   "rename [number] [new-number]",
	Short: "Change a voucher's number",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			if err := b.ChangeVoucherNumber(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Voucher renamed: %s -> %s", args[0], args[1])
			return nil
		})
	},
}

var voucherRenumberCmd = &cobra.Command{
	Use:   "renumber [YYYY-MM]",
	Short: "Close gaps in a month's voucher sequence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		month, err := ledger.ParseMonth(args[0])
		if err != nil {
			return err
		}
		return withBook(cmd.Context(), func(b *book.Book) error {
			n, err := b.RenumberVouchers(cmd.Context(), month)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "%d voucher(s) renumbered", n)
			return nil
		})
	},
}

var voucherDeleteCmd = &cobra.Command{
	Use:   "delete [number]",
	Short: "Delete a voucher and its entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			if err := b.DeleteVoucher(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Voucher deleted: %s", args[0])
			return nil
		})
	},
}

func init() {
	voucherCreateCmd.Flags().StringVar(&vCreateDate, "date", "", "Voucher date, YYYY-MM-DD (default: today)")
	voucherCreateCmd.Flags().StringVar(&vCreateNumber, "number", "", "Voucher number (default: next in the month)")
	voucherCreateCmd.Flags().StringVar(&vCreateCategory, "category", "", "Voucher category (default: posting)")
	voucherCreateCmd.Flags().StringVar(&vCreateNote, "note", "", "Note")
	for _, c := range []*cobra.Command{voucherCreateCmd, voucherEntriesCmd} {
		c.Flags().StringArrayVar(&vDebits, "debit", nil, "Debit entry, CODE:AMOUNT[:CURRENCY:RATE] (repeatable)")
		c.Flags().StringArrayVar(&vCredits, "credit", nil, "Credit entry, CODE:AMOUNT[:CURRENCY:RATE] (repeatable)")
		c.Flags().StringVar(&vBrief, "brief", "", "Brief applied to every entry")
	}

	voucherListCmd.Flags().StringVar(&vListMonth, "month", "", "Only vouchers of this month, YYYY-MM")
	voucherListCmd.Flags().StringVar(&vListCategory, "category", "", "Comma-separated categories")
	voucherListCmd.Flags().IntVar(&vListLimit, "limit", 0, "Maximum number of vouchers")

	voucherCmd.AddCommand(voucherCreateCmd)
	voucherCmd.AddCommand(voucherEntriesCmd)
	voucherCmd.AddCommand(voucherListCmd)
	voucherCmd.AddCommand(voucherShowCmd)
	voucherCmd.AddCommand(voucherDateCmd)
	voucherCmd.AddCommand(voucherNoteCmd)
	voucherCmd.AddCommand(voucherRenameCmd)
	voucherCmd.AddCommand(voucherRenumberCmd)
	voucherCmd.AddCommand(voucherDeleteCmd)

	rootCmd.AddCommand(voucherCmd)
}
