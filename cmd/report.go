package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/simonvc/ledgerbook/internal/book"
	"github.com/simonvc/ledgerbook/internal/client"
	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/spf13/cobra"
)

// reportSource is satisfied by both an open book and an API client.
type reportSource interface {
	Meta(ctx context.Context) (*ledger.Meta, error)
	Accounts(ctx context.Context) ([]ledger.Account, error)
	IncurredBalances(ctx context.Context, code string, from, until time.Time) (*ledger.Balances, error)
	TrialBalance(ctx context.Context, from, until time.Time) ([]ledger.Balances, error)
	BalanceSheet(ctx context.Context, template string, until time.Time) (*ledger.BalanceSheet, error)
	BalanceSheetTemplates(ctx context.Context) ([]string, error)
}

var (
	_ reportSource = (*book.Book)(nil)
	_ reportSource = (*client.Client)(nil)
)

// withReports reads from --server when set, otherwise from the book file.
func withReports(ctx context.Context, fn func(reportSource) error) error {
	if flagServer != "" {
		return fn(client.New(flagServer))
	}
	return withBook(ctx, func(b *book.Book) error { return fn(b) })
}

var (
	reportFrom     string
	reportUntil    string
	reportTemplate string
	reportAll      bool
)

// reportWindow defaults to the current year up to today.
func reportWindow() (from, until time.Time, err error) {
	until = ledger.Day(time.Now())
	if reportUntil != "" {
		if until, err = ledger.ParseDate(reportUntil); err != nil {
			return
		}
	}
	from = ledger.FirstDayOfYear(until)
	if reportFrom != "" {
		from, err = ledger.ParseDate(reportFrom)
	}
	return
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Balances, trial balance and balance sheet",
}

var reportBalancesCmd = &cobra.Command{
	Use:   "balances [code]",
	Short: "Beginning, incurred and ending balances of one account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, until, err := reportWindow()
		if err != nil {
			return err
		}
		return withReports(cmd.Context(), func(src reportSource) error {
			bal, err := src.IncurredBalances(cmd.Context(), args[0], from, until)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printTitle(w, "Account "+bal.AccountCode, fmt.Sprintf("%s to %s", ledger.FormatDate(from), ledger.FormatDate(until)))
			t := newTable([]string{"", "Native", "Local"}, 1, 2).
				Row("Beginning", amountCell(bal.BeginningNative), bal.BeginningLocal.String()).
				Row("Debit", amountCell(bal.DebitNative), debitStyle.Render(bal.DebitLocal.String())).
				Row("Credit", amountCell(bal.CreditNative), creditStyle.Render(bal.CreditLocal.String())).
				Row("Ending", amountCell(bal.EndingNative), bal.EndingLocal.String())
			fmt.Fprintln(w, t)
			return nil
		})
	},
}

var reportTrialCmd = &cobra.Command{
	Use:   "trial",
	Short: "Trial balance of every account",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, until, err := reportWindow()
		if err != nil {
			return err
		}
		return withReports(cmd.Context(), func(src reportSource) error {
			accounts, err := src.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			tb, err := src.TrialBalance(cmd.Context(), from, until)
			if err != nil {
				return err
			}
			printTrialBalance(cmd.OutOrStdout(), accounts, tb, from, until, reportAll)
			return nil
		})
	},
}

func printTrialBalance(w io.Writer, accounts []ledger.Account, tb []ledger.Balances, from, until time.Time, all bool) {
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.Code] = a.Name
	}
	printTitle(w, "Trial Balance", fmt.Sprintf("%s to %s", ledger.FormatDate(from), ledger.FormatDate(until)))

	t := newTable([]string{"Code", "Account", "Beginning", "Debit", "Credit", "Ending"}, 2, 3, 4, 5)
	debit, credit := ledger.Zero, ledger.Zero
	for _, b := range tb {
		idle := b.BeginningLocal.IsZero() && b.DebitLocal.IsZero() && b.CreditLocal.IsZero()
		if idle && !all {
			continue
		}
		t.Row(b.AccountCode, names[b.AccountCode],
			b.BeginningLocal.String(), b.DebitLocal.String(), b.CreditLocal.String(), b.EndingLocal.String())
		if ledger.ParentCode(b.AccountCode) == "" {
			debit = debit.Add(b.DebitLocal)
			credit = credit.Add(b.CreditLocal)
		}
	}
	t.Row("", "Total", "", debitStyle.Render(debit.String()), creditStyle.Render(credit.String()), "")
	fmt.Fprintln(w, t)
}

var reportSheetCmd = &cobra.Command{
	Use:   "sheet",
	Short: "Evaluate a balance sheet template",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, until, err := reportWindow()
		if err != nil {
			return err
		}
		return withReports(cmd.Context(), func(src reportSource) error {
			name := reportTemplate
			if name == "" {
				names, err := src.BalanceSheetTemplates(cmd.Context())
				if err != nil {
					return err
				}
				if len(names) == 0 {
					return ledger.NotFound(ledger.KindTemplate, "")
				}
				name = names[0]
			}
			bs, err := src.BalanceSheet(cmd.Context(), name, until)
			if err != nil {
				return err
			}
			printBalanceSheet(cmd.OutOrStdout(), bs)
			return nil
		})
	},
}

func printBalanceSheet(w io.Writer, bs *ledger.BalanceSheet) {
	printTitle(w, bs.Template, fmt.Sprintf("%s to %s", ledger.FormatDate(bs.From), ledger.FormatDate(bs.Until)))
	for _, sec := range []struct {
		category ledger.BalanceSheetCategory
		rows     []ledger.BalanceSheetRow
	}{
		{ledger.SectionAssets, bs.Assets},
		{ledger.SectionLiabilitiesEquity, bs.LiabilitiesEquity},
	} {
		t := newTable([]string{sec.category.Label(), "Line", "Beginning", "Ending"}, 1, 2, 3)
		for _, r := range sec.rows {
			line := ""
			if r.LineNumber != nil {
				line = fmt.Sprint(*r.LineNumber)
			}
			t.Row(r.Item, line, amountCell(r.Beginning), amountCell(r.Ending))
		}
		fmt.Fprintln(w, t)
	}
}

func init() {
	for _, c := range []*cobra.Command{reportBalancesCmd, reportTrialCmd} {
		c.Flags().StringVar(&reportFrom, "from", "", "Window start, YYYY-MM-DD (default: first day of the year)")
	}
	for _, c := range []*cobra.Command{reportBalancesCmd, reportTrialCmd, reportSheetCmd} {
		c.Flags().StringVar(&reportUntil, "until", "", "Window end, YYYY-MM-DD (default: today)")
	}
	reportTrialCmd.Flags().BoolVar(&reportAll, "all", false, "Include accounts without movement")
	reportSheetCmd.Flags().StringVar(&reportTemplate, "template", "", "Template name (default: first template)")

	reportCmd.AddCommand(reportBalancesCmd)
	reportCmd.AddCommand(reportTrialCmd)
	reportCmd.AddCommand(reportSheetCmd)
	rootCmd.AddCommand(reportCmd)
}
