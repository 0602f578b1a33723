package cmd

import (
	"fmt"
	"time"

	"github.com/simonvc/ledgerbook/internal/book"
	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/spf13/cobra"
)

var currencyCmd = &cobra.Command{
	Use:   "currency",
	Short: "Manage currencies",
}

var currencyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List currencies with their current rate",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			currencies, err := b.Currencies(cmd.Context())
			if err != nil {
				return err
			}
			today := ledger.Day(time.Now())
			t := newTable([]string{"Currency", "Local", "Rate", "Since"}, 2)
			for _, c := range currencies {
				rate, err := b.ExchangeRateAt(cmd.Context(), c.Name, today)
				if err != nil {
					return err
				}
				local, r, since := "", "", ""
				if c.IsLocal {
					local = "yes"
				}
				if rate != nil {
					r, since = rate.Rate.String(), ledger.FormatDate(rate.EffectiveDate)
				}
				t.Row(c.Name, local, r, since)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
			return nil
		})
	},
}

var currencyCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Register a foreign currency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			if _, err := b.CreateCurrency(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Currency created: %s", args[0])
			return nil
		})
	},
}

var currencyDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete an unused foreign currency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			if err := b.DeleteCurrency(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Currency deleted: %s", args[0])
			return nil
		})
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Manage exchange rates",
}

var rateListCmd = &cobra.Command{
	Use:   "list [currency]",
	Short: "List a currency's rates, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			rates, err := b.ExchangeRates(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			t := newTable([]string{"Effective", "Rate"}, 1)
			for _, r := range rates {
				t.Row(ledger.FormatDate(r.EffectiveDate), r.Rate.String())
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
			return nil
		})
	},
}

var rateAddCmd = &cobra.Command{
	Use:   "add [currency] [rate] [YYYY-MM-DD]",
	Short: "Add a rate effective from a date",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		rate, err := ledger.ParseRate(args[1])
		if err != nil {
			return err
		}
		date, err := ledger.ParseDate(args[2])
		if err != nil {
			return err
		}
		return withBook(cmd.Context(), func(b *book.Book) error {
			if _, err := b.CreateExchangeRate(cmd.Context(), args[0], rate, date); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "%s = %s from %s", args[0], rate, args[2])
			return nil
		})
	},
}

var rateDeleteCmd = &cobra.Command{
	Use:   "delete [currency] [YYYY-MM-DD]",
	Short: "Delete a rate no entry was posted at",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := ledger.ParseDate(args[1])
		if err != nil {
			return err
		}
		return withBook(cmd.Context(), func(b *book.Book) error {
			return b.DeleteExchangeRate(cmd.Context(), args[0], date)
		})
	},
}

var rateAtCmd = &cobra.Command{
	Use:   "at [currency] [YYYY-MM-DD]",
	Short: "Show the rate in force on a date",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := ledger.ParseDate(args[1])
		if err != nil {
			return err
		}
		return withBook(cmd.Context(), func(b *book.Book) error {
			r, err := b.ExchangeRateAt(cmd.Context(), args[0], date)
			if err != nil {
				return err
			}
			if r == nil {
				return ledger.NotFound(ledger.KindRate, args[0]+"@"+args[1])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (since %s)\n", args[0], r.Rate, ledger.FormatDate(r.EffectiveDate))
			return nil
		})
	},
}

func init() {
	currencyCmd.AddCommand(currencyListCmd)
	currencyCmd.AddCommand(currencyCreateCmd)
	currencyCmd.AddCommand(currencyDeleteCmd)

	rateCmd.AddCommand(rateListCmd)
	rateCmd.AddCommand(rateAddCmd)
	rateCmd.AddCommand(rateDeleteCmd)
	rateCmd.AddCommand(rateAtCmd)

	rootCmd.AddCommand(currencyCmd)
	rootCmd.AddCommand(rateCmd)
}
