package cmd

import (
	"fmt"
	"time"

	"github.com/simonvc/ledgerbook/internal/book"
	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/spf13/cobra"
)

var (
	newCompany  string
	newStandard string
	newMonth    string
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new book",
	Long: "Create a new book file seeded with the chosen standard's chart of accounts, the local " +
		"currency and a default balance sheet template.",
	RunE: func(cmd *cobra.Command, args []string) error {
		month := ledger.FirstDayOfMonth(time.Now())
		if newMonth != "" {
			m, err := ledger.ParseMonth(newMonth)
			if err != nil {
				return err
			}
			month = m
		}
		standard := cfg.Standard
		if newStandard != "" {
			standard = newStandard
		}

		b, err := book.New(cmd.Context(), cfg.Book, book.NewParams{
			Company:  newCompany,
			Standard: standard,
			Month:    month,
		}, book.WithLogger(zlog))
		if err != nil {
			return err
		}
		defer b.Close()

		printSuccess(cmd.OutOrStdout(), "Book created: %s (%s, from %s)", cfg.Book, standard, ledger.FormatMonth(month))
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show book details",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withReports(cmd.Context(), func(src reportSource) error {
			m, err := src.Meta(cmd.Context())
			if err != nil {
				return err
			}
			printMeta(cmd, m)
			return nil
		})
	},
}

var forwardCmd = &cobra.Command{
	Use:   "forward",
	Short: "Open the next month",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBook(cmd.Context(), func(b *book.Book) error {
			m, err := b.ForwardToNextMonth(cmd.Context())
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Open period: %s to %s",
				ledger.FormatMonth(m.MonthFrom), ledger.FormatMonth(m.MonthUntil))
			return nil
		})
	},
}

func printMeta(cmd *cobra.Command, m *ledger.Meta) {
	w := cmd.OutOrStdout()
	printTitle(w, m.Company, m.Standard)
	printField(w, "Book ID", m.BookID)
	printField(w, "Format", fmt.Sprintf("%s (schema %d)", m.Version, m.SchemaVersion))
	printField(w, "Open period", fmt.Sprintf("%s to %s", ledger.FormatMonth(m.MonthFrom), ledger.FormatMonth(m.MonthUntil)))
}

func init() {
	newCmd.Flags().StringVar(&newCompany, "company", "", "Company name (default: book file name)")
	newCmd.Flags().StringVar(&newStandard, "standard", "", "Accounting standard (default from config)")
	newCmd.Flags().StringVar(&newMonth, "month", "", "First open month, YYYY-MM (default: current month)")

	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(forwardCmd)
}
