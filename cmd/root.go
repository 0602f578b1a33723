package cmd

import (
	"context"
	"fmt"

	"github.com/simonvc/ledgerbook/internal/book"
	"github.com/simonvc/ledgerbook/internal/config"
	"github.com/simonvc/ledgerbook/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagConfig string
	flagBook   string
	flagServer string
)

// Populated by PersistentPreRunE.
var (
	cfg  *config.Config
	zlog *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ledgerbook",
	Short: "Double-entry bookkeeping with multi-currency vouchers and period closing",
	Long: "A double-entry bookkeeping ledger backed by SQLite: chart of accounts, currencies with dated " +
		"exchange rates, vouchers, month-end and year-end carry-forward, exchange gain/loss revaluation " +
		"and a formula-driven balance sheet.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(flagConfig); err != nil {
			return err
		}
		if cmd.Flags().Changed("book") {
			cfg.Book = flagBook
		}
		if zlog, err = logger.New(cfg.Log.Logger()); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if zlog != nil {
			zlog.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ./ledgerbook.yaml or $HOME/.ledgerbook/ledgerbook.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagBook, "book", "", "Book file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "Read reports from a running server instead of the book file")
}

func Execute() error {
	return rootCmd.Execute()
}

// withBook opens the configured book for the duration of fn.
func withBook(ctx context.Context, fn func(*book.Book) error) error {
	b, err := book.Open(ctx, cfg.Book, book.WithLogger(zlog))
	if err != nil {
		return fmt.Errorf("%w (create one with `ledgerbook new`)", err)
	}
	defer b.Close()
	return fn(b)
}
