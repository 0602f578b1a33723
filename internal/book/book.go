// Package book is the bookkeeping engine: chart of accounts, currencies and
// rates, vouchers, period aggregation, carry-forward generation and balance
// sheet evaluation over one SQLite book.
package book

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/simonvc/ledgerbook/internal/store"
	"go.uber.org/zap"
)

var (
	ErrBookExists = errors.New("book file already exists")
	ErrNotABook   = errors.New("file is not an initialised book")
)

// Book is an open book. Every handle owns its store; opening another book
// returns a new handle.
type Book struct {
	store *store.Store
	log   *zap.Logger
	path  string
}

type Option func(*Book)

func WithLogger(l *zap.Logger) Option {
	return func(b *Book) {
		if l != nil {
			b.log = l
		}
	}
}

func newBook(st *store.Store, path string, opts []Option) *Book {
	b := &Book{store: st, log: zap.NewNop(), path: path}
	for _, o := range opts {
		o(b)
	}
	b.log = b.log.With(zap.String("book", filepath.Base(path)))
	return b
}

// NewParams configures a new book. Company defaults to the file's base name.
type NewParams struct {
	Company  string
	Standard string
	Month    time.Time
}

// New creates a book file at path seeded with the standard's chart of
// accounts, the local currency and a default balance sheet template.
func New(ctx context.Context, path string, p NewParams, opts ...Option) (*Book, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrBookExists, path)
	}
	std, err := ledger.LookupStandard(p.Standard)
	if err != nil {
		return nil, err
	}
	chart, err := std.Chart()
	if err != nil {
		return nil, err
	}
	tmpl, err := std.DefaultBalanceSheetTemplate()
	if err != nil {
		return nil, err
	}
	company := p.Company
	if company == "" {
		company = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	month := ledger.FirstDayOfMonth(p.Month)

	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	b := newBook(st, path, opts)

	err = st.Update(ctx, func(tx *store.Tx) error {
		if err := tx.InsertMeta(ctx, ledger.Meta{
			Version:    ledger.FormatVersion,
			BookID:     uuid.Must(uuid.NewV7()).String(),
			Standard:   std.Name,
			Company:    company,
			MonthFrom:  month,
			MonthUntil: month,
		}); err != nil {
			return err
		}

		if err := tx.InsertCurrency(ctx, ledger.Currency{Name: ledger.LocalCurrencyName, IsLocal: true}); err != nil {
			return err
		}
		if err := tx.InsertRate(ctx, ledger.ExchangeRate{
			Currency:      ledger.LocalCurrencyName,
			Rate:          ledger.OneRate,
			EffectiveDate: ledger.EpochFloor,
		}); err != nil {
			return err
		}

		qualnames := make(map[string]string, len(chart))
		for _, ca := range chart {
			parent := ledger.ParentCode(ca.Code)
			qualname := ledger.QualifiedName(qualnames[parent], ca.Name)
			qualnames[ca.Code] = qualname
			if err := tx.InsertAccount(ctx, ledger.Account{
				Code:          ca.Code,
				Name:          ca.Name,
				Qualname:      qualname,
				ParentCode:    parent,
				MajorCategory: ca.MajorCategory,
				Direction:     ca.Direction,
			}); err != nil {
				return fmt.Errorf("seed account %s: %w", ca.Code, err)
			}
		}

		// The generators post to these in the local currency.
		for _, code := range []string{std.ProfitAccount, std.RetainedEarningsAccount, std.ExchangeClearingAccount} {
			if err := tx.SetAccountCurrency(ctx, code, ledger.LocalCurrencyName, false); err != nil {
				return err
			}
		}

		if err := tx.InsertTemplate(ctx, tmpl.Name); err != nil {
			return err
		}
		return tx.ReplaceTemplateLines(ctx, tmpl.Name, tmpl.Lines())
	})
	if err != nil {
		st.Close()
		removeBookFiles(path)
		return nil, fmt.Errorf("create book: %w", err)
	}

	b.log.Info("book created",
		zap.String("standard", std.Name),
		zap.String("company", company),
		zap.String("month", ledger.FormatMonth(month)),
	)
	return b, nil
}

func removeBookFiles(path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		os.Remove(p)
	}
}

// Open opens an existing book.
func Open(ctx context.Context, path string, opts ...Option) (*Book, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open book: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	err = st.View(ctx, func(tx *store.Tx) error {
		_, err := tx.GetMeta(ctx)
		return err
	})
	if errors.Is(err, store.ErrNoMeta) {
		st.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotABook, path)
	}
	if err != nil {
		st.Close()
		return nil, err
	}
	return newBook(st, path, opts), nil
}

func (b *Book) Close() error {
	return b.store.Close()
}

func (b *Book) Path() string { return b.path }

func (b *Book) Meta(ctx context.Context) (*ledger.Meta, error) {
	var m *ledger.Meta
	err := b.store.View(ctx, func(tx *store.Tx) error {
		var err error
		m, err = tx.GetMeta(ctx)
		return err
	})
	return m, err
}

// Standard returns the accounting standard the book was created with.
func (b *Book) Standard(ctx context.Context) (ledger.Standard, error) {
	m, err := b.Meta(ctx)
	if err != nil {
		return ledger.Standard{}, err
	}
	return ledger.LookupStandard(m.Standard)
}

// ForwardToNextMonth extends the open period by one month.
func (b *Book) ForwardToNextMonth(ctx context.Context) (*ledger.Meta, error) {
	var m *ledger.Meta
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		if m, err = tx.GetMeta(ctx); err != nil {
			return err
		}
		m.MonthUntil = ledger.NextMonth(m.MonthUntil)
		return tx.SetMonthUntil(ctx, m.MonthUntil)
	})
	if err != nil {
		return nil, err
	}
	b.log.Info("period forwarded", zap.String("month_until", ledger.FormatMonth(m.MonthUntil)))
	return m, nil
}

// found reports whether a lookup succeeded, treating EntryNotFound as a
// plain miss.
func found(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ledger.ErrNotFound) {
		return false, nil
	}
	return false, err
}
