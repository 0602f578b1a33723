package book

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/simonvc/ledgerbook/internal/store"
	"go.uber.org/zap"
)

// CreateCurrency registers a currency with a seed rate of 1 at the epoch floor.
func (b *Book) CreateCurrency(ctx context.Context, name string) (*ledger.Currency, error) {
	if name == "" || strings.TrimSpace(name) != name {
		return nil, ledger.Illegal(ledger.CodeInvalidName, name)
	}
	cur := &ledger.Currency{Name: name}
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		_, err := tx.GetCurrency(ctx, name)
		ok, err := found(err)
		if err != nil {
			return err
		}
		if ok {
			return ledger.Illegal(ledger.CodeDuplicateCurrency, name)
		}
		if err := tx.InsertCurrency(ctx, *cur); err != nil {
			return err
		}
		return tx.InsertRate(ctx, ledger.ExchangeRate{
			Currency:      name,
			Rate:          ledger.OneRate,
			EffectiveDate: ledger.EpochFloor,
		})
	})
	if err != nil {
		return nil, err
	}
	b.log.Info("currency created", zap.String("currency", name))
	return cur, nil
}

// DeleteCurrency removes a foreign currency no account or entry uses.
func (b *Book) DeleteCurrency(ctx context.Context, name string) error {
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		cur, err := tx.GetCurrency(ctx, name)
		if err != nil {
			return err
		}
		if cur.IsLocal {
			return ledger.Illegal(ledger.CodeLocalCurrency, name)
		}
		n, err := tx.CountAccountsUsingCurrency(ctx, name)
		if err != nil {
			return err
		}
		if n > 0 {
			return ledger.Illegal(ledger.CodeCurrencyInUse, name)
		}
		if n, err = tx.CountEntriesInCurrency(ctx, name); err != nil {
			return err
		}
		if n > 0 {
			return ledger.Illegal(ledger.CodeCurrencyInUse, name)
		}
		return tx.DeleteCurrency(ctx, name)
	})
	if err != nil {
		return err
	}
	b.log.Info("currency deleted", zap.String("currency", name))
	return nil
}

func (b *Book) Currency(ctx context.Context, name string) (*ledger.Currency, error) {
	var cur *ledger.Currency
	err := b.store.View(ctx, func(tx *store.Tx) error {
		var err error
		cur, err = tx.GetCurrency(ctx, name)
		return err
	})
	return cur, err
}

func (b *Book) LocalCurrency(ctx context.Context) (*ledger.Currency, error) {
	var cur *ledger.Currency
	err := b.store.View(ctx, func(tx *store.Tx) error {
		var err error
		cur, err = tx.GetLocalCurrency(ctx)
		return err
	})
	return cur, err
}

func (b *Book) Currencies(ctx context.Context) ([]ledger.Currency, error) {
	var out []ledger.Currency
	err := b.store.View(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.ListCurrencies(ctx)
		return err
	})
	return out, err
}

// CreateExchangeRate adds a rate for a foreign currency effective from date.
func (b *Book) CreateExchangeRate(ctx context.Context, currency string, rate decimal.Decimal, date time.Time) (*ledger.ExchangeRate, error) {
	r := &ledger.ExchangeRate{Currency: currency, Rate: rate, EffectiveDate: ledger.Day(date)}
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		cur, err := tx.GetCurrency(ctx, currency)
		if err != nil {
			return err
		}
		if cur.IsLocal {
			return ledger.Illegal(ledger.CodeLocalCurrency, currency)
		}
		if !rate.IsPositive() {
			return ledger.Illegal(ledger.CodeInvalidRate, rate.String())
		}
		_, err = tx.GetRate(ctx, currency, r.EffectiveDate)
		ok, err := found(err)
		if err != nil {
			return err
		}
		if ok {
			return ledger.Illegal(ledger.CodeDuplicateRate, currency+"@"+ledger.FormatDate(r.EffectiveDate))
		}
		return tx.InsertRate(ctx, *r)
	})
	if err != nil {
		return nil, err
	}
	b.log.Info("exchange rate created",
		zap.String("currency", currency),
		zap.String("rate", rate.String()),
		zap.String("effective_date", ledger.FormatDate(r.EffectiveDate)),
	)
	return r, nil
}

// DeleteExchangeRate removes a rate no entry snapshot was taken from.
func (b *Book) DeleteExchangeRate(ctx context.Context, currency string, date time.Time) error {
	date = ledger.Day(date)
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		cur, err := tx.GetCurrency(ctx, currency)
		if err != nil {
			return err
		}
		if cur.IsLocal {
			return ledger.Illegal(ledger.CodeLocalCurrency, currency)
		}
		r, err := tx.GetRate(ctx, currency, date)
		if err != nil {
			return err
		}
		n, err := tx.CountRateReferences(ctx, r.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return ledger.Illegal(ledger.CodeRateInUse, currency+"@"+ledger.FormatDate(date))
		}
		return tx.DeleteRate(ctx, currency, date)
	})
	if err != nil {
		return err
	}
	b.log.Info("exchange rate deleted",
		zap.String("currency", currency),
		zap.String("effective_date", ledger.FormatDate(date)),
	)
	return nil
}

// ExchangeRateAt returns the latest rate effective on or before date, or nil
// when the currency has no such rate.
func (b *Book) ExchangeRateAt(ctx context.Context, currency string, date time.Time) (*ledger.ExchangeRate, error) {
	var r *ledger.ExchangeRate
	err := b.store.View(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetCurrency(ctx, currency); err != nil {
			return err
		}
		var err error
		r, err = tx.RateAt(ctx, currency, ledger.Day(date))
		return err
	})
	return r, err
}

// ExchangeRates lists a currency's rates, newest first.
func (b *Book) ExchangeRates(ctx context.Context, currency string) ([]ledger.ExchangeRate, error) {
	var out []ledger.ExchangeRate
	err := b.store.View(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetCurrency(ctx, currency); err != nil {
			return err
		}
		var err error
		out, err = tx.ListRates(ctx, currency)
		return err
	})
	return out, err
}
