package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/ledgerbook/internal/ledger"
)

func (t *Tx) InsertCurrency(ctx context.Context, c ledger.Currency) error {
	_, err := t.exec(ctx, "insert currency",
		`INSERT INTO currencies (name, is_local) VALUES (?, ?)`, c.Name, boolToInt(c.IsLocal))
	return err
}

func (t *Tx) GetCurrency(ctx context.Context, name string) (*ledger.Currency, error) {
	var c ledger.Currency
	var isLocal int
	err := t.tx.QueryRowContext(ctx,
		`SELECT name, is_local FROM currencies WHERE name = ?`, name).Scan(&c.Name, &isLocal)
	if err == sql.ErrNoRows {
		return nil, ledger.NotFound(ledger.KindCurrency, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get currency: %w", err)
	}
	c.IsLocal = isLocal == 1
	return &c, nil
}

func (t *Tx) GetLocalCurrency(ctx context.Context) (*ledger.Currency, error) {
	var name string
	err := t.tx.QueryRowContext(ctx, `SELECT name FROM currencies WHERE is_local = 1`).Scan(&name)
	if err == sql.ErrNoRows {
		return nil, ledger.NotFound(ledger.KindCurrency, "local")
	}
	if err != nil {
		return nil, fmt.Errorf("get local currency: %w", err)
	}
	return &ledger.Currency{Name: name, IsLocal: true}, nil
}

// ListCurrencies returns the local currency first, then the rest by name.
func (t *Tx) ListCurrencies(ctx context.Context) ([]ledger.Currency, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT name, is_local FROM currencies ORDER BY is_local DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	defer rows.Close()

	var out []ledger.Currency
	for rows.Next() {
		var c ledger.Currency
		var isLocal int
		if err := rows.Scan(&c.Name, &isLocal); err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		c.IsLocal = isLocal == 1
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *Tx) DeleteCurrency(ctx context.Context, name string) error {
	res, err := t.exec(ctx, "delete currency", `DELETE FROM currencies WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.NotFound(ledger.KindCurrency, name)
	}
	return nil
}

// CountAccountsUsingCurrency counts accounts whose currency is name.
func (t *Tx) CountAccountsUsingCurrency(ctx context.Context, name string) (int, error) {
	return t.count(ctx,
		`SELECT COUNT(*) FROM accounts a JOIN currencies c ON c.id = a.currency_id WHERE c.name = ?`, name)
}

// CountEntriesInCurrency counts entries posted in currency name.
func (t *Tx) CountEntriesInCurrency(ctx context.Context, name string) (int, error) {
	return t.count(ctx, `SELECT
		(SELECT COUNT(*) FROM debit_entries WHERE currency = ?) +
		(SELECT COUNT(*) FROM credit_entries WHERE currency = ?)`, name, name)
}

func (t *Tx) InsertRate(ctx context.Context, r ledger.ExchangeRate) error {
	_, err := t.exec(ctx, "insert exchange rate",
		`INSERT INTO exchange_rates (currency_id, rate, effective_date)
		VALUES ((SELECT id FROM currencies WHERE name = ?), ?, ?)`,
		r.Currency, r.Rate.String(), formatDate(r.EffectiveDate))
	return err
}

// GetRate returns the rate effective exactly at date.
func (t *Tx) GetRate(ctx context.Context, currency string, date time.Time) (*ledger.ExchangeRate, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT r.id, c.name, r.rate, r.effective_date
		FROM exchange_rates r JOIN currencies c ON c.id = r.currency_id
		WHERE c.name = ? AND r.effective_date = ?`, currency, formatDate(date))
	r, err := scanRate(row)
	if err == sql.ErrNoRows {
		return nil, ledger.NotFound(ledger.KindRate, currency+"@"+formatDate(date))
	}
	return r, err
}

// RateAt returns the rate with the greatest effective date on or before
// date, or nil when none qualifies.
func (t *Tx) RateAt(ctx context.Context, currency string, date time.Time) (*ledger.ExchangeRate, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT r.id, c.name, r.rate, r.effective_date
		FROM exchange_rates r JOIN currencies c ON c.id = r.currency_id
		WHERE c.name = ? AND r.effective_date <= ?
		ORDER BY r.effective_date DESC LIMIT 1`, currency, formatDate(date))
	r, err := scanRate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// ListRates returns a currency's rates, newest first.
func (t *Tx) ListRates(ctx context.Context, currency string) ([]ledger.ExchangeRate, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT r.id, c.name, r.rate, r.effective_date
		FROM exchange_rates r JOIN currencies c ON c.id = r.currency_id
		WHERE c.name = ? ORDER BY r.effective_date DESC`, currency)
	if err != nil {
		return nil, fmt.Errorf("list exchange rates: %w", err)
	}
	defer rows.Close()

	var out []ledger.ExchangeRate
	for rows.Next() {
		r, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (t *Tx) DeleteRate(ctx context.Context, currency string, date time.Time) error {
	res, err := t.exec(ctx, "delete exchange rate", `DELETE FROM exchange_rates
		WHERE currency_id = (SELECT id FROM currencies WHERE name = ?) AND effective_date = ?`,
		currency, formatDate(date))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.NotFound(ledger.KindRate, currency+"@"+formatDate(date))
	}
	return nil
}

// CountRateReferences counts entries whose snapshot was taken from rateID.
func (t *Tx) CountRateReferences(ctx context.Context, rateID int64) (int, error) {
	return t.count(ctx, `SELECT
		(SELECT COUNT(*) FROM debit_entries WHERE exchange_rate_id = ?) +
		(SELECT COUNT(*) FROM credit_entries WHERE exchange_rate_id = ?)`, rateID, rateID)
}

func scanRate(row scanner) (*ledger.ExchangeRate, error) {
	var r ledger.ExchangeRate
	var rate, date string
	err := row.Scan(&r.ID, &r.Currency, &rate, &date)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan exchange rate: %w", err)
	}
	if r.Rate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("scan exchange rate %q: %w", rate, err)
	}
	if r.EffectiveDate, err = parseDate(date); err != nil {
		return nil, err
	}
	return &r, nil
}
