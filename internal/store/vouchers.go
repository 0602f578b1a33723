package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/ledgerbook/internal/ledger"
)

// VoucherFilter narrows ListVouchers. Zero values mean unbounded.
type VoucherFilter struct {
	From       time.Time
	Until      time.Time
	Categories []ledger.VoucherCategory
	Prefix     string
	Limit      int
}

func (t *Tx) InsertVoucher(ctx context.Context, v ledger.Voucher) error {
	_, err := t.exec(ctx, "insert voucher",
		`INSERT INTO vouchers (number, date, category, note) VALUES (?, ?, ?, ?)`,
		v.Number, formatDate(v.Date), string(v.Category), v.Note)
	return err
}

// GetVoucher returns the voucher header without entries.
func (t *Tx) GetVoucher(ctx context.Context, number string) (*ledger.Voucher, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT number, date, category, note FROM vouchers WHERE number = ?`, number)
	v, err := scanVoucher(row)
	if err == sql.ErrNoRows {
		return nil, ledger.NotFound(ledger.KindVoucher, number)
	}
	return v, err
}

// ListVouchers returns voucher headers ordered by date, then number.
func (t *Tx) ListVouchers(ctx context.Context, f VoucherFilter) ([]ledger.Voucher, error) {
	query := `SELECT number, date, category, note FROM vouchers WHERE 1=1`
	args := []any{}

	if !f.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, formatDate(f.From))
	}
	if !f.Until.IsZero() {
		query += ` AND date <= ?`
		args = append(args, formatDate(f.Until))
	}
	if len(f.Categories) > 0 {
		query += ` AND category IN (` + placeholders(len(f.Categories)) + `)`
		for _, c := range f.Categories {
			args = append(args, string(c))
		}
	}
	if f.Prefix != "" {
		query += ` AND substr(number, 1, ?) = ?`
		args = append(args, len(f.Prefix), f.Prefix)
	}

	query += ` ORDER BY date, number`

	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()

	var out []ledger.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// SetVoucherDate moves a voucher. Entries keep their snapshot rate and the
// rate record it was taken from.
func (t *Tx) SetVoucherDate(ctx context.Context, number string, date time.Time) error {
	return t.updateVoucher(ctx, number, `UPDATE vouchers SET date = ? WHERE number = ?`, formatDate(date), number)
}

func (t *Tx) SetVoucherNote(ctx context.Context, number, note string) error {
	return t.updateVoucher(ctx, number, `UPDATE vouchers SET note = ? WHERE number = ?`, note, number)
}

func (t *Tx) SetVoucherNumber(ctx context.Context, oldNumber, newNumber string) error {
	return t.updateVoucher(ctx, oldNumber, `UPDATE vouchers SET number = ? WHERE number = ?`, newNumber, oldNumber)
}

func (t *Tx) updateVoucher(ctx context.Context, number, query string, args ...any) error {
	res, err := t.exec(ctx, "update voucher", query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.NotFound(ledger.KindVoucher, number)
	}
	return nil
}

// DeleteVoucher removes the voucher; its entries cascade.
func (t *Tx) DeleteVoucher(ctx context.Context, number string) error {
	res, err := t.exec(ctx, "delete voucher", `DELETE FROM vouchers WHERE number = ?`, number)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.NotFound(ledger.KindVoucher, number)
	}
	return nil
}

var entryTables = []string{"debit_entries", "credit_entries"}

func entryTable(side ledger.Side) string {
	if side == ledger.SideCredit {
		return "credit_entries"
	}
	return "debit_entries"
}

// ClearEntries deletes every debit and credit entry of a voucher.
func (t *Tx) ClearEntries(ctx context.Context, number string) error {
	for _, table := range entryTables {
		if _, err := t.exec(ctx, "clear entries",
			`DELETE FROM `+table+` WHERE voucher_id = (SELECT id FROM vouchers WHERE number = ?)`, number); err != nil {
			return err
		}
	}
	return nil
}

// InsertEntry appends one entry to a voucher. rateID is the exchange rate
// record the snapshot rate was taken from; zero leaves the entry unlinked.
func (t *Tx) InsertEntry(ctx context.Context, number string, side ledger.Side, e ledger.Entry, rateID int64) error {
	table := entryTable(side)
	_, err := t.exec(ctx, "insert "+string(side)+" entry",
		`INSERT INTO `+table+` (voucher_id, account_id, currency, amount, exchange_rate, exchange_rate_id, brief)
		SELECT v.id, (SELECT id FROM accounts WHERE code = ?), ?, ?, ?, ?, ?
		FROM vouchers v WHERE v.number = ?`,
		e.AccountCode, e.Currency, e.Amount.Plain(), e.ExchangeRate.String(),
		sql.NullInt64{Int64: rateID, Valid: rateID != 0}, e.Brief, number)
	return err
}

// VoucherEntries returns a voucher's debit and credit entries in insertion order.
func (t *Tx) VoucherEntries(ctx context.Context, number string) (debits, credits []ledger.Entry, err error) {
	if debits, err = t.voucherEntries(ctx, "debit_entries", number); err != nil {
		return nil, nil, err
	}
	if credits, err = t.voucherEntries(ctx, "credit_entries", number); err != nil {
		return nil, nil, err
	}
	return debits, credits, nil
}

func (t *Tx) voucherEntries(ctx context.Context, table, number string) ([]ledger.Entry, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT a.code, e.currency, e.amount, e.exchange_rate, e.brief
		FROM `+table+` e
		JOIN accounts a ON a.id = e.account_id
		JOIN vouchers v ON v.id = e.voucher_id
		WHERE v.number = ? ORDER BY e.id`, number)
	if err != nil {
		return nil, fmt.Errorf("get entries: %w", err)
	}
	defer rows.Close()

	var out []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		var rate string
		if err := rows.Scan(&e.AccountCode, &e.Currency, &e.Amount, &rate, &e.Brief); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.ExchangeRate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("scan entry rate %q: %w", rate, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanVoucher(row scanner) (*ledger.Voucher, error) {
	var v ledger.Voucher
	var date, category string
	err := row.Scan(&v.Number, &date, &category, &v.Note)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan voucher: %w", err)
	}
	if v.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	v.Category = ledger.VoucherCategory(category)
	return &v, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
