package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/ledgerbook/internal/ledger"
)

// Posting is an entry joined with its voucher header.
type Posting struct {
	ledger.Entry
	Side            ledger.Side
	VoucherNumber   string
	VoucherDate     time.Time
	VoucherCategory ledger.VoucherCategory
}

// PostingFilter selects postings. Zero values mean unbounded; From and Until
// are inclusive voucher dates.
type PostingFilter struct {
	AccountCodes []string
	From         time.Time
	Until        time.Time
	Categories   []ledger.VoucherCategory
	Exclude      []ledger.VoucherCategory
}

// Postings returns debit and credit entries matching f ordered by voucher
// date, voucher number, side and entry order.
func (t *Tx) Postings(ctx context.Context, f PostingFilter) ([]Posting, error) {
	var where string
	var args []any

	if len(f.AccountCodes) > 0 {
		where += ` AND a.code IN (` + placeholders(len(f.AccountCodes)) + `)`
		for _, c := range f.AccountCodes {
			args = append(args, c)
		}
	}
	if !f.From.IsZero() {
		where += ` AND v.date >= ?`
		args = append(args, formatDate(f.From))
	}
	if !f.Until.IsZero() {
		where += ` AND v.date <= ?`
		args = append(args, formatDate(f.Until))
	}
	if len(f.Categories) > 0 {
		where += ` AND v.category IN (` + placeholders(len(f.Categories)) + `)`
		for _, c := range f.Categories {
			args = append(args, string(c))
		}
	}
	if len(f.Exclude) > 0 {
		where += ` AND v.category NOT IN (` + placeholders(len(f.Exclude)) + `)`
		for _, c := range f.Exclude {
			args = append(args, string(c))
		}
	}

	query := `SELECT * FROM (
		SELECT 'debit' AS side, e.id AS eid, a.code, e.currency, e.amount, e.exchange_rate, e.brief, v.number, v.date, v.category
		FROM debit_entries e
		JOIN accounts a ON a.id = e.account_id
		JOIN vouchers v ON v.id = e.voucher_id
		WHERE 1=1` + where + `
		UNION ALL
		SELECT 'credit' AS side, e.id AS eid, a.code, e.currency, e.amount, e.exchange_rate, e.brief, v.number, v.date, v.category
		FROM credit_entries e
		JOIN accounts a ON a.id = e.account_id
		JOIN vouchers v ON v.id = e.voucher_id
		WHERE 1=1` + where + `
	) ORDER BY date, number, side DESC, eid`

	rows, err := t.tx.QueryContext(ctx, query, append(args, args...)...)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	defer rows.Close()

	var out []Posting
	for rows.Next() {
		var p Posting
		var side, rate, date, category string
		var eid int64
		if err := rows.Scan(&side, &eid, &p.AccountCode, &p.Currency, &p.Amount, &rate, &p.Brief,
			&p.VoucherNumber, &date, &category); err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		if p.ExchangeRate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("scan posting rate %q: %w", rate, err)
		}
		if p.VoucherDate, err = parseDate(date); err != nil {
			return nil, err
		}
		p.Side = ledger.Side(side)
		p.VoucherCategory = ledger.VoucherCategory(category)
		out = append(out, p)
	}
	return out, rows.Err()
}
