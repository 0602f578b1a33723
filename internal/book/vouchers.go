package book

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/simonvc/ledgerbook/internal/store"
	"go.uber.org/zap"
)

// VoucherFilter narrows Vouchers. Zero values mean unbounded.
type VoucherFilter = store.VoucherFilter

// CreateVoucher adds an empty voucher. A number of the form "YYYY-MM/..."
// pins the voucher date to that month.
func (b *Book) CreateVoucher(ctx context.Context, number string, date time.Time, category ledger.VoucherCategory, note string) (*ledger.Voucher, error) {
	v := &ledger.Voucher{Number: number, Date: ledger.Day(date), Category: category, Note: note}
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		return createVoucher(ctx, tx, *v)
	})
	if err != nil {
		return nil, err
	}
	b.log.Info("voucher created",
		zap.String("number", number),
		zap.String("date", ledger.FormatDate(v.Date)),
		zap.String("category", string(category)),
	)
	return v, nil
}

func createVoucher(ctx context.Context, tx *store.Tx, v ledger.Voucher) error {
	if strings.TrimSpace(v.Number) == "" {
		return ledger.Illegal(ledger.CodeInvalidName, v.Number)
	}
	if !v.Category.Valid() {
		return ledger.Illegal(ledger.CodeInvalidVoucherCategory, string(v.Category))
	}
	if err := checkVoucherDate(v.Number, v.Date); err != nil {
		return err
	}
	_, err := tx.GetVoucher(ctx, v.Number)
	ok, err := found(err)
	if err != nil {
		return err
	}
	if ok {
		return ledger.Illegal(ledger.CodeDuplicateVoucher, v.Number)
	}
	return tx.InsertVoucher(ctx, v)
}

func checkVoucherDate(number string, date time.Time) error {
	if month, ok := ledger.VoucherMonth(number); ok && !ledger.SameMonth(month, date) {
		return ledger.Illegal(ledger.CodeVoucherDate, number+" "+ledger.FormatDate(date))
	}
	return nil
}

// NextVoucherNumber returns the number following the highest ordinary
// voucher of month, e.g. "2024-01/0004".
func (b *Book) NextVoucherNumber(ctx context.Context, month time.Time) (string, error) {
	var next int
	err := b.store.View(ctx, func(tx *store.Tx) error {
		vs, err := tx.ListVouchers(ctx, store.VoucherFilter{Prefix: ledger.FormatMonth(month) + "/"})
		if err != nil {
			return err
		}
		for _, v := range vs {
			if seq, ok := ledger.VoucherSequence(v.Number); ok && seq > next {
				next = seq
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return ledger.VoucherNumber(month, next+1), nil
}

// SetVoucherDate moves a voucher within its month. Entry snapshot rates are
// left unchanged.
func (b *Book) SetVoucherDate(ctx context.Context, number string, date time.Time) error {
	date = ledger.Day(date)
	return b.UpdateVoucherHeader(ctx, number, VoucherHeader{Date: &date})
}

func (b *Book) SetVoucherNote(ctx context.Context, number, note string) error {
	return b.UpdateVoucherHeader(ctx, number, VoucherHeader{Note: &note})
}

func (b *Book) ChangeVoucherNumber(ctx context.Context, oldNumber, newNumber string) error {
	return b.UpdateVoucherHeader(ctx, oldNumber, VoucherHeader{Number: &newNumber})
}

// VoucherHeader holds the header fields to change. Nil fields are kept.
type VoucherHeader struct {
	Date   *time.Time
	Note   *string
	Number *string
}

// UpdateVoucherHeader applies date, note and number changes in that order,
// all or nothing.
func (b *Book) UpdateVoucherHeader(ctx context.Context, number string, h VoucherHeader) error {
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		v, err := tx.GetVoucher(ctx, number)
		if err != nil {
			return err
		}
		if h.Date != nil {
			date := ledger.Day(*h.Date)
			if !ledger.SameMonth(v.Date, date) {
				return ledger.Illegal(ledger.CodeVoucherDate, number+" "+ledger.FormatDate(date))
			}
			if err := tx.SetVoucherDate(ctx, number, date); err != nil {
				return err
			}
			v.Date = date
		}
		if h.Note != nil {
			if err := tx.SetVoucherNote(ctx, number, *h.Note); err != nil {
				return err
			}
		}
		if h.Number != nil && *h.Number != number {
			return renameVoucher(ctx, tx, v, *h.Number)
		}
		return nil
	})
	if err != nil {
		return err
	}

	fields := []zap.Field{zap.String("number", number)}
	if h.Date != nil {
		fields = append(fields, zap.String("date", ledger.FormatDate(*h.Date)))
	}
	if h.Note != nil {
		fields = append(fields, zap.String("note", *h.Note))
	}
	if h.Number != nil && *h.Number != number {
		fields = append(fields, zap.String("renamed_to", *h.Number))
	}
	b.log.Info("voucher header updated", fields...)
	return nil
}

func renameVoucher(ctx context.Context, tx *store.Tx, v *ledger.Voucher, newNumber string) error {
	if strings.TrimSpace(newNumber) == "" {
		return ledger.Illegal(ledger.CodeInvalidName, newNumber)
	}
	if err := checkVoucherDate(newNumber, v.Date); err != nil {
		return err
	}
	_, err := tx.GetVoucher(ctx, newNumber)
	ok, err := found(err)
	if err != nil {
		return err
	}
	if ok {
		return ledger.Illegal(ledger.CodeDuplicateVoucher, newNumber)
	}
	return tx.SetVoucherNumber(ctx, v.Number, newNumber)
}

// DeleteVoucher removes a voucher and all its entries.
func (b *Book) DeleteVoucher(ctx context.Context, number string) error {
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		return tx.DeleteVoucher(ctx, number)
	})
	if err != nil {
		return err
	}
	b.log.Info("voucher deleted", zap.String("number", number))
	return nil
}

// RenumberVouchers closes gaps in the ordinary voucher sequence of month,
// keeping the existing order. It returns the number of vouchers renamed.
func (b *Book) RenumberVouchers(ctx context.Context, month time.Time) (int, error) {
	renamed := 0
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		vs, err := tx.ListVouchers(ctx, store.VoucherFilter{
			Prefix:     ledger.FormatMonth(month) + "/",
			Categories: []ledger.VoucherCategory{ledger.CategoryPosting},
		})
		if err != nil {
			return err
		}
		type numbered struct {
			number string
			seq    int
		}
		var seqs []numbered
		for _, v := range vs {
			if seq, ok := ledger.VoucherSequence(v.Number); ok {
				seqs = append(seqs, numbered{v.Number, seq})
			}
		}
		slices.SortFunc(seqs, func(a, b numbered) int { return a.seq - b.seq })

		// Two passes through unused temporary numbers so no rename collides.
		tmp := make([]string, len(seqs))
		for i, n := range seqs {
			if n.seq == i+1 {
				continue
			}
			if tmp[i], err = unusedNumber(ctx, tx, fmt.Sprintf("%s/~renumber-%d", ledger.FormatMonth(month), i)); err != nil {
				return err
			}
			if err := tx.SetVoucherNumber(ctx, n.number, tmp[i]); err != nil {
				return err
			}
		}
		for i, n := range seqs {
			if n.seq == i+1 {
				continue
			}
			if err := tx.SetVoucherNumber(ctx, tmp[i], ledger.VoucherNumber(month, i+1)); err != nil {
				return err
			}
			renamed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if renamed > 0 {
		b.log.Info("vouchers renumbered", zap.String("month", ledger.FormatMonth(month)), zap.Int("count", renamed))
	}
	return renamed, nil
}

func unusedNumber(ctx context.Context, tx *store.Tx, base string) (string, error) {
	for k := 0; ; k++ {
		number := base
		if k > 0 {
			number = fmt.Sprintf("%s.%d", base, k)
		}
		_, err := tx.GetVoucher(ctx, number)
		taken, err := found(err)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
	}
}

// Voucher returns a voucher with its entries.
func (b *Book) Voucher(ctx context.Context, number string) (*ledger.Voucher, error) {
	var v *ledger.Voucher
	err := b.store.View(ctx, func(tx *store.Tx) error {
		var err error
		v, err = loadVoucher(ctx, tx, number)
		return err
	})
	return v, err
}

func loadVoucher(ctx context.Context, tx *store.Tx, number string) (*ledger.Voucher, error) {
	v, err := tx.GetVoucher(ctx, number)
	if err != nil {
		return nil, err
	}
	if v.Debits, v.Credits, err = tx.VoucherEntries(ctx, number); err != nil {
		return nil, err
	}
	return v, nil
}

// Vouchers lists vouchers with their entries, ordered by date and number.
func (b *Book) Vouchers(ctx context.Context, f VoucherFilter) ([]ledger.Voucher, error) {
	var out []ledger.Voucher
	err := b.store.View(ctx, func(tx *store.Tx) error {
		vs, err := tx.ListVouchers(ctx, f)
		if err != nil {
			return err
		}
		for _, v := range vs {
			if v.Debits, v.Credits, err = tx.VoucherEntries(ctx, v.Number); err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

// UpdateDebitCreditEntries replaces every entry of a voucher. The whole
// replacement is rejected unless the local totals of both sides agree.
func (b *Book) UpdateDebitCreditEntries(ctx context.Context, number string, debits, credits []ledger.Entry) error {
	var total ledger.Amount
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		total, err = replaceEntries(ctx, tx, number, debits, credits)
		return err
	})
	if err != nil {
		return err
	}
	b.log.Info("voucher entries updated",
		zap.String("number", number),
		zap.Int("debits", len(debits)),
		zap.Int("credits", len(credits)),
		zap.String("total", total.Plain()),
	)
	return nil
}

func replaceEntries(ctx context.Context, tx *store.Tx, number string, debits, credits []ledger.Entry) (ledger.Amount, error) {
	v, err := tx.GetVoucher(ctx, number)
	if err != nil {
		return ledger.Zero, err
	}
	if err := tx.ClearEntries(ctx, number); err != nil {
		return ledger.Zero, err
	}

	debitTotal, err := insertEntries(ctx, tx, v, ledger.SideDebit, debits)
	if err != nil {
		return ledger.Zero, err
	}
	creditTotal, err := insertEntries(ctx, tx, v, ledger.SideCredit, credits)
	if err != nil {
		return ledger.Zero, err
	}
	if !debitTotal.Equal(creditTotal) {
		return ledger.Zero, ledger.Illegal(ledger.CodeDebitCreditMismatch,
			fmt.Sprintf("%s debit %s credit %s", number, debitTotal, creditTotal))
	}
	return debitTotal, nil
}

func insertEntries(ctx context.Context, tx *store.Tx, v *ledger.Voucher, side ledger.Side, entries []ledger.Entry) (ledger.Amount, error) {
	total := ledger.Zero
	for _, e := range entries {
		acct, err := tx.GetAccount(ctx, e.AccountCode)
		if err != nil {
			return ledger.Zero, err
		}
		if !acct.HasCurrency() {
			return ledger.Zero, ledger.Illegal(ledger.CodeEntryAccountCurrency, e.AccountCode)
		}
		if _, err := tx.GetCurrency(ctx, e.Currency); err != nil {
			return ledger.Zero, err
		}
		if !e.Amount.IsPositive() || !e.ExchangeRate.IsPositive() {
			return ledger.Zero, ledger.Illegal(ledger.CodeInvalidEntry,
				fmt.Sprintf("%s %s @ %s", e.AccountCode, e.Amount.Plain(), e.ExchangeRate))
		}
		rateID, err := sourceRate(ctx, tx, e, v.Date)
		if err != nil {
			return ledger.Zero, err
		}
		if err := tx.InsertEntry(ctx, v.Number, side, e, rateID); err != nil {
			return ledger.Zero, err
		}
		total = total.Add(e.LocalAmount())
	}
	return total, nil
}

// sourceRate finds the rate record an entry's snapshot was taken from: the
// newest rate of its currency effective on or before date with the same
// value. Zero means the rate was entered by hand.
func sourceRate(ctx context.Context, tx *store.Tx, e ledger.Entry, date time.Time) (int64, error) {
	rates, err := tx.ListRates(ctx, e.Currency)
	if err != nil {
		return 0, err
	}
	for _, r := range rates {
		if !r.EffectiveDate.After(date) && r.Rate.Equal(e.ExchangeRate) {
			return r.ID, nil
		}
	}
	return 0, nil
}

// EntryAtVoucherDate builds an entry in the account's currency using the
// rate effective at the voucher's date.
func (b *Book) EntryAtVoucherDate(ctx context.Context, number, accountCode string, amount ledger.Amount, brief string) (ledger.Entry, error) {
	var e ledger.Entry
	err := b.store.View(ctx, func(tx *store.Tx) error {
		v, err := tx.GetVoucher(ctx, number)
		if err != nil {
			return err
		}
		acct, err := tx.GetAccount(ctx, accountCode)
		if err != nil {
			return err
		}
		if !acct.HasCurrency() {
			return ledger.Illegal(ledger.CodeEntryAccountCurrency, accountCode)
		}
		r, err := tx.RateAt(ctx, acct.Currency, v.Date)
		if err != nil {
			return err
		}
		if r == nil {
			return ledger.NotFound(ledger.KindRate, acct.Currency+"@"+ledger.FormatDate(v.Date))
		}
		e = ledger.Entry{
			AccountCode:  accountCode,
			Currency:     acct.Currency,
			Amount:       amount,
			ExchangeRate: r.Rate,
			Brief:        brief,
		}
		return nil
	})
	return e, err
}
