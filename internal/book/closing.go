package book

import (
	"context"
	"fmt"
	"time"

	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/simonvc/ledgerbook/internal/store"
	"go.uber.org/zap"
)

// Proposal is a generated carry-forward voucher that has not been written.
type Proposal struct {
	Number   string                 `json:"number"`
	Date     time.Time              `json:"date"`
	Category ledger.VoucherCategory `json:"category"`
	Debits   []ledger.Entry         `json:"debits"`
	Credits  []ledger.Entry         `json:"credits"`
}

// Empty reports whether the proposal has nothing to post.
func (p Proposal) Empty() bool {
	return len(p.Debits) == 0 && len(p.Credits) == 0
}

// EntryChange is one entry present on only one side of a Preview diff.
type EntryChange struct {
	Side ledger.Side `json:"side"`
	ledger.Entry
}

// Preview compares a proposal with the voucher already carrying its number.
type Preview struct {
	Proposal Proposal        `json:"proposal"`
	Existing *ledger.Voucher `json:"existing,omitempty"`
	Added    []EntryChange   `json:"added"`
	Removed  []EntryChange   `json:"removed"`
	UpToDate bool            `json:"up_to_date"`
}

// closingContext carries what every generator needs from the book.
type closingContext struct {
	std   ledger.Standard
	local string
}

func loadClosingContext(ctx context.Context, tx *store.Tx) (closingContext, error) {
	m, err := tx.GetMeta(ctx)
	if err != nil {
		return closingContext{}, err
	}
	std, err := ledger.LookupStandard(m.Standard)
	if err != nil {
		return closingContext{}, err
	}
	local, err := tx.GetLocalCurrency(ctx)
	if err != nil {
		return closingContext{}, err
	}
	return closingContext{std: std, local: local.Name}, nil
}

// PreviewMonthEnd proposes the month-end voucher that zeroes the closing
// categories of month into the current-year profit account.
func (b *Book) PreviewMonthEnd(ctx context.Context, month time.Time) (*Preview, error) {
	return b.preview(ctx, func(tx *store.Tx) (Proposal, error) {
		return monthEndProposal(ctx, tx, month)
	})
}

func monthEndProposal(ctx context.Context, tx *store.Tx, month time.Time) (Proposal, error) {
	cc, err := loadClosingContext(ctx, tx)
	if err != nil {
		return Proposal{}, err
	}
	first, last := ledger.FirstDayOfMonth(month), ledger.LastDayOfMonth(month)
	p := Proposal{
		Number:   ledger.CarryForwardNumber(month, ledger.SuffixMonthEnd),
		Date:     last,
		Category: ledger.CategoryMonthEnd,
	}

	accounts, err := tx.ListAccounts(ctx)
	if err != nil {
		return Proposal{}, err
	}
	tree := newAccountTree(accounts)
	var codes []string
	for i, a := range accounts {
		if tree.isLeaf(i) && cc.std.IsClosingAccount(a.Code) {
			codes = append(codes, a.Code)
		}
	}
	if len(codes) == 0 {
		return p, nil
	}

	postings, err := tx.Postings(ctx, store.PostingFilter{
		AccountCodes: codes,
		From:         first,
		Until:        last,
		Exclude:      []ledger.VoucherCategory{ledger.CategoryMonthEnd, ledger.CategoryYearEnd},
	})
	if err != nil {
		return Proposal{}, err
	}
	net := make(map[string]ledger.Amount, len(codes))
	for _, pst := range postings {
		if pst.Side == ledger.SideDebit {
			net[pst.AccountCode] = net[pst.AccountCode].Add(pst.LocalAmount())
		} else {
			net[pst.AccountCode] = net[pst.AccountCode].Sub(pst.LocalAmount())
		}
	}
	nets := make([]ledger.AccountNet, 0, len(net))
	for _, code := range codes {
		if n, ok := net[code]; ok {
			nets = append(nets, ledger.AccountNet{AccountCode: code, Net: n})
		}
	}
	p.Debits, p.Credits = ledger.MonthEndEntries(nets, cc.std.ProfitAccount, cc.local, ledger.CategoryMonthEnd.Label())
	return p, nil
}

// PreviewYearEnd proposes the transfer of the year's month-end profit to
// retained earnings. Only the year of the argument is used.
func (b *Book) PreviewYearEnd(ctx context.Context, year time.Time) (*Preview, error) {
	return b.preview(ctx, func(tx *store.Tx) (Proposal, error) {
		return yearEndProposal(ctx, tx, year)
	})
}

func yearEndProposal(ctx context.Context, tx *store.Tx, year time.Time) (Proposal, error) {
	cc, err := loadClosingContext(ctx, tx)
	if err != nil {
		return Proposal{}, err
	}
	last := ledger.LastDayOfYear(year)
	p := Proposal{
		Number:   ledger.CarryForwardNumber(last, ledger.SuffixYearEnd),
		Date:     last,
		Category: ledger.CategoryYearEnd,
	}
	postings, err := tx.Postings(ctx, store.PostingFilter{
		AccountCodes: []string{cc.std.ProfitAccount},
		From:         ledger.FirstDayOfYear(year),
		Until:        last,
		Categories:   []ledger.VoucherCategory{ledger.CategoryMonthEnd},
	})
	if err != nil {
		return Proposal{}, err
	}
	net := ledger.Zero
	for _, pst := range postings {
		if pst.Side == ledger.SideDebit {
			net = net.Add(pst.LocalAmount())
		} else {
			net = net.Sub(pst.LocalAmount())
		}
	}
	p.Debits, p.Credits = ledger.YearEndEntries(net, cc.std.ProfitAccount, cc.std.RetainedEarningsAccount,
		cc.local, ledger.CategoryYearEnd.Label())
	return p, nil
}

// PreviewExchangeGainsLosses proposes the revaluation of every flagged
// foreign-currency leaf at the rate in force on the last day of month.
func (b *Book) PreviewExchangeGainsLosses(ctx context.Context, month time.Time) (*Preview, error) {
	return b.preview(ctx, func(tx *store.Tx) (Proposal, error) {
		return exchangeGainsLossesProposal(ctx, tx, month)
	})
}

func exchangeGainsLossesProposal(ctx context.Context, tx *store.Tx, month time.Time) (Proposal, error) {
	cc, err := loadClosingContext(ctx, tx)
	if err != nil {
		return Proposal{}, err
	}
	first, last := ledger.FirstDayOfMonth(month), ledger.LastDayOfMonth(month)
	prevEnd := ledger.LastDayOfPreviousMonth(month)
	p := Proposal{
		Number:   ledger.CarryForwardNumber(month, ledger.SuffixExchangeGainsLosses),
		Date:     last,
		Category: ledger.CategoryExchangeGainsLosses,
	}

	brought, err := takeSnapshot(ctx, tx, ledger.EpochFloor, prevEnd)
	if err != nil {
		return Proposal{}, err
	}
	brief := ledger.CategoryExchangeGainsLosses.Label()
	post := func(account string, delta ledger.Amount) {
		if d, c, ok := ledger.RevaluationEntries(account, cc.std.ExchangeClearingAccount, delta, cc.local, brief); ok {
			p.Debits = append(p.Debits, d)
			p.Credits = append(p.Credits, c)
		}
	}

	for i, acct := range brought.tree.nodes {
		if !acct.NeedExchangeGainsLosses || !acct.HasCurrency() || !brought.tree.isLeaf(i) {
			continue
		}
		rate, err := tx.RateAt(ctx, acct.Currency, last)
		if err != nil {
			return Proposal{}, err
		}
		if rate == nil {
			return Proposal{}, ledger.NotFound(ledger.KindRate, acct.Currency+"@"+ledger.FormatDate(last))
		}

		bal := brought.balancesAt(i)
		post(acct.Code, ledger.LocalAmount(*bal.EndingNative, rate.Rate).Sub(bal.EndingLocal))

		postings, err := tx.Postings(ctx, store.PostingFilter{
			AccountCodes: []string{acct.Code},
			From:         first,
			Until:        last,
		})
		if err != nil {
			return Proposal{}, err
		}
		for _, pst := range postings {
			if pst.Currency != acct.Currency {
				continue
			}
			delta := ledger.LocalAmount(pst.Amount, rate.Rate.Sub(pst.ExchangeRate))
			if pst.Side == ledger.SideCredit {
				delta = delta.Neg()
			}
			post(acct.Code, delta)
		}
	}
	return p, nil
}

func (b *Book) preview(ctx context.Context, propose func(*store.Tx) (Proposal, error)) (*Preview, error) {
	var pv *Preview
	err := b.store.View(ctx, func(tx *store.Tx) error {
		p, err := propose(tx)
		if err != nil {
			return err
		}
		existing, err := loadVoucher(ctx, tx, p.Number)
		if _, err := found(err); err != nil {
			return err
		}
		pv = diffProposal(p, existing)
		return nil
	})
	return pv, err
}

type entryKey struct {
	side     ledger.Side
	account  string
	currency string
	amount   string
	rate     string
	brief    string
}

func keyOf(side ledger.Side, e ledger.Entry) entryKey {
	return entryKey{side, e.AccountCode, e.Currency, e.Amount.Plain(), e.ExchangeRate.String(), e.Brief}
}

// diffProposal compares entries as multisets.
func diffProposal(p Proposal, existing *ledger.Voucher) *Preview {
	pv := &Preview{Proposal: p, Existing: existing, Added: []EntryChange{}, Removed: []EntryChange{}}

	have := make(map[entryKey]int)
	if existing != nil {
		for _, e := range existing.Debits {
			have[keyOf(ledger.SideDebit, e)]++
		}
		for _, e := range existing.Credits {
			have[keyOf(ledger.SideCredit, e)]++
		}
	}
	want := make(map[entryKey]int)
	check := func(side ledger.Side, entries []ledger.Entry) {
		for _, e := range entries {
			k := keyOf(side, e)
			want[k]++
			if have[k] >= want[k] {
				continue
			}
			pv.Added = append(pv.Added, EntryChange{Side: side, Entry: e})
		}
	}
	check(ledger.SideDebit, p.Debits)
	check(ledger.SideCredit, p.Credits)

	if existing != nil {
		seen := make(map[entryKey]int)
		drop := func(side ledger.Side, entries []ledger.Entry) {
			for _, e := range entries {
				k := keyOf(side, e)
				seen[k]++
				if seen[k] > want[k] {
					pv.Removed = append(pv.Removed, EntryChange{Side: side, Entry: e})
				}
			}
		}
		drop(ledger.SideDebit, existing.Debits)
		drop(ledger.SideCredit, existing.Credits)
	}

	switch {
	case existing == nil:
		pv.UpToDate = p.Empty()
	default:
		pv.UpToDate = len(pv.Added) == 0 && len(pv.Removed) == 0 &&
			existing.Date.Equal(p.Date) && existing.Category == p.Category
	}
	return pv
}

// ApplyMonthEnd generates and writes the month-end voucher of month in one
// unit of work.
func (b *Book) ApplyMonthEnd(ctx context.Context, month time.Time) (*ledger.Voucher, error) {
	return b.apply(ctx, func(tx *store.Tx) (Proposal, error) { return monthEndProposal(ctx, tx, month) })
}

// ApplyYearEnd generates and writes the year-end voucher of year.
func (b *Book) ApplyYearEnd(ctx context.Context, year time.Time) (*ledger.Voucher, error) {
	return b.apply(ctx, func(tx *store.Tx) (Proposal, error) { return yearEndProposal(ctx, tx, year) })
}

// ApplyExchangeGainsLosses generates and writes the revaluation voucher of
// month.
func (b *Book) ApplyExchangeGainsLosses(ctx context.Context, month time.Time) (*ledger.Voucher, error) {
	return b.apply(ctx, func(tx *store.Tx) (Proposal, error) { return exchangeGainsLossesProposal(ctx, tx, month) })
}

// apply generates a proposal and writes it in the same unit of work: the
// voucher carrying its number is created or reused and its entries replaced.
// An empty proposal removes a stale voucher. It returns the written voucher,
// or nil when nothing remains.
func (b *Book) apply(ctx context.Context, propose func(*store.Tx) (Proposal, error)) (*ledger.Voucher, error) {
	var p Proposal
	var out *ledger.Voucher
	err := b.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		if p, err = propose(tx); err != nil {
			return err
		}
		out, err = applyProposal(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	b.log.Info("carry-forward applied",
		zap.String("number", p.Number),
		zap.String("category", string(p.Category)),
		zap.Int("debits", len(p.Debits)),
		zap.Int("credits", len(p.Credits)),
	)
	return out, nil
}

func applyProposal(ctx context.Context, tx *store.Tx, p Proposal) (*ledger.Voucher, error) {
	existing, err := tx.GetVoucher(ctx, p.Number)
	ok, err := found(err)
	if err != nil {
		return nil, err
	}

	if p.Empty() {
		if ok {
			return nil, tx.DeleteVoucher(ctx, p.Number)
		}
		return nil, nil
	}

	switch {
	case !ok:
		if err := createVoucher(ctx, tx, ledger.Voucher{Number: p.Number, Date: p.Date, Category: p.Category}); err != nil {
			return nil, err
		}
	case existing.Category != p.Category:
		return nil, ledger.Illegal(ledger.CodeDuplicateVoucher, fmt.Sprintf("%s is a %s voucher", p.Number, existing.Category.Label()))
	case !existing.Date.Equal(p.Date):
		if err := tx.SetVoucherDate(ctx, p.Number, p.Date); err != nil {
			return nil, err
		}
	}
	if _, err := replaceEntries(ctx, tx, p.Number, p.Debits, p.Credits); err != nil {
		return nil, err
	}
	return loadVoucher(ctx, tx, p.Number)
}
