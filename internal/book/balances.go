package book

import (
	"context"
	"time"

	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/simonvc/ledgerbook/internal/store"
)

// leafTotals accumulates one leaf's postings. Native figures only count
// entries posted in the account's own currency.
type leafTotals struct {
	beginNative, beginLocal   ledger.Amount
	debitNative, debitLocal   ledger.Amount
	creditNative, creditLocal ledger.Amount
}

func (l *leafTotals) add(p store.Posting, native, beginning bool) {
	local := p.LocalAmount()
	switch {
	case beginning && p.Side == ledger.SideDebit:
		l.beginLocal = l.beginLocal.Add(local)
		if native {
			l.beginNative = l.beginNative.Add(p.Amount)
		}
	case beginning:
		l.beginLocal = l.beginLocal.Sub(local)
		if native {
			l.beginNative = l.beginNative.Sub(p.Amount)
		}
	case p.Side == ledger.SideDebit:
		l.debitLocal = l.debitLocal.Add(local)
		if native {
			l.debitNative = l.debitNative.Add(p.Amount)
		}
	default:
		l.creditLocal = l.creditLocal.Add(local)
		if native {
			l.creditNative = l.creditNative.Add(p.Amount)
		}
	}
}

// snapshot is the chart plus per-leaf totals for the window [from, until].
// Postings dated before from count toward the beginning balance.
type snapshot struct {
	tree   *accountTree
	totals map[string]*leafTotals
}

func takeSnapshot(ctx context.Context, tx *store.Tx, from, until time.Time) (*snapshot, error) {
	accounts, err := tx.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	postings, err := tx.Postings(ctx, store.PostingFilter{Until: until})
	if err != nil {
		return nil, err
	}
	s := &snapshot{tree: newAccountTree(accounts), totals: make(map[string]*leafTotals)}
	for _, p := range postings {
		i, ok := s.tree.lookup(p.AccountCode)
		if !ok {
			continue
		}
		l := s.totals[p.AccountCode]
		if l == nil {
			l = &leafTotals{}
			s.totals[p.AccountCode] = l
		}
		l.add(p, p.Currency == s.tree.nodes[i].Currency, p.VoucherDate.Before(from))
	}
	return s, nil
}

func (s *snapshot) balances(code string) (ledger.Balances, error) {
	i, ok := s.tree.lookup(code)
	if !ok {
		return ledger.Balances{}, ledger.NotFound(ledger.KindAccount, code)
	}
	return s.balancesAt(i), nil
}

func (s *snapshot) balancesAt(i int) ledger.Balances {
	acct := s.tree.nodes[i]
	out := ledger.Balances{AccountCode: acct.Code}

	if s.tree.isLeaf(i) {
		l := s.totals[acct.Code]
		if l == nil {
			l = &leafTotals{}
		}
		out.BeginningLocal = l.beginLocal
		out.DebitLocal = l.debitLocal
		out.CreditLocal = l.creditLocal
		out.EndingLocal = l.beginLocal.Add(l.debitLocal).Sub(l.creditLocal)
		if acct.HasCurrency() {
			ending := l.beginNative.Add(l.debitNative).Sub(l.creditNative)
			out.BeginningNative = ptr(l.beginNative)
			out.DebitNative = ptr(l.debitNative)
			out.CreditNative = ptr(l.creditNative)
			out.EndingNative = &ending
		}
		return out
	}

	for _, leaf := range s.tree.leaves(i) {
		l := s.totals[s.tree.nodes[leaf].Code]
		if l == nil {
			continue
		}
		out.BeginningLocal = out.BeginningLocal.Add(l.beginLocal)
		out.DebitLocal = out.DebitLocal.Add(l.debitLocal)
		out.CreditLocal = out.CreditLocal.Add(l.creditLocal)
	}
	out.EndingLocal = out.BeginningLocal.Add(out.DebitLocal).Sub(out.CreditLocal)
	return out
}

func ptr(a ledger.Amount) *ledger.Amount { return &a }

// IncurredBalances reports beginning, incurred and ending figures of an
// account for [from, until]. Branch accounts sum their leaves in local
// currency only.
func (b *Book) IncurredBalances(ctx context.Context, code string, from, until time.Time) (*ledger.Balances, error) {
	var out ledger.Balances
	err := b.store.View(ctx, func(tx *store.Tx) error {
		s, err := takeSnapshot(ctx, tx, ledger.Day(from), ledger.Day(until))
		if err != nil {
			return err
		}
		out, err = s.balances(code)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// EndingBalance returns the native (nil for branches) and local ending
// balance of an account as of until.
func (b *Book) EndingBalance(ctx context.Context, code string, until time.Time) (*ledger.Amount, ledger.Amount, error) {
	var out ledger.Balances
	err := b.store.View(ctx, func(tx *store.Tx) error {
		var err error
		out, err = endingBalance(ctx, tx, code, ledger.Day(until))
		return err
	})
	return out.EndingNative, out.EndingLocal, err
}

func endingBalance(ctx context.Context, tx *store.Tx, code string, until time.Time) (ledger.Balances, error) {
	s, err := takeSnapshot(ctx, tx, ledger.EpochFloor, until)
	if err != nil {
		return ledger.Balances{}, err
	}
	return s.balances(code)
}

// TrialBalance reports IncurredBalances for every account, ordered by code.
func (b *Book) TrialBalance(ctx context.Context, from, until time.Time) ([]ledger.Balances, error) {
	var out []ledger.Balances
	err := b.store.View(ctx, func(tx *store.Tx) error {
		s, err := takeSnapshot(ctx, tx, ledger.Day(from), ledger.Day(until))
		if err != nil {
			return err
		}
		out = make([]ledger.Balances, 0, len(s.tree.nodes))
		for i := range s.tree.nodes {
			out = append(out, s.balancesAt(i))
		}
		return nil
	})
	return out, err
}
