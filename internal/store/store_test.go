package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usd = "美元"

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "book.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seed writes two currencies, a small account tree and one rate.
func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		for _, c := range []ledger.Currency{{Name: ledger.LocalCurrencyName, IsLocal: true}, {Name: usd}} {
			if err := tx.InsertCurrency(ctx, c); err != nil {
				return err
			}
			if err := tx.InsertRate(ctx, ledger.ExchangeRate{Currency: c.Name, Rate: ledger.OneRate, EffectiveDate: ledger.EpochFloor}); err != nil {
				return err
			}
		}
		if err := tx.InsertRate(ctx, ledger.ExchangeRate{
			Currency: usd, Rate: decimal.RequireFromString("7.1"), EffectiveDate: ledger.Date(2024, time.January, 1),
		}); err != nil {
			return err
		}
		for _, a := range []ledger.Account{
			{Code: "1002", Name: "银行存款", Qualname: "银行存款", MajorCategory: "资产类", Direction: ledger.DirectionDebit},
			{Code: "1002.10", Name: "外币户", Qualname: "银行存款/外币户", ParentCode: "1002", MajorCategory: "资产类", Direction: ledger.DirectionDebit, Currency: usd, NeedExchangeGainsLosses: true},
			{Code: "1002.2", Name: "基本户", Qualname: "银行存款/基本户", ParentCode: "1002", MajorCategory: "资产类", Direction: ledger.DirectionDebit, Currency: ledger.LocalCurrencyName},
			{Code: "6001", Name: "主营业务收入", Qualname: "主营业务收入", MajorCategory: "损益类", Direction: ledger.DirectionCredit, Currency: ledger.LocalCurrencyName},
		} {
			if err := tx.InsertAccount(ctx, a); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestOpenMigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var n int
	require.NoError(t, s.View(context.Background(), func(tx *Tx) error {
		var err error
		n, err = tx.count(context.Background(), `SELECT COUNT(*) FROM schema_version`)
		return err
	}))
	assert.Equal(t, 1, n)
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Update(context.Background(), func(tx *Tx) error {
		_, err := tx.exec(context.Background(), "bump schema",
			`INSERT INTO schema_version (version) VALUES (?)`, SchemaVersion+1)
		return err
	}))
	require.NoError(t, s.Close())

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrSchemaTooNew)
}

func TestUpdateRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx *Tx) error {
		if err := tx.InsertCurrency(ctx, ledger.Currency{Name: usd}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.View(ctx, func(tx *Tx) error {
		_, err := tx.GetCurrency(ctx, usd)
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrCurrencyNotFound)
}

func TestUniqueViolation(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()

	err := s.Update(ctx, func(tx *Tx) error {
		return tx.InsertCurrency(ctx, ledger.Currency{Name: usd})
	})
	assert.ErrorIs(t, err, ErrUniqueViolation)

	err = s.Update(ctx, func(tx *Tx) error {
		return tx.InsertCurrency(ctx, ledger.Currency{Name: "第二本币", IsLocal: true})
	})
	assert.ErrorIs(t, err, ErrUniqueViolation, "only one local currency")
}

func TestAccounts(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		accounts, err := tx.ListAccounts(ctx)
		require.NoError(t, err)
		codes := make([]string, len(accounts))
		for i, a := range accounts {
			codes[i] = a.Code
		}
		assert.Equal(t, []string{"1002", "1002.2", "1002.10", "6001"}, codes)

		children, err := tx.Children(ctx, "1002")
		require.NoError(t, err)
		require.Len(t, children, 2)
		assert.Equal(t, "1002.2", children[0].Code)

		n, err := tx.CountChildren(ctx, "1002")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		a, err := tx.GetAccountByQualname(ctx, "银行存款/外币户")
		require.NoError(t, err)
		assert.Equal(t, "1002.10", a.Code)
		assert.Equal(t, "1002", a.ParentCode)
		assert.Equal(t, usd, a.Currency)
		assert.True(t, a.NeedExchangeGainsLosses)
		assert.Equal(t, ledger.DirectionDebit, a.Direction)

		_, err = tx.GetAccountByName(ctx, "不存在")
		assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

		n, err = tx.CountAccountsUsingCurrency(ctx, usd)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	}))

	err := s.Update(ctx, func(tx *Tx) error { return tx.DeleteAccount(ctx, "9999") })
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestRates(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		r, err := tx.RateAt(ctx, usd, ledger.Date(2023, time.December, 31))
		require.NoError(t, err)
		assert.True(t, r.Rate.Equal(ledger.OneRate))

		r, err = tx.RateAt(ctx, usd, ledger.Date(2024, time.January, 1))
		require.NoError(t, err)
		assert.Equal(t, "7.1", r.Rate.String())

		r, err = tx.RateAt(ctx, "欧元", ledger.Date(2024, time.January, 1))
		require.NoError(t, err)
		assert.Nil(t, r)

		rates, err := tx.ListRates(ctx, usd)
		require.NoError(t, err)
		require.Len(t, rates, 2)
		assert.Equal(t, ledger.Date(2024, time.January, 1), rates[0].EffectiveDate)

		_, err = tx.GetRate(ctx, usd, ledger.Date(2024, time.January, 2))
		assert.ErrorIs(t, err, ledger.ErrRateNotFound)
		return nil
	}))
}

func TestVoucherEntriesAndRateReferences(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()
	number := "2024-01/0001"

	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		if err := tx.InsertVoucher(ctx, ledger.Voucher{Number: number, Date: ledger.Date(2024, time.January, 10), Category: ledger.CategoryPosting}); err != nil {
			return err
		}
		r, err := tx.GetRate(ctx, usd, ledger.Date(2024, time.January, 1))
		if err != nil {
			return err
		}
		if err := tx.InsertEntry(ctx, number, ledger.SideDebit, ledger.Entry{
			AccountCode: "1002.10", Currency: usd, Amount: ledger.MustParseAmount("100"),
			ExchangeRate: decimal.RequireFromString("7.1"), Brief: "货款",
		}, r.ID); err != nil {
			return err
		}
		return tx.InsertEntry(ctx, number, ledger.SideCredit, ledger.Entry{
			AccountCode: "6001", Currency: ledger.LocalCurrencyName, Amount: ledger.MustParseAmount("710"),
			ExchangeRate: ledger.OneRate,
		}, 0)
	}))

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		debits, credits, err := tx.VoucherEntries(ctx, number)
		require.NoError(t, err)
		require.Len(t, debits, 1)
		require.Len(t, credits, 1)
		assert.Equal(t, "100.00", debits[0].Amount.Plain())
		assert.Equal(t, "货款", debits[0].Brief)

		r, err := tx.GetRate(ctx, usd, ledger.Date(2024, time.January, 1))
		require.NoError(t, err)
		n, err := tx.CountRateReferences(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		postings, err := tx.Postings(ctx, PostingFilter{AccountCodes: []string{"1002.10"}})
		require.NoError(t, err)
		require.Len(t, postings, 1)
		assert.Equal(t, ledger.SideDebit, postings[0].Side)
		assert.Equal(t, number, postings[0].VoucherNumber)
		assert.Equal(t, ledger.CategoryPosting, postings[0].VoucherCategory)

		postings, err = tx.Postings(ctx, PostingFilter{Exclude: []ledger.VoucherCategory{ledger.CategoryPosting}})
		require.NoError(t, err)
		assert.Empty(t, postings)
		return nil
	}))

	// Moving the voucher before the rate's effective date keeps both the
	// snapshot and its rate reference.
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		return tx.SetVoucherDate(ctx, number, ledger.Date(2023, time.December, 31))
	}))
	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		r, err := tx.GetRate(ctx, usd, ledger.Date(2024, time.January, 1))
		require.NoError(t, err)
		n, err := tx.CountRateReferences(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		debits, _, err := tx.VoucherEntries(ctx, number)
		require.NoError(t, err)
		assert.Equal(t, "7.1", debits[0].ExchangeRate.String())
		return nil
	}))

	require.NoError(t, s.Update(ctx, func(tx *Tx) error { return tx.DeleteVoucher(ctx, number) }))
	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		n, err := tx.CountAccountEntries(ctx, "1002.10")
		require.NoError(t, err)
		assert.Zero(t, n, "entries cascade with their voucher")
		return nil
	}))
}

func TestListVouchersFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		for _, v := range []ledger.Voucher{
			{Number: "2024-01/0001", Date: ledger.Date(2024, time.January, 5), Category: ledger.CategoryPosting},
			{Number: "2024-01/MECF", Date: ledger.Date(2024, time.January, 31), Category: ledger.CategoryMonthEnd},
			{Number: "2024-02/0001", Date: ledger.Date(2024, time.February, 1), Category: ledger.CategoryPosting},
		} {
			if err := tx.InsertVoucher(ctx, v); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		vs, err := tx.ListVouchers(ctx, VoucherFilter{Prefix: "2024-01/"})
		require.NoError(t, err)
		assert.Len(t, vs, 2)

		vs, err = tx.ListVouchers(ctx, VoucherFilter{Categories: []ledger.VoucherCategory{ledger.CategoryPosting}})
		require.NoError(t, err)
		assert.Len(t, vs, 2)

		vs, err = tx.ListVouchers(ctx, VoucherFilter{From: ledger.Date(2024, time.January, 31), Limit: 1})
		require.NoError(t, err)
		require.Len(t, vs, 1)
		assert.Equal(t, "2024-01/MECF", vs[0].Number)
		return nil
	}))
}

func TestTemplates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	one := 1
	lines := []ledger.BalanceSheetLine{
		{Category: ledger.SectionAssets, Item: "流动资产："},
		{Category: ledger.SectionAssets, Item: "货币资金", LineNumber: &one, Formula: "银行存款"},
		{Category: ledger.SectionLiabilitiesEquity, Item: "负债合计"},
	}

	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		if err := tx.InsertTemplate(ctx, "简表"); err != nil {
			return err
		}
		return tx.ReplaceTemplateLines(ctx, "简表", lines)
	}))

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		tmpl, err := tx.GetTemplate(ctx, "简表")
		require.NoError(t, err)
		assert.Equal(t, lines, tmpl.Lines())

		_, err = tx.GetTemplate(ctx, "缺失")
		assert.ErrorIs(t, err, ledger.ErrTemplateNotFound)
		return nil
	}))

	require.NoError(t, s.Update(ctx, func(tx *Tx) error { return tx.RenameTemplate(ctx, "简表", "新表") }))
	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		names, err := tx.ListTemplates(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"新表"}, names)
		return nil
	}))
	err := s.Update(ctx, func(tx *Tx) error { return tx.DeleteTemplate(ctx, "简表") })
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestMRU(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		for _, code := range []string{"6001", "1002.2", "6001", "6001", "1002.2", "1001"} {
			if err := tx.TouchMRU(ctx, code); err != nil {
				return err
			}
		}
		return tx.DeleteMRU(ctx, "1001")
	}))
	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		top, err := tx.TopMRU(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, []MRUAccount{{AccountCode: "6001", Hits: 3}, {AccountCode: "1002.2", Hits: 2}}, top)
		return nil
	}))
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newStore(db, db), mock
}

func TestUpdateCommitsOnSuccess(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO currencies").
		WithArgs(usd, int64(0)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.Update(ctx, func(tx *Tx) error {
		return tx.InsertCurrency(ctx, ledger.Currency{Name: usd})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRollbackOnExecError(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO currencies").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := s.Update(ctx, func(tx *Tx) error {
		return tx.InsertCurrency(ctx, ledger.Currency{Name: usd})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert currency")
	assert.NotErrorIs(t, err, ErrUniqueViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCommitFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	err := s.Update(context.Background(), func(tx *Tx) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestViewNeverCommits(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	require.NoError(t, s.View(context.Background(), func(tx *Tx) error { return nil }))
	assert.NoError(t, mock.ExpectationsWereMet())
}
