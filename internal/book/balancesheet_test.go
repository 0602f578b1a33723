package book

import (
	"context"
	"testing"
	"time"

	"github.com/simonvc/ledgerbook/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sheetYAML = `
name: 测试表
assets:
  - {item: 合计, line: 3, formula: "1+2"}
  - {item: 现金, line: 1, formula: "库存现金"}
  - {item: 现金减收入, line: 2, formula: "库存现金 + 主营业务收入"}
liabilities_equity:
  - {item: "负债："}
  - {item: 再合计, line: 4, formula: "1+2"}
`

func seedCashBook(t *testing.T) *Book {
	t.Helper()
	b := newTestBook(t)
	activate(t, b, ledger.LocalCurrencyName, "1001", "6001")
	post(t, b, "2024-01/0001", ledger.Date(2024, time.January, 8),
		[]ledger.Entry{localEntry("1001", "500")},
		[]ledger.Entry{localEntry("6001", "500")})
	return b
}

func endings(rows []ledger.BalanceSheetRow) map[string]string {
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		if r.Ending != nil {
			out[r.Item] = r.Ending.Plain()
		}
	}
	return out
}

func TestBalanceSheetLineReferences(t *testing.T) {
	ctx := context.Background()
	b := seedCashBook(t)

	tmpl, err := ledger.ParseBalanceSheetTemplate([]byte(sheetYAML))
	require.NoError(t, err)
	require.NoError(t, b.ImportBalanceSheetTemplate(ctx, tmpl))

	sheet, err := b.BalanceSheet(ctx, "测试表", ledger.Date(2024, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, ledger.Date(2024, time.January, 1), sheet.From)

	// Line 3 comes before lines 1 and 2, so it reads them as zero.
	assert.Equal(t, map[string]string{"合计": "0.00", "现金": "500.00", "现金减收入": "0.00"}, endings(sheet.Assets))
	assert.Equal(t, map[string]string{"再合计": "500.00"}, endings(sheet.LiabilitiesEquity))

	require.Len(t, sheet.LiabilitiesEquity, 2)
	header := sheet.LiabilitiesEquity[0]
	assert.Nil(t, header.Beginning)
	assert.Nil(t, header.Ending)
	assert.Equal(t, ledger.SectionLiabilitiesEquity, header.Category)
}

func TestBalanceSheetBeginningIsStartOfYear(t *testing.T) {
	ctx := context.Background()
	b := seedCashBook(t)
	tmpl, err := ledger.ParseBalanceSheetTemplate([]byte(sheetYAML))
	require.NoError(t, err)
	require.NoError(t, b.ImportBalanceSheetTemplate(ctx, tmpl))

	sheet, err := b.BalanceSheet(ctx, "测试表", ledger.Date(2025, time.March, 31))
	require.NoError(t, err)
	for _, r := range sheet.Assets {
		if r.Item == "现金" {
			assert.Equal(t, "500.00", r.Beginning.Plain())
			assert.Equal(t, "500.00", r.Ending.Plain())
		}
	}
}

func TestBalanceSheetUnknownAccount(t *testing.T) {
	ctx := context.Background()
	b := newTestBook(t)
	require.NoError(t, b.CreateBalanceSheetTemplate(ctx, "坏表"))
	line := 1
	require.NoError(t, b.UpdateBalanceSheetTemplate(ctx, "坏表",
		[]ledger.BalanceSheetLine{{Item: "x", LineNumber: &line, Formula: "银行存款/不存在"}}, nil))

	_, err := b.BalanceSheet(ctx, "坏表", ledger.Date(2024, time.January, 31))
	assert.ErrorIs(t, err, ledger.ErrUnknownFormulaAccount)

	err = b.UpdateBalanceSheetTemplate(ctx, "坏表",
		[]ledger.BalanceSheetLine{{Item: "x", LineNumber: &line, Formula: "1++2"}}, nil)
	assert.ErrorIs(t, err, ledger.ErrMalformedFormula)
}

func TestDefaultBalanceSheet(t *testing.T) {
	ctx := context.Background()
	b := seedCashBook(t)

	std, err := b.Standard(ctx)
	require.NoError(t, err)
	tmpl, err := std.DefaultBalanceSheetTemplate()
	require.NoError(t, err)

	sheet, err := b.BalanceSheet(ctx, tmpl.Name, ledger.Date(2024, time.January, 31))
	require.NoError(t, err)
	assert.Len(t, sheet.Assets, len(tmpl.Assets))
	assert.Len(t, sheet.LiabilitiesEquity, len(tmpl.LiabilitiesEquity))
	assert.Equal(t, "500.00", endings(sheet.Assets)["货币资金"])
}

func TestBalanceSheetTemplateLifecycle(t *testing.T) {
	ctx := context.Background()
	b := newTestBook(t)

	require.NoError(t, b.CreateBalanceSheetTemplate(ctx, "甲"))
	assert.ErrorIs(t, b.CreateBalanceSheetTemplate(ctx, "甲"), ledger.ErrDuplicateTemplate)
	assert.ErrorIs(t, b.CreateBalanceSheetTemplate(ctx, ""), ledger.ErrInvalidName)

	tmpl, err := ledger.ParseBalanceSheetTemplate([]byte(sheetYAML))
	require.NoError(t, err)
	tmpl.Name = "甲"
	require.NoError(t, b.ImportBalanceSheetTemplate(ctx, tmpl))

	require.NoError(t, b.CopyBalanceSheetTemplate(ctx, "甲", "乙"))
	copied, err := b.BalanceSheetTemplate(ctx, "乙")
	require.NoError(t, err)
	assert.Len(t, copied.Lines(), 5)

	assert.ErrorIs(t, b.RenameBalanceSheetTemplate(ctx, "乙", "甲"), ledger.ErrDuplicateTemplate)
	require.NoError(t, b.RenameBalanceSheetTemplate(ctx, "乙", "丙"))
	_, err = b.BalanceSheetTemplate(ctx, "乙")
	assert.ErrorIs(t, err, ledger.ErrTemplateNotFound)

	require.NoError(t, b.DeleteBalanceSheetTemplate(ctx, "丙"))
	assert.ErrorIs(t, b.DeleteBalanceSheetTemplate(ctx, "丙"), ledger.ErrTemplateNotFound)
	assert.ErrorIs(t, b.UpdateBalanceSheetTemplate(ctx, "丙", nil, nil), ledger.ErrTemplateNotFound)

	names, err := b.BalanceSheetTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestIncurredBalancesRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := seedForeignBook(t)
	_, err := b.CreateVoucher(ctx, "2024-02/0001", ledger.Date(2024, time.February, 5), ledger.CategoryPosting, "")
	require.NoError(t, err)
	require.NoError(t, b.UpdateDebitCreditEntries(ctx, "2024-02/0001",
		[]ledger.Entry{localEntry("6001", "70")},
		[]ledger.Entry{{AccountCode: "1002.02", Currency: usd, Amount: amt("10"), ExchangeRate: rate("7")}}))

	bal, err := b.IncurredBalances(ctx, "1002.02", feb, ledger.Date(2024, time.February, 29))
	require.NoError(t, err)
	require.NotNil(t, bal.BeginningNative)
	assert.Equal(t, "100.00", bal.BeginningNative.Plain())
	assert.Equal(t, "700.00", bal.BeginningLocal.Plain())
	assert.Equal(t, "10.00", bal.CreditNative.Plain())
	assert.Equal(t, "70.00", bal.CreditLocal.Plain())
	assert.Equal(t, "90.00", bal.EndingNative.Plain())
	assert.Equal(t, "630.00", bal.EndingLocal.Plain())

	// Branches aggregate local figures only.
	branch, err := b.IncurredBalances(ctx, "1002", feb, ledger.Date(2024, time.February, 29))
	require.NoError(t, err)
	assert.Nil(t, branch.EndingNative)
	assert.Equal(t, "630.00", branch.EndingLocal.Plain())

	rows, err := b.TrialBalance(ctx, jan, ledger.Date(2024, time.February, 29))
	require.NoError(t, err)
	debit, credit := ledger.Zero, ledger.Zero
	for _, r := range rows {
		a, err := b.Account(ctx, r.AccountCode)
		require.NoError(t, err)
		assert.True(t, r.EndingLocal.Equal(r.BeginningLocal.Add(r.DebitLocal).Sub(r.CreditLocal)), r.AccountCode)
		if a.ParentCode == "" {
			debit, credit = debit.Add(r.DebitLocal), credit.Add(r.CreditLocal)
		}
	}
	assert.True(t, debit.Equal(credit), "%s != %s", debit, credit)

	_, err = b.IncurredBalances(ctx, "9999", jan, feb)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}
