package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoucherNumbers(t *testing.T) {
	jan := Date(2024, time.January, 1)
	assert.Equal(t, "2024-01/0003", VoucherNumber(jan, 3))
	assert.Equal(t, "2024-01/MECF", CarryForwardNumber(jan, SuffixMonthEnd))

	m, ok := VoucherMonth("2024-03/0012")
	require.True(t, ok)
	assert.Equal(t, Date(2024, time.March, 1), m)
	_, ok = VoucherMonth("misc-1")
	assert.False(t, ok)
	_, ok = VoucherMonth("2024-13/0001")
	assert.False(t, ok)

	n, ok := VoucherSequence("2024-03/0012")
	require.True(t, ok)
	assert.Equal(t, 12, n)
	_, ok = VoucherSequence("2024-03/MECF")
	assert.False(t, ok)
}

func TestParseVoucherCategory(t *testing.T) {
	c, err := ParseVoucherCategory("")
	require.NoError(t, err)
	assert.Equal(t, CategoryPosting, c)

	c, err = ParseVoucherCategory("月末结转")
	require.NoError(t, err)
	assert.Equal(t, CategoryMonthEnd, c)

	c, err = ParseVoucherCategory("exchange_gains_losses")
	require.NoError(t, err)
	assert.Equal(t, CategoryExchangeGainsLosses, c)

	_, err = ParseVoucherCategory("adjustment")
	assert.ErrorIs(t, err, ErrInvalidVoucherCategory)

	require.Len(t, VoucherCategories, len(categoryLabels))
	for _, want := range VoucherCategories {
		assert.True(t, want.Valid())
		for _, in := range []string{string(want), want.Label()} {
			got, err := ParseVoucherCategory(in)
			require.NoError(t, err)
			assert.Equal(t, want, got, in)
		}
	}
}

func TestVoucherBalanced(t *testing.T) {
	v := Voucher{
		Debits:  []Entry{{AccountCode: "1002.02", Currency: "美元", Amount: MustParseAmount("100"), ExchangeRate: decimal.NewFromInt(8)}},
		Credits: []Entry{{AccountCode: "6001", Currency: LocalCurrencyName, Amount: MustParseAmount("800"), ExchangeRate: OneRate}},
	}
	assert.True(t, v.Balanced())

	v.Credits[0].Amount = MustParseAmount("700")
	assert.False(t, v.Balanced())
}
