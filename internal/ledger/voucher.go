package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type VoucherCategory string

const (
	CategoryPosting             VoucherCategory = "posting"
	CategoryMonthEnd            VoucherCategory = "month_end"
	CategoryYearEnd             VoucherCategory = "year_end"
	CategoryExchangeGainsLosses VoucherCategory = "exchange_gains_losses"
)

// VoucherCategories lists every category in display order.
var VoucherCategories = []VoucherCategory{
	CategoryPosting,
	CategoryMonthEnd,
	CategoryYearEnd,
	CategoryExchangeGainsLosses,
}

var categoryLabels = map[VoucherCategory]string{
	CategoryPosting:             "记账",
	CategoryMonthEnd:            "月末结转",
	CategoryYearEnd:             "年末结转",
	CategoryExchangeGainsLosses: "汇兑损益结转",
}

func (c VoucherCategory) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

func (c VoucherCategory) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseVoucherCategory accepts either the key or the label. Empty input
// yields CategoryPosting.
func ParseVoucherCategory(s string) (VoucherCategory, error) {
	if s == "" {
		return CategoryPosting, nil
	}
	for _, c := range VoucherCategories {
		if s == string(c) || s == c.Label() {
			return c, nil
		}
	}
	return "", Illegal(CodeInvalidVoucherCategory, s)
}

type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

type Voucher struct {
	Number   string          `json:"number"`
	Date     time.Time       `json:"date"`
	Category VoucherCategory `json:"category"`
	Note     string          `json:"note,omitempty"`
	Debits   []Entry         `json:"debits"`
	Credits  []Entry         `json:"credits"`
}

// Entry is one debit or credit line. Amount is in Currency; its local value
// is Amount times the snapshotted ExchangeRate.
type Entry struct {
	AccountCode  string          `json:"account_code"`
	Currency     string          `json:"currency"`
	Amount       Amount          `json:"amount"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	Brief        string          `json:"brief,omitempty"`
}

func (e Entry) LocalAmount() Amount {
	return LocalAmount(e.Amount, e.ExchangeRate)
}

// SumLocal accumulates local values entry by entry.
func SumLocal(entries []Entry) Amount {
	total := Zero
	for _, e := range entries {
		total = total.Add(e.LocalAmount())
	}
	return total
}

// Balanced reports whether debit and credit local totals agree.
func (v Voucher) Balanced() bool {
	return SumLocal(v.Debits).Equal(SumLocal(v.Credits))
}

// Voucher number suffixes for generated carry-forward vouchers.
const (
	SuffixMonthEnd            = "MECF"
	SuffixYearEnd             = "YECF"
	SuffixExchangeGainsLosses = "EGL"
)

// VoucherNumber formats an ordinary voucher number, e.g. "2024-01/0003".
func VoucherNumber(month time.Time, seq int) string {
	return fmt.Sprintf("%s/%04d", FormatMonth(month), seq)
}

func CarryForwardNumber(month time.Time, suffix string) string {
	return FormatMonth(month) + "/" + suffix
}

// VoucherMonth extracts the month encoded in a "YYYY-MM/..." number.
func VoucherMonth(number string) (time.Time, bool) {
	prefix, _, ok := strings.Cut(number, "/")
	if !ok {
		return time.Time{}, false
	}
	m, err := ParseMonth(prefix)
	if err != nil {
		return time.Time{}, false
	}
	return m, true
}

// VoucherSequence returns NNNN of "YYYY-MM/NNNN", or false for other numbers.
func VoucherSequence(number string) (int, bool) {
	_, suffix, ok := strings.Cut(number, "/")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
