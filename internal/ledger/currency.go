package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// LocalCurrencyName is the home currency created with every book.
const LocalCurrencyName = "人民币"

type Currency struct {
	Name    string `json:"name"`
	IsLocal bool   `json:"is_local"`
}

type ExchangeRate struct {
	ID            int64           `json:"-"`
	Currency      string          `json:"currency"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate time.Time       `json:"effective_date"`
}

var OneRate = decimal.NewFromInt(1)

// ParseRate parses a positive exchange rate.
func ParseRate(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Illegal(CodeInvalidRate, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, Illegal(CodeInvalidRate, s)
	}
	return d, nil
}
